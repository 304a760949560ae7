// Package server wires storage, the sharded transaction coordinator and
// the command dispatch core into TCP listeners: one speaking RESP, and
// one, if configured, speaking the classic Memcached text protocol.
//
// Both listeners route every command through the same dispatch.Registry,
// so GET/SET/DEL behave identically regardless of which wire protocol a
// client used to reach them. Protocol-specific behavior (Memcached's
// STORED/NOT_FOUND vocabulary, RESP's typed replies) lives entirely in the
// ReplyBuilder each connection installs on its ConnContext.
package server

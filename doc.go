// Package kvcore wires together the command-dispatch core of an in-memory
// key-value server: a command registry, a per-connection state machine,
// a sharded transaction coordinator, a Memcached-to-Redis adapter, and an
// embedded scripting subsystem.
//
// The core does not own a network listener or the storage engine itself;
// those are external collaborators (see package server and package
// storage). kvcore's job starts once a connection has parsed a command
// into an argv slice and ends once a reply has been written through the
// connection's active dispatch.ReplyBuilder.
//
// Basic usage:
//
//	reg := dispatch.NewRegistry()
//	commands.Register(reg) // string/generic/scripting/system families
//
//	st := dispatch.NewServerState(reg, store, shardCount, cfg)
//	cc := dispatch.NewConnContext(st, replyBuilder)
//
//	dispatch.DispatchCommand(argv, cc)
//
// The package supports:
//   - RESP and Memcached text wire compatibility via pluggable ReplyBuilder variants
//   - MULTI/EXEC transaction queueing with EXECABORT semantics
//   - EVAL/EVALSHA scripting with a write-through SHA1 script cache
//   - Replica read-only enforcement and requirepass-gated authentication
package kvcore

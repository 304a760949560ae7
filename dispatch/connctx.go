package dispatch

import (
	"sync/atomic"

	"kvcore"
	"kvcore/script"
	"kvcore/storage"
	"kvcore/txn"
)

// AuthMask tracks a connection's authentication state (spec.md §3 "REQ_AUTH
// / AUTHENTICATED").
type AuthMask uint8

const (
	// ReqAuth is set on a freshly accepted connection when the server has a
	// requirepass configured: every command but AUTH/QUIT/HELLO is rejected
	// until Authenticated is also set.
	ReqAuth AuthMask = 1 << iota
	// Authenticated is set once the connection has presented the correct
	// password.
	Authenticated
)

// ExecState is the MULTI/EXEC state machine (spec.md §4.4).
type ExecState int

const (
	// ExecInactive is the default state: commands run immediately.
	ExecInactive ExecState = iota
	// ExecCollect means a MULTI is open and subsequent commands are queued
	// rather than run.
	ExecCollect
	// ExecError means a command sent during MULTI failed one of
	// DispatchCommand's checks before it could be queued (for example an
	// unknown command or bad arity); EXEC will refuse to run and instead
	// reply with ErrExecAbort.
	ExecError
)

// GlobalStatus is the server-wide availability state (spec.md §5).
type GlobalStatus int32

const (
	// Active accepts all commands.
	Active GlobalStatus = iota
	// Loading only accepts commands flagged OptLoading.
	Loading
	// ShuttingDown rejects all new commands except those already
	// in-flight.
	ShuttingDown
)

// StoredCmd is one command queued during MULTI, replayed by EXEC
// (spec.md §4.4).
type StoredCmd struct {
	Argv []string
	Cid  *CommandID
}

// ScriptInfo is attached to a ConnContext for the duration of a single
// EVAL/EVALSHA call: it records the KEYS the script declared up front
// (spec.md §4.3, glossary "ScriptInfo"). IsWrite is read by
// DispatchCommand's replica read-only check, but nothing sets it: the
// script path never infers write intent, so each redis.call is judged by
// its own command's OptWrite flag.
type ScriptInfo struct {
	Keys    map[string]struct{}
	IsWrite bool
}

// DeclaresKey reports whether key was declared in the script's KEYS table.
func (si *ScriptInfo) DeclaresKey(key string) bool {
	if si == nil {
		return true
	}
	_, ok := si.Keys[key]
	return ok
}

// ServerState is the process-wide state shared by every connection: the
// command registry, the storage engine, the scripting manager, the
// sharded lock table and the global status flag (spec.md §5). ServerState
// itself holds no per-connection data — that lives in ConnContext.
type ServerState struct {
	Registry *Registry
	Storage  storage.Storage
	Shards   *txn.ShardSet
	Scripts  *script.Manager
	Config   *kvcore.Config

	status atomic.Int32
}

// NewServerState wires a registry, storage engine and shard set into a
// ServerState ready to back connections.
func NewServerState(reg *Registry, store storage.Storage, shardCount int, cfg *kvcore.Config) *ServerState {
	return &ServerState{
		Registry: reg,
		Storage:  store,
		Shards:   txn.NewShardSet(shardCount),
		Scripts:  script.NewManager(),
		Config:   cfg,
	}
}

// Status returns the current global server status.
func (s *ServerState) Status() GlobalStatus { return GlobalStatus(s.status.Load()) }

// SetStatus sets the global server status.
func (s *ServerState) SetStatus(st GlobalStatus) { s.status.Store(int32(st)) }

// ConnContext is the per-connection state machine threaded through every
// DispatchCommand call: db index, auth mask, MULTI/EXEC state, the queued
// commands of an open MULTI, the in-flight script's ScriptInfo (if any), a
// reused Transaction, and the ReplyBuilder the command writes its result
// to (spec.md §3 "ConnContext / ConnState").
type ConnContext struct {
	Server *ServerState
	Reply  ReplyBuilder

	DBIndex int
	Auth    AuthMask

	ExecState ExecState
	Queued    []StoredCmd

	Script *ScriptInfo

	// Txn is non-owning: the dispatcher builds it lazily for the first
	// transactional command a connection issues and reuses it for every
	// later command on that connection, including the commands replayed by
	// EXEC and the calls a script makes back into DispatchCommand
	// (spec.md §4.2 step 14, §9).
	Txn *txn.Transaction
}

// NewConnContext creates a ConnContext bound to server state, with the
// ReqAuth bit set if the server requires a password.
func NewConnContext(server *ServerState, reply ReplyBuilder) *ConnContext {
	cc := &ConnContext{Server: server, Reply: reply}
	if server.Config != nil && server.Config.RequirePass != "" {
		cc.Auth |= ReqAuth
	}
	return cc
}

// IsAuthenticated reports whether this connection may run commands other
// than AUTH/QUIT/HELLO.
func (cc *ConnContext) IsAuthenticated() bool {
	return cc.Auth&ReqAuth == 0 || cc.Auth&Authenticated != 0
}

// Transaction lazily builds (once) and returns this connection's reused
// Transaction handle. EVAL/EVALSHA call this directly to schedule locks
// over a script's declared KEYS, since that key list isn't expressible
// through CommandID's FirstKeyPos/LastKeyPos/KeyArgStep fields (spec.md
// §4.3).
func (cc *ConnContext) Transaction() *txn.Transaction {
	if cc.Txn == nil {
		cc.Txn = txn.New(cc.Server.Shards)
	}
	return cc.Txn
}

// ResetExec clears MULTI/EXEC state, used by DISCARD and after EXEC runs.
func (cc *ConnContext) ResetExec() {
	cc.ExecState = ExecInactive
	cc.Queued = nil
}

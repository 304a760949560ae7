// Package dispatch implements the command-dispatch core: the command
// registry, the per-connection state machine, the reply-builder
// abstraction, and the top-level DispatchCommand routine.
package dispatch

import (
	"strings"
	"sync"
)

// OptMask is a bit set drawn from the flags a CommandID can carry.
type OptMask uint16

const (
	// OptReadonly marks a command that never mutates the keyspace.
	OptReadonly OptMask = 1 << iota
	// OptWrite marks a command that mutates the keyspace.
	OptWrite
	// OptFast marks a command the registry considers O(1)-ish.
	OptFast
	// OptLoading marks a command allowed to run while the server is LOADING.
	OptLoading
	// OptNoScript marks a command that may not be called from a script.
	OptNoScript
	// OptGlobalTrans marks a command that is always transactional regardless
	// of its key positions (e.g. FLUSHALL).
	OptGlobalTrans
	// OptAdmin marks an administrative command, rejected inside MULTI.
	OptAdmin
)

// Handler executes a validated command against the connection's context.
type Handler func(argv []string, cc *ConnContext)

// Validator performs custom argv validation beyond arity/key-step checks.
// On failure it writes the error itself via cc.Reply and returns false.
type Validator func(argv []string, cc *ConnContext) bool

// CommandID is the immutable descriptor for one registered command
// (spec.md §3).
type CommandID struct {
	Name string

	OptMask OptMask

	// Arity: positive means exact argv length (including the command name
	// at argv[0]); negative means a minimum of -Arity.
	Arity int

	// FirstKeyPos, LastKeyPos, KeyArgStep describe which argv slots hold
	// keys. FirstKeyPos == 0 means the command has no keys. LastKeyPos < 0
	// means "to the end of argv". KeyArgStep == 2 means keys and values
	// alternate and requires an even count of trailing arguments.
	FirstKeyPos int
	LastKeyPos  int
	KeyArgStep  int

	Handler   Handler
	Validator Validator
}

// IsTransactional reports whether a call to this command must run inside a
// Transaction (spec.md §3 "Derived: is_transactional").
func (c *CommandID) IsTransactional() bool {
	return c.FirstKeyPos > 0 || c.OptMask&OptGlobalTrans != 0 || c.Name == "EVAL" || c.Name == "EVALSHA"
}

// CheckArity reports whether argv's length satisfies c.Arity.
func (c *CommandID) CheckArity(argv []string) bool {
	if c.Arity >= 0 {
		return len(argv) == c.Arity
	}
	return len(argv) >= -c.Arity
}

// KeyRange returns the half-open [start, end) slot range within argv that
// holds keys, or ok=false if the command has no keys. end is exclusive and
// already resolved against len(argv) when LastKeyPos < 0.
func (c *CommandID) KeyRange(argv []string) (start, end int, ok bool) {
	if c.FirstKeyPos <= 0 {
		return 0, 0, false
	}
	last := c.LastKeyPos
	if last < 0 {
		last = len(argv) - 1
	}
	if c.FirstKeyPos >= len(argv) || last < c.FirstKeyPos {
		return 0, 0, false
	}
	if last >= len(argv) {
		last = len(argv) - 1
	}
	return c.FirstKeyPos, last + 1, true
}

// Keys returns the keys addressed by argv according to FirstKeyPos,
// LastKeyPos and KeyArgStep.
func (c *CommandID) Keys(argv []string) []string {
	start, end, ok := c.KeyRange(argv)
	if !ok {
		return nil
	}
	step := c.KeyArgStep
	if step <= 0 {
		step = 1
	}
	keys := make([]string, 0, (end-start+step-1)/step)
	for i := start; i < end; i += step {
		keys = append(keys, argv[i])
	}
	return keys
}

// Registry is the immutable-after-init mapping from uppercase command name
// to CommandID (spec.md §3).
type Registry struct {
	mu   sync.RWMutex
	cmds map[string]*CommandID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{cmds: make(map[string]*CommandID)}
}

// Register adds cid to the registry, uppercasing its name. Register is only
// safe to call during startup, before any DispatchCommand call may observe
// the registry concurrently.
func (r *Registry) Register(cid *CommandID) {
	cid.Name = strings.ToUpper(cid.Name)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmds[cid.Name] = cid
}

// Lookup finds a CommandID by exact uppercase name match.
func (r *Registry) Lookup(name string) (*CommandID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cid, ok := r.cmds[strings.ToUpper(name)]
	return cid, ok
}

// Traverse calls fn once per registered CommandID, in no particular order.
// Used by the COMMAND introspection family (SPEC_FULL.md §7).
func (r *Registry) Traverse(fn func(*CommandID)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cid := range r.cmds {
		fn(cid)
	}
}

// Count returns the number of registered commands.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cmds)
}

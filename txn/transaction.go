package txn

import (
	"sort"
	"sync/atomic"
)

var txidSeq uint64

// Transaction coordinates one command across the shard(s) holding its keys
// (spec.md glossary "Transaction"). The dispatcher constructs it lazily for
// transactional commands (spec.md §4.2 step 14) and reuses — never
// replaces — it across the commands of a MULTI/EXEC batch or a script
// (spec.md §9 "Transaction lifecycle coupling with scripts").
type Transaction struct {
	shards *ShardSet

	id  uint64
	ooo bool

	db        int
	writeKeys []string
	readKeys  []string

	global      bool
	globalWrite bool

	scheduled      bool
	locked         bool
	depth          int
	scheduledOrder []int
	scheduledExcl  map[int]bool
}

// New constructs a Transaction bound to shards. It does not take any locks
// until Schedule is called.
func New(shards *ShardSet) *Transaction {
	return &Transaction{shards: shards, id: atomic.AddUint64(&txidSeq, 1)}
}

// TxID returns the transaction's monotonically increasing identifier.
func (t *Transaction) TxID() uint64 { return t.id }

// IsOOO reports whether this transaction's current key set collapsed to a
// single shard, meaning it may be allowed to run out of submission order
// relative to other connections' transactions touching disjoint shards
// (SPEC_FULL.md §7).
func (t *Transaction) IsOOO() bool { return t.ooo }

// InitByArgs (re)initializes the transaction's key state for the given
// database index and write/read key sets without touching any locks.
// Called both when a Transaction is freshly built for a command and, under
// script execution, when the dispatcher reuses the enclosing Transaction
// for a nested dispatch (spec.md §4.2 step 14).
func (t *Transaction) InitByArgs(db int, writeKeys, readKeys []string) {
	t.db = db
	t.writeKeys = writeKeys
	t.readKeys = readKeys
	t.global = false
	t.recomputeOOO()
}

// InitGlobal marks this transaction as spanning every shard, for commands
// with no explicit keys that still touch the whole keyspace (FLUSHALL,
// KEYS, DBSIZE, SCAN) and are registered with OptGlobalTrans
// (SPEC_FULL.md §7 "OOO transaction flag plumbing").
func (t *Transaction) InitGlobal(db int, write bool) {
	t.db = db
	t.writeKeys = nil
	t.readKeys = nil
	t.global = true
	t.globalWrite = write
	t.ooo = false
}

// SetExecCmd reinitializes the transaction's key state for the next queued
// command inside an EXEC loop (spec.md §4.4).
func (t *Transaction) SetExecCmd(writeKeys, readKeys []string) {
	t.InitByArgs(t.db, writeKeys, readKeys)
}

// DB returns the currently selected database index.
func (t *Transaction) DB() int { return t.db }

func (t *Transaction) recomputeOOO() {
	seen := map[int]struct{}{}
	for _, k := range t.writeKeys {
		seen[t.shards.Index(k)] = struct{}{}
	}
	for _, k := range t.readKeys {
		seen[t.shards.Index(k)] = struct{}{}
	}
	t.ooo = len(seen) <= 1
}

// Schedule begins the multi-key lock lifecycle: it takes the exclusive
// intent lock on every write key's shard and the shared intent lock on
// every read key's shard (skipping shards already held exclusively),
// ordered by shard index so two transactions contending for an overlapping
// shard set always acquire in the same order (spec.md §4.3 "If any KEYS
// were declared, call transaction.Schedule()").
func (t *Transaction) Schedule() error {
	if t.scheduled {
		t.depth++
		return nil
	}
	if t.global {
		return t.scheduleGlobal()
	}
	excl := map[int]bool{}
	for _, k := range t.writeKeys {
		excl[t.shards.Index(k)] = true
	}
	shared := map[int]bool{}
	for _, k := range t.readKeys {
		idx := t.shards.Index(k)
		if !excl[idx] {
			shared[idx] = true
		}
	}
	ordered := make([]int, 0, len(excl)+len(shared))
	for idx := range excl {
		ordered = append(ordered, idx)
	}
	for idx := range shared {
		ordered = append(ordered, idx)
	}
	sort.Ints(ordered)

	for _, idx := range ordered {
		if excl[idx] {
			t.shards.locks[idx].Lock()
		} else {
			t.shards.locks[idx].RLock()
		}
	}

	t.scheduled = true
	t.locked = true
	t.depth = 1
	t.scheduledOrder = ordered
	t.scheduledExcl = excl
	return nil
}

func (t *Transaction) scheduleGlobal() error {
	ordered := make([]int, t.shards.Count())
	excl := make(map[int]bool, t.shards.Count())
	for i := range ordered {
		ordered[i] = i
		excl[i] = t.globalWrite
		if t.globalWrite {
			t.shards.locks[i].Lock()
		} else {
			t.shards.locks[i].RLock()
		}
	}
	t.scheduled = true
	t.locked = true
	t.depth = 1
	t.scheduledOrder = ordered
	t.scheduledExcl = excl
	return nil
}

// UnlockMulti releases whatever locks Schedule took, in reverse
// acquisition order. It is a no-op if Schedule was never called or has
// already been undone — callers must call it whether the guarded command
// succeeded or failed (spec.md §4.3 "must run whether the script succeeded
// or failed"). Schedule/UnlockMulti calls nest: a command dispatched from
// inside an already-scheduled EXEC batch or script increments/decrements
// a depth counter instead of releasing locks its enclosing call still
// needs.
func (t *Transaction) UnlockMulti() {
	if !t.locked {
		return
	}
	t.depth--
	if t.depth > 0 {
		return
	}
	for i := len(t.scheduledOrder) - 1; i >= 0; i-- {
		idx := t.scheduledOrder[i]
		if t.scheduledExcl[idx] {
			t.shards.locks[idx].Unlock()
		} else {
			t.shards.locks[idx].RUnlock()
		}
	}
	t.locked = false
	t.scheduled = false
	t.scheduledOrder = nil
	t.scheduledExcl = nil
}

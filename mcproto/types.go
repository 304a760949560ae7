// Package mcproto implements the Memcached classic text protocol — the
// storage commands (set/add/replace/append/prepend/cas), retrieval
// commands (get/gets), delete, incr/decr, touch, flush_all and version —
// scoped to that subset per SPEC_FULL.md §9; the newer meta protocol
// (mg/ms/md/ma) is out of scope.
package mcproto

// Protocol limits, grounded on the same constants a meta-protocol client
// enforces, since the classic protocol shares memcached's key/value size
// ceiling.
const (
	MaxKeyLength   = 250
	MaxValueLength = 1048576
)

// CmdName is one of the classic text protocol command verbs.
type CmdName string

const (
	CmdSet       CmdName = "set"
	CmdAdd       CmdName = "add"
	CmdReplace   CmdName = "replace"
	CmdAppend    CmdName = "append"
	CmdPrepend   CmdName = "prepend"
	CmdCas       CmdName = "cas"
	CmdGet       CmdName = "get"
	CmdGets      CmdName = "gets"
	CmdDelete    CmdName = "delete"
	CmdIncr      CmdName = "incr"
	CmdDecr      CmdName = "decr"
	CmdTouch     CmdName = "touch"
	CmdFlushAll  CmdName = "flush_all"
	CmdVersion   CmdName = "version"
	CmdQuit      CmdName = "quit"
)

// storageCmds is the set of commands with a data block line following the
// command line.
var storageCmds = map[CmdName]bool{
	CmdSet: true, CmdAdd: true, CmdReplace: true,
	CmdAppend: true, CmdPrepend: true, CmdCas: true,
}

// IsStorageCommand reports whether name's wire format includes a trailing
// "<data block>\r\n" after the command line.
func IsStorageCommand(name CmdName) bool { return storageCmds[name] }

// Command is one parsed classic-protocol request.
type Command struct {
	Name  CmdName
	Key   string
	Keys  []string // get/gets may name multiple keys

	Flags   uint32
	ExptimeSeconds int64
	Bytes   int
	CasUnique uint64

	Delta uint64 // incr/decr

	NoReply bool

	Data []byte // storage commands only
}

package dispatch

import (
	"errors"
	"fmt"
	"strconv"

	"kvcore/protocol"
	"kvcore/script"
)

// ReplyBuilder is the output-side abstraction every command handler writes
// through instead of a concrete wire writer (spec.md §4.1). Exactly one of
// three concrete variants backs it for a given dispatch: RESPReplyBuilder,
// MemcachedReplyBuilder, or InterpreterReplier when the command is running
// inside a script.
type ReplyBuilder interface {
	SendOK()
	SendSimpleString(s string)
	SendError(err error)
	SendInteger(n int64)
	SendDouble(f float64)
	SendBulkString(b []byte)
	SendNullBulkString()
	SendArrayLen(n int)
	SendNullArray()
	// SendStringArr answers a flat array of bulk strings in one call, for
	// handlers like KEYS that already have the whole slice in hand.
	SendStringArr(arr []string)
	// SendSimpleStrArr is SendStringArr's simple-string counterpart, for
	// replies like COMMAND's name list that never contain binary data.
	SendSimpleStrArr(arr []string)
	// SendMGetResponse answers one array whose elements are a bulk string
	// or nil per key, in request order — MGET's reply shape, also used by
	// the Memcached adapter's GET->MGET translation (spec.md §4.5).
	SendMGetResponse(values [][]byte)
	// GetError reports whether the most recently completed Send* call on
	// this builder was SendError. It resets on every other Send* call, so
	// it answers "did the handler that just ran fail", not "has this
	// connection's reply builder ever seen an error".
	GetError() bool
}

// RESPReplyBuilder writes replies as RESP over a protocol.Writer.
type RESPReplyBuilder struct {
	w       *protocol.Writer
	lastErr bool
}

// NewRESPReplyBuilder wraps w as a ReplyBuilder.
func NewRESPReplyBuilder(w *protocol.Writer) *RESPReplyBuilder {
	return &RESPReplyBuilder{w: w}
}

func (r *RESPReplyBuilder) SendOK()                   { r.lastErr = false; r.w.WriteOK() }
func (r *RESPReplyBuilder) SendSimpleString(s string) { r.lastErr = false; r.w.WriteSimpleString(s) }
func (r *RESPReplyBuilder) SendError(err error) {
	r.lastErr = true
	r.w.WriteError(err.Error())
}
func (r *RESPReplyBuilder) SendInteger(n int64) { r.lastErr = false; r.w.WriteInteger(n) }
func (r *RESPReplyBuilder) SendDouble(f float64) {
	r.lastErr = false
	r.w.WriteBulkStringFromString(strconv.FormatFloat(f, 'f', -1, 64))
}
func (r *RESPReplyBuilder) SendBulkString(b []byte) { r.lastErr = false; r.w.WriteBulkString(b) }
func (r *RESPReplyBuilder) SendNullBulkString()     { r.lastErr = false; r.w.WriteNullBulkString() }
func (r *RESPReplyBuilder) SendArrayLen(n int)      { r.lastErr = false; r.w.WriteArrayHeader(n) }
func (r *RESPReplyBuilder) SendNullArray()          { r.lastErr = false; r.w.WriteNullArray() }

func (r *RESPReplyBuilder) SendStringArr(arr []string) {
	r.lastErr = false
	r.w.WriteArrayHeader(len(arr))
	for _, s := range arr {
		r.w.WriteBulkStringFromString(s)
	}
}

func (r *RESPReplyBuilder) SendSimpleStrArr(arr []string) {
	r.lastErr = false
	r.w.WriteArrayHeader(len(arr))
	for _, s := range arr {
		r.w.WriteSimpleString(s)
	}
}

func (r *RESPReplyBuilder) SendMGetResponse(values [][]byte) {
	r.lastErr = false
	r.w.WriteArrayHeader(len(values))
	for _, v := range values {
		if v == nil {
			r.w.WriteNullBulkString()
		} else {
			r.w.WriteBulkString(v)
		}
	}
}

func (r *RESPReplyBuilder) GetError() bool { return r.lastErr }

// Flush flushes any buffered RESP output.
func (r *RESPReplyBuilder) Flush() error { return r.w.Flush() }

var _ ReplyBuilder = (*RESPReplyBuilder)(nil)

// MCMode selects how a MemcachedReplyBuilder renders the generic Send*
// calls a handler makes, since the Memcached classic text protocol's
// responses are shaped by which original command is being answered
// (spec.md §4.5). mcadapter.DispatchMC sets the mode before dispatching.
type MCMode int

const (
	// MCModeStorage covers set/add/replace/append/prepend/cas: OK or an
	// integer (APPEND's new length) -> STORED, a null reply (an add/replace
	// whose NX/XX condition failed) -> NOT_STORED, an error -> the error
	// text as a SERVER_ERROR line. EXISTS is never produced, since cas is
	// not checked against a CAS token.
	MCModeStorage MCMode = iota
	// MCModeRetrieval covers get/gets: a bulk string becomes a VALUE line
	// followed by the data and a trailing END; a null bulk string is a
	// cache miss, which is just END with no VALUE line.
	MCModeRetrieval
	// MCModeDelete covers delete: integer 1 -> DELETED, 0 -> NOT_FOUND.
	MCModeDelete
	// MCModeCounter covers incr/decr: integer n is sent as the bare
	// decimal value memcached expects; a null reply means NOT_FOUND.
	MCModeCounter
	// MCModeTouch covers touch: OK -> TOUCHED, null -> NOT_FOUND.
	MCModeTouch
	// MCModeAck covers commands with a bare-OK acknowledgement, like
	// flush_all (version is answered by mcadapter directly).
	MCModeAck
)

// MemcachedReplyBuilder renders a ReplyBuilder call sequence as Memcached
// classic text protocol responses.
type MemcachedReplyBuilder struct {
	w     mcWriter
	mode  MCMode
	key   string
	keys  []string
	flags uint32

	includeCas  bool
	casUnique   uint64
	suppressEnd bool
	lastErr     bool
}

// mcWriter is the minimal sink MemcachedReplyBuilder needs; mcproto.Writer
// satisfies it.
type mcWriter interface {
	WriteLine(s string) error
	WriteData(b []byte) error
}

// NewMemcachedReplyBuilder creates a ReplyBuilder rendering into w under
// mode, for the retrieval commands that need to echo back key/flags.
func NewMemcachedReplyBuilder(w mcWriter, mode MCMode, key string, flags uint32) *MemcachedReplyBuilder {
	return &MemcachedReplyBuilder{w: w, mode: mode, key: key, flags: flags}
}

// WithCas makes a retrieval-mode reply (gets) append the CAS unique value
// to its VALUE line.
func (m *MemcachedReplyBuilder) WithCas(casUnique uint64) *MemcachedReplyBuilder {
	m.includeCas = true
	m.casUnique = casUnique
	return m
}

// WithSuppressEnd stops a retrieval-mode reply from writing its own
// trailing END line, for callers issuing several GETs that must share one
// END at the very end (the multi-key get command).
func (m *MemcachedReplyBuilder) WithSuppressEnd() *MemcachedReplyBuilder {
	m.suppressEnd = true
	return m
}

// WithKeys records the ordered key list a SendMGetResponse call answers
// against, for the Memcached adapter's GET->MGET translation (spec.md
// §4.5): a plain multi-key get becomes one MGET, and SendMGetResponse
// replays it as the VALUE/END lines memcached's text protocol expects.
func (m *MemcachedReplyBuilder) WithKeys(keys []string) *MemcachedReplyBuilder {
	m.keys = keys
	return m
}

func (m *MemcachedReplyBuilder) SendOK() {
	m.lastErr = false
	switch m.mode {
	case MCModeStorage:
		m.w.WriteLine("STORED")
	case MCModeTouch:
		m.w.WriteLine("TOUCHED")
	default:
		m.w.WriteLine("OK")
	}
}

func (m *MemcachedReplyBuilder) SendSimpleString(s string) {
	m.lastErr = false
	m.w.WriteLine(s)
}

func (m *MemcachedReplyBuilder) SendError(err error) {
	m.lastErr = true
	m.w.WriteLine(fmt.Sprintf("SERVER_ERROR %s", err.Error()))
}

func (m *MemcachedReplyBuilder) SendDouble(f float64) {
	m.lastErr = false
	m.w.WriteLine(strconv.FormatFloat(f, 'f', -1, 64))
}

func (m *MemcachedReplyBuilder) SendInteger(n int64) {
	m.lastErr = false
	switch m.mode {
	case MCModeDelete:
		if n != 0 {
			m.w.WriteLine("DELETED")
		} else {
			m.w.WriteLine("NOT_FOUND")
		}
	case MCModeTouch:
		if n != 0 {
			m.w.WriteLine("TOUCHED")
		} else {
			m.w.WriteLine("NOT_FOUND")
		}
	case MCModeCounter:
		m.w.WriteLine(fmt.Sprintf("%d", n))
	case MCModeStorage:
		m.w.WriteLine("STORED")
	default:
		m.w.WriteLine(fmt.Sprintf("%d", n))
	}
}

func (m *MemcachedReplyBuilder) SendBulkString(b []byte) {
	m.lastErr = false
	switch m.mode {
	case MCModeRetrieval:
		if m.includeCas {
			m.w.WriteLine(fmt.Sprintf("VALUE %s %d %d %d", m.key, m.flags, len(b), m.casUnique))
		} else {
			m.w.WriteLine(fmt.Sprintf("VALUE %s %d %d", m.key, m.flags, len(b)))
		}
		m.w.WriteData(b)
		if !m.suppressEnd {
			m.w.WriteLine("END")
		}
	default:
		m.w.WriteData(b)
	}
}

func (m *MemcachedReplyBuilder) SendNullBulkString() {
	m.lastErr = false
	switch m.mode {
	case MCModeRetrieval:
		if !m.suppressEnd {
			m.w.WriteLine("END")
		}
	case MCModeStorage:
		m.w.WriteLine("NOT_STORED")
	case MCModeCounter, MCModeTouch, MCModeDelete:
		m.w.WriteLine("NOT_FOUND")
	default:
		m.w.WriteLine("END")
	}
}

func (m *MemcachedReplyBuilder) SendArrayLen(n int) { m.lastErr = false }
func (m *MemcachedReplyBuilder) SendNullArray() {
	m.lastErr = false
	m.w.WriteLine("END")
}

// SendStringArr and SendSimpleStrArr have no memcached wire shape of their
// own; no memcached command routes through them today, so they fall back
// to one wire line per element the way SendSimpleString already does.
func (m *MemcachedReplyBuilder) SendStringArr(arr []string) {
	m.lastErr = false
	for _, s := range arr {
		m.w.WriteLine(s)
	}
}

func (m *MemcachedReplyBuilder) SendSimpleStrArr(arr []string) {
	m.lastErr = false
	for _, s := range arr {
		m.w.WriteLine(s)
	}
}

// SendMGetResponse renders MGET's per-key value-or-nil array as the
// VALUE/END lines memcached's get command expects, using the key list
// WithKeys recorded to pair each value with its key (spec.md §4.5).
func (m *MemcachedReplyBuilder) SendMGetResponse(values [][]byte) {
	m.lastErr = false
	for i, v := range values {
		if v == nil {
			continue
		}
		key := m.key
		if i < len(m.keys) {
			key = m.keys[i]
		}
		m.w.WriteLine(fmt.Sprintf("VALUE %s %d %d", key, m.flags, len(v)))
		m.w.WriteData(v)
	}
	if !m.suppressEnd {
		m.w.WriteLine("END")
	}
}

func (m *MemcachedReplyBuilder) GetError() bool { return m.lastErr }

var _ ReplyBuilder = (*MemcachedReplyBuilder)(nil)

// InterpreterReplier is the ReplyBuilder swapped onto a ConnContext for the
// duration of one nested DispatchCommand call made from inside a script's
// redis.call/redis.pcall. Instead of writing wire bytes it forwards every
// event into a script.ObjectExplorer, tracking array nesting with a stack
// of (savedElemCount, targetLen) frames so a nested array's OnArrayEnd
// fires at the right point without the handler itself knowing it is
// running inside a script (spec.md §4.1, §4.3).
type InterpreterReplier struct {
	explorer script.ObjectExplorer
	frames   []replyFrame
	lastErr  bool
}

type replyFrame struct {
	savedElemCount int
	targetLen      int
}

// NewInterpreterReplier creates a ReplyBuilder forwarding into explorer.
func NewInterpreterReplier(explorer script.ObjectExplorer) *InterpreterReplier {
	return &InterpreterReplier{explorer: explorer}
}

func (ir *InterpreterReplier) emitScalar() {
	for len(ir.frames) > 0 {
		top := &ir.frames[len(ir.frames)-1]
		top.savedElemCount++
		if top.savedElemCount < top.targetLen {
			return
		}
		ir.frames = ir.frames[:len(ir.frames)-1]
		ir.explorer.OnArrayEnd()
	}
}

func (ir *InterpreterReplier) SendOK() {
	ir.lastErr = false
	ir.explorer.OnString("OK")
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendSimpleString(s string) {
	ir.lastErr = false
	ir.explorer.OnString(s)
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendError(err error) {
	ir.lastErr = true
	ir.explorer.OnError(err.Error())
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendInteger(n int64) {
	ir.lastErr = false
	ir.explorer.OnInt(n)
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendDouble(f float64) {
	ir.lastErr = false
	ir.explorer.OnString(strconv.FormatFloat(f, 'f', -1, 64))
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendBulkString(b []byte) {
	ir.lastErr = false
	ir.explorer.OnString(string(b))
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendNullBulkString() {
	ir.lastErr = false
	ir.explorer.OnNil()
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendNullArray() {
	ir.lastErr = false
	ir.explorer.OnNil()
	ir.emitScalar()
}

// SendStringArr, SendSimpleStrArr, and SendMGetResponse all answer a flat
// array of scalars without any nested Send* calls of their own, so unlike
// SendArrayLen they drive the explorer directly rather than pushing a
// replyFrame for later Send* calls to close.
func (ir *InterpreterReplier) SendStringArr(arr []string) {
	ir.lastErr = false
	ir.explorer.OnArrayStart(len(arr))
	for _, s := range arr {
		ir.explorer.OnString(s)
	}
	ir.explorer.OnArrayEnd()
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendSimpleStrArr(arr []string) {
	ir.lastErr = false
	ir.explorer.OnArrayStart(len(arr))
	for _, s := range arr {
		ir.explorer.OnString(s)
	}
	ir.explorer.OnArrayEnd()
	ir.emitScalar()
}

func (ir *InterpreterReplier) SendMGetResponse(values [][]byte) {
	ir.lastErr = false
	ir.explorer.OnArrayStart(len(values))
	for _, v := range values {
		if v == nil {
			ir.explorer.OnNil()
		} else {
			ir.explorer.OnString(string(v))
		}
	}
	ir.explorer.OnArrayEnd()
	ir.emitScalar()
}

func (ir *InterpreterReplier) GetError() bool { return ir.lastErr }

var _ ReplyBuilder = (*InterpreterReplier)(nil)

func (ir *InterpreterReplier) SendArrayLen(n int) {
	ir.lastErr = false
	ir.explorer.OnArrayStart(n)
	if n == 0 {
		ir.explorer.OnArrayEnd()
		ir.emitScalar()
		return
	}
	ir.frames = append(ir.frames, replyFrame{targetLen: n})
}

// ReplyExplorer adapts a ReplyBuilder to satisfy script.ObjectExplorer,
// the mirror image of InterpreterReplier: it is what a script's own
// top-level return value gets replayed into so EVAL/EVALSHA's result
// reaches the client through the same ReplyBuilder every other command
// uses (spec.md §4.3 "result serialization").
type ReplyExplorer struct {
	target ReplyBuilder
}

// NewReplyExplorer wraps target as a script.ObjectExplorer.
func NewReplyExplorer(target ReplyBuilder) *ReplyExplorer {
	return &ReplyExplorer{target: target}
}

func (r *ReplyExplorer) OnInt(n int64)      { r.target.SendInteger(n) }
func (r *ReplyExplorer) OnString(s string)  { r.target.SendBulkString([]byte(s)) }
func (r *ReplyExplorer) OnNil()             { r.target.SendNullBulkString() }
func (r *ReplyExplorer) OnError(msg string) { r.target.SendError(errors.New(msg)) }
func (r *ReplyExplorer) OnArrayStart(n int) { r.target.SendArrayLen(n) }
func (r *ReplyExplorer) OnArrayEnd()        {}

var _ script.ObjectExplorer = (*ReplyExplorer)(nil)

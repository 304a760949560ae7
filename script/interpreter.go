package script

import (
	lua "github.com/yuin/gopher-lua"
)

// runScript executes body in a fresh Lua state bound to keys/argv, routing
// every redis.call/redis.pcall back through call, and forwards the
// script's own return value into target (spec.md §4.3). Each Eval gets
// its own *lua.LState — the teacher engine's model — rather than a pooled
// VM, since scripts here are short-lived and run under the connection's
// already-held transaction locks.
func runScript(body string, keys, argv []string, call CallFromScript, target ObjectExplorer) error {
	L := lua.NewState()
	defer L.Close()

	setKeysArgv(L, keys, argv)
	installRedisTable(L, call)

	if err := L.DoString(body); err != nil {
		return &luaError{err}
	}

	top := L.Get(-1)
	luaValueToExplorer(top, target)
	return nil
}

type luaError struct{ err error }

func (e *luaError) Error() string { return e.err.Error() }
func (e *luaError) Unwrap() error { return e.err }

func setKeysArgv(L *lua.LState, keys, argv []string) {
	keysTable := L.NewTable()
	for i, k := range keys {
		keysTable.RawSetInt(i+1, lua.LString(k))
	}
	L.SetGlobal("KEYS", keysTable)

	argvTable := L.NewTable()
	for i, a := range argv {
		argvTable.RawSetInt(i+1, lua.LString(a))
	}
	L.SetGlobal("ARGV", argvTable)
}

func installRedisTable(L *lua.LState, call CallFromScript) {
	redisTable := L.NewTable()
	L.SetFuncs(redisTable, map[string]lua.LGFunction{
		"call":  makeRedisCall(call, false),
		"pcall": makeRedisCall(call, true),
	})
	L.SetGlobal("redis", redisTable)
}

func makeRedisCall(call CallFromScript, protected bool) lua.LGFunction {
	return func(L *lua.LState) int {
		argc := L.GetTop()
		if argc == 0 {
			L.RaiseError("wrong number of arguments for redis call")
			return 0
		}
		argv := make([]string, argc)
		for i := 1; i <= argc; i++ {
			argv[i-1] = L.ToString(i)
		}

		builder := newLuaBuilder(L)
		var callErr string
		builder.onCallError = func(msg string) { callErr = msg }
		call(argv, builder)

		if callErr != "" {
			if protected {
				errTable := L.NewTable()
				errTable.RawSetString("err", lua.LString(callErr))
				L.Push(errTable)
				return 1
			}
			L.RaiseError("%s", callErr)
			return 0
		}

		L.Push(builder.result())
		return 1
	}
}

// luaValueToExplorer walks a gopher-lua return value and replays it into
// target following the script-to-RESP conversion table: numbers become
// integer replies (truncated), strings become bulk strings, a table with
// an "err" field becomes an error reply, a table with an "ok" field
// becomes a bulk-string reply of that field's text (ObjectExplorer has no
// status callback, so no status reply is produced), false/nil become a
// nil reply, true becomes
// integer 1, and any other table is walked as an array up to its first
// nil hole (spec.md §4.3).
func luaValueToExplorer(lv lua.LValue, target ObjectExplorer) {
	switch v := lv.(type) {
	case lua.LBool:
		if bool(v) {
			target.OnInt(1)
		} else {
			target.OnNil()
		}
	case lua.LNumber:
		target.OnInt(int64(v))
	case lua.LString:
		target.OnString(string(v))
	case *lua.LNilType:
		target.OnNil()
	case *lua.LTable:
		if errv := v.RawGetString("err"); errv != lua.LNil {
			target.OnError(errv.String())
			return
		}
		if okv := v.RawGetString("ok"); okv != lua.LNil {
			target.OnString(okv.String())
			return
		}
		var elems []lua.LValue
		for i := 1; ; i++ {
			e := v.RawGetInt(i)
			if e == lua.LNil {
				break
			}
			elems = append(elems, e)
		}
		target.OnArrayStart(len(elems))
		for _, e := range elems {
			luaValueToExplorer(e, target)
		}
		target.OnArrayEnd()
	default:
		target.OnNil()
	}
}

// luaBuilder is the ObjectExplorer a redis.call/redis.pcall hands to the
// dispatcher to receive the nested command's reply; it assembles the
// equivalent lua.LValue using the same (savedElemCount, targetLen) frame
// stack dispatch.InterpreterReplier uses on the way in, mirrored here on
// the way back out.
type luaBuilder struct {
	L           *lua.LState
	frames      []luaFrame
	root        lua.LValue
	onCallError func(string)
}

type luaFrame struct {
	table *lua.LTable
	want  int
	got   int
}

func newLuaBuilder(L *lua.LState) *luaBuilder { return &luaBuilder{L: L} }

func (b *luaBuilder) result() lua.LValue {
	if b.root == nil {
		return lua.LFalse
	}
	return b.root
}

func (b *luaBuilder) push(v lua.LValue) {
	if len(b.frames) == 0 {
		b.root = v
		return
	}
	top := &b.frames[len(b.frames)-1]
	top.table.Append(v)
	top.got++
	for len(b.frames) > 0 {
		top := &b.frames[len(b.frames)-1]
		if top.got < top.want {
			return
		}
		closed := top.table
		b.frames = b.frames[:len(b.frames)-1]
		if len(b.frames) == 0 {
			b.root = closed
			return
		}
		parent := &b.frames[len(b.frames)-1]
		parent.table.Append(closed)
		parent.got++
	}
}

func (b *luaBuilder) OnInt(n int64)  { b.push(lua.LNumber(float64(n))) }
func (b *luaBuilder) OnString(s string) { b.push(lua.LString(s)) }
func (b *luaBuilder) OnNil()        { b.push(lua.LFalse) }

func (b *luaBuilder) OnError(msg string) {
	if b.onCallError != nil && len(b.frames) == 0 {
		b.onCallError(msg)
		return
	}
	errTable := b.L.NewTable()
	errTable.RawSetString("err", lua.LString(msg))
	b.push(errTable)
}

func (b *luaBuilder) OnArrayStart(n int) {
	t := b.L.NewTable()
	if n == 0 {
		b.push(t)
		return
	}
	b.frames = append(b.frames, luaFrame{table: t, want: n})
}

func (b *luaBuilder) OnArrayEnd() {}

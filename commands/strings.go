// Package commands registers the concrete per-family command handlers
// into a dispatch.Registry: string, generic/keyspace, system, transaction
// control, and scripting-admin commands (SPEC_FULL.md §4).
package commands

import (
	"strconv"
	"time"

	"kvcore"
	"kvcore/dispatch"
)

func handleGet(argv []string, cc *dispatch.ConnContext) {
	val, ok := cc.Server.Storage.Get(argv[1])
	if !ok {
		cc.Reply.SendNullBulkString()
		return
	}
	cc.Reply.SendBulkString(val)
}

func handleSet(argv []string, cc *dispatch.ConnContext) {
	key, value := argv[1], []byte(argv[2])
	var expiry *time.Time
	nx, xx := false, false

	for i := 3; i < len(argv); i++ {
		switch upper(argv[i]) {
		case "EX":
			i++
			if i >= len(argv) {
				cc.Reply.SendError(kvcore.ErrWrongArity)
				return
			}
			secs, err := strconv.ParseInt(argv[i], 10, 64)
			if err != nil {
				cc.Reply.SendError(&kvcore.ValidationError{Command: "SET", Reason: "invalid expire time"})
				return
			}
			t := time.Now().Add(time.Duration(secs) * time.Second)
			expiry = &t
		case "PX":
			i++
			if i >= len(argv) {
				cc.Reply.SendError(kvcore.ErrWrongArity)
				return
			}
			ms, err := strconv.ParseInt(argv[i], 10, 64)
			if err != nil {
				cc.Reply.SendError(&kvcore.ValidationError{Command: "SET", Reason: "invalid expire time"})
				return
			}
			t := time.Now().Add(time.Duration(ms) * time.Millisecond)
			expiry = &t
		case "NX":
			nx = true
		case "XX":
			xx = true
		}
	}

	_, exists := cc.Server.Storage.Get(key)
	if nx && exists {
		cc.Reply.SendNullBulkString()
		return
	}
	if xx && !exists {
		cc.Reply.SendNullBulkString()
		return
	}

	if err := cc.Server.Storage.Set(key, value, expiry); err != nil {
		cc.Reply.SendError(err)
		return
	}
	cc.Reply.SendOK()
}

func handleAppend(argv []string, cc *dispatch.ConnContext) {
	key, suffix := argv[1], argv[2]
	existing, _ := cc.Server.Storage.Get(key)
	combined := append(append([]byte{}, existing...), suffix...)
	if err := cc.Server.Storage.Set(key, combined, nil); err != nil {
		cc.Reply.SendError(err)
		return
	}
	cc.Reply.SendInteger(int64(len(combined)))
}

func handleIncrBy(argv []string, cc *dispatch.ConnContext) {
	incrDecrBy(argv, cc, 1)
}

func handleDecrBy(argv []string, cc *dispatch.ConnContext) {
	incrDecrBy(argv, cc, -1)
}

func incrDecrBy(argv []string, cc *dispatch.ConnContext, sign int64) {
	key := argv[1]
	delta, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil {
		cc.Reply.SendError(&kvcore.ValidationError{Command: argv[0], Reason: "value is not an integer or out of range"})
		return
	}

	existing, _ := cc.Server.Storage.Get(key)
	cur, err := strconv.ParseInt(string(existing), 10, 64)
	if err != nil && len(existing) > 0 {
		cc.Reply.SendError(&kvcore.ValidationError{Command: argv[0], Reason: "value is not an integer or out of range"})
		return
	}

	next := cur + sign*delta
	if err := cc.Server.Storage.Set(key, []byte(strconv.FormatInt(next, 10)), nil); err != nil {
		cc.Reply.SendError(err)
		return
	}
	cc.Reply.SendInteger(next)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - ('a' - 'A')
		}
	}
	return string(b)
}

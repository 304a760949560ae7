package commands

import (
	"strconv"
	"time"

	"kvcore"
	"kvcore/dispatch"
)

func handleDel(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendInteger(cc.Server.Storage.Del(argv[1:]...))
}

// handleMGet answers one or more keys with a single array reply whose
// elements are a value or nil per key, in request order — the Redis side
// of the Memcached adapter's GET translation (spec.md §4.5).
func handleMGet(argv []string, cc *dispatch.ConnContext) {
	keys := argv[1:]
	values := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := cc.Server.Storage.Get(k); ok {
			values[i] = v
		}
	}
	cc.Reply.SendMGetResponse(values)
}

func handleExists(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendInteger(cc.Server.Storage.Exists(argv[1:]...))
}

func handleExpire(argv []string, cc *dispatch.ConnContext) {
	secs, err := strconv.ParseInt(argv[2], 10, 64)
	if err != nil {
		cc.Reply.SendError(&kvcore.ValidationError{Command: "EXPIRE", Reason: "value is not an integer or out of range"})
		return
	}
	ok := cc.Server.Storage.Expire(argv[1], time.Now().Add(time.Duration(secs)*time.Second))
	if ok {
		cc.Reply.SendInteger(1)
	} else {
		cc.Reply.SendInteger(0)
	}
}

func handleTTL(argv []string, cc *dispatch.ConnContext) {
	d := cc.Server.Storage.TTL(argv[1])
	cc.Reply.SendInteger(ttlSeconds(d))
}

func handlePTTL(argv []string, cc *dispatch.ConnContext) {
	d := cc.Server.Storage.PTTL(argv[1])
	if d < 0 {
		cc.Reply.SendInteger(int64(d))
		return
	}
	cc.Reply.SendInteger(d.Milliseconds())
}

func ttlSeconds(d time.Duration) int64 {
	if d < 0 {
		return int64(d)
	}
	return int64(d.Seconds())
}

func handleType(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendSimpleString(cc.Server.Storage.Type(argv[1]).String())
}

func handleKeys(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendStringArr(cc.Server.Storage.Keys(argv[1]))
}

func handleScan(argv []string, cc *dispatch.ConnContext) {
	cursor, err := strconv.ParseInt(argv[1], 10, 64)
	if err != nil {
		cc.Reply.SendError(&kvcore.ValidationError{Command: "SCAN", Reason: "invalid cursor"})
		return
	}
	match, count := "*", int64(10)
	for i := 2; i < len(argv)-1; i += 2 {
		switch upper(argv[i]) {
		case "MATCH":
			match = argv[i+1]
		case "COUNT":
			if n, err := strconv.ParseInt(argv[i+1], 10, 64); err == nil {
				count = n
			}
		}
	}
	next, keys := cc.Server.Storage.Scan(cursor, match, count)
	cc.Reply.SendArrayLen(2)
	cc.Reply.SendBulkString([]byte(strconv.FormatInt(next, 10)))
	cc.Reply.SendArrayLen(len(keys))
	for _, k := range keys {
		cc.Reply.SendBulkString([]byte(k))
	}
}

func handleFlushAll(argv []string, cc *dispatch.ConnContext) {
	if err := cc.Server.Storage.FlushAll(); err != nil {
		cc.Reply.SendError(err)
		return
	}
	cc.Reply.SendOK()
}

func handleDBSize(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendInteger(cc.Server.Storage.KeyCount())
}

func handleSelect(argv []string, cc *dispatch.ConnContext) {
	idx, err := strconv.Atoi(argv[1])
	if err != nil {
		cc.Reply.SendError(&kvcore.ValidationError{Command: "SELECT", Reason: "invalid DB index"})
		return
	}
	if err := cc.Server.Storage.SelectDB(idx); err != nil {
		cc.Reply.SendError(err)
		return
	}
	cc.DBIndex = idx
	cc.Reply.SendOK()
}

package commands

import "kvcore/dispatch"

// Register populates reg with every command this core implements
// (SPEC_FULL.md §4, §7). It is the single place mapping a command name to
// its arity/key-position/opt-mask metadata and its handler.
func Register(reg *dispatch.Registry) {
	for _, cid := range []*dispatch.CommandID{
		{Name: "GET", Arity: 2, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast, Handler: handleGet},
		{Name: "SET", Arity: -3, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptWrite, Handler: handleSet},
		{Name: "APPEND", Arity: 3, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptWrite, Handler: handleAppend},
		{Name: "INCRBY", Arity: 3, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptWrite | dispatch.OptFast, Handler: handleIncrBy},
		{Name: "DECRBY", Arity: 3, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptWrite | dispatch.OptFast, Handler: handleDecrBy},

		{Name: "MGET", Arity: -2, FirstKeyPos: 1, LastKeyPos: -1, KeyArgStep: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast, Handler: handleMGet},
		{Name: "DEL", Arity: -2, FirstKeyPos: 1, LastKeyPos: -1, KeyArgStep: 1,
			OptMask: dispatch.OptWrite, Handler: handleDel},
		{Name: "EXISTS", Arity: -2, FirstKeyPos: 1, LastKeyPos: -1, KeyArgStep: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast, Handler: handleExists},
		{Name: "EXPIRE", Arity: 3, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptWrite | dispatch.OptFast, Handler: handleExpire},
		{Name: "TTL", Arity: 2, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast, Handler: handleTTL},
		{Name: "PTTL", Arity: 2, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast, Handler: handlePTTL},
		{Name: "TYPE", Arity: 2, FirstKeyPos: 1, LastKeyPos: 1, KeyArgStep: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast, Handler: handleType},

		{Name: "KEYS", Arity: 2,
			OptMask: dispatch.OptReadonly | dispatch.OptGlobalTrans, Handler: handleKeys},
		{Name: "SCAN", Arity: -2,
			OptMask: dispatch.OptReadonly | dispatch.OptGlobalTrans, Handler: handleScan},
		{Name: "FLUSHALL", Arity: -1,
			OptMask: dispatch.OptWrite | dispatch.OptGlobalTrans, Handler: handleFlushAll},
		{Name: "DBSIZE", Arity: 1,
			OptMask: dispatch.OptReadonly | dispatch.OptFast | dispatch.OptGlobalTrans, Handler: handleDBSize},
		{Name: "SELECT", Arity: 2,
			OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: handleSelect},

		{Name: "PING", Arity: -1,
			OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: handlePing},
		{Name: "ECHO", Arity: 2,
			OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: handleEcho},
		{Name: "AUTH", Arity: 2,
			OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: handleAuth},
		{Name: "QUIT", Arity: 1,
			OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: handleQuit},
		{Name: "COMMAND", Arity: -1,
			OptMask: dispatch.OptLoading, Handler: handleCommand},

		{Name: "MULTI", Arity: 1, OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: dispatch.HandleMulti},
		{Name: "DISCARD", Arity: 1, OptMask: dispatch.OptFast | dispatch.OptLoading, Handler: dispatch.HandleDiscard},
		// EXEC's queued batch can contain writes the dispatcher can't see
		// ahead of time, so it always takes the exclusive global lock
		// rather than trying to union its queued commands' key sets.
		{Name: "EXEC", Arity: 1, OptMask: dispatch.OptLoading | dispatch.OptGlobalTrans | dispatch.OptWrite, Handler: dispatch.HandleExec},

		{Name: "EVAL", Arity: -3, Validator: EvalValidator, Handler: handleEval},
		{Name: "EVALSHA", Arity: -3, Validator: EvalValidator, Handler: handleEvalSha},
		{Name: "SCRIPT", Arity: -2, OptMask: dispatch.OptNoScript | dispatch.OptAdmin, Handler: handleScript},
	} {
		reg.Register(cid)
	}
}

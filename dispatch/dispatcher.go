package dispatch

import (
	"strings"
	"time"

	"kvcore"
)

// DispatchCommand runs one command end to end against cc: lookup, arity
// and auth/readonly/loading checks, MULTI queuing, transaction scheduling
// for multi-key commands, the handler call, metrics, and transaction
// teardown (spec.md §4.2). It is re-entrant — a script's redis.call swaps
// cc.Reply to an InterpreterReplier and calls back into DispatchCommand on
// the same ConnContext and (for transactional commands) the same
// Transaction.
func DispatchCommand(argv []string, cc *ConnContext) {
	if len(argv) == 0 {
		cc.Reply.SendError(kvcore.ErrWrongArity)
		return
	}
	name := strings.ToUpper(argv[0])

	// A failure on any check below, while a MULTI is collecting, must
	// doom the whole transaction rather than let EXEC replay a partial
	// queue (spec.md §4.2 step 12). The hook is cancelled the moment
	// validation actually passes, further down.
	wasCollecting := cc.ExecState == ExecCollect && !isExecControlCommand(name)
	validated := false
	defer func() {
		if wasCollecting && !validated {
			cc.ExecState = ExecError
		}
	}()

	cid, ok := cc.Server.Registry.Lookup(name)
	if !ok {
		cc.Reply.SendError(kvcore.ErrUnknownCommand)
		return
	}

	switch cc.Server.Status() {
	case Loading:
		if cid.OptMask&OptLoading == 0 {
			cc.Reply.SendError(kvcore.ErrLoading)
			return
		}
	case ShuttingDown:
		cc.Reply.SendError(kvcore.ErrShuttingDown)
		return
	}

	if !cc.IsAuthenticated() && name != "AUTH" && name != "QUIT" && name != "HELLO" {
		cc.Reply.SendError(kvcore.ErrNoAuth)
		return
	}

	if cc.Script != nil && cid.OptMask&OptNoScript != 0 {
		cc.Reply.SendError(kvcore.ErrNoScriptFromScript)
		return
	}

	isWriteCmd := cid.OptMask&OptWrite != 0 || (cc.Script != nil && cc.Script.IsWrite)
	if isWriteCmd && cc.Server.Config != nil && !cc.Server.Config.Master {
		cc.Reply.SendError(kvcore.ErrReadOnly)
		return
	}

	if !cid.CheckArity(argv) {
		cc.Reply.SendError(kvcore.ErrWrongArity)
		return
	}

	if cid.KeyArgStep == 2 && len(argv)%2 == 0 {
		cc.Reply.SendError(kvcore.ErrWrongArity)
		return
	}

	if cid.Validator != nil && !cid.Validator(argv, cc) {
		return
	}

	isTransCmd := name == "MULTI" || name == "EXEC"
	if cc.ExecState != ExecInactive && !isTransCmd {
		if cid.OptMask&OptAdmin != 0 {
			cc.Reply.SendError(&kvcore.ValidationError{Command: name, Reason: "Can not run admin commands under transactions"})
			return
		}
		if name == "SELECT" {
			cc.Reply.SendError(&kvcore.ValidationError{Command: name, Reason: "Can not call SELECT within a transaction"})
			return
		}
	}

	// Validation has fully passed: the poison hook above no longer
	// applies to anything that happens from here on.
	validated = true

	// MULTI/DISCARD/EXEC manage ExecState themselves and must run
	// immediately even while a MULTI is collecting (spec.md §4.4).
	if cc.ExecState != ExecInactive && !isExecControlCommand(name) {
		cc.Queued = append(cc.Queued, StoredCmd{Argv: argv, Cid: cid})
		cc.Reply.SendSimpleString("QUEUED")
		return
	}

	if cc.Script != nil {
		for _, k := range cid.Keys(argv) {
			if !cc.Script.DeclaresKey(k) {
				cc.Reply.SendError(kvcore.ErrUndeclaredKey)
				return
			}
		}
	}

	runHandler(cid, argv, cc)
}

func isExecControlCommand(name string) bool {
	switch name {
	case "MULTI", "EXEC", "DISCARD":
		return true
	default:
		return false
	}
}

// runHandler schedules the Transaction (if the command is transactional),
// invokes the handler, records metrics, and always unlocks the
// transaction's shards afterward regardless of outcome (spec.md §4.2 steps
// 12-16).
func runHandler(cid *CommandID, argv []string, cc *ConnContext) {
	start := time.Now()

	if cid.IsTransactional() && cid.Name != "EVAL" && cid.Name != "EVALSHA" {
		tx := cc.Transaction()
		keys := cid.Keys(argv)
		switch {
		case len(keys) == 0 && cid.OptMask&OptGlobalTrans != 0:
			tx.InitGlobal(cc.DBIndex, cid.OptMask&OptWrite != 0)
		case cid.OptMask&OptWrite != 0:
			tx.InitByArgs(cc.DBIndex, keys, nil)
		default:
			tx.InitByArgs(cc.DBIndex, nil, keys)
		}
		if err := tx.Schedule(); err != nil {
			cc.Reply.SendError(err)
			return
		}
		defer tx.UnlockMulti()
	}

	orig := cc.Reply
	errored := false
	cc.Reply = &errorTrackingReply{ReplyBuilder: orig, errored: &errored}
	cid.Handler(argv, cc)
	cc.Reply = orig

	if cc.Server.Config != nil && cc.Server.Config.Metrics != nil {
		cc.Server.Config.Metrics.RecordCommand(cid.Name, time.Since(start).Microseconds())
		if errored {
			cc.Server.Config.Metrics.RecordError(cid.Name)
		}
	}
}

// errorTrackingReply decorates a ReplyBuilder to observe whether the
// handler it wraps ended in an error reply, without handlers having to
// report that separately (spec.md §4.2 step 15).
type errorTrackingReply struct {
	ReplyBuilder
	errored *bool
}

func (e *errorTrackingReply) SendError(err error) {
	*e.errored = true
	e.ReplyBuilder.SendError(err)
}

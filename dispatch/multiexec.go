package dispatch

import (
	"errors"

	"kvcore"
)

var errNestedMulti = errors.New("MULTI calls can not be nested")
var errExecWithoutMulti = errors.New("EXEC without MULTI")
var errDiscardWithoutMulti = errors.New("DISCARD without MULTI")

// HandleMulti begins queuing mode (spec.md §4.4).
func HandleMulti(argv []string, cc *ConnContext) {
	if cc.ExecState != ExecInactive {
		cc.Reply.SendError(errNestedMulti)
		return
	}
	cc.ExecState = ExecCollect
	cc.Queued = nil
	cc.Reply.SendOK()
}

// HandleDiscard abandons a queued MULTI without running its commands.
func HandleDiscard(argv []string, cc *ConnContext) {
	if cc.ExecState == ExecInactive {
		cc.Reply.SendError(errDiscardWithoutMulti)
		return
	}
	cc.ResetExec()
	cc.Reply.SendOK()
}

// HandleExec replays the queued commands of an open MULTI in order inside
// one array reply, unless a queuing-time error already doomed the batch
// (spec.md §4.4 "EXEC / transaction abort").
func HandleExec(argv []string, cc *ConnContext) {
	if cc.ExecState == ExecInactive {
		cc.Reply.SendError(errExecWithoutMulti)
		return
	}
	if cc.ExecState == ExecError {
		cc.ResetExec()
		cc.Reply.SendError(kvcore.ErrExecAbort)
		return
	}

	queued := cc.Queued
	cc.ResetExec()

	cc.Reply.SendArrayLen(len(queued))
	for _, sc := range queued {
		DispatchCommand(sc.Argv, cc)
		if cc.Reply.GetError() {
			break
		}
	}
}

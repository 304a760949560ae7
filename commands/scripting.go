package commands

import (
	"strconv"

	"kvcore"
	"kvcore/dispatch"
	"kvcore/script"
)

func handleEval(argv []string, cc *dispatch.ConnContext) {
	runEval(argv[1], argv, cc, cc.Server.Scripts.Eval)
}

func handleEvalSha(argv []string, cc *dispatch.ConnContext) {
	sha := argv[1]
	runEval(sha, argv, cc, func(_ string, keys, a []string, call script.CallFromScript, target script.ObjectExplorer) error {
		return cc.Server.Scripts.EvalSha(sha, keys, a, call, target)
	})
}

// evalNumKeys parses EVAL/EVALSHA's argv[2] "numkeys" field, already known
// to exist by the time this runs since both commands have arity -3.
func evalNumKeys(argv []string) (int, error) {
	numkeys, err := strconv.Atoi(argv[2])
	if err != nil || numkeys < 0 || 3+numkeys > len(argv) {
		return 0, &kvcore.ValidationError{Command: "EVAL", Reason: "invalid number of keys"}
	}
	return numkeys, nil
}

// EvalValidator is attached to EVAL and EVALSHA's CommandID so a malformed
// numkeys field is caught at MULTI-queue time (spec.md §4.2 step 9), rather
// than only surfacing once EXEC replays the queued command.
func EvalValidator(argv []string, cc *dispatch.ConnContext) bool {
	if _, err := evalNumKeys(argv); err != nil {
		cc.Reply.SendError(err)
		return false
	}
	return true
}

// runEval parses EVAL/EVALSHA's shared "numkeys key... arg..." tail,
// installs the script's KEYS/ARGV declarations onto cc for the duration
// of the call (spec.md §4.3), builds the redis.call re-entrant hook, and
// replays the result into cc.Reply.
func runEval(first string, argv []string, cc *dispatch.ConnContext, run func(body string, keys, argv []string, call script.CallFromScript, target script.ObjectExplorer) error) {
	numkeys, err := evalNumKeys(argv)
	if err != nil {
		cc.Reply.SendError(err)
		return
	}
	keys := argv[3 : 3+numkeys]
	scriptArgv := argv[3+numkeys:]

	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	prevScript := cc.Script
	cc.Script = &dispatch.ScriptInfo{Keys: keySet}
	defer func() { cc.Script = prevScript }()

	// A script's redis.call body isn't visible up front, so every
	// declared key is locked exclusively for the script's whole run
	// rather than trying to tell its reads from its writes (a
	// deliberately conservative choice over static body analysis).
	tx := cc.Transaction()
	tx.InitByArgs(cc.DBIndex, keys, nil)
	if err := tx.Schedule(); err != nil {
		cc.Reply.SendError(err)
		return
	}
	defer tx.UnlockMulti()

	call := func(cargv []string, explorer script.ObjectExplorer) {
		prevReply := cc.Reply
		cc.Reply = dispatch.NewInterpreterReplier(explorer)
		dispatch.DispatchCommand(cargv, cc)
		cc.Reply = prevReply
	}

	target := dispatch.NewReplyExplorer(cc.Reply)
	if err := run(first, keys, scriptArgv, call, target); err != nil {
		cc.Reply.SendError(err)
	}
}

func handleScript(argv []string, cc *dispatch.ConnContext) {
	if len(argv) < 2 {
		cc.Reply.SendError(kvcore.ErrWrongArity)
		return
	}
	switch upper(argv[1]) {
	case "LOAD":
		if len(argv) != 3 {
			cc.Reply.SendError(kvcore.ErrWrongArity)
			return
		}
		sha := cc.Server.Scripts.Load(argv[2])
		cc.Reply.SendBulkString([]byte(sha))

	case "EXISTS":
		results := cc.Server.Scripts.Exists(argv[2:])
		cc.Reply.SendArrayLen(len(results))
		for _, ok := range results {
			if ok {
				cc.Reply.SendInteger(1)
			} else {
				cc.Reply.SendInteger(0)
			}
		}

	case "FLUSH":
		cc.Server.Scripts.Flush()
		cc.Reply.SendOK()

	default:
		cc.Reply.SendError(&kvcore.ValidationError{Command: "SCRIPT", Reason: "unknown subcommand"})
	}
}

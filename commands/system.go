package commands

import (
	"kvcore"
	"kvcore/dispatch"
)

func handlePing(argv []string, cc *dispatch.ConnContext) {
	if len(argv) == 2 {
		cc.Reply.SendSimpleString(argv[1])
		return
	}
	cc.Reply.SendSimpleString("PONG")
}

func handleEcho(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendBulkString([]byte(argv[1]))
}

func handleAuth(argv []string, cc *dispatch.ConnContext) {
	pass := cc.Server.Config.RequirePass
	if pass == "" {
		cc.Reply.SendError(&kvcore.ValidationError{Command: "AUTH", Reason: "Client sent AUTH, but no password is set"})
		return
	}
	if argv[1] != pass {
		cc.Reply.SendError(&kvcore.ValidationError{Command: "AUTH", Reason: "invalid password"})
		return
	}
	cc.Auth |= dispatch.Authenticated
	cc.Reply.SendOK()
}

func handleCommand(argv []string, cc *dispatch.ConnContext) {
	var names []string
	cc.Server.Registry.Traverse(func(cid *dispatch.CommandID) {
		names = append(names, cid.Name)
	})
	cc.Reply.SendSimpleStrArr(names)
}

func handleQuit(argv []string, cc *dispatch.ConnContext) {
	cc.Reply.SendOK()
}

//go:build !integration

package lunatic_test

import (
	"time"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/tuple"
)

type addRequest = lunatic.Request[tuple.T2[int, int], int]

var (
	adder = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[addRequest]) {
		for {
			req := mb.Receive()
			req.Reply(req.Payload.A + req.Payload.B)
		}
	})

	// answers after sleeping for the requested duration
	sleeper = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[lunatic.Request[time.Duration, int]]) {
		for {
			req := mb.Receive()
			mb.Instance().Sleep(req.Payload)
			req.Reply(1)
		}
	})

	// answers twice, like a duplicated reply, after sleeping for the requested duration
	doubleReplier = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[lunatic.Request[time.Duration, int]]) {
		for {
			req := mb.Receive()
			mb.Instance().Sleep(req.Payload)
			req.Reply(1)
			req.Reply(2)
		}
	})

	crasher = lunatic.NewEntry(func(_ lunatic.Unit, _ lunatic.Mailbox[int]) {
		panic("crash")
	})

	blocker = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[int]) {
		mb.Receive()
	})

	// sends its capture back to the parent and exits
	echo = lunatic.NewEntry(func(c tuple.T2[lunatic.Process[string], string], _ lunatic.Mailbox[int]) {
		c.A.Send(c.B)
	})
)

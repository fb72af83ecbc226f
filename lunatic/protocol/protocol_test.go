//go:build !integration

package protocol_test

import (
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/protocol"
)

type addProtocol struct{}

func (addProtocol) Session() *protocol.Session {
	return protocol.In[int](protocol.In[int](protocol.Out[int](protocol.Done())))
}

// shout upper-cases a string on the left branch, answers 42 on the right
type shoutProtocol struct{}

func (shoutProtocol) Session() *protocol.Session {
	return protocol.Branch(
		protocol.In[string](protocol.Out[string](protocol.Done())),
		protocol.Out[int](protocol.Done()),
	)
}

// sums numbers until told to answer
type sumProtocol struct{}

func (sumProtocol) Session() *protocol.Session {
	return protocol.Loop(protocol.Branch(
		protocol.In[int](protocol.Continue()),
		protocol.Out[int](protocol.Done()),
	))
}

var (
	adder = protocol.NewEntry(func(capture int, p *protocol.Protocol[addProtocol]) {
		a := protocol.Receive[int](p)
		b := protocol.Receive[int](p)
		protocol.Send(p, capture+a+b)
		p.Close()
	})

	shouter = protocol.NewEntry(func(_ lunatic.Unit, p *protocol.Protocol[shoutProtocol]) {
		if p.Offer() {
			protocol.Send(p, strings.ToUpper(protocol.Receive[string](p)))
		} else {
			protocol.Send(p, 42)
		}
		p.Close()
	})

	summer = protocol.NewEntry(func(_ lunatic.Unit, p *protocol.Protocol[sumProtocol]) {
		sum := 0
		for {
			p.Repeat()
			if !p.Offer() {
				protocol.Send(p, sum)
				p.Close()
				return
			}
			sum += protocol.Receive[int](p)
			p.Pop()
		}
	})
)

func TestProtocol_Add(t *testing.T) {
	var sum int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := protocol.SpawnLink(inst, adder, 1)
		if !assert.Check(t, err) {
			return
		}
		protocol.Send(p, 2)
		protocol.Send(p, 2)
		sum = protocol.Result[int](p)
	})

	assert.Equal(t, sum, 5)
}

func TestProtocol_Choice(t *testing.T) {
	var shouted string
	var answer int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		left, err := protocol.SpawnLink(inst, shouter, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		left.SelectLeft()
		protocol.Send(left, "hello")
		shouted = protocol.Result[string](left)

		right, err := protocol.SpawnLink(inst, shouter, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		right.SelectRight()
		answer, err = protocol.ResultTimeout[int](right, time.Second)
		assert.Check(t, err)
	})

	assert.Equal(t, shouted, "HELLO")
	assert.Equal(t, answer, 42)
}

func TestProtocol_Loop(t *testing.T) {
	var sum int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := protocol.SpawnLink(inst, summer, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		for _, n := range []int{1, 2, 3, 4} {
			p.Repeat()
			p.SelectLeft()
			protocol.Send(p, n)
			p.Pop()
		}
		p.Repeat()
		p.SelectRight()
		sum = protocol.Result[int](p)
	})

	assert.Equal(t, sum, 10)
}

func TestProtocol_MessagesDoNotMixWithMailbox(t *testing.T) {
	var plain, sum int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		lunatic.This[int](inst).Send(7)
		p, err := protocol.SpawnLink(inst, adder, 0)
		if !assert.Check(t, err) {
			return
		}
		protocol.Send(p, 1)
		protocol.Send(p, 1)
		sum = protocol.Result[int](p)
		plain = lunatic.NewMailbox[int](inst).Receive()
	})

	assert.Equal(t, sum, 2)
	assert.Equal(t, plain, 7)
}

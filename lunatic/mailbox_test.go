//go:build !integration

package lunatic_test

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/tuple"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm/exitreason"
)

const (
	incrementTag lunatic.Tag = 64
	decrementTag lunatic.Tag = 65
	countTag     lunatic.Tag = 66
)

type counterMsg struct {
	N     int
	Reply *lunatic.ReturnAddress[int]
}

// handles one increment and one decrement before it answers a count
var selectiveCounter = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[counterMsg]) {
	count := 0
	count += mb.TagReceive(incrementTag).N
	count -= mb.TagReceive(decrementTag).N
	req := mb.TagReceive(countTag)
	req.Reply.Send(count)
})

func TestTagReceive_LeavesOtherMessagesQueued(t *testing.T) {
	var got int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, selectiveCounter, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		reply := lunatic.ReturnAddress[int]{Process: lunatic.This[int](inst), Tag: inst.NewTag()}

		p.TagSend(incrementTag, counterMsg{N: 5})
		p.TagSend(countTag, counterMsg{Reply: &reply})
		p.TagSend(decrementTag, counterMsg{N: 50})

		got = lunatic.NewMailbox[int](inst).TagReceive(reply.Tag)
	})

	assert.Equal(t, got, -45)
}

func TestReceive_KeepsSenderOrder(t *testing.T) {
	var got []string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		self := lunatic.This[string](inst)
		for _, s := range []string{"a", "b", "c"} {
			self.Send(s)
		}
		mb := lunatic.NewMailbox[string](inst)
		for range 3 {
			got = append(got, mb.Receive())
		}
	})

	assert.DeepEqual(t, got, []string{"a", "b", "c"})
}

func TestReceiveTimeout_ReturnsErrTimeout(t *testing.T) {
	var err error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		_, err = lunatic.NewMailbox[int](inst).ReceiveTimeout(5 * time.Millisecond)
	})

	assert.ErrorIs(t, err, lunatic.ErrTimeout)
}

func TestCatchLinkFailure_ReportsLinkTag(t *testing.T) {
	var res lunatic.MailboxResult[int]
	var tag lunatic.Tag

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		mb := lunatic.NewMailbox[int](inst).CatchLinkFailure()
		tag = inst.NewTag()
		_, err := lunatic.Spawn(inst, crasher, lunatic.Unit{}, lunatic.LinkTag(tag))
		if !assert.Check(t, err) {
			return
		}
		res = mb.ReceiveTimeout(time.Second)
	})

	assert.Equal(t, res.Kind, lunatic.LinkDied)
	assert.Equal(t, res.Tag, tag)
	_, err := res.Ok()
	assert.ErrorIs(t, err, lunatic.ErrLinkDied)
}

func TestSpawnLink_CrashingChildKillsParent(t *testing.T) {
	v := lunatictest.NewVM(t)

	reason, err := v.Run(func(abi host.ABI) {
		inst := lunatic.NewInstance(abi)
		if _, err := lunatic.SpawnLink(inst, crasher, lunatic.Unit{}); err != nil {
			return
		}
		lunatic.NewMailbox[int](inst).Receive()
	}, time.Second)

	assert.NilError(t, err)
	assert.Assert(t, exitreason.IsLinkDied(reason), "exit reason: %v", reason)
}

func TestMonitorable_ReportsProcessDied(t *testing.T) {
	var res lunatic.MailboxResult[int]
	var id uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, blocker, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		id = p.ID()
		p.Monitor()
		p.Kill()
		res = lunatic.NewMailbox[int](inst).Monitorable().ReceiveTimeout(time.Second)
	})

	assert.Equal(t, res.Kind, lunatic.ProcessDied)
	assert.Equal(t, res.ProcessID, id)
}

func TestCatchingMailbox_ReportsDeserializationFailure(t *testing.T) {
	var res lunatic.MailboxResult[int64]

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		lunatic.This[int8](inst).Send(1)
		res = lunatic.NewMailbox[int64](inst).CatchLinkFailure().Receive()
	})

	assert.Equal(t, res.Kind, lunatic.DeserializationFailed)
	assert.ErrorContains(t, res.Err, "Bincode decode error")
}

func TestSpawn_DeliversCapture(t *testing.T) {
	var got string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		capture := tuple.New2(lunatic.This[string](inst), "hello")
		_, err := lunatic.Spawn(inst, echo, capture)
		if !assert.Check(t, err) {
			return
		}
		got = lunatic.NewMailbox[string](inst).Receive()
	})

	assert.Equal(t, got, "hello")
}

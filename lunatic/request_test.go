//go:build !integration

package lunatic_test

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/tuple"
)

func TestSendRequest_AddServer(t *testing.T) {
	var results []int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, adder, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		results = append(results, lunatic.SendRequest(p, tuple.New2(1, 1)))
		results = append(results, lunatic.SendRequest(p, tuple.New2(1, 2)))
	})

	assert.DeepEqual(t, results, []int{2, 3})
}

func TestSendRequestTimeout_ReturnsTimeoutAndDropsLateReply(t *testing.T) {
	var reqErr, lateErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, sleeper, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		_, reqErr = lunatic.SendRequestTimeout(p, 50*time.Millisecond, 10*time.Millisecond)
		_, lateErr = lunatic.NewMailbox[int](inst).ReceiveTimeout(200 * time.Millisecond)
	})

	assert.ErrorIs(t, reqErr, lunatic.ErrTimeout)
	assert.ErrorIs(t, lateErr, lunatic.ErrTimeout)
}

func TestSendRequestTimeout_DropsEveryLateReply(t *testing.T) {
	var reqErr, lateErr error
	var next int

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, doubleReplier, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		_, reqErr = lunatic.SendRequestTimeout(p, 50*time.Millisecond, 10*time.Millisecond)
		mb := lunatic.NewMailbox[int](inst)
		_, lateErr = mb.ReceiveTimeout(200 * time.Millisecond)

		lunatic.This[int](inst).Send(7)
		next, err = mb.ReceiveTimeout(time.Second)
		assert.Check(t, err)
	})

	assert.ErrorIs(t, reqErr, lunatic.ErrTimeout)
	assert.ErrorIs(t, lateErr, lunatic.ErrTimeout)
	assert.Equal(t, next, 7)
}

func TestSendRequestTimeout_AnswersInTime(t *testing.T) {
	var got int
	var reqErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, sleeper, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		got, reqErr = lunatic.SendRequestTimeout(p, time.Millisecond, time.Second)
	})

	assert.NilError(t, reqErr)
	assert.Equal(t, got, 1)
}

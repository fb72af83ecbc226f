//go:build !integration

package lunatic_test

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
)

// looks up "locked" and reports the id it found, or 0
var lookupLocked = lunatic.NewEntry(func(parent lunatic.Process[uint64], mb lunatic.Mailbox[int]) {
	p, ok := lunatic.Lookup[int](mb.Instance(), "locked")
	if !ok {
		parent.Send(0)
		return
	}
	parent.Send(p.ID())
})

// locks "abandoned" and exits without registering it
var lockAndExit = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[int]) {
	lunatic.GetOrPutLater[int](mb.Instance(), "abandoned")
})

func TestLookup_FindsRegisteredProcess(t *testing.T) {
	var found, wrongType bool
	var self, got uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p := lunatic.This[int](inst)
		self = p.ID()
		p.Register("me")

		var q lunatic.Process[int]
		q, found = lunatic.Lookup[int](inst, "me")
		got = q.ID()
		_, wrongType = lunatic.Lookup[string](inst, "me")
	})

	assert.Assert(t, found)
	assert.Equal(t, got, self)
	assert.Assert(t, !wrongType)
}

func TestRemove_DeletesEntry(t *testing.T) {
	var found bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		lunatic.This[int](inst).Register("gone")
		lunatic.Remove[int](inst, "gone")
		_, found = lunatic.Lookup[int](inst, "gone")
	})

	assert.Assert(t, !found)
}

func TestGetOrPutLater_BlocksLookupsUntilRegister(t *testing.T) {
	var self, seen uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		_, found := lunatic.GetOrPutLater[int](inst, "locked")
		if !assert.Check(t, !found) {
			return
		}
		if _, err := lunatic.Spawn(inst, lookupLocked, lunatic.This[uint64](inst)); !assert.Check(t, err) {
			return
		}
		inst.Sleep(20 * time.Millisecond)

		p := lunatic.This[int](inst)
		self = p.ID()
		p.Register("locked")
		seen = lunatic.NewMailbox[uint64](inst).Receive()
	})

	assert.Equal(t, seen, self)
}

func TestGetOrPutLater_LookupByHolderTraps(t *testing.T) {
	reason := lunatictest.RunExpectTrap(t, func(inst *lunatic.Instance) {
		lunatic.GetOrPutLater[int](inst, "self")
		lunatic.Lookup[int](inst, "self")
	})

	assert.Assert(t, errors.Is(reason.TrapDetail(), lunatic.ErrRegistryLocked), reason.TrapDetail())
}

func TestGetOrPutLater_RegisterReleasesHoldersLock(t *testing.T) {
	var self, got uint64
	var found bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		_, ok := lunatic.GetOrPutLater[int](inst, "mine")
		assert.Check(t, !ok)
		p := lunatic.This[int](inst)
		self = p.ID()
		p.Register("mine")

		var q lunatic.Process[int]
		q, found = lunatic.Lookup[int](inst, "mine")
		got = q.ID()
	})

	assert.Assert(t, found)
	assert.Equal(t, got, self)
}

func TestGetOrPutLater_RemoveReleasesHoldersLock(t *testing.T) {
	var found bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		lunatic.GetOrPutLater[int](inst, "given-up")
		lunatic.Remove[int](inst, "given-up")
		_, found = lunatic.Lookup[int](inst, "given-up")
	})

	assert.Assert(t, !found)
}

func TestGetOrPutLater_LockReleasedWhenHolderDies(t *testing.T) {
	var found bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		p, err := lunatic.Spawn(inst, lockAndExit, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		p.Monitor()
		lunatic.NewMailbox[int](inst).Monitorable().Receive()
		_, found = lunatic.Lookup[int](inst, "abandoned")
	})

	assert.Assert(t, !found)
}

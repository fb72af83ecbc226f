// Package lunatic is an actor SDK for guests of the lunatic runtime.
//
// Every lunatic process is an isolated instance with its own memory. An
// [Instance] is this package's view of the running process: it owns the
// connection to the host ([host.ABI]), the tag counter, the set of abandoned
// request tags and the process-local state. Everything else, from
// [Process] handles and [Mailbox]es to requests, timers and the registry,
// is reached through the instance.
//
// Processes talk only by sending messages. A message is encoded with a
// [serializer.Serializer] (Bincode by default) and carries a [Tag] that the
// receiver can select on:
//
//	p, err := lunatic.Spawn(inst, adder, lunatic.Unit{})
//	sum := lunatic.SendRequest(p, tuple.New2(1, 2))
//
// Under GOOS=wasip1 the root process is obtained with [Root]. Everywhere else
// instances are created by the in-process host in package vm, see package
// lunatictest for running code in tests.
package lunatic

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/hashicorp/golang-lru/v2/simplelru"
	"go.uber.org/atomic"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

// first tag handed out by NewTag is tagCounterStart+1
const tagCounterStart = 128

// maxAbandoned bounds the abandoned request tags an instance remembers. Past
// it the oldest tag is forgotten and a reply to it is received like any other
// message.
const maxAbandoned = 1024

type Instance struct {
	abi       host.ABI
	tags      *atomic.Int64
	abandoned *simplelru.LRU[Tag, struct{}]
	locks     mapset.Set[string] // registry keys locked with GetOrPutLater
	locals    map[uint64]any

	nodeID *uint64
}

// NewInstance wraps the ABI of a freshly started process. Each process must
// have exactly one instance.
func NewInstance(abi host.ABI) *Instance {
	abandoned, err := simplelru.NewLRU[Tag, struct{}](maxAbandoned, nil)
	if err != nil {
		panic(err)
	}
	return &Instance{
		abi:       abi,
		tags:      atomic.NewInt64(tagCounterStart),
		abandoned: abandoned,
		locks:     mapset.NewThreadUnsafeSet[string](),
		locals:    make(map[uint64]any),
	}
}

func (inst *Instance) ABI() host.ABI {
	return inst.abi
}

// ID returns the id of the process this instance belongs to.
func (inst *Instance) ID() uint64 {
	return inst.abi.ProcessThis()
}

// NodeID returns the id of the node this instance runs on.
func (inst *Instance) NodeID() uint64 {
	if inst.nodeID == nil {
		id := inst.abi.DistributedNodeID()
		inst.nodeID = &id
	}
	return *inst.nodeID
}

// Sleep suspends the process for [d].
func (inst *Instance) Sleep(d time.Duration) {
	inst.abi.ProcessSleepMs(chronos.Millis(d))
}

func (inst *Instance) String() string {
	return fmt.Sprintf("Instance<%d.%d>", inst.NodeID(), inst.ID())
}

// abandon marks [tag] so every message carrying it is dropped when it
// arrives. Request tags are never handed out twice, so the mark stays until
// the tag is evicted.
func (inst *Instance) abandon(tag Tag) {
	inst.abandoned.Add(tag, struct{}{})
}

func (inst *Instance) isAbandoned(tag Tag) bool {
	return inst.abandoned.Len() > 0 && inst.abandoned.Contains(tag)
}

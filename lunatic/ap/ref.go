package ap

import (
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// ProcessRef is a handle on a running abstract process with state S. Like
// [lunatic.Process] it is a plain value that can be copied and sent in Bincode
// messages.
type ProcessRef[S any] struct {
	inst    *lunatic.Instance
	nodeID  uint64
	id      uint64
	timeout time.Duration
}

func (r ProcessRef[S]) ID() uint64 {
	return r.id
}

func (r ProcessRef[S]) NodeID() uint64 {
	return r.nodeID
}

func (r ProcessRef[S]) String() string {
	return fmt.Sprintf("ProcessRef<%d.%d>", r.nodeID, r.id)
}

// WithTimeout returns a copy of [r] whose calls give up after [d].
func (r ProcessRef[S]) WithTimeout(d time.Duration) ProcessRef[S] {
	r.timeout = d
	return r
}

// WithDelay returns a handle for delayed casts, see [Message.SendDelayed].
func (r ProcessRef[S]) WithDelay(d time.Duration) DelayedRef[S] {
	return DelayedRef[S]{ProcessRef: r, delay: d}
}

func (r ProcessRef[S]) requestTimeout() time.Duration {
	if r.timeout <= 0 {
		return -1
	}
	return r.timeout
}

func (r ProcessRef[S]) process() lunatic.Process[lunatic.Unit] {
	return lunatic.ProcessOnNode[lunatic.Unit](r.inst, r.nodeID, r.id)
}

func (r ProcessRef[S]) Link() {
	r.process().Link()
}

func (r ProcessRef[S]) LinkTag(tag lunatic.Tag) {
	r.process().LinkTag(tag)
}

func (r ProcessRef[S]) Unlink() {
	r.process().Unlink()
}

func (r ProcessRef[S]) Monitor() {
	r.process().Monitor()
}

// Kill stops the process without running its Terminate.
func (r ProcessRef[S]) Kill() {
	r.process().Kill()
}

func (r ProcessRef[S]) IsAlive() bool {
	return r.process().IsAlive()
}

// Register puts [r] in the registry under [name], replacing any earlier entry.
func (r ProcessRef[S]) Register(name lunatic.ProcessName) {
	r.inst.ABI().RegistryPut(registryKey[S](name), r.nodeID, r.id)
}

// Shutdown asks the process to stop and waits until it has run its Terminate.
// It fails with [lunatic.ErrTimeout] if the process does not answer within the
// timeout of [r].
func (r ProcessRef[S]) Shutdown() error {
	return r.control(shutdownIndex)
}

// WaitOnShutdown blocks until the process shuts down in an orderly way. It
// does not return if the process dies otherwise, unless [r] has a timeout.
func (r ProcessRef[S]) WaitOnShutdown() error {
	return r.control(subscribeIndex)
}

func (r ProcessRef[S]) control(index uint8) error {
	p := lunatic.ProcessOnNode[lunatic.Request[lunatic.Unit, lunatic.Unit]](r.inst, r.nodeID, r.id)
	_, err := lunatic.SendRequestTag(p, r.inst.TagFromU6(index), lunatic.Unit{}, r.requestTimeout())
	return err
}

func (r ProcessRef[S]) MarshalResource(res serializer.Resources) (uint64, error) {
	return res.PushProcess(r.nodeID, r.id), nil
}

func (r *ProcessRef[S]) UnmarshalResource(res serializer.Resources, index uint64) error {
	nodeID, id, err := res.TakeProcess(index)
	if err != nil {
		return err
	}
	r.nodeID, r.id = nodeID, id
	if inst, ok := lunatic.InstanceOf(res); ok {
		r.inst = inst
	}
	return nil
}

func (r ProcessRef[S]) MarshalJSON() ([]byte, error) {
	return nil, serializer.ErrResourcesUnsupported
}

func (r ProcessRef[S]) EncodeMsgpack(*msgpack.Encoder) error {
	return serializer.ErrResourcesUnsupported
}

// DelayedRef is a [ProcessRef] whose casts are delivered after a delay.
type DelayedRef[S any] struct {
	ProcessRef[S]
	delay time.Duration
}

func registryKey[S any](name lunatic.ProcessName) string {
	return lunatic.RegistryKey[S](serializer.Default(), lunatic.KindProcessRef, name.ProcessName())
}

// Lookup returns the abstract process registered under [name].
func Lookup[S any](inst *lunatic.Instance, name lunatic.ProcessName) (ProcessRef[S], bool) {
	nodeID, id, ok := inst.ABI().RegistryGet(registryKey[S](name))
	if !ok {
		return ProcessRef[S]{}, false
	}
	return ProcessRef[S]{inst: inst, nodeID: nodeID, id: id}, true
}

// Remove deletes the registry entry under [name].
func Remove[S any](inst *lunatic.Instance, name lunatic.ProcessName) {
	inst.ABI().RegistryRemove(registryKey[S](name))
}

var (
	_ serializer.ResourceMarshaler   = ProcessRef[int]{}
	_ serializer.ResourceUnmarshaler = (*ProcessRef[int])(nil)
	_ msgpack.CustomEncoder          = ProcessRef[int]{}
)

// RefOf turns a plain process handle into a reference on an abstract process
// with state S. Nothing checks that the process really runs such a behavior.
func RefOf[S, M any](p lunatic.Process[M]) ProcessRef[S] {
	return ProcessRef[S]{inst: p.Instance(), nodeID: p.NodeID(), id: p.ID()}
}

package lunatic

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// Process is a handle on a process that accepts messages of type M.
//
// Handles are plain values: copying one is free and it stays valid after the
// process dies, in which case sends are silently dropped. Under Bincode a
// handle can itself be sent in a message; it travels in the message's
// resource array and the receiver gets a handle bound to its own instance.
type Process[M any] struct {
	inst       *Instance
	nodeID     uint64
	id         uint64
	serializer serializer.Serializer
}

// ProcessFromID returns a handle on the local process [id].
func ProcessFromID[M any](inst *Instance, id uint64, opts ...HandleOpt) Process[M] {
	return ProcessOnNode[M](inst, inst.NodeID(), id, opts...)
}

// ProcessOnNode returns a handle on process [id] of node [nodeID].
func ProcessOnNode[M any](inst *Instance, nodeID, id uint64, opts ...HandleOpt) Process[M] {
	p := Process[M]{inst: inst, nodeID: nodeID, id: id}
	for _, opt := range opts {
		opt(&p.serializer)
	}
	return p
}

// HandleOpt configures a process handle.
type HandleOpt func(s *serializer.Serializer)

// Using makes the handle encode its messages with [s].
func Using(s serializer.Serializer) HandleOpt {
	return func(dst *serializer.Serializer) { *dst = s }
}

// This returns a handle on the calling process.
func This[M any](inst *Instance, opts ...HandleOpt) Process[M] {
	return ProcessFromID[M](inst, inst.ID(), opts...)
}

func (p Process[M]) codec() serializer.Serializer {
	if p.serializer == nil {
		return serializer.Default()
	}
	return p.serializer
}

func (p Process[M]) ID() uint64 {
	return p.id
}

func (p Process[M]) NodeID() uint64 {
	return p.nodeID
}

// Instance returns the instance the handle is bound to.
func (p Process[M]) Instance() *Instance {
	return p.inst
}

func (p Process[M]) String() string {
	return fmt.Sprintf("Process<%d.%d>", p.nodeID, p.id)
}

// UUID returns the host-wide unique id of a local process, or uuid.Nil if it has exited.
func (p Process[M]) UUID() uuid.UUID {
	p.mustBeLocal("UUID")
	return uuid.UUID(p.inst.abi.ProcessID(p.id))
}

func (p Process[M]) isLocal() bool {
	return p.nodeID == p.inst.NodeID()
}

func (p Process[M]) mustBeLocal(op string) {
	if !p.isLocal() {
		panic(fmt.Sprintf("lunatic: %s can only be used with local processes, %v is on another node", op, p))
	}
}

// Send sends [msg] tagged with [TagNone].
func (p Process[M]) Send(msg M) {
	p.TagSend(TagNone, msg)
}

func (p Process[M]) TagSend(tag Tag, msg M) {
	prepareMessage(p.inst, tag, msg, p.codec())
	sendPrepared(p.inst, p.nodeID, p.id)
}

// SendAfter sends [msg] once [d] has passed. The returned timer can cancel it.
func (p Process[M]) SendAfter(msg M, d time.Duration) TimerRef {
	return p.TagSendAfter(TagNone, msg, d)
}

func (p Process[M]) TagSendAfter(tag Tag, msg M, d time.Duration) TimerRef {
	p.mustBeLocal("delayed sends")
	prepareMessage(p.inst, tag, msg, p.codec())
	return TimerRef{inst: p.inst, id: p.inst.abi.TimerSendAfter(p.id, chronos.Millis(d))}
}

// Link links the caller with [p] using tag 0. If either dies abnormally, so does the other,
// unless it catches link failures.
func (p Process[M]) Link() {
	p.inst.abi.ProcessLink(0, p.id)
}

// LinkTag links the caller with [p]; a caught link death carries [tag].
func (p Process[M]) LinkTag(tag Tag) {
	p.inst.abi.ProcessLink(int64(tag), p.id)
}

func (p Process[M]) Unlink() {
	p.inst.abi.ProcessUnlink(p.id)
}

func (p Process[M]) Kill() {
	p.inst.abi.ProcessKill(p.id)
}

func (p Process[M]) IsAlive() bool {
	p.mustBeLocal("IsAlive")
	return p.inst.abi.ProcessExists(p.id)
}

// Monitor makes the caller receive a ProcessDied signal when [p] exits. Use a
// [MonitorableMailbox] to see it.
func (p Process[M]) Monitor() {
	p.inst.abi.ProcessMonitor(p.id)
}

func (p Process[M]) Demonitor() {
	p.inst.abi.ProcessDemonitor(p.id)
}

// Register makes [p] findable through [Lookup] under [name].
// It releases a lock the caller took on [name] with [GetOrPutLater].
func (p Process[M]) Register(name string) {
	key := RegistryKey[M](p.codec(), KindProcess, name)
	p.inst.abi.RegistryPut(key, p.nodeID, p.id)
	p.inst.locks.Remove(key)
}

// WithSerializer returns a copy of the handle that encodes with [s].
func (p Process[M]) WithSerializer(s serializer.Serializer) Process[M] {
	p.serializer = s
	return p
}

func (p Process[M]) MarshalResource(res serializer.Resources) (uint64, error) {
	return res.PushProcess(p.nodeID, p.id), nil
}

func (p *Process[M]) UnmarshalResource(res serializer.Resources, index uint64) error {
	nodeID, id, err := res.TakeProcess(index)
	if err != nil {
		return err
	}
	p.nodeID, p.id = nodeID, id
	if inst, ok := InstanceOf(res); ok {
		p.inst = inst
	}
	return nil
}

// Process handles are host resources and cannot be written as JSON.
func (p Process[M]) MarshalJSON() ([]byte, error) {
	return nil, serializer.ErrResourcesUnsupported
}

// Process handles are host resources and cannot be written as MessagePack.
func (p Process[M]) EncodeMsgpack(*msgpack.Encoder) error {
	return serializer.ErrResourcesUnsupported
}

var (
	_ serializer.ResourceMarshaler   = Process[int]{}
	_ serializer.ResourceUnmarshaler = (*Process[int])(nil)
	_ msgpack.CustomEncoder          = Process[int]{}
)

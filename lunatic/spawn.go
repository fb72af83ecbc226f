package lunatic

import (
	"fmt"
	"sync"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// EntryPointID is the index of a function in the module's entry table. Every
// instance of a module builds the same table during package initialization,
// so an index picked in one process names the same function in another.
type EntryPointID int32

var (
	entriesMx sync.RWMutex
	entries   []func(inst *Instance, arg uint32)
)

// RegisterEntryPoint adds [fn] to the entry table. It must only be called
// during package initialization.
func RegisterEntryPoint(fn func(inst *Instance, arg uint32)) EntryPointID {
	entriesMx.Lock()
	defer entriesMx.Unlock()
	entries = append(entries, fn)
	return EntryPointID(len(entries) - 1)
}

func entryPoint(id EntryPointID) func(*Instance, uint32) {
	entriesMx.RLock()
	defer entriesMx.RUnlock()
	if id < 0 || int(id) >= len(entries) {
		panic(fmt.Sprintf("lunatic: entry point %d is not registered", id))
	}
	return entries[id]
}

func init() {
	host.RegisterExport(host.ExportSpawnByIndex, func(abi host.ABI, params []host.Param) uint64 {
		if len(params) != 2 {
			panic(fmt.Sprintf("lunatic: %s expects 2 params, got %d", host.ExportSpawnByIndex, len(params)))
		}
		fn := entryPoint(EntryPointID(params[0].I32()))
		fn(NewInstance(abi), uint32(params[1].I32()))
		return 0
	})
	host.RegisterExport(host.ExportCatchTrap, catchTrapExport)
}

// Unit is the empty capture.
type Unit struct{}

// Entry is a spawnable function that receives a capture of type C and handles
// messages of type M.
type Entry[C, M any] struct {
	id EntryPointID
}

// NewEntry registers [fn] as a spawnable function. Declare entries as package
// level variables:
//
//	var echo = lunatic.NewEntry(func(_ lunatic.Unit, mb lunatic.Mailbox[string]) { ... })
func NewEntry[C, M any](fn func(capture C, mailbox Mailbox[M])) Entry[C, M] {
	id := RegisterEntryPoint(func(inst *Instance, arg uint32) {
		s, ok := serializer.ByID(serializer.ID(arg))
		if !ok {
			panic(fmt.Sprintf("lunatic: spawned with unknown serializer %d", arg))
		}
		capture, err := receiveCapture[C](inst, s, captureTag)
		if err != nil {
			panic(fmt.Sprintf("lunatic: decode capture: %v", err))
		}
		fn(capture, NewMailbox[M](inst, Using(s)))
	})
	return Entry[C, M]{id: id}
}

func (e Entry[C, M]) ID() EntryPointID {
	return e.id
}

// receiveCapture waits for the first message, which the parent sends right
// after the spawn.
func receiveCapture[C any](inst *Instance, s serializer.Serializer, tag Tag) (C, error) {
	var zero C
	if code := inst.abi.MessageReceive([]int64{int64(tag)}, host.NoTimeout); code != host.DataMessage {
		return zero, fmt.Errorf("expected the capture, got receive result %d", code)
	}
	return decodeMessage[C](inst, s)
}

type spawnOptions struct {
	link       bool
	tag        Tag
	config     *ProcessConfig
	node       *uint64
	serializer serializer.Serializer
}

type SpawnOpt func(o *spawnOptions)

// Link links the child with the caller under a new tag.
func Link() SpawnOpt {
	return func(o *spawnOptions) {
		o.link = true
	}
}

// LinkTag links the child with the caller under [tag].
func LinkTag(tag Tag) SpawnOpt {
	return func(o *spawnOptions) {
		o.link = true
		o.tag = tag
	}
}

func WithConfig(cfg *ProcessConfig) SpawnOpt {
	return func(o *spawnOptions) {
		o.config = cfg
	}
}

// OnNode spawns the child on another node of the cluster. Remote children
// cannot be linked.
func OnNode(nodeID uint64) SpawnOpt {
	return func(o *spawnOptions) {
		o.node = &nodeID
	}
}

// WithSerializer picks the codec for the capture and the child's messages.
// Only the built-in codecs can be used, the child finds its codec by [serializer.ID].
func WithSerializer(s serializer.Serializer) SpawnOpt {
	return func(o *spawnOptions) {
		o.serializer = s
	}
}

// Spawn starts [entry] in a new process and sends it [capture].
func Spawn[C, M any](inst *Instance, entry Entry[C, M], capture C, opts ...SpawnOpt) (Process[M], error) {
	o := spawnOptions{serializer: serializer.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if builtin, ok := serializer.ByID(o.serializer.ID()); !ok || builtin.ID() != o.serializer.ID() {
		panic(fmt.Sprintf("lunatic: %s is not a built-in serializer", o.serializer.ID()))
	}

	nodeID, id, err := spawnEntry(inst, entry.id, o)
	if err != nil {
		return Process[M]{}, err
	}
	p := ProcessOnNode[M](inst, nodeID, id, Using(o.serializer))

	prepareMessage(inst, captureTag, capture, o.serializer)
	sendPrepared(inst, nodeID, id)
	return p, nil
}

func spawnEntry(inst *Instance, entry EntryPointID, o spawnOptions) (nodeID, id uint64, err error) {
	params := host.EncodeParams(host.I32(int32(entry)), host.I32(int32(o.serializer.ID())))
	configID := host.InheritConfig
	if o.config != nil {
		configID = o.config.id
	}

	if o.node != nil && *o.node != inst.NodeID() {
		if o.link {
			panic("lunatic: processes on other nodes cannot be linked at spawn")
		}
		id, ok := inst.abi.DistributedSpawn(*o.node, configID, inst.abi.DistributedModuleID(), host.ExportSpawnByIndex, params)
		if !ok {
			return 0, 0, &SpawnError{Err: newLunaticError(inst, id)}
		}
		debugf("spawned process %d on node %d", id, *o.node)
		return *o.node, id, nil
	}

	var link int64
	if o.link {
		if o.tag == 0 {
			o.tag = inst.NewTag()
		}
		link = int64(o.tag)
	}
	id, ok := inst.abi.ProcessSpawn(link, configID, host.InheritModule, host.ExportSpawnByIndex, params)
	if !ok {
		return 0, 0, &SpawnError{Err: newLunaticError(inst, id)}
	}
	debugf("spawned process %d with link tag %d", id, link)
	return inst.NodeID(), id, nil
}

// SpawnLink spawns [entry] linked with the caller.
func SpawnLink[C, M any](inst *Instance, entry Entry[C, M], capture C) (Process[M], error) {
	return Spawn(inst, entry, capture, Link())
}

// SpawnConfig spawns [entry] with [cfg].
func SpawnConfig[C, M any](inst *Instance, cfg *ProcessConfig, entry Entry[C, M], capture C) (Process[M], error) {
	return Spawn(inst, entry, capture, WithConfig(cfg))
}

// SpawnNode spawns [entry] on node [nodeID].
func SpawnNode[C, M any](inst *Instance, nodeID uint64, entry Entry[C, M], capture C) (Process[M], error) {
	return Spawn(inst, entry, capture, OnNode(nodeID))
}

package ap

import (
	"errors"
	"fmt"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
)

type startStatus uint8

const (
	statusOK startStatus = iota
	statusPanicked
	statusFailed
)

// startCapture is the capture of a new abstract process: where to report the
// outcome of Init, and its argument.
type startCapture[Arg any] struct {
	Parent lunatic.Process[startResult]
	Tag    lunatic.Tag
	Arg    Arg
}

type startResult struct {
	Status startStatus
	Err    string
}

type StartupErrorKind uint8

const (
	InitPanicked StartupErrorKind = iota + 1
	NameAlreadyRegistered
	Custom
)

func (k StartupErrorKind) String() string {
	switch k {
	case InitPanicked:
		return "InitPanicked"
	case NameAlreadyRegistered:
		return "NameAlreadyRegistered"
	case Custom:
		return "Custom"
	default:
		return fmt.Sprintf("StartupErrorKind(%d)", uint8(k))
	}
}

var (
	ErrInitPanicked          = errors.New("ap: init panicked")
	ErrNameAlreadyRegistered = errors.New("ap: name already registered")
)

// StartupError reports why an abstract process did not start. Existing is set
// for [NameAlreadyRegistered] and Err for [Custom].
type StartupError[S any] struct {
	Kind     StartupErrorKind
	Existing ProcessRef[S]
	Err      error
}

func (e *StartupError[S]) Error() string {
	switch e.Kind {
	case NameAlreadyRegistered:
		return fmt.Sprintf("%v: %v", ErrNameAlreadyRegistered, e.Existing)
	case Custom:
		return fmt.Sprintf("ap: init failed: %v", e.Err)
	default:
		return ErrInitPanicked.Error()
	}
}

func (e *StartupError[S]) Unwrap() error {
	switch e.Kind {
	case InitPanicked:
		return ErrInitPanicked
	case NameAlreadyRegistered:
		return ErrNameAlreadyRegistered
	default:
		return e.Err
	}
}

// Builder starts abstract processes with options.
type Builder[S, Arg any] struct {
	inst     *lunatic.Instance
	behavior *Behavior[S, Arg]
	opts     []lunatic.SpawnOpt
}

func Build[S, Arg any](inst *lunatic.Instance, b *Behavior[S, Arg]) *Builder[S, Arg] {
	return &Builder[S, Arg]{inst: inst, behavior: b}
}

// Link links the new process with the caller.
func (b *Builder[S, Arg]) Link() *Builder[S, Arg] {
	b.opts = append(b.opts, lunatic.Link())
	return b
}

// LinkWith links the new process with the caller under [tag].
func (b *Builder[S, Arg]) LinkWith(tag lunatic.Tag) *Builder[S, Arg] {
	b.opts = append(b.opts, lunatic.LinkTag(tag))
	return b
}

func (b *Builder[S, Arg]) Configure(cfg *lunatic.ProcessConfig) *Builder[S, Arg] {
	b.opts = append(b.opts, lunatic.WithConfig(cfg))
	return b
}

// OnNode starts the process on another node. It cannot be combined with a link.
func (b *Builder[S, Arg]) OnNode(nodeID uint64) *Builder[S, Arg] {
	b.opts = append(b.opts, lunatic.OnNode(nodeID))
	return b
}

// Start spawns the process and waits for its Init to return.
func (b *Builder[S, Arg]) Start(arg Arg) (ProcessRef[S], error) {
	inst := b.inst
	tag := inst.NewTag()
	capture := startCapture[Arg]{
		Parent: lunatic.This[startResult](inst),
		Tag:    tag,
		Arg:    arg,
	}
	p, err := lunatic.Spawn(inst, b.behavior.entry, capture, b.opts...)
	if err != nil {
		return ProcessRef[S]{}, err
	}

	res := lunatic.NewMailbox[startResult](inst).TagReceive(tag)
	switch res.Status {
	case statusOK:
		return ProcessRef[S]{inst: inst, nodeID: p.NodeID(), id: p.ID()}, nil
	case statusPanicked:
		return ProcessRef[S]{}, &StartupError[S]{Kind: InitPanicked}
	default:
		return ProcessRef[S]{}, &StartupError[S]{Kind: Custom, Err: errors.New(res.Err)}
	}
}

// StartAs is [Builder.Start] under a registry name. If the name is taken the
// running process is returned inside a [NameAlreadyRegistered] error. Use
// [lunatic.Name] for a literal name or [lunatic.DefaultProcessName] for a
// process of which only one should run.
func (b *Builder[S, Arg]) StartAs(name lunatic.ProcessName, arg Arg) (ProcessRef[S], error) {
	abi := b.inst.ABI()
	key := registryKey[S](name)
	if nodeID, id, found := abi.RegistryGetOrPutLater(key); found {
		existing := ProcessRef[S]{inst: b.inst, nodeID: nodeID, id: id}
		return existing, &StartupError[S]{Kind: NameAlreadyRegistered, Existing: existing}
	}

	ref, err := b.Start(arg)
	if err != nil {
		abi.RegistryRemove(key)
		return ref, err
	}
	abi.RegistryPut(key, ref.nodeID, ref.id)
	return ref, nil
}

// Start is Build(inst, b).Start(arg).
func Start[S, Arg any](inst *lunatic.Instance, b *Behavior[S, Arg], arg Arg) (ProcessRef[S], error) {
	return Build(inst, b).Start(arg)
}

func StartLink[S, Arg any](inst *lunatic.Instance, b *Behavior[S, Arg], arg Arg) (ProcessRef[S], error) {
	return Build(inst, b).Link().Start(arg)
}

func StartAs[S, Arg any](inst *lunatic.Instance, b *Behavior[S, Arg], name lunatic.ProcessName, arg Arg) (ProcessRef[S], error) {
	return Build(inst, b).StartAs(name, arg)
}

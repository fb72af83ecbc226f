package vm

import (
	"fmt"
	"runtime/debug"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/internal/inbox"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm/exitreason"
)

// exitPanic unwinds the guest goroutine of a process that has already exited,
// for example because it was killed while blocked in a receive.
type exitPanic struct {
	reason *exitreason.S
}

type process struct {
	vm     *VM
	id     uint64
	uuid   uuid.UUID
	config processConfig
	log    *zap.Logger

	signals *inbox.Inbox[signal]
	mailbox *inbox.Inbox[envelope]

	// owned by the signal loop
	links    map[uint64]int64
	monitors mapset.Set[uint64]

	dieWhenLinkDies *atomic.Bool
	reason          *atomic.Pointer[exitreason.S]
	exited          chan struct{}
}

func newProcess(vm *VM, id uint64, cfg processConfig) *process {
	return &process{
		vm:              vm,
		id:              id,
		uuid:            uuid.New(),
		config:          cfg,
		log:             vm.log.With(zap.Uint64("pid", id), zap.Uint64("node", vm.nodeID)),
		signals:         inbox.New[signal](),
		mailbox:         inbox.New[envelope](),
		links:           make(map[uint64]int64),
		monitors:        mapset.NewThreadUnsafeSet[uint64](),
		dieWhenLinkDies: atomic.NewBool(true),
		reason:          atomic.NewPointer[exitreason.S](nil),
		exited:          make(chan struct{}),
	}
}

func (p *process) String() string {
	return fmt.Sprintf("Process<%d.%d>", p.vm.nodeID, p.id)
}

// run starts the signal loop and a goroutine running [fn] as the guest.
func (p *process) run(fn func(abi host.ABI)) {
	go p.loop()

	go func() {
		reason := exitreason.Normal
		defer func() {
			if r := recover(); r != nil {
				if ep, ok := r.(exitPanic); ok {
					reason = ep.reason
				} else {
					reason = exitreason.Trap(trapError(r, debug.Stack()))
					p.log.Debug("process trapped", zap.Any("panic", r))
				}
			}
			p.signals.Enqueue(finishedSignal{reason: reason})
		}()

		fn(newProcessABI(p))
	}()
}

// trapError keeps an error panic in the chain of the trap detail.
func trapError(r any, stack []byte) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("%w, stack: %s", err, stack)
	}
	return fmt.Errorf("%v, stack: %s", r, stack)
}

func (p *process) loop() {
	all := func(signal) bool { return true }
	for {
		sig, ok, closed := p.signals.WaitMatch(all, -1)
		if closed != nil {
			return
		}
		if !ok {
			continue
		}
		p.handle(sig)

		if p.reason.Load() != nil {
			for _, late := range p.signals.Drain() {
				p.vm.replyDead(p.id, late)
			}
			return
		}
	}
}

func (p *process) handle(s signal) {
	switch sig := s.(type) {
	case messageSignal:
		p.mailbox.Enqueue(envelope{kind: envData, tag: sig.msg.tag, msg: sig.msg})
	case linkSignal:
		p.links[sig.peer] = sig.tag
	case unlinkSignal:
		delete(p.links, sig.peer)
	case monitorSignal:
		p.monitors.Add(sig.watcher)
	case demonitorSignal:
		p.monitors.Remove(sig.watcher)
	case downSignal:
		p.mailbox.Enqueue(envelope{kind: envProcessDied, pid: sig.proc})
	case exitSignal:
		tag, linked := p.links[sig.sender]
		if !linked {
			if sig.reason != exitreason.NoProc {
				// unlinked before the exit arrived
				return
			}
			tag = sig.tag
		}
		delete(p.links, sig.sender)

		if p.dieWhenLinkDies.Load() {
			p.log.Debug("linked process died, exiting", zap.Uint64("peer", sig.sender), zap.Int64("tag", tag))
			p.exit(exitreason.LinkDied(tag))
			return
		}
		p.mailbox.Enqueue(envelope{kind: envLinkDied, tag: tag})
	case killSignal:
		p.exit(exitreason.Killed)
	case finishedSignal:
		p.exit(sig.reason)
	default:
		p.log.Warn("unknown signal", zap.String("signal", s.signalName()))
	}
}

// exit is only called from the signal loop. Once it returns the process is dead:
// its id no longer resolves, its registry locks are released and its peers have
// been told. A guest goroutine that is still running unwinds at its next host call.
func (p *process) exit(reason *exitreason.S) {
	if !p.reason.CompareAndSwap(nil, reason) {
		return
	}
	p.log.Debug("process exited", zap.NamedError("reason", reason))

	p.vm.forget(p.id)
	p.vm.registry.releaseLocks(p.id)

	for peer, tag := range p.links {
		if reason.Abnormal() {
			p.vm.send(peer, exitSignal{sender: p.id, tag: tag, reason: reason})
		} else {
			p.vm.send(peer, unlinkSignal{peer: p.id})
		}
	}
	for watcher := range p.monitors.Iter() {
		p.vm.send(watcher, downSignal{proc: p.id})
	}

	p.mailbox.Close()
	close(p.exited)
	p.vm.registry.wake()
}

// check panics with the exit reason if the process has already exited.
func (p *process) check() {
	if r := p.reason.Load(); r != nil {
		panic(exitPanic{reason: r})
	}
}

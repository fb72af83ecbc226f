package ap

import (
	"fmt"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
	"github.com/lunatic-solutions/lunatic-go/lunatic/timeout"
)

const (
	maxHandlers    = 16
	shutdownIndex  = 32
	subscribeIndex = 33
)

// AbstractProcess is implemented by the state type S. Init is called on the
// zero value of S and returns the initial state.
type AbstractProcess[S, Arg any] interface {
	Init(cfg *Config[S], arg Arg) (S, error)
}

// Terminator is implemented by states that clean up on an orderly shutdown.
type Terminator[S any] interface {
	Terminate(cfg *Config[S])
}

// LinkDeathHandler is implemented by states that handle the death of a linked
// process instead of dying with it.
type LinkDeathHandler[S any] interface {
	HandleLinkDeath(cfg *Config[S], tag lunatic.Tag)
}

// Config is the view an abstract process has of itself.
type Config[S any] struct {
	inst        *lunatic.Instance
	self        ProcessRef[S]
	subscribers []lunatic.ReturnAddress[lunatic.Unit]
}

func (c *Config[S]) Self() ProcessRef[S] {
	return c.self
}

func (c *Config[S]) Instance() *lunatic.Instance {
	return c.inst
}

// DieWhenLinkDies sets whether the process dies with its linked processes.
func (c *Config[S]) DieWhenLinkDies(die bool) {
	c.inst.ABI().ProcessDieWhenLinkDies(die)
}

// Behavior is the compiled definition of an abstract process: its Init
// function and its handler table. Behaviors must be created during package
// initialization.
type Behavior[S, Arg any] struct {
	init     func(cfg *Config[S], arg Arg) (S, error)
	handlers [maxHandlers + 1]Handler[S]
	entry    lunatic.Entry[startCapture[Arg], lunatic.Unit]
}

// Handlers defines the behavior of S from its Init method and [handlers], in order.
func Handlers[S AbstractProcess[S, Arg], Arg any](handlers ...Handler[S]) *Behavior[S, Arg] {
	var zero S
	return Define(zero.Init, handlers...)
}

// Define is [Handlers] for states whose Init is not a method, for example
// because it closes over configuration.
func Define[S, Arg any](init func(cfg *Config[S], arg Arg) (S, error), handlers ...Handler[S]) *Behavior[S, Arg] {
	if len(handlers) > maxHandlers {
		panic(fmt.Sprintf("ap: %d handlers given, at most %d are supported", len(handlers), maxHandlers))
	}
	b := &Behavior[S, Arg]{init: init}
	for i, h := range handlers {
		index := uint8(i + 1)
		h.bind(index)
		b.handlers[index] = h
	}
	b.entry = lunatic.NewEntry(b.run)
	return b
}

type initOutcome[S any] struct {
	state S
	err   error
}

func (b *Behavior[S, Arg]) run(c startCapture[Arg], mb lunatic.Mailbox[lunatic.Unit]) {
	inst := mb.Instance()
	cfg := &Config[S]{inst: inst}
	cfg.self = ProcessRef[S]{inst: inst, nodeID: inst.NodeID(), id: inst.ID()}

	var zero S
	if _, ok := any(&zero).(LinkDeathHandler[S]); ok {
		cfg.DieWhenLinkDies(false)
	}

	out, err := lunatic.CatchPanic(inst, func() initOutcome[S] {
		s, err := b.init(cfg, c.Arg)
		return initOutcome[S]{state: s, err: err}
	})
	switch {
	case err != nil:
		c.Parent.TagSend(c.Tag, startResult{Status: statusPanicked})
		return
	case out.err != nil:
		c.Parent.TagSend(c.Tag, startResult{Status: statusFailed, Err: out.err.Error()})
		return
	}
	c.Parent.TagSend(c.Tag, startResult{Status: statusOK})

	b.loop(cfg, out.state)
}

func (b *Behavior[S, Arg]) loop(cfg *Config[S], state S) {
	for {
		env := lunatic.ReceiveEnvelope(cfg.inst, timeout.Infinity)
		switch env.Kind {
		case lunatic.LinkDied:
			if h, ok := any(&state).(LinkDeathHandler[S]); ok {
				h.HandleLinkDeath(cfg, env.Tag)
			}
			continue
		case lunatic.Message:
		default:
			continue
		}

		_, index := env.Tag.ExtractU6()
		switch {
		case index == 0:
			lunatic.Logger().Sugar().Debugf("ap: %v dropped message with plain tag %d", cfg.self, env.Tag)
		case index == shutdownIndex:
			b.shutdown(cfg, &state, env)
			return
		case index == subscribeIndex:
			req := mustDecode[lunatic.Request[lunatic.Unit, lunatic.Unit]](env)
			cfg.subscribers = append(cfg.subscribers, req.ReturnAddress)
		case index <= maxHandlers && b.handlers[index] != nil:
			b.handlers[index].dispatch(&state, cfg, env)
		default:
			panic(fmt.Sprintf("ap: %v has no handler with index %d", cfg.self, index))
		}
	}
}

func (b *Behavior[S, Arg]) shutdown(cfg *Config[S], state *S, env lunatic.Envelope) {
	req := mustDecode[lunatic.Request[lunatic.Unit, lunatic.Unit]](env)
	if t, ok := any(state).(Terminator[S]); ok {
		t.Terminate(cfg)
	}
	req.Reply(lunatic.Unit{})
	for _, sub := range cfg.subscribers {
		sub.Send(lunatic.Unit{})
	}
}

// mustDecode reads the payload of [env]. A payload that does not decode is a
// protocol violation and traps the process.
func mustDecode[M any](env lunatic.Envelope) M {
	m, err := lunatic.Decode[M](env, serializer.Default())
	if err != nil {
		panic(fmt.Sprintf("ap: decode %T: %v", m, err))
	}
	return m
}

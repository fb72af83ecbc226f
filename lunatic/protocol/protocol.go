// Package protocol runs typed conversations between a parent and a child
// process.
//
// A conversation follows a session script declared once by a type that
// implements [Definition]. The child follows the script as written, the
// parent follows its [Session.Dual]. Every step is checked as it happens: a
// send, receive or choice that does not match the current step panics, and
// so does closing a session before it reached [Done].
//
//	type Add struct{}
//
//	func (Add) Session() *protocol.Session {
//		return protocol.In[int](protocol.In[int](protocol.Out[int](protocol.Done())))
//	}
//
//	var adder = protocol.NewEntry(func(_ lunatic.Unit, p *protocol.Protocol[Add]) {
//		a := protocol.Receive[int](p)
//		b := protocol.Receive[int](p)
//		protocol.Send(p, a+b)
//		p.Close()
//	})
//
//	p, err := protocol.Spawn(inst, adder, lunatic.Unit{})
//	protocol.Send(p, 1)
//	protocol.Send(p, 2)
//	sum := protocol.Result[int](p)
package protocol

import (
	"fmt"
	"reflect"
	"time"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
)

// Definition names a protocol and declares its script, from the point of view
// of the spawned side.
type Definition interface {
	Session() *Session
}

// ProtocolCapture is what a protocol process receives from its parent: where
// to talk to and under which tag, plus the user capture.
type ProtocolCapture[C any] struct {
	Process lunatic.Process[lunatic.Unit]
	Tag     lunatic.Tag
	Capture C
}

// Protocol is one side of a running session.
type Protocol[P Definition] struct {
	inst   *lunatic.Instance
	nodeID uint64
	id     uint64
	tag    lunatic.Tag
	step   *Session
	loops  []*Session
}

func newProtocol[P Definition](inst *lunatic.Instance, nodeID, id uint64, tag lunatic.Tag, script *Session) *Protocol[P] {
	return &Protocol[P]{inst: inst, nodeID: nodeID, id: id, tag: tag, step: script}
}

// Peer returns the process on the other side.
func (p *Protocol[P]) Peer() lunatic.Process[lunatic.Unit] {
	return lunatic.ProcessOnNode[lunatic.Unit](p.inst, p.nodeID, p.id)
}

// Session returns the step the session is at.
func (p *Protocol[P]) Session() *Session {
	return p.step
}

func (p *Protocol[P]) expect(kind stepKind, typ reflect.Type, op string) {
	if p.step.kind != kind || (typ != nil && p.step.typ != typ) {
		var zero P
		panic(fmt.Sprintf("protocol %T: %s does not match the current step %v", zero, op, p.step))
	}
}

// Send sends [v] to the peer. The session must be at an Out[A] step.
func Send[A any, P Definition](p *Protocol[P], v A) {
	p.expect(stepOut, reflect.TypeFor[A](), fmt.Sprintf("Send[%s]", reflect.TypeFor[A]()))
	lunatic.ProcessOnNode[A](p.inst, p.nodeID, p.id).TagSend(p.tag, v)
	p.step = p.step.next
}

// Receive waits for the next value from the peer. The session must be at an
// In[A] step.
func Receive[A any, P Definition](p *Protocol[P]) A {
	p.expect(stepIn, reflect.TypeFor[A](), fmt.Sprintf("Receive[%s]", reflect.TypeFor[A]()))
	v := lunatic.NewMailbox[A](p.inst).TagReceive(p.tag)
	p.step = p.step.next
	return v
}

// Result receives the last value of the session and closes it.
func Result[A any, P Definition](p *Protocol[P]) A {
	v := Receive[A](p)
	p.Close()
	return v
}

// ResultTimeout is [Result] with a deadline. On timeout the session is closed
// without waiting further and [lunatic.ErrTimeout] is returned.
func ResultTimeout[A any, P Definition](p *Protocol[P], d time.Duration) (A, error) {
	p.expect(stepIn, reflect.TypeFor[A](), fmt.Sprintf("Result[%s]", reflect.TypeFor[A]()))
	v, err := lunatic.NewMailbox[A](p.inst).TagReceiveTimeout(d, p.tag)
	p.step = p.step.next
	if err != nil {
		p.step = Done()
		return v, err
	}
	p.Close()
	return v, nil
}

// SelectLeft takes the left branch of an active choice.
func (p *Protocol[P]) SelectLeft() {
	p.choose(true)
}

// SelectRight takes the right branch of an active choice.
func (p *Protocol[P]) SelectRight() {
	p.choose(false)
}

func (p *Protocol[P]) choose(left bool) {
	p.expect(stepSelect, nil, "Select")
	lunatic.ProcessOnNode[bool](p.inst, p.nodeID, p.id).TagSend(p.tag, left)
	if left {
		p.step = p.step.next
	} else {
		p.step = p.step.alt
	}
}

// Offer waits for the peer's choice and reports whether it took the left branch.
func (p *Protocol[P]) Offer() bool {
	p.expect(stepBranch, nil, "Offer")
	left := lunatic.NewMailbox[bool](p.inst).TagReceive(p.tag)
	if left {
		p.step = p.step.next
	} else {
		p.step = p.step.alt
	}
	return left
}

// Repeat enters the body of a loop.
func (p *Protocol[P]) Repeat() {
	p.expect(stepLoop, nil, "Repeat")
	p.loops = append(p.loops, p.step)
	p.step = p.step.next
}

// Pop goes back to the innermost loop, which is entered again with [Protocol.Repeat].
func (p *Protocol[P]) Pop() {
	p.expect(stepContinue, nil, "Pop")
	if len(p.loops) == 0 {
		panic("protocol: Pop outside of a loop")
	}
	p.step = p.loops[len(p.loops)-1]
	p.loops = p.loops[:len(p.loops)-1]
}

// Close ends the session. It panics unless the session reached [Done].
func (p *Protocol[P]) Close() {
	if p.step.kind != stepDone {
		var zero P
		panic(fmt.Sprintf("protocol %T: closed before the end of the session, at %v", zero, p.step))
	}
}

// Entry is a spawnable function that runs the child side of protocol P.
type Entry[C any, P Definition] struct {
	entry lunatic.Entry[ProtocolCapture[C], lunatic.Unit]
}

// NewEntry registers [fn] as the child side of protocol P. Like
// [lunatic.NewEntry] it must be called during package initialization.
func NewEntry[C any, P Definition](fn func(capture C, p *Protocol[P])) Entry[C, P] {
	return Entry[C, P]{entry: lunatic.NewEntry(func(c ProtocolCapture[C], mb lunatic.Mailbox[lunatic.Unit]) {
		var def P
		p := newProtocol[P](mb.Instance(), c.Process.NodeID(), c.Process.ID(), c.Tag, def.Session())
		fn(c.Capture, p)
	})}
}

// Spawn starts the child side of [e] and returns the parent side. The
// protocol messages use a fresh tag of the parent, so they do not mix with
// its other messages.
func Spawn[C any, P Definition](inst *lunatic.Instance, e Entry[C, P], capture C, opts ...lunatic.SpawnOpt) (*Protocol[P], error) {
	tag := inst.NewTag()
	pc := ProtocolCapture[C]{
		Process: lunatic.This[lunatic.Unit](inst),
		Tag:     tag,
		Capture: capture,
	}
	child, err := lunatic.Spawn(inst, e.entry, pc, opts...)
	if err != nil {
		return nil, err
	}
	var def P
	return newProtocol[P](inst, child.NodeID(), child.ID(), tag, def.Session().Dual()), nil
}

// SpawnLink is [Spawn] with the child linked to the caller.
func SpawnLink[C any, P Definition](inst *lunatic.Instance, e Entry[C, P], capture C) (*Protocol[P], error) {
	return Spawn(inst, e, capture, lunatic.Link())
}

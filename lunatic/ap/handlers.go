package ap

import (
	"fmt"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
)

// Handler is one entry of a behavior's dispatch table. Use [HandleMessage],
// [HandleRequest] and [HandleDeferredRequest] to create them.
type Handler[S any] interface {
	bind(index uint8)
	dispatch(state *S, cfg *Config[S], env lunatic.Envelope)
}

type slot struct {
	index uint8
}

func (s *slot) bind(index uint8) {
	if s.index != 0 && s.index != index {
		panic(fmt.Sprintf("ap: handler already has index %d, it cannot also take %d", s.index, index))
	}
	s.index = index
}

func (s *slot) tag(inst *lunatic.Instance) lunatic.Tag {
	if s.index == 0 {
		panic("ap: handler is not part of any behavior")
	}
	return inst.TagFromU6(s.index)
}

// Message handles casts of M: messages that expect no answer.
type Message[S, M any] struct {
	slot
	fn func(state *S, cfg *Config[S], msg M)
}

func HandleMessage[S, M any](fn func(state *S, cfg *Config[S], msg M)) *Message[S, M] {
	return &Message[S, M]{fn: fn}
}

func (h *Message[S, M]) dispatch(state *S, cfg *Config[S], env lunatic.Envelope) {
	h.fn(state, cfg, mustDecode[M](env))
}

// Send casts [msg] to [ref].
func (h *Message[S, M]) Send(ref ProcessRef[S], msg M) {
	lunatic.ProcessOnNode[M](ref.inst, ref.nodeID, ref.id).TagSend(h.tag(ref.inst), msg)
}

// SendDelayed casts [msg] once the delay of [ref] has passed.
func (h *Message[S, M]) SendDelayed(ref DelayedRef[S], msg M) lunatic.TimerRef {
	return lunatic.ProcessOnNode[M](ref.inst, ref.nodeID, ref.id).TagSendAfter(h.tag(ref.inst), msg, ref.delay)
}

// Request handles calls: requests of Req answered with Resp.
type Request[S, Req, Resp any] struct {
	slot
	fn func(state *S, cfg *Config[S], req Req) Resp
}

func HandleRequest[S, Req, Resp any](fn func(state *S, cfg *Config[S], req Req) Resp) *Request[S, Req, Resp] {
	return &Request[S, Req, Resp]{fn: fn}
}

func (h *Request[S, Req, Resp]) dispatch(state *S, cfg *Config[S], env lunatic.Envelope) {
	req := mustDecode[lunatic.Request[Req, Resp]](env)
	req.Reply(h.fn(state, cfg, req.Payload))
}

// Call sends [req] to [ref] and waits for the answer, at most for the
// timeout of [ref].
func (h *Request[S, Req, Resp]) Call(ref ProcessRef[S], req Req) (Resp, error) {
	return call[S, Req, Resp](ref, h.tag(ref.inst), req)
}

// DeferredResponse answers a deferred request. It can be kept in the state or
// sent to another process, which then answers in place of the handler.
type DeferredResponse[Resp any] struct {
	ReturnAddress lunatic.ReturnAddress[Resp]
}

func (d DeferredResponse[Resp]) Send(resp Resp) {
	d.ReturnAddress.Send(resp)
}

// DeferredRequest handles calls whose answer is sent later through a
// [DeferredResponse]. The caller blocks until then.
type DeferredRequest[S, Req, Resp any] struct {
	slot
	fn func(state *S, cfg *Config[S], req Req, resp DeferredResponse[Resp])
}

func HandleDeferredRequest[S, Req, Resp any](fn func(state *S, cfg *Config[S], req Req, resp DeferredResponse[Resp])) *DeferredRequest[S, Req, Resp] {
	return &DeferredRequest[S, Req, Resp]{fn: fn}
}

func (h *DeferredRequest[S, Req, Resp]) dispatch(state *S, cfg *Config[S], env lunatic.Envelope) {
	req := mustDecode[lunatic.Request[Req, Resp]](env)
	h.fn(state, cfg, req.Payload, DeferredResponse[Resp]{ReturnAddress: req.ReturnAddress})
}

func (h *DeferredRequest[S, Req, Resp]) Call(ref ProcessRef[S], req Req) (Resp, error) {
	return call[S, Req, Resp](ref, h.tag(ref.inst), req)
}

func call[S, Req, Resp any](ref ProcessRef[S], tag lunatic.Tag, req Req) (Resp, error) {
	p := lunatic.ProcessOnNode[lunatic.Request[Req, Resp]](ref.inst, ref.nodeID, ref.id)
	return lunatic.SendRequestTag(p, tag, req, ref.requestTimeout())
}

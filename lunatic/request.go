package lunatic

import (
	"fmt"
	"time"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

// ReturnAddress is where the answer to a request goes: the requester and the
// tag it waits on.
type ReturnAddress[R any] struct {
	Process Process[R]
	Tag     Tag
}

// Send delivers [resp] to the requester.
func (a ReturnAddress[R]) Send(resp R) {
	a.Process.TagSend(a.Tag, resp)
}

// Request is a message that expects an answer of type R. Requests carry a
// process handle and therefore need Bincode.
type Request[T, R any] struct {
	Payload       T
	ReturnAddress ReturnAddress[R]
}

func (r Request[T, R]) Reply(resp R) {
	r.ReturnAddress.Send(resp)
}

// SendRequest sends [payload] to [p] and blocks until the answer arrives.
func SendRequest[T, R any](p Process[Request[T, R]], payload T) R {
	resp, err := request(p, payload, host.NoTimeout)
	if err != nil {
		panic(fmt.Sprintf("lunatic: request to %v: %v", p, err))
	}
	return resp
}

// SendRequestTimeout is [SendRequest] with a deadline. On [ErrTimeout] the
// request tag is abandoned and a late answer is dropped when it arrives.
func SendRequestTimeout[T, R any](p Process[Request[T, R]], payload T, d time.Duration) (R, error) {
	return request(p, payload, chronos.Millis(d))
}

// SendRequestTag sends [payload] under [tag] and waits up to [d] for the answer.
// A negative [d] waits forever. The answer is expected under the tag with its
// u6 payload cleared, see [Instance.TagFromU6], so it can never be mistaken for
// a request itself.
func SendRequestTag[T, R any](p Process[Request[T, R]], tag Tag, payload T, d time.Duration) (R, error) {
	return requestTag(p, tag, payload, chronos.Millis(d))
}

func request[T, R any](p Process[Request[T, R]], payload T, timeoutMs uint64) (R, error) {
	return requestTag(p, p.inst.NewTag(), payload, timeoutMs)
}

func requestTag[T, R any](p Process[Request[T, R]], tag Tag, payload T, timeoutMs uint64) (R, error) {
	inst := p.inst
	replyTag, _ := tag.ExtractU6()
	req := Request[T, R]{
		Payload:       payload,
		ReturnAddress: ReturnAddress[R]{Process: This[R](inst), Tag: replyTag},
	}
	prepareMessage(inst, tag, req, p.codec())

	var zero R
	switch code := sendReceive(inst, p.nodeID, p.id, replyTag, timeoutMs); code {
	case host.DataMessage:
		return decodeMessage[R](inst, p.codec())
	case host.Timeout:
		inst.abandon(replyTag)
		return zero, ErrTimeout
	default:
		return zero, fmt.Errorf("lunatic: unexpected receive result %d while waiting on tag %d", code, replyTag)
	}
}

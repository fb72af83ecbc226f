package lunatic

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// Mailbox is the typed view of a process's incoming messages.
//
// Receives block until a message arrives. The Tag variants only consider
// messages carrying one of the given tags; the others stay queued in arrival
// order for later receives.
//
// A plain Mailbox does not expect signals. If a linked process dies the
// caller dies with it, and a decode failure panics.
type Mailbox[M any] struct {
	inst       *Instance
	serializer serializer.Serializer
}

// NewMailbox returns the mailbox of the calling process.
func NewMailbox[M any](inst *Instance, opts ...HandleOpt) Mailbox[M] {
	var s serializer.Serializer
	for _, opt := range opts {
		opt(&s)
	}
	return Mailbox[M]{inst: inst, serializer: s}
}

func (m Mailbox[M]) codec() serializer.Serializer {
	if m.serializer == nil {
		return serializer.Default()
	}
	return m.serializer
}

func (m Mailbox[M]) Instance() *Instance {
	return m.inst
}

// This returns a handle on the mailbox's own process.
func (m Mailbox[M]) This() Process[M] {
	return This[M](m.inst, Using(m.codec()))
}

func (m Mailbox[M]) Receive() M {
	return m.mustReceive(nil, host.NoTimeout)
}

func (m Mailbox[M]) TagReceive(tags ...Tag) M {
	return m.mustReceive(tags, host.NoTimeout)
}

// ReceiveTimeout returns [ErrTimeout] if no message arrives within [d].
func (m Mailbox[M]) ReceiveTimeout(d time.Duration) (M, error) {
	return m.TagReceiveTimeout(d)
}

func (m Mailbox[M]) TagReceiveTimeout(d time.Duration, tags ...Tag) (M, error) {
	res := receive[M](m.inst, m.codec(), tags, chronos.Millis(d))
	switch res.Kind {
	case Message:
		return res.Value, nil
	case TimedOut:
		return res.Value, ErrTimeout
	default:
		panic(fmt.Sprintf("lunatic: unexpected %s in a plain mailbox", res))
	}
}

func (m Mailbox[M]) mustReceive(tags []Tag, timeoutMs uint64) M {
	res := receive[M](m.inst, m.codec(), tags, timeoutMs)
	if res.Kind != Message {
		panic(fmt.Sprintf("lunatic: unexpected %s in a plain mailbox", res))
	}
	return res.Value
}

// CatchLinkFailure stops the process from dying with its linked processes and
// returns a mailbox that reports their deaths as [LinkDied] results.
func (m Mailbox[M]) CatchLinkFailure() CatchingMailbox[M] {
	m.inst.abi.ProcessDieWhenLinkDies(false)
	return CatchingMailbox[M]{m}
}

// Monitorable returns a mailbox that also reports the death of monitored
// processes. The process still dies with its linked processes.
func (m Mailbox[M]) Monitorable() MonitorableMailbox[M] {
	return MonitorableMailbox[M]{m}
}

// CatchingMailbox reports every outcome of a receive as a [MailboxResult].
type CatchingMailbox[M any] struct {
	Mailbox[M]
}

func (m CatchingMailbox[M]) Receive() MailboxResult[M] {
	return receive[M](m.inst, m.codec(), nil, host.NoTimeout)
}

func (m CatchingMailbox[M]) TagReceive(tags ...Tag) MailboxResult[M] {
	return receive[M](m.inst, m.codec(), tags, host.NoTimeout)
}

func (m CatchingMailbox[M]) ReceiveTimeout(d time.Duration) MailboxResult[M] {
	return receive[M](m.inst, m.codec(), nil, chronos.Millis(d))
}

func (m CatchingMailbox[M]) TagReceiveTimeout(d time.Duration, tags ...Tag) MailboxResult[M] {
	return receive[M](m.inst, m.codec(), tags, chronos.Millis(d))
}

// Monitorable widens the results to process deaths as well.
func (m CatchingMailbox[M]) Monitorable() MonitorableMailbox[M] {
	return MonitorableMailbox[M]{m.Mailbox}
}

// MonitorableMailbox reports every outcome of a receive, including
// [ProcessDied] results for monitored processes.
type MonitorableMailbox[M any] struct {
	Mailbox[M]
}

func (m MonitorableMailbox[M]) Receive() MailboxResult[M] {
	return receive[M](m.inst, m.codec(), nil, host.NoTimeout)
}

func (m MonitorableMailbox[M]) TagReceive(tags ...Tag) MailboxResult[M] {
	return receive[M](m.inst, m.codec(), tags, host.NoTimeout)
}

func (m MonitorableMailbox[M]) ReceiveTimeout(d time.Duration) MailboxResult[M] {
	return receive[M](m.inst, m.codec(), nil, chronos.Millis(d))
}

func (m MonitorableMailbox[M]) TagReceiveTimeout(d time.Duration, tags ...Tag) MailboxResult[M] {
	return receive[M](m.inst, m.codec(), tags, chronos.Millis(d))
}

type ResultKind uint8

const (
	Message ResultKind = iota
	LinkDied
	ProcessDied
	TimedOut
	DeserializationFailed
)

func (k ResultKind) String() string {
	switch k {
	case Message:
		return "Message"
	case LinkDied:
		return "LinkDied"
	case ProcessDied:
		return "ProcessDied"
	case TimedOut:
		return "TimedOut"
	case DeserializationFailed:
		return "DeserializationFailed"
	default:
		return fmt.Sprintf("ResultKind(%d)", uint8(k))
	}
}

// MailboxResult is the outcome of a receive. Only the fields of its Kind are set:
// Value for Message, Tag for LinkDied, ProcessID for ProcessDied and Err for
// DeserializationFailed.
type MailboxResult[M any] struct {
	Kind      ResultKind
	Value     M
	Tag       Tag
	ProcessID uint64
	Err       error
}

func (r MailboxResult[M]) String() string {
	switch r.Kind {
	case Message:
		return fmt.Sprintf("Message(%v)", r.Value)
	case LinkDied:
		return fmt.Sprintf("LinkDied(%d)", r.Tag)
	case ProcessDied:
		return fmt.Sprintf("ProcessDied(%d)", r.ProcessID)
	case DeserializationFailed:
		return fmt.Sprintf("DeserializationFailed(%v)", r.Err)
	default:
		return r.Kind.String()
	}
}

// Ok returns the message, or an error describing any other outcome.
func (r MailboxResult[M]) Ok() (M, error) {
	switch r.Kind {
	case Message:
		return r.Value, nil
	case TimedOut:
		return r.Value, ErrTimeout
	case LinkDied:
		return r.Value, &LinkDiedError{Tag: r.Tag}
	case DeserializationFailed:
		return r.Value, r.Err
	default:
		return r.Value, fmt.Errorf("lunatic: process %d died", r.ProcessID)
	}
}

// receive waits for the next matching message. Replies to abandoned requests
// are dropped on arrival and the wait continues with what is left of the timeout.
func receive[M any](inst *Instance, s serializer.Serializer, tags []Tag, timeoutMs uint64) MailboxResult[M] {
	raw := make([]int64, len(tags))
	for i, t := range tags {
		raw[i] = int64(t)
	}
	var deadline time.Time
	if timeoutMs != host.NoTimeout {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	for {
		code := inst.abi.MessageReceive(raw, timeoutMs)
		switch code {
		case host.Timeout:
			return MailboxResult[M]{Kind: TimedOut}
		case host.LinkDied:
			return MailboxResult[M]{Kind: LinkDied, Tag: Tag(inst.abi.MessageGetTag())}
		case host.ProcessDied:
			var buf [8]byte
			inst.abi.MessageReadData(buf[:])
			return MailboxResult[M]{Kind: ProcessDied, ProcessID: binary.LittleEndian.Uint64(buf[:])}
		}

		if tag := Tag(inst.abi.MessageGetTag()); inst.isAbandoned(tag) {
			debugf("dropping late reply with tag %d", tag)
			if !deadline.IsZero() {
				left := time.Until(deadline)
				if left <= 0 {
					return MailboxResult[M]{Kind: TimedOut}
				}
				timeoutMs = chronos.Millis(left)
			}
			continue
		}

		v, err := decodeMessage[M](inst, s)
		if err != nil {
			return MailboxResult[M]{Kind: DeserializationFailed, Err: err}
		}
		return MailboxResult[M]{Kind: Message, Value: v}
	}
}

// Envelope is a received message whose payload has not been decoded yet. It is
// meant for processes that dispatch on the tag before picking a payload type.
type Envelope struct {
	inst      *Instance
	Kind      ResultKind
	Tag       Tag
	ProcessID uint64
}

// ReceiveEnvelope waits up to [d] for the next message with one of [tags], or
// any message if none are given. Link and monitor signals are returned as
// envelopes of kind [LinkDied] and [ProcessDied]. Late replies to abandoned
// requests are dropped like in [Mailbox.Receive].
func ReceiveEnvelope(inst *Instance, d time.Duration, tags ...Tag) Envelope {
	raw := make([]int64, len(tags))
	for i, t := range tags {
		raw[i] = int64(t)
	}
	timeoutMs := chronos.Millis(d)
	var deadline time.Time
	if timeoutMs != host.NoTimeout {
		deadline = time.Now().Add(d)
	}

	for {
		switch inst.abi.MessageReceive(raw, timeoutMs) {
		case host.Timeout:
			return Envelope{inst: inst, Kind: TimedOut}
		case host.LinkDied:
			return Envelope{inst: inst, Kind: LinkDied, Tag: Tag(inst.abi.MessageGetTag())}
		case host.ProcessDied:
			var buf [8]byte
			inst.abi.MessageReadData(buf[:])
			return Envelope{inst: inst, Kind: ProcessDied, ProcessID: binary.LittleEndian.Uint64(buf[:])}
		}

		tag := Tag(inst.abi.MessageGetTag())
		if !inst.isAbandoned(tag) {
			return Envelope{inst: inst, Kind: Message, Tag: tag}
		}
		if !deadline.IsZero() {
			left := time.Until(deadline)
			if left <= 0 {
				return Envelope{inst: inst, Kind: TimedOut}
			}
			timeoutMs = chronos.Millis(left)
		}
	}
}

// Decode reads the payload of a [Message] envelope. It must be called before
// the next receive.
func Decode[M any](e Envelope, s serializer.Serializer) (M, error) {
	if e.Kind != Message {
		var zero M
		return zero, fmt.Errorf("lunatic: cannot decode a %s envelope", e.Kind)
	}
	return decodeMessage[M](e.inst, s)
}

package vm

import (
	"encoding/binary"
)

type resourceKind uint8

const (
	resourceProcess resourceKind = iota + 1
	resourceTCPStream
	resourceTLSStream
)

type resource struct {
	kind  resourceKind
	node  uint64
	id    uint64
	taken bool
}

// message is the host side of a lunatic message: a tag, a byte buffer with a
// read cursor and the resources that travel with it.
type message struct {
	tag       int64
	data      []byte
	readPos   int
	resources []resource
}

func (m *message) push(r resource) uint64 {
	m.resources = append(m.resources, r)
	return uint64(len(m.resources) - 1)
}

func (m *message) take(kind resourceKind, index uint64) (resource, bool) {
	if m == nil || index >= uint64(len(m.resources)) {
		return resource{}, false
	}
	r := &m.resources[index]
	if r.kind != kind || r.taken {
		return resource{}, false
	}
	r.taken = true
	return *r, true
}

func (m *message) hasStreams() bool {
	for _, r := range m.resources {
		if r.kind != resourceProcess {
			return true
		}
	}
	return false
}

type envelopeKind uint8

const (
	envData envelopeKind = iota
	envLinkDied
	envProcessDied
)

// envelope is one mailbox entry.
type envelope struct {
	kind envelopeKind
	tag  int64
	msg  *message
	pid  uint64
}

// matches reports whether a receive filtering on [tags] accepts the envelope.
// Process deaths carry no tag and are only seen by unfiltered receives.
func (e envelope) matches(tags []int64) bool {
	if len(tags) == 0 {
		return true
	}
	if e.kind == envProcessDied {
		return false
	}
	for _, t := range tags {
		if t == e.tag {
			return true
		}
	}
	return false
}

// scratch returns the message a receive of [e] makes readable.
func (e envelope) scratch() *message {
	switch e.kind {
	case envData:
		return e.msg
	case envProcessDied:
		data := make([]byte, 8)
		binary.LittleEndian.PutUint64(data, e.pid)
		return &message{data: data}
	default:
		return &message{tag: e.tag}
	}
}

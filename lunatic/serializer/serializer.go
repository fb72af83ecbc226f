// Package serializer holds the message codecs a process can use to talk to
// another process.
//
// A codec turns a Go value into the bytes of the host's outgoing message and
// back. Values that own host resources (process handles, TCP and TLS streams)
// do not travel as bytes: they implement [ResourceMarshaler] and
// [ResourceUnmarshaler] and move into the message's resource array, leaving only
// the u64 index behind. Only [Bincode] supports resources; the other codecs
// reject them with [ErrResourcesUnsupported].
package serializer

import (
	"errors"
	"fmt"
	"io"
)

// ID identifies a codec on the wire, for example in the first byte of a spawn capture.
type ID byte

const (
	BincodeID         ID = 1
	JSONID            ID = 2
	MessagePackID     ID = 3
	ProtocolBuffersID ID = 4
)

func (id ID) String() string {
	switch id {
	case BincodeID:
		return "Bincode"
	case JSONID:
		return "JSON"
	case MessagePackID:
		return "MessagePack"
	case ProtocolBuffersID:
		return "ProtocolBuffers"
	default:
		return fmt.Sprintf("Serializer(%d)", byte(id))
	}
}

// ErrResourcesUnsupported is returned when a resource-bearing value is encoded
// or decoded by a codec other than Bincode.
var ErrResourcesUnsupported = errors.New("serializer: resources can only be transferred with Bincode")

// ErrResourceIndex is returned when a resource index was already taken or is out of range.
var ErrResourceIndex = errors.New("serializer: invalid resource index")

// Serializer encodes values into a message stream and decodes them back.
type Serializer interface {
	ID() ID
	// Encode writes [v] to [w]. [res] is the outgoing message's resource array.
	Encode(w io.Writer, v any, res Resources) error
	// Decode reads into [v], which must be a non-nil pointer. [res] is the
	// incoming message's resource array.
	Decode(r io.Reader, v any, res Resources) error
}

// Resources is the resource array attached to a message.
type Resources interface {
	PushProcess(nodeID, processID uint64) uint64
	TakeProcess(index uint64) (nodeID, processID uint64, err error)
	PushTCPStream(streamID uint64) uint64
	TakeTCPStream(index uint64) (uint64, error)
	PushTLSStream(streamID uint64) uint64
	TakeTLSStream(index uint64) (uint64, error)
}

// ResourceMarshaler is implemented by values that move into the resource array
// instead of being written as bytes. The returned index is written as a u64.
type ResourceMarshaler interface {
	MarshalResource(res Resources) (uint64, error)
}

// ResourceUnmarshaler takes ownership of the resource at [index].
type ResourceUnmarshaler interface {
	UnmarshalResource(res Resources, index uint64) error
}

// DecodeError wraps any failure to decode a received message.
type DecodeError struct {
	Format ID
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s decode error: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ByID returns the built-in codec registered under [id].
func ByID(id ID) (Serializer, bool) {
	switch id {
	case BincodeID:
		return Bincode{}, true
	case JSONID:
		return JSON{}, true
	case MessagePackID:
		return MessagePack{}, true
	case ProtocolBuffersID:
		return ProtocolBuffers{}, true
	default:
		return nil, false
	}
}

// Default is the codec used when none is given.
func Default() Serializer {
	return Bincode{}
}

func decodeErr(id ID, err error) error {
	if err == nil {
		return nil
	}
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	return &DecodeError{Format: id, Err: err}
}

package serializer

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// MessagePack encodes values with msgpack. Resources are not supported.
type MessagePack struct{}

func (MessagePack) ID() ID { return MessagePackID }

func (MessagePack) Encode(w io.Writer, v any, _ Resources) error {
	return msgpack.NewEncoder(w).Encode(v)
}

func (MessagePack) Decode(r io.Reader, v any, _ Resources) error {
	return decodeErr(MessagePackID, msgpack.NewDecoder(r).Decode(v))
}

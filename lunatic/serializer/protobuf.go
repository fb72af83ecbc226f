package serializer

import (
	"fmt"
	"io"
	"reflect"

	"google.golang.org/protobuf/proto"
)

// ProtocolBuffers writes a u64 length followed by the wire form of a
// [proto.Message]. Resources are not supported.
type ProtocolBuffers struct{}

var protoMessageType = reflect.TypeFor[proto.Message]()

func (ProtocolBuffers) ID() ID { return ProtocolBuffersID }

func (ProtocolBuffers) Encode(w io.Writer, v any, _ Resources) error {
	msg, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("protobuf: %T is not a proto.Message", v)
	}
	data, err := proto.Marshal(msg)
	if err != nil {
		return err
	}
	return writeFrame(w, data)
}

// Decode accepts either a proto.Message or a pointer to a nil-able proto.Message
// field, which it allocates.
func (ProtocolBuffers) Decode(r io.Reader, v any, _ Resources) error {
	msg, err := protoTarget(v)
	if err != nil {
		return &DecodeError{Format: ProtocolBuffersID, Err: err}
	}
	data, err := readFrame(r)
	if err != nil {
		return &DecodeError{Format: ProtocolBuffersID, Err: err}
	}
	return decodeErr(ProtocolBuffersID, proto.Unmarshal(data, msg))
}

func protoTarget(v any) (proto.Message, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		elem := rv.Elem()
		if elem.Kind() == reflect.Pointer && elem.Type().Implements(protoMessageType) {
			if elem.IsNil() {
				elem.Set(reflect.New(elem.Type().Elem()))
			}
			return elem.Interface().(proto.Message), nil
		}
	}
	if msg, ok := v.(proto.Message); ok {
		return msg, nil
	}
	return nil, fmt.Errorf("%T is not a proto.Message", v)
}

package serializer

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// JSON writes a u64 length followed by the encoding/json form of the value.
// Resources are not supported.
type JSON struct{}

func (JSON) ID() ID { return JSONID }

func (JSON) Encode(w io.Writer, v any, _ Resources) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return writeFrame(w, data)
}

func (JSON) Decode(r io.Reader, v any, _ Resources) error {
	data, err := readFrame(r)
	if err != nil {
		return &DecodeError{Format: JSONID, Err: err}
	}
	return decodeErr(JSONID, json.Unmarshal(data, v))
}

func writeFrame(w io.Writer, data []byte) error {
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(data)))
	if _, err := w.Write(size[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	var size [8]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(size[:])
	data, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil {
		return nil, err
	}
	if uint64(len(data)) != n {
		return nil, fmt.Errorf("frame truncated: %d of %d bytes", len(data), n)
	}
	return data, nil
}

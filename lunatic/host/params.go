package host

import (
	"encoding/binary"
	"fmt"
)

// ParamType is the wasm value type tag used in the spawn parameter encoding.
type ParamType byte

const (
	ParamI32  ParamType = 0x7F
	ParamI64  ParamType = 0x7E
	ParamV128 ParamType = 0x7B
)

const paramSize = 17

// Param is one argument of a spawned function. The value is always stored in
// 16 little-endian bytes regardless of its type.
type Param struct {
	Type  ParamType
	Value [16]byte
}

func I32(v int32) Param {
	p := Param{Type: ParamI32}
	binary.LittleEndian.PutUint32(p.Value[:4], uint32(v))
	return p
}

func I64(v int64) Param {
	p := Param{Type: ParamI64}
	binary.LittleEndian.PutUint64(p.Value[:8], uint64(v))
	return p
}

func V128(lo, hi uint64) Param {
	p := Param{Type: ParamV128}
	binary.LittleEndian.PutUint64(p.Value[:8], lo)
	binary.LittleEndian.PutUint64(p.Value[8:], hi)
	return p
}

func (p Param) I32() int32 {
	return int32(binary.LittleEndian.Uint32(p.Value[:4]))
}

func (p Param) I64() int64 {
	return int64(binary.LittleEndian.Uint64(p.Value[:8]))
}

func (p Param) V128() (lo, hi uint64) {
	return binary.LittleEndian.Uint64(p.Value[:8]), binary.LittleEndian.Uint64(p.Value[8:])
}

// Uint64 reads the parameter as an unsigned integer of its own width.
func (p Param) Uint64() uint64 {
	if p.Type == ParamI32 {
		return uint64(uint32(p.I32()))
	}
	return uint64(p.I64())
}

// EncodeParams lays out [params] the way process::spawn expects them:
// one type byte followed by 16 value bytes per parameter.
func EncodeParams(params ...Param) []byte {
	out := make([]byte, 0, len(params)*paramSize)
	for _, p := range params {
		out = append(out, byte(p.Type))
		out = append(out, p.Value[:]...)
	}
	return out
}

// DecodeParams is the inverse of [EncodeParams].
func DecodeParams(data []byte) ([]Param, error) {
	if len(data)%paramSize != 0 {
		return nil, fmt.Errorf("spawn params: length %d is not a multiple of %d", len(data), paramSize)
	}
	params := make([]Param, 0, len(data)/paramSize)
	for off := 0; off < len(data); off += paramSize {
		p := Param{Type: ParamType(data[off])}
		switch p.Type {
		case ParamI32, ParamI64, ParamV128:
		default:
			return nil, fmt.Errorf("spawn params: unknown type 0x%x at offset %d", data[off], off)
		}
		copy(p.Value[:], data[off+1:off+paramSize])
		params = append(params, p)
	}
	return params, nil
}

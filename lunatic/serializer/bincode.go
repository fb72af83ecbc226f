package serializer

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
)

// Bincode is the default codec. Integers are fixed width little-endian, int and
// uint are widened to 64 bits, strings and slices carry a u64 length, structs
// are their exported fields in declaration order, arrays are their elements,
// pointers are an option (a 0 or 1 byte followed by the value) and maps are a u64
// length followed by their pairs sorted by encoded key.
type Bincode struct{}

var (
	resourceMarshalerType   = reflect.TypeFor[ResourceMarshaler]()
	resourceUnmarshalerType = reflect.TypeFor[ResourceUnmarshaler]()
	binaryMarshalerType     = reflect.TypeFor[encoding.BinaryMarshaler]()
	binaryUnmarshalerType   = reflect.TypeFor[encoding.BinaryUnmarshaler]()
)

// maxPrealloc bounds how much a decoded length may allocate up front.
const maxPrealloc = 4096

func (Bincode) ID() ID { return BincodeID }

func (Bincode) Encode(w io.Writer, v any, res Resources) error {
	e := &bincodeEncoder{res: res}
	if err := e.encode(reflect.ValueOf(v)); err != nil {
		return err
	}
	_, err := w.Write(e.buf.Bytes())
	return err
}

func (Bincode) Decode(r io.Reader, v any, res Resources) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &DecodeError{Format: BincodeID, Err: fmt.Errorf("decode target must be a non-nil pointer, got %T", v)}
	}
	d := &bincodeDecoder{r: r, res: res}
	return decodeErr(BincodeID, d.decode(rv.Elem()))
}

type bincodeEncoder struct {
	buf     bytes.Buffer
	scratch [8]byte
	res     Resources
}

func (e *bincodeEncoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(e.scratch[:], v)
	e.buf.Write(e.scratch[:8])
}

func (e *bincodeEncoder) encode(v reflect.Value) error {
	if !v.IsValid() {
		return errors.New("bincode: cannot encode nil interface")
	}
	t := v.Type()

	if t.Kind() != reflect.Pointer && t.Implements(resourceMarshalerType) {
		if e.res == nil {
			return ErrResourcesUnsupported
		}
		idx, err := v.Interface().(ResourceMarshaler).MarshalResource(e.res)
		if err != nil {
			return err
		}
		e.u64(idx)
		return nil
	}
	if t.Kind() != reflect.Pointer && t.Implements(binaryMarshalerType) {
		data, err := v.Interface().(encoding.BinaryMarshaler).MarshalBinary()
		if err != nil {
			return err
		}
		e.u64(uint64(len(data)))
		e.buf.Write(data)
		return nil
	}

	switch t.Kind() {
	case reflect.Bool:
		if v.Bool() {
			e.buf.WriteByte(1)
		} else {
			e.buf.WriteByte(0)
		}
	case reflect.Int8:
		e.buf.WriteByte(byte(v.Int()))
	case reflect.Int16:
		binary.LittleEndian.PutUint16(e.scratch[:], uint16(v.Int()))
		e.buf.Write(e.scratch[:2])
	case reflect.Int32:
		binary.LittleEndian.PutUint32(e.scratch[:], uint32(v.Int()))
		e.buf.Write(e.scratch[:4])
	case reflect.Int64, reflect.Int:
		e.u64(uint64(v.Int()))
	case reflect.Uint8:
		e.buf.WriteByte(byte(v.Uint()))
	case reflect.Uint16:
		binary.LittleEndian.PutUint16(e.scratch[:], uint16(v.Uint()))
		e.buf.Write(e.scratch[:2])
	case reflect.Uint32:
		binary.LittleEndian.PutUint32(e.scratch[:], uint32(v.Uint()))
		e.buf.Write(e.scratch[:4])
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		e.u64(v.Uint())
	case reflect.Float32:
		binary.LittleEndian.PutUint32(e.scratch[:], math.Float32bits(float32(v.Float())))
		e.buf.Write(e.scratch[:4])
	case reflect.Float64:
		e.u64(math.Float64bits(v.Float()))
	case reflect.String:
		e.u64(uint64(v.Len()))
		e.buf.WriteString(v.String())
	case reflect.Slice:
		e.u64(uint64(v.Len()))
		if t.Elem().Kind() == reflect.Uint8 {
			e.buf.Write(v.Bytes())
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := e.encode(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := e.encode(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := e.encode(v.Field(i)); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
		}
	case reflect.Pointer:
		if v.IsNil() {
			e.buf.WriteByte(0)
			return nil
		}
		e.buf.WriteByte(1)
		return e.encode(v.Elem())
	case reflect.Map:
		return e.encodeMap(v)
	case reflect.Interface:
		if v.IsNil() {
			return errors.New("bincode: cannot encode nil interface")
		}
		return fmt.Errorf("bincode: cannot encode interface type %s", t)
	default:
		return fmt.Errorf("bincode: unsupported type %s", t)
	}
	return nil
}

func (e *bincodeEncoder) encodeMap(v reflect.Value) error {
	type pair struct {
		key []byte
		val reflect.Value
	}
	pairs := make([]pair, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		ke := &bincodeEncoder{res: e.res}
		if err := ke.encode(iter.Key()); err != nil {
			return err
		}
		pairs = append(pairs, pair{key: ke.buf.Bytes(), val: iter.Value()})
	}
	sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].key, pairs[j].key) < 0 })

	e.u64(uint64(len(pairs)))
	for _, p := range pairs {
		e.buf.Write(p.key)
		if err := e.encode(p.val); err != nil {
			return err
		}
	}
	return nil
}

type bincodeDecoder struct {
	r       io.Reader
	scratch [8]byte
	res     Resources
}

func (d *bincodeDecoder) read(n int) ([]byte, error) {
	if _, err := io.ReadFull(d.r, d.scratch[:n]); err != nil {
		return nil, err
	}
	return d.scratch[:n], nil
}

func (d *bincodeDecoder) u64() (uint64, error) {
	b, err := d.read(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *bincodeDecoder) bytes() ([]byte, error) {
	n, err := d.u64()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(int(min(n, maxPrealloc)))
	got, err := io.CopyN(&buf, d.r, int64(n))
	if err != nil {
		return nil, fmt.Errorf("read %d of %d bytes: %w", got, n, err)
	}
	return buf.Bytes(), nil
}

func (d *bincodeDecoder) decode(v reflect.Value) error {
	t := v.Type()

	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(resourceUnmarshalerType) {
		if d.res == nil {
			return ErrResourcesUnsupported
		}
		idx, err := d.u64()
		if err != nil {
			return err
		}
		return v.Addr().Interface().(ResourceUnmarshaler).UnmarshalResource(d.res, idx)
	}
	if t.Kind() != reflect.Pointer && reflect.PointerTo(t).Implements(binaryUnmarshalerType) {
		data, err := d.bytes()
		if err != nil {
			return err
		}
		return v.Addr().Interface().(encoding.BinaryUnmarshaler).UnmarshalBinary(data)
	}

	switch t.Kind() {
	case reflect.Bool:
		b, err := d.read(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case 0:
			v.SetBool(false)
		case 1:
			v.SetBool(true)
		default:
			return fmt.Errorf("invalid bool byte %d", b[0])
		}
	case reflect.Int8:
		b, err := d.read(1)
		if err != nil {
			return err
		}
		v.SetInt(int64(int8(b[0])))
	case reflect.Int16:
		b, err := d.read(2)
		if err != nil {
			return err
		}
		v.SetInt(int64(int16(binary.LittleEndian.Uint16(b))))
	case reflect.Int32:
		b, err := d.read(4)
		if err != nil {
			return err
		}
		v.SetInt(int64(int32(binary.LittleEndian.Uint32(b))))
	case reflect.Int64, reflect.Int:
		n, err := d.u64()
		if err != nil {
			return err
		}
		v.SetInt(int64(n))
	case reflect.Uint8:
		b, err := d.read(1)
		if err != nil {
			return err
		}
		v.SetUint(uint64(b[0]))
	case reflect.Uint16:
		b, err := d.read(2)
		if err != nil {
			return err
		}
		v.SetUint(uint64(binary.LittleEndian.Uint16(b)))
	case reflect.Uint32:
		b, err := d.read(4)
		if err != nil {
			return err
		}
		v.SetUint(uint64(binary.LittleEndian.Uint32(b)))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		n, err := d.u64()
		if err != nil {
			return err
		}
		v.SetUint(n)
	case reflect.Float32:
		b, err := d.read(4)
		if err != nil {
			return err
		}
		v.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
	case reflect.Float64:
		n, err := d.u64()
		if err != nil {
			return err
		}
		v.SetFloat(math.Float64frombits(n))
	case reflect.String:
		b, err := d.bytes()
		if err != nil {
			return err
		}
		v.SetString(string(b))
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			b, err := d.bytes()
			if err != nil {
				return err
			}
			v.SetBytes(b)
			return nil
		}
		n, err := d.u64()
		if err != nil {
			return err
		}
		s := reflect.MakeSlice(t, 0, int(min(n, maxPrealloc)))
		for i := uint64(0); i < n; i++ {
			elem := reflect.New(t.Elem()).Elem()
			if err := d.decode(elem); err != nil {
				return err
			}
			s = reflect.Append(s, elem)
		}
		v.Set(s)
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := d.decode(v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if err := d.decode(v.Field(i)); err != nil {
				return fmt.Errorf("%s.%s: %w", t.Name(), t.Field(i).Name, err)
			}
		}
	case reflect.Pointer:
		b, err := d.read(1)
		if err != nil {
			return err
		}
		switch b[0] {
		case 0:
			v.SetZero()
		case 1:
			p := reflect.New(t.Elem())
			if err := d.decode(p.Elem()); err != nil {
				return err
			}
			v.Set(p)
		default:
			return fmt.Errorf("invalid option byte %d", b[0])
		}
	case reflect.Map:
		n, err := d.u64()
		if err != nil {
			return err
		}
		m := reflect.MakeMapWithSize(t, int(min(n, maxPrealloc)))
		for i := uint64(0); i < n; i++ {
			k := reflect.New(t.Key()).Elem()
			if err := d.decode(k); err != nil {
				return err
			}
			val := reflect.New(t.Elem()).Elem()
			if err := d.decode(val); err != nil {
				return err
			}
			m.SetMapIndex(k, val)
		}
		v.Set(m)
	default:
		return fmt.Errorf("unsupported type %s", t)
	}
	return nil
}

package sqlite

import (
	"fmt"
	"strconv"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

// Kind is the storage class of a [Value].
type Kind uint32

const (
	Null    = Kind(host.SqliteNull)
	Integer = Kind(host.SqliteInteger)
	Float   = Kind(host.SqliteFloat)
	Text    = Kind(host.SqliteText)
	Blob    = Kind(host.SqliteBlob)
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Integer:
		return "integer"
	case Float:
		return "float"
	case Text:
		return "text"
	case Blob:
		return "blob"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is one column of a result row or one bound parameter. Only the field
// matching Kind is meaningful.
type Value struct {
	Kind  Kind
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

func IntValue(v int64) Value     { return Value{Kind: Integer, Int: v} }
func FloatValue(v float64) Value { return Value{Kind: Float, Float: v} }
func TextValue(v string) Value   { return Value{Kind: Text, Text: v} }
func BlobValue(v []byte) Value   { return Value{Kind: Blob, Blob: v} }
func NullValue() Value           { return Value{Kind: Null} }

// ValueOf converts a Go value to a Value. Booleans are stored as 0 or 1.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return x, nil
	case int:
		return IntValue(int64(x)), nil
	case int8:
		return IntValue(int64(x)), nil
	case int16:
		return IntValue(int64(x)), nil
	case int32:
		return IntValue(int64(x)), nil
	case int64:
		return IntValue(x), nil
	case uint8:
		return IntValue(int64(x)), nil
	case uint16:
		return IntValue(int64(x)), nil
	case uint32:
		return IntValue(int64(x)), nil
	case float32:
		return FloatValue(float64(x)), nil
	case float64:
		return FloatValue(x), nil
	case bool:
		if x {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case string:
		return TextValue(x), nil
	case []byte:
		return BlobValue(x), nil
	default:
		return Value{}, fmt.Errorf("sqlite: cannot bind %T", v)
	}
}

// Any returns the Go value: nil, int64, float64, string or []byte.
func (v Value) Any() any {
	switch v.Kind {
	case Integer:
		return v.Int
	case Float:
		return v.Float
	case Text:
		return v.Text
	case Blob:
		return v.Blob
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.Kind == Null {
		return "NULL"
	}
	return fmt.Sprint(v.Any())
}

func (v Value) host() host.SqliteValue {
	return host.SqliteValue{Type: host.SqliteType(v.Kind), Int: v.Int, Float: v.Float, Text: v.Text, Blob: v.Blob}
}

func fromHost(v host.SqliteValue) Value {
	out := Value{Kind: Kind(v.Type), Int: v.Int, Float: v.Float, Text: v.Text}
	if out.Kind == Blob {
		out.Blob = v.Blob
	}
	return out
}

// NamedArg binds a value to a named parameter such as :id, @id or $id.
type NamedArg struct {
	Name  string
	Value any
}

func Named(name string, v any) NamedArg {
	return NamedArg{Name: name, Value: v}
}

package host

// SqliteType is the storage class of a [SqliteValue].
type SqliteType uint32

const (
	SqliteNull SqliteType = iota
	SqliteInteger
	SqliteFloat
	SqliteText
	SqliteBlob
)

// SqliteValue is one column of a row or one bound parameter. Only the field
// matching Type is meaningful.
type SqliteValue struct {
	Type  SqliteType
	Int   int64
	Float float64
	Text  string
	Blob  []byte
}

// SqliteBinding binds Value to the named parameter Name, or to the next
// positional parameter when Name is empty.
type SqliteBinding struct {
	Name  string
	Value SqliteValue
}

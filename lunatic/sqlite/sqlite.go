// Package sqlite talks to sqlite databases the host opens for a process.
//
//	db, err := sqlite.Open(inst, "app.db")
//	...
//	defer db.Close()
//	err = db.Execute("CREATE TABLE t (id INTEGER, name TEXT)")
//	rows, err := db.Query("SELECT name FROM t WHERE id = ?", 1)
//
// Parameters and rows cross the host boundary Bincode encoded.
package sqlite

import (
	"bytes"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// ErrClosed is returned by calls on a closed connection or statement.
var ErrClosed = errors.New("sqlite: use of closed connection or statement")

// Error is a failed open, execute, bind or step.
type Error struct {
	Op    string
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e.Query == "" {
		return fmt.Sprintf("sqlite: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("sqlite: %s %q: %v", e.Op, e.Query, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Conn is an open database.
type Conn struct {
	inst   *lunatic.Instance
	id     uint64
	path   string
	closed bool
}

// Open opens the database at [path], creating it if needed. ":memory:" opens a
// private in-memory database.
func Open(inst *lunatic.Instance, path string) (*Conn, error) {
	id, ok := inst.ABI().SqliteOpen(path)
	if !ok {
		err := lunatic.HostError(inst, id)
		_ = err.Error()
		err.Drop()
		return nil, &Error{Op: "open", Query: path, Err: err}
	}
	lunatic.Logger().Debug("sqlite opened", zap.String("path", path), zap.Uint64("conn", id))
	return &Conn{inst: inst, id: id, path: path}, nil
}

func (c *Conn) lastError(op, query string) *Error {
	msg := c.inst.ABI().SqliteLastError(c.id)
	if msg == "" {
		msg = "unknown error"
	}
	return &Error{Op: op, Query: query, Err: errors.New(msg)}
}

// Execute runs one or more statements that return no rows.
func (c *Conn) Execute(query string) error {
	if c.closed {
		return ErrClosed
	}
	if c.inst.ABI().SqliteExecute(c.id, query) != 0 {
		return c.lastError("execute", query)
	}
	return nil
}

// Query prepares [query], binds [args] in order and returns every row. An arg
// may be a [NamedArg].
func (c *Conn) Query(query string, args ...any) ([][]Value, error) {
	stmt, err := c.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	if len(args) > 0 {
		if err := stmt.Bind(args...); err != nil {
			return nil, err
		}
	}
	return stmt.All()
}

// Prepare compiles [query] into a statement.
func (c *Conn) Prepare(query string) (*Stmt, error) {
	if c.closed {
		return nil, ErrClosed
	}
	id, ok := c.inst.ABI().SqlitePrepare(c.id, query)
	if !ok {
		return nil, c.lastError("prepare", query)
	}
	return &Stmt{conn: c, id: id, query: query}, nil
}

// Changes is the number of rows the last statement inserted, updated or deleted.
func (c *Conn) Changes() int {
	if c.closed {
		return 0
	}
	return int(c.inst.ABI().SqliteChanges(c.id))
}

// Close closes the connection and every statement still open on it.
func (c *Conn) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.inst.ABI().SqliteClose(c.id)
	lunatic.Logger().Debug("sqlite closed", zap.String("path", c.path), zap.Uint64("conn", c.id))
	return nil
}

// Stmt is a prepared statement. Bind parameters, then Step through the rows.
type Stmt struct {
	conn   *Conn
	id     uint64
	query  string
	closed bool
}

// Bind appends [args] to the statement's parameters. Positional values fill
// the next free parameter; a [NamedArg] fills the parameter with its name.
func (s *Stmt) Bind(args ...any) error {
	if s.closed || s.conn.closed {
		return ErrClosed
	}
	bindings := make([]host.SqliteBinding, 0, len(args))
	for _, a := range args {
		var name string
		if n, ok := a.(NamedArg); ok {
			name, a = n.Name, n.Value
		}
		v, err := ValueOf(a)
		if err != nil {
			return &Error{Op: "bind", Query: s.query, Err: err}
		}
		bindings = append(bindings, host.SqliteBinding{Name: name, Value: v.host()})
	}
	var buf bytes.Buffer
	if err := (serializer.Bincode{}).Encode(&buf, bindings, nil); err != nil {
		return &Error{Op: "bind", Query: s.query, Err: err}
	}
	if s.conn.inst.ABI().SqliteBind(s.id, buf.Bytes()) != 0 {
		return s.conn.lastError("bind", s.query)
	}
	return nil
}

// Columns returns the names of the result columns.
func (s *Stmt) Columns() ([]string, error) {
	if s.closed || s.conn.closed {
		return nil, ErrClosed
	}
	var names []string
	data := s.conn.inst.ABI().SqliteColumnNames(s.id)
	if err := (serializer.Bincode{}).Decode(bytes.NewReader(data), &names, nil); err != nil {
		return nil, &Error{Op: "columns", Query: s.query, Err: err}
	}
	return names, nil
}

// Step runs the statement to its next row. ok is false once the statement is done.
func (s *Stmt) Step() (row []Value, ok bool, err error) {
	if s.closed || s.conn.closed {
		return nil, false, ErrClosed
	}
	abi := s.conn.inst.ABI()
	switch res := abi.SqliteStep(s.id); res {
	case host.SqliteDone:
		return nil, false, nil
	case host.SqliteRow:
		var raw []host.SqliteValue
		if err := (serializer.Bincode{}).Decode(bytes.NewReader(abi.SqliteReadRow(s.id)), &raw, nil); err != nil {
			return nil, false, &Error{Op: "read row", Query: s.query, Err: err}
		}
		row = make([]Value, len(raw))
		for i, v := range raw {
			row[i] = fromHost(v)
		}
		return row, true, nil
	default:
		return nil, false, s.conn.lastError("step", s.query)
	}
}

// All steps through every remaining row.
func (s *Stmt) All() ([][]Value, error) {
	var rows [][]Value
	for {
		row, ok, err := s.Step()
		if err != nil {
			return rows, err
		}
		if !ok {
			return rows, nil
		}
		rows = append(rows, row)
	}
}

// Reset clears the bindings and rewinds the statement so it can run again.
func (s *Stmt) Reset() {
	if s.closed || s.conn.closed {
		return
	}
	s.conn.inst.ABI().SqliteReset(s.id)
}

func (s *Stmt) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if !s.conn.closed {
		s.conn.inst.ABI().SqliteFinalize(s.id)
	}
	return nil
}

package vm

import (
	"bytes"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"

	_ "modernc.org/sqlite"
)

type sqliteConn struct {
	db      *sql.DB
	changes int64
	lastErr error
}

type sqliteStmt struct {
	conn    *sqliteConn
	query   string
	args    []any
	rows    *sql.Rows
	columns []string
	row     []host.SqliteValue
	done    bool
}

type sqliteTable struct {
	dir    string
	mx     sync.Mutex
	nextID uint64
	conns  map[uint64]*sqliteConn
	stmts  map[uint64]*sqliteStmt
}

func newSqliteTable(dir string) *sqliteTable {
	return &sqliteTable{
		dir:   dir,
		conns: make(map[uint64]*sqliteConn),
		stmts: make(map[uint64]*sqliteStmt),
	}
}

func (t *sqliteTable) open(path string) (uint64, error) {
	dsn := path
	if path != ":memory:" && !filepath.IsAbs(path) && t.dir != "" {
		dsn = filepath.Join(t.dir, path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return 0, err
	}
	// an in-memory database lives as long as its only connection
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return 0, err
	}

	t.mx.Lock()
	defer t.mx.Unlock()
	t.nextID++
	t.conns[t.nextID] = &sqliteConn{db: db}
	return t.nextID, nil
}

func (t *sqliteTable) conn(id uint64) *sqliteConn {
	t.mx.Lock()
	defer t.mx.Unlock()
	c, ok := t.conns[id]
	if !ok {
		panic(fmt.Sprintf("sqlite connection id %d not found", id))
	}
	return c
}

func (t *sqliteTable) stmt(id uint64) *sqliteStmt {
	t.mx.Lock()
	defer t.mx.Unlock()
	s, ok := t.stmts[id]
	if !ok {
		panic(fmt.Sprintf("sqlite statement id %d not found", id))
	}
	return s
}

// execute runs a batch of statements that return no rows.
func (t *sqliteTable) execute(connID uint64, query string) error {
	c := t.conn(connID)
	res, err := c.db.Exec(query)
	if err != nil {
		c.lastErr = err
		return err
	}
	c.changes, _ = res.RowsAffected()
	return nil
}

func (t *sqliteTable) prepare(connID uint64, query string) uint64 {
	c := t.conn(connID)

	t.mx.Lock()
	defer t.mx.Unlock()
	t.nextID++
	t.stmts[t.nextID] = &sqliteStmt{conn: c, query: query}
	return t.nextID
}

func (t *sqliteTable) bind(stmtID uint64, encoded []byte) error {
	s := t.stmt(stmtID)
	var bindings []host.SqliteBinding
	if err := (serializer.Bincode{}).Decode(bytes.NewReader(encoded), &bindings, nil); err != nil {
		return err
	}
	for _, b := range bindings {
		v := driverValue(b.Value)
		if b.Name != "" {
			s.args = append(s.args, sql.Named(strings.TrimLeft(b.Name, ":@$"), v))
		} else {
			s.args = append(s.args, v)
		}
	}
	return nil
}

// returnsRows decides between Query and Exec for a prepared statement.
func returnsRows(query string) bool {
	q := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "VALUES", "EXPLAIN"} {
		if strings.HasPrefix(q, prefix) {
			return true
		}
	}
	return strings.Contains(q, "RETURNING")
}

func (t *sqliteTable) step(stmtID uint64) (uint32, error) {
	s := t.stmt(stmtID)
	if s.done {
		return host.SqliteDone, nil
	}
	if s.rows == nil {
		if !returnsRows(s.query) {
			res, err := s.conn.db.Exec(s.query, s.args...)
			if err != nil {
				s.conn.lastErr = err
				return 0, err
			}
			s.conn.changes, _ = res.RowsAffected()
			s.done = true
			return host.SqliteDone, nil
		}
		rows, err := s.conn.db.Query(s.query, s.args...)
		if err != nil {
			s.conn.lastErr = err
			return 0, err
		}
		if s.columns, err = rows.Columns(); err != nil {
			rows.Close()
			return 0, err
		}
		s.rows = rows
	}

	if !s.rows.Next() {
		s.done = true
		err := s.rows.Err()
		s.rows.Close()
		s.rows = nil
		if err != nil {
			s.conn.lastErr = err
			return 0, err
		}
		return host.SqliteDone, nil
	}
	raw := make([]any, len(s.columns))
	ptrs := make([]any, len(s.columns))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := s.rows.Scan(ptrs...); err != nil {
		return 0, err
	}
	s.row = make([]host.SqliteValue, len(raw))
	for i, v := range raw {
		s.row[i] = sqliteValue(v)
	}
	return host.SqliteRow, nil
}

func (t *sqliteTable) readRow(stmtID uint64) []byte {
	return encodeBincode(t.stmt(stmtID).row)
}

func (t *sqliteTable) columnNames(stmtID uint64) []byte {
	s := t.stmt(stmtID)
	if s.columns == nil && s.rows == nil && returnsRows(s.query) {
		// column names are known before the first step on a real host
		if rows, err := s.conn.db.Query(s.query, s.args...); err == nil {
			s.columns, _ = rows.Columns()
			rows.Close()
		}
	}
	return encodeBincode(s.columns)
}

func (t *sqliteTable) reset(stmtID uint64) {
	s := t.stmt(stmtID)
	if s.rows != nil {
		s.rows.Close()
		s.rows = nil
	}
	s.args = nil
	s.row = nil
	s.done = false
}

func (t *sqliteTable) finalize(stmtID uint64) {
	t.reset(stmtID)
	t.mx.Lock()
	defer t.mx.Unlock()
	delete(t.stmts, stmtID)
}

func (t *sqliteTable) closeConn(connID uint64) {
	c := t.conn(connID)
	t.mx.Lock()
	delete(t.conns, connID)
	for id, s := range t.stmts {
		if s.conn == c {
			if s.rows != nil {
				s.rows.Close()
			}
			delete(t.stmts, id)
		}
	}
	t.mx.Unlock()
	c.db.Close()
}

func (t *sqliteTable) close() {
	t.mx.Lock()
	ids := make([]uint64, 0, len(t.conns))
	for id := range t.conns {
		ids = append(ids, id)
	}
	t.mx.Unlock()
	for _, id := range ids {
		t.closeConn(id)
	}
}

func encodeBincode(v any) []byte {
	var buf bytes.Buffer
	if err := (serializer.Bincode{}).Encode(&buf, v, nil); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func sqliteValue(v any) host.SqliteValue {
	switch x := v.(type) {
	case nil:
		return host.SqliteValue{Type: host.SqliteNull}
	case int64:
		return host.SqliteValue{Type: host.SqliteInteger, Int: x}
	case float64:
		return host.SqliteValue{Type: host.SqliteFloat, Float: x}
	case string:
		return host.SqliteValue{Type: host.SqliteText, Text: x}
	case []byte:
		return host.SqliteValue{Type: host.SqliteBlob, Blob: append([]byte(nil), x...)}
	case bool:
		if x {
			return host.SqliteValue{Type: host.SqliteInteger, Int: 1}
		}
		return host.SqliteValue{Type: host.SqliteInteger}
	default:
		return host.SqliteValue{Type: host.SqliteText, Text: fmt.Sprint(x)}
	}
}

func driverValue(v host.SqliteValue) any {
	switch v.Type {
	case host.SqliteInteger:
		return v.Int
	case host.SqliteFloat:
		return v.Float
	case host.SqliteText:
		return v.Text
	case host.SqliteBlob:
		return v.Blob
	default:
		return nil
	}
}

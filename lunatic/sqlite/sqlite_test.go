//go:build !integration

package sqlite_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/sqlite"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm"
)

func TestQuery_SelectsLiteral(t *testing.T) {
	var rows [][]sqlite.Value
	var err error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, openErr := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, openErr) {
			return
		}
		defer db.Close()
		rows, err = db.Query("SELECT 'Hello'")
	})

	assert.NilError(t, err)
	assert.DeepEqual(t, rows, [][]sqlite.Value{{sqlite.TextValue("Hello")}})
}

func TestQuery_BindsPositionalAndNamedArgs(t *testing.T) {
	var positional, named [][]sqlite.Value
	var posErr, namedErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, openErr := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, openErr) {
			return
		}
		defer db.Close()
		positional, posErr = db.Query("SELECT ?, ?", 7, nil)
		named, namedErr = db.Query("SELECT :name", sqlite.Named(":name", "Foo!"))
	})

	assert.NilError(t, posErr)
	assert.DeepEqual(t, positional, [][]sqlite.Value{{sqlite.IntValue(7), sqlite.NullValue()}})
	assert.NilError(t, namedErr)
	assert.DeepEqual(t, named, [][]sqlite.Value{{sqlite.TextValue("Foo!")}})
}

func TestExecute_CreatesInsertsAndCountsChanges(t *testing.T) {
	var rows [][]sqlite.Value
	var changes int
	var columns []string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, err := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, err) {
			return
		}
		defer db.Close()
		assert.Check(t, db.Execute(`
			CREATE TABLE animals (id INTEGER PRIMARY KEY, name TEXT, weight REAL, photo BLOB);
			INSERT INTO animals (name, weight) VALUES ('cat', 4.5), ('dog', 20);
		`))

		stmt, err := db.Prepare("UPDATE animals SET photo = ? WHERE weight > ?")
		if !assert.Check(t, err) {
			return
		}
		assert.Check(t, stmt.Bind([]byte{1, 2}, 1))
		_, more, err := stmt.Step()
		assert.Check(t, err)
		assert.Check(t, !more)
		assert.Check(t, stmt.Close())
		changes = db.Changes()

		sel, err := db.Prepare("SELECT name, weight, photo FROM animals ORDER BY id")
		if !assert.Check(t, err) {
			return
		}
		defer sel.Close()
		columns, err = sel.Columns()
		assert.Check(t, err)
		rows, err = sel.All()
		assert.Check(t, err)
	})

	assert.Equal(t, changes, 2)
	assert.DeepEqual(t, columns, []string{"name", "weight", "photo"})
	assert.DeepEqual(t, rows, [][]sqlite.Value{
		{sqlite.TextValue("cat"), sqlite.FloatValue(4.5), sqlite.BlobValue([]byte{1, 2})},
		{sqlite.TextValue("dog"), sqlite.FloatValue(20), sqlite.BlobValue([]byte{1, 2})},
	})
}

func TestStmt_ResetRunsAgainWithNewBindings(t *testing.T) {
	var first, second [][]sqlite.Value

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, err := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, err) {
			return
		}
		defer db.Close()
		stmt, err := db.Prepare("SELECT ? * 2")
		if !assert.Check(t, err) {
			return
		}
		defer stmt.Close()

		assert.Check(t, stmt.Bind(2))
		first, err = stmt.All()
		assert.Check(t, err)
		stmt.Reset()
		assert.Check(t, stmt.Bind(21))
		second, err = stmt.All()
		assert.Check(t, err)
	})

	assert.DeepEqual(t, first, [][]sqlite.Value{{sqlite.IntValue(4)}})
	assert.DeepEqual(t, second, [][]sqlite.Value{{sqlite.IntValue(42)}})
}

func TestExecute_ErrorCarriesHostMessage(t *testing.T) {
	var execErr, queryErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, err := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, err) {
			return
		}
		defer db.Close()
		execErr = db.Execute("CREATE TABLE")
		_, queryErr = db.Query("SELECT * FROM missing")
	})

	var serr *sqlite.Error
	assert.Assert(t, errors.As(execErr, &serr))
	assert.Equal(t, serr.Op, "execute")
	assert.Equal(t, serr.Query, "CREATE TABLE")
	assert.Assert(t, is.ErrorContains(queryErr, "missing"))
}

func TestBind_RejectsUnsupportedValues(t *testing.T) {
	var err error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, openErr := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, openErr) {
			return
		}
		defer db.Close()
		_, err = db.Query("SELECT ?", struct{}{})
	})

	assert.ErrorContains(t, err, "cannot bind struct {}")
}

func TestConn_ClosedCallsFail(t *testing.T) {
	var execErr, prepErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, err := sqlite.Open(inst, ":memory:")
		if !assert.Check(t, err) {
			return
		}
		assert.Check(t, db.Close())
		assert.Check(t, db.Close())
		execErr = db.Execute("SELECT 1")
		_, prepErr = db.Prepare("SELECT 1")
	})

	assert.ErrorIs(t, execErr, sqlite.ErrClosed)
	assert.ErrorIs(t, prepErr, sqlite.ErrClosed)
}

func TestOpen_FileSurvivesConnections(t *testing.T) {
	dir := t.TempDir()
	var rows [][]sqlite.Value

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		db, err := sqlite.Open(inst, "kv.db")
		if !assert.Check(t, err) {
			return
		}
		assert.Check(t, db.Execute("CREATE TABLE kv (k TEXT, v INTEGER); INSERT INTO kv VALUES ('a', 1)"))
		assert.Check(t, db.Close())

		again, err := sqlite.Open(inst, "kv.db")
		if !assert.Check(t, err) {
			return
		}
		defer again.Close()
		rows, err = again.Query("SELECT k, v FROM kv")
		assert.Check(t, err)
	}, lunatictest.VMOptions(vm.WithSqliteDir(dir)))

	assert.DeepEqual(t, rows, [][]sqlite.Value{{sqlite.TextValue("a"), sqlite.IntValue(1)}})
}

func TestValueOf(t *testing.T) {
	cases := []struct {
		in   any
		want sqlite.Value
	}{
		{in: nil, want: sqlite.NullValue()},
		{in: int32(-3), want: sqlite.IntValue(-3)},
		{in: true, want: sqlite.IntValue(1)},
		{in: float32(0.5), want: sqlite.FloatValue(0.5)},
		{in: "x", want: sqlite.TextValue("x")},
		{in: []byte("b"), want: sqlite.BlobValue([]byte("b"))},
		{in: sqlite.IntValue(9), want: sqlite.IntValue(9)},
	}
	for _, c := range cases {
		got, err := sqlite.ValueOf(c.in)
		assert.NilError(t, err)
		assert.DeepEqual(t, got, c.want)
	}

	_, err := sqlite.ValueOf(uint64(1))
	assert.ErrorContains(t, err, "cannot bind uint64")
}

func TestValue_StringAndAny(t *testing.T) {
	assert.Equal(t, sqlite.NullValue().String(), "NULL")
	assert.Equal(t, sqlite.IntValue(3).String(), "3")
	assert.Equal(t, sqlite.Text.String(), "text")
	assert.Assert(t, cmp.Equal(sqlite.BlobValue([]byte{1}).Any(), []byte{1}))
	assert.Assert(t, sqlite.NullValue().Any() == nil)
}

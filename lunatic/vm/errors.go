package vm

import (
	"fmt"
	"sync"
)

// errorTable holds the errors handed to guests by id.
type errorTable struct {
	mx     sync.Mutex
	nextID uint64
	errs   map[uint64]error
}

func newErrorTable() *errorTable {
	return &errorTable{errs: make(map[uint64]error)}
}

func (t *errorTable) add(err error) uint64 {
	t.mx.Lock()
	defer t.mx.Unlock()

	t.nextID++
	t.errs[t.nextID] = err
	return t.nextID
}

func (t *errorTable) addf(format string, args ...any) uint64 {
	return t.add(fmt.Errorf(format, args...))
}

// get traps on unknown ids, like every other lookup of a guest supplied resource id.
func (t *errorTable) get(id uint64) error {
	t.mx.Lock()
	defer t.mx.Unlock()

	err, ok := t.errs[id]
	if !ok {
		panic(fmt.Sprintf("error id %d not found", id))
	}
	return err
}

func (t *errorTable) drop(id uint64) {
	t.mx.Lock()
	defer t.mx.Unlock()
	delete(t.errs, id)
}

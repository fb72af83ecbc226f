package lunatic

import (
	"fmt"
	"sync"
)

var (
	funcsMx sync.RWMutex
	funcs   []any
)

// FuncRef names a function by its index in the module's function table, so
// it can be sent to another process of the same module. Create references
// with [NewFunc] in package level variables.
type FuncRef[F any] struct {
	Index uint64
}

// NewFunc adds [f] to the function table.
func NewFunc[F any](f F) FuncRef[F] {
	funcsMx.Lock()
	defer funcsMx.Unlock()
	funcs = append(funcs, f)
	return FuncRef[F]{Index: uint64(len(funcs) - 1)}
}

// Get returns the referenced function. It panics if the index is unknown to
// this module or names a function of another type.
func (r FuncRef[F]) Get() F {
	funcsMx.RLock()
	defer funcsMx.RUnlock()
	if r.Index >= uint64(len(funcs)) {
		panic(fmt.Sprintf("lunatic: function %d is not in this module's table", r.Index))
	}
	f, ok := funcs[r.Index].(F)
	if !ok {
		panic(fmt.Sprintf("lunatic: function %d is a %T, not a %T", r.Index, funcs[r.Index], f))
	}
	return f
}

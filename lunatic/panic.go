package lunatic

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

// Functions waiting to run under trap::catch, keyed by the entry passed to the host.
var (
	catchMx    sync.Mutex
	catchNext  = atomic.NewUint64(0)
	catchFuncs = map[uint64]func(){}
)

// CatchPanic runs [f] and returns its result. If [f] panics, the host catches
// the trap and CatchPanic returns [ErrPanicked] while the process keeps
// running. Host resources acquired inside [f] before the panic are leaked.
func CatchPanic[T any](inst *Instance, f func() T) (T, error) {
	var result T
	entry := catchNext.Inc()

	catchMx.Lock()
	catchFuncs[entry] = func() { result = f() }
	catchMx.Unlock()
	defer func() {
		catchMx.Lock()
		delete(catchFuncs, entry)
		catchMx.Unlock()
	}()

	if inst.abi.TrapCatch(entry, 0) == 0 {
		var zero T
		return zero, ErrPanicked
	}
	return result, nil
}

// catchTrapExport is the re-entry point of trap::catch. It returns 1 once the
// function ran to completion; a trap never returns here.
func catchTrapExport(_ host.ABI, params []host.Param) uint64 {
	entry := params[0].Uint64()

	catchMx.Lock()
	fn, ok := catchFuncs[entry]
	catchMx.Unlock()
	if !ok {
		panic(fmt.Sprintf("lunatic: no function waiting for catch entry %d", entry))
	}
	fn()
	return 1
}

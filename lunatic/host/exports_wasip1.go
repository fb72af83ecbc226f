//go:build wasip1

package host

import (
	"sync"
	"unsafe"
)

// Buffers handed to the host through lunatic_alloc stay pinned here until the
// guest reclaims them.
var (
	allocMx sync.Mutex
	allocs  = map[uint32][]byte{}
)

//go:wasmexport lunatic_alloc
func lunaticAlloc(size uint32) uint32 {
	buf := make([]byte, size)
	if size == 0 {
		buf = make([]byte, 1)
	}
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))

	allocMx.Lock()
	allocs[ptr] = buf
	allocMx.Unlock()

	return ptr
}

func reclaim(ptr, n uint32) []byte {
	allocMx.Lock()
	buf, ok := allocs[ptr]
	delete(allocs, ptr)
	allocMx.Unlock()

	if !ok {
		return nil
	}
	return buf[:n]
}

//go:wasmexport _lunatic_catch_trap
func lunaticCatchTrap(entry, arg uint64) uint64 {
	fn, ok := LookupExport(ExportCatchTrap)
	if !ok {
		panic("host: no catch trap export registered")
	}
	return fn(Wasm(), []Param{I64(int64(entry)), I64(int64(arg))})
}

//go:wasmexport _lunatic_spawn_by_index
func lunaticSpawnByIndex(entry, arg int32) {
	fn, ok := LookupExport(ExportSpawnByIndex)
	if !ok {
		panic("host: no spawn export registered")
	}
	fn(Wasm(), []Param{I32(entry), I32(arg)})
}

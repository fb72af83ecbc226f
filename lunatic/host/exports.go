package host

import "sync"

// Names of the functions every lunatic guest module exports.
const (
	ExportAlloc        = "lunatic_alloc"
	ExportCatchTrap    = "_lunatic_catch_trap"
	ExportSpawnByIndex = "_lunatic_spawn_by_index"
)

// ExportFunc is a guest export as seen by a host that runs the guest in-process.
// [abi] is bound to the process the export runs in.
type ExportFunc func(abi ABI, params []Param) uint64

var (
	exportsMx sync.RWMutex
	exports   = map[string]ExportFunc{}
)

// RegisterExport makes [fn] callable by name. Packages register their exports
// from init, so every process of the module sees the same table.
func RegisterExport(name string, fn ExportFunc) {
	exportsMx.Lock()
	defer exportsMx.Unlock()

	if _, ok := exports[name]; ok {
		panic("host: export registered twice: " + name)
	}
	exports[name] = fn
}

// LookupExport returns the export registered under [name].
func LookupExport(name string) (ExportFunc, bool) {
	exportsMx.RLock()
	defer exportsMx.RUnlock()

	fn, ok := exports[name]
	return fn, ok
}

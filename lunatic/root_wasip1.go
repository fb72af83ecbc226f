//go:build wasip1

package lunatic

import (
	"sync"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
)

var (
	rootOnce sync.Once
	root     *Instance
)

// Root returns the instance of the process the module was started in. Spawned
// processes get their own instance through their entry function.
func Root() *Instance {
	rootOnce.Do(func() {
		root = NewInstance(host.Wasm())
	})
	return root
}

package lunatic

import (
	"fmt"
	"reflect"
	"runtime/debug"
	"sync"
)

// ProcessName is implemented by values that name a process in the registry.
type ProcessName interface {
	ProcessName() string
}

// Name is a plain process name.
type Name string

func (n Name) ProcessName() string {
	return string(n)
}

var (
	buildInfoOnce sync.Once
	modulePath    = "unknown"
	moduleVersion = "(devel)"
)

// DefaultProcessName returns a name unique to T within a build:
// module@version::package::Type. Pointer types name their element type.
func DefaultProcessName[T any]() Name {
	buildInfoOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if info.Main.Path != "" {
			modulePath = info.Main.Path
		}
		if info.Main.Version != "" {
			moduleVersion = info.Main.Version
		}
	})

	t := reflect.TypeFor[T]()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return Name(fmt.Sprintf("%s@%s::%s::%s", modulePath, moduleVersion, t.PkgPath(), t.Name()))
}

// RegisterName registers [p] under the name [n] gives.
func (p Process[M]) RegisterName(n ProcessName) {
	p.Register(n.ProcessName())
}

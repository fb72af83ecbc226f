package lunatic

import "go.uber.org/atomic"

var localIDs = atomic.NewUint64(0)

// Local is a value with one copy per process. The copy is created by the
// declaration's init function on first access in each process.
type Local[T any] struct {
	id   uint64
	init func() T
}

// NewLocal declares a process-local value. A nil [init] starts from the zero value.
func NewLocal[T any](init func() T) *Local[T] {
	if init == nil {
		init = func() T {
			var zero T
			return zero
		}
	}
	return &Local[T]{id: localIDs.Inc(), init: init}
}

func (l *Local[T]) slot(inst *Instance) *T {
	if v, ok := inst.locals[l.id]; ok {
		return v.(*T)
	}
	v := l.init()
	inst.locals[l.id] = &v
	return &v
}

// With calls [fn] with this process's copy.
func (l *Local[T]) With(inst *Instance, fn func(v *T)) {
	fn(l.slot(inst))
}

func (l *Local[T]) Get(inst *Instance) T {
	return *l.slot(inst)
}

func (l *Local[T]) Set(inst *Instance, v T) {
	*l.slot(inst) = v
}

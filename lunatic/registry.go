package lunatic

import (
	"fmt"
	"reflect"

	"github.com/lunatic-solutions/lunatic-go/lunatic/serializer"
)

// RegistryKind separates registry entries that hold a bare process from
// entries that hold an abstract process reference.
type RegistryKind string

const (
	KindProcess    RegistryKind = "Process"
	KindProcessRef RegistryKind = "ProcessRef"
)

// RegistryKey is the host registry key of [name]. It includes the message type
// and the codec, so a lookup only finds processes it can talk to.
func RegistryKey[M any](s serializer.Serializer, kind RegistryKind, name string) string {
	return fmt.Sprintf("%s/%s/%s/%s", reflect.TypeFor[M]().String(), s.ID(), kind, name)
}

// Lookup returns the process registered under [name]. It blocks while another
// process holds the name's lock. If the caller holds it the lookup could never
// return, so it panics with [ErrRegistryLocked] instead.
func Lookup[M any](inst *Instance, name string, opts ...HandleOpt) (Process[M], bool) {
	p := ProcessFromID[M](inst, 0, opts...)
	key := RegistryKey[M](p.codec(), KindProcess, name)
	if inst.locks.Contains(key) {
		panic(fmt.Errorf("%w: %q is held by this process", ErrRegistryLocked, name))
	}
	nodeID, id, ok := inst.abi.RegistryGet(key)
	if !ok {
		return Process[M]{}, false
	}
	p.nodeID, p.id = nodeID, id
	return p, true
}

// GetOrPutLater returns the process registered under [name]. If there is none
// the name is locked for the caller, which must follow up with
// [Process.Register] or [Remove]. The host releases the lock if the caller dies.
func GetOrPutLater[M any](inst *Instance, name string, opts ...HandleOpt) (Process[M], bool) {
	p := ProcessFromID[M](inst, 0, opts...)
	key := RegistryKey[M](p.codec(), KindProcess, name)
	nodeID, id, ok := inst.abi.RegistryGetOrPutLater(key)
	if !ok {
		inst.locks.Add(key)
		return Process[M]{}, false
	}
	p.nodeID, p.id = nodeID, id
	return p, true
}

// Remove deletes the entry under [name].
func Remove[M any](inst *Instance, name string, opts ...HandleOpt) {
	p := ProcessFromID[M](inst, 0, opts...)
	key := RegistryKey[M](p.codec(), KindProcess, name)
	inst.abi.RegistryRemove(key)
	inst.locks.Remove(key)
}

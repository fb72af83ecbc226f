package vm

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

type registration struct {
	node uint64
	id   uint64
}

// registry maps names to processes. A name can also be locked by one process
// through getOrPutLater: until that process puts the name, or dies, every other
// lookup of the name blocks.
type registry struct {
	mx     sync.Mutex
	cond   *sync.Cond
	names  map[string]registration
	locks  map[string]uint64
	holder map[uint64]mapset.Set[string]
}

// registryDeadlock is the trap raised when a process looks up a name it has locked itself.
type registryDeadlock struct {
	name string
}

func (e registryDeadlock) Error() string {
	return "registry: process waits on its own lock for " + e.name
}

func newRegistry() *registry {
	r := &registry{
		names:  make(map[string]registration),
		locks:  make(map[string]uint64),
		holder: make(map[uint64]mapset.Set[string]),
	}
	r.cond = sync.NewCond(&r.mx)
	return r
}

// put installs [name] and releases its lock.
func (r *registry) put(name string, node, id uint64) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.names[name] = registration{node: node, id: id}
	r.unlock(name)
	r.cond.Broadcast()
}

// get waits while [name] is locked by another process. [p] is the caller.
func (r *registry) get(p *process, name string) (registration, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.waitUnlocked(p, name)
	reg, ok := r.names[name]
	return reg, ok
}

// getOrPutLater returns the entry for [name] or, if there is none, locks the
// name for [p] and returns false.
func (r *registry) getOrPutLater(p *process, name string) (registration, bool) {
	r.mx.Lock()
	defer r.mx.Unlock()

	r.waitUnlocked(p, name)
	if reg, ok := r.names[name]; ok {
		return reg, true
	}
	r.locks[name] = p.id
	held, ok := r.holder[p.id]
	if !ok {
		held = mapset.NewThreadUnsafeSet[string]()
		r.holder[p.id] = held
	}
	held.Add(name)
	return registration{}, false
}

// remove deletes [name] and releases its lock, so a holder can back out of a
// getOrPutLater without registering anything.
func (r *registry) remove(name string) {
	r.mx.Lock()
	defer r.mx.Unlock()

	delete(r.names, name)
	r.unlock(name)
	r.cond.Broadcast()
}

// releaseLocks drops every lock held by [id]. Called when the process exits.
func (r *registry) releaseLocks(id uint64) {
	r.mx.Lock()
	defer r.mx.Unlock()

	held, ok := r.holder[id]
	if !ok {
		return
	}
	for name := range held.Iter() {
		if r.locks[name] == id {
			delete(r.locks, name)
		}
	}
	delete(r.holder, id)
	r.cond.Broadcast()
}

// wake lets blocked callers notice that they have been killed.
func (r *registry) wake() {
	r.mx.Lock()
	defer r.mx.Unlock()
	r.cond.Broadcast()
}

// called with mx held
func (r *registry) waitUnlocked(p *process, name string) {
	for {
		lockedBy, locked := r.locks[name]
		if !locked {
			return
		}
		if lockedBy == p.id {
			panic(registryDeadlock{name: name})
		}
		// the caller's deferred unlock releases mx if the process was killed
		p.check()
		r.cond.Wait()
	}
}

// called with mx held
func (r *registry) unlock(name string) {
	id, ok := r.locks[name]
	if !ok {
		return
	}
	delete(r.locks, name)
	if held, ok := r.holder[id]; ok {
		held.Remove(name)
	}
}

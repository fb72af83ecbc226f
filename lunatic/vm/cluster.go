package vm

import (
	"sync"

	"github.com/uberbrodt/fungo/fun"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Cluster connects VMs so their processes can spawn on and send to each other.
type Cluster struct {
	mx    sync.RWMutex
	nodes map[uint64]*VM
}

func NewCluster() *Cluster {
	return &Cluster{nodes: make(map[uint64]*VM)}
}

func (c *Cluster) join(vm *VM) {
	c.mx.Lock()
	defer c.mx.Unlock()
	c.nodes[vm.nodeID] = vm
}

func (c *Cluster) leave(vm *VM) {
	c.mx.Lock()
	defer c.mx.Unlock()
	delete(c.nodes, vm.nodeID)
}

func (c *Cluster) node(id uint64) (*VM, bool) {
	if c == nil {
		return nil, false
	}
	c.mx.RLock()
	defer c.mx.RUnlock()
	vm, ok := c.nodes[id]
	return vm, ok
}

// peers returns the ids of every node except [self], sorted.
func (c *Cluster) peers(self uint64) []uint64 {
	if c == nil {
		return nil
	}
	c.mx.RLock()
	defer c.mx.RUnlock()

	out := fun.Filter(maps.Keys(c.nodes), func(id uint64) bool { return id != self })
	slices.Sort(out)
	return out
}

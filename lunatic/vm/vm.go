// Package vm is an in-process lunatic host.
//
// A [VM] runs guest code as goroutines and gives every process its own
// [host.ABI]. Processes get a mailbox with selective receive, links and
// monitors, a name registry, timers, process configs, an error table,
// metrics, TCP and TLS networking backed by the net package and sqlite
// connections backed by modernc.org/sqlite. Several VMs can be joined in a
// [Cluster] to act as the nodes of a distributed deployment.
//
// The VM makes it possible to run and test guest code with the regular Go
// toolchain; under GOOS=wasip1 the same guest code talks to a real lunatic host
// instead.
package vm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/xid"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm/exitreason"
)

// ErrTooManyProcesses is returned by spawns once the process limit is reached.
var ErrTooManyProcesses = errors.New("vm: process limit reached")

// ErrWaitTimeout is returned by [VM.Run] when the process outlives the timeout.
var ErrWaitTimeout = errors.New("vm: timed out waiting for process exit")

// all VMs of one program run the same module.
var defaultModuleID = xidUint64(xid.New())

func xidUint64(id xid.ID) uint64 {
	// machine, pid and counter bytes; the leading timestamp is shared by ids
	// created in the same second.
	return binary.BigEndian.Uint64(id[4:12])
}

type options struct {
	nodeID       uint64
	moduleID     uint64
	log          *zap.Logger
	cluster      *Cluster
	sqliteDir    string
	maxProcesses int
}

type Option func(o *options)

// WithNodeID overrides the generated node id.
func WithNodeID(id uint64) Option {
	return func(o *options) { o.nodeID = id }
}

// WithModuleID overrides the module id. Remote spawns only succeed between VMs
// that report the same module id.
func WithModuleID(id uint64) Option {
	return func(o *options) { o.moduleID = id }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithCluster joins the VM to [c] so its processes can reach the other nodes.
func WithCluster(c *Cluster) Option {
	return func(o *options) { o.cluster = c }
}

// WithSqliteDir sets the directory relative sqlite paths are opened in.
// ":memory:" is always an in-memory database.
func WithSqliteDir(dir string) Option {
	return func(o *options) { o.sqliteDir = dir }
}

// WithMaxProcesses bounds the number of live processes. 0 means no bound.
func WithMaxProcesses(n int) Option {
	return func(o *options) { o.maxProcesses = n }
}

type VM struct {
	nodeID       uint64
	moduleID     uint64
	log          *zap.Logger
	cluster      *Cluster
	maxProcesses int

	nextID *atomic.Uint64
	mx     sync.RWMutex
	procs  map[uint64]*process

	registry *registry
	timers   *timers
	errors   *errorTable
	configs  *configTable
	metrics  *metricsTable
	net      *netTable
	sqlite   *sqliteTable

	shutdown sync.Once
}

func New(opts ...Option) *VM {
	o := &options{
		nodeID:   xidUint64(xid.New()),
		moduleID: defaultModuleID,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	vm := &VM{
		nodeID:       o.nodeID,
		moduleID:     o.moduleID,
		log:          o.log.Named("vm"),
		cluster:      o.cluster,
		maxProcesses: o.maxProcesses,
		nextID:       atomic.NewUint64(0),
		procs:        make(map[uint64]*process),
		registry:     newRegistry(),
		timers:       newTimers(),
		errors:       newErrorTable(),
		configs:      newConfigTable(),
		metrics:      newMetricsTable(),
		net:          newNetTable(),
		sqlite:       newSqliteTable(o.sqliteDir),
	}
	if vm.cluster != nil {
		vm.cluster.join(vm)
	}
	return vm
}

func (vm *VM) NodeID() uint64 {
	return vm.nodeID
}

func (vm *VM) ModuleID() uint64 {
	return vm.moduleID
}

// Proc is a handle on a process started from outside the VM.
type Proc struct {
	p *process
}

func (h *Proc) ID() uint64 {
	return h.p.id
}

// Done is closed once the process has exited.
func (h *Proc) Done() <-chan struct{} {
	return h.p.exited
}

// Reason returns why the process exited, or nil while it is alive.
func (h *Proc) Reason() *exitreason.S {
	return h.p.reason.Load()
}

// Go runs [fn] as a new root process with the default config.
func (vm *VM) Go(fn func(abi host.ABI)) (*Proc, error) {
	p, err := vm.spawn(nil, 0, defaultProcessConfig(), fn)
	if err != nil {
		return nil, err
	}
	return &Proc{p: p}, nil
}

// Spawn starts a root process running the guest export [function].
func (vm *VM) Spawn(function string, params ...host.Param) (*Proc, error) {
	fn, err := exportRunner(function, host.EncodeParams(params...))
	if err != nil {
		return nil, err
	}
	return vm.Go(fn)
}

// Run starts [fn] as a root process and waits up to [timeout] for it to exit.
func (vm *VM) Run(fn func(abi host.ABI), timeout time.Duration) (*exitreason.S, error) {
	h, err := vm.Go(fn)
	if err != nil {
		return nil, err
	}
	select {
	case <-h.Done():
		return h.Reason(), nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w: %v after %s", ErrWaitTimeout, h.p, timeout)
	}
}

// Alive returns the number of live processes.
func (vm *VM) Alive() int {
	vm.mx.RLock()
	defer vm.mx.RUnlock()
	return len(vm.procs)
}

// Shutdown kills every process, stops all pending timers and releases
// listeners, streams and sqlite connections. The VM cannot be used afterwards.
func (vm *VM) Shutdown() {
	vm.shutdown.Do(func() {
		vm.mx.RLock()
		procs := make([]*process, 0, len(vm.procs))
		for _, p := range vm.procs {
			procs = append(procs, p)
		}
		vm.mx.RUnlock()

		for _, p := range procs {
			p.signals.Enqueue(killSignal{})
		}
		for _, p := range procs {
			<-p.exited
		}
		if err := vm.timers.stop(); err != nil {
			vm.log.Warn("timers stopped with error", zap.Error(err))
		}
		vm.net.close()
		vm.sqlite.close()
		if vm.cluster != nil {
			vm.cluster.leave(vm)
		}
		vm.log.Debug("vm shut down", zap.Uint64("node", vm.nodeID))
	})
}

func exportRunner(function string, params []byte) (func(host.ABI), error) {
	export, ok := host.LookupExport(function)
	if !ok {
		return nil, fmt.Errorf("function %q is not exported by the module", function)
	}
	decoded, err := host.DecodeParams(params)
	if err != nil {
		return nil, err
	}
	return func(abi host.ABI) { export(abi, decoded) }, nil
}

// spawn registers a new process and starts it. When [parent] is not nil and
// [linkTag] is not 0 the two are linked before the child runs.
func (vm *VM) spawn(parent *process, linkTag int64, cfg processConfig, fn func(host.ABI)) (*process, error) {
	id := vm.nextID.Inc()
	p := newProcess(vm, id, cfg)

	vm.mx.Lock()
	if vm.maxProcesses > 0 && len(vm.procs) >= vm.maxProcesses {
		vm.mx.Unlock()
		return nil, ErrTooManyProcesses
	}
	vm.procs[id] = p
	vm.mx.Unlock()

	if parent != nil && linkTag != 0 {
		p.links[parent.id] = linkTag
		parent.signals.Enqueue(linkSignal{peer: id, tag: linkTag})
	}

	p.log.Debug("process spawned", zap.Int64("tag", linkTag))
	p.run(fn)
	return p, nil
}

func (vm *VM) lookup(id uint64) (*process, bool) {
	vm.mx.RLock()
	defer vm.mx.RUnlock()
	p, ok := vm.procs[id]
	return p, ok
}

func (vm *VM) forget(id uint64) {
	vm.mx.Lock()
	defer vm.mx.Unlock()
	delete(vm.procs, id)
}

// send delivers [sig] to process [to]. Links and monitors aimed at a dead
// process are answered as if it died right after they were made.
func (vm *VM) send(to uint64, sig signal) {
	if p, ok := vm.lookup(to); ok && p.signals.Enqueue(sig) {
		return
	}
	vm.replyDead(to, sig)
}

func (vm *VM) replyDead(dead uint64, sig signal) {
	switch s := sig.(type) {
	case linkSignal:
		vm.send(s.peer, exitSignal{sender: dead, tag: s.tag, reason: exitreason.NoProc})
	case monitorSignal:
		vm.send(s.watcher, downSignal{proc: dead})
	}
}

func (vm *VM) deliver(to uint64, msg *message) {
	vm.send(to, messageSignal{msg: msg})
}

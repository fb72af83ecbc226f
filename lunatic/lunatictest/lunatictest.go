// Package lunatictest runs guest code inside a fresh in-process host for tests.
//
// [Run] starts the test function as the root process of a new [vm.VM] and
// fails the test if the process traps, gets killed or outlives the timeout.
// [RunExpectTrap] is the inverse and fails the test unless the process traps.
package lunatictest

import (
	"testing"
	"time"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/host"
	"github.com/lunatic-solutions/lunatic-go/lunatic/timeout"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm"
	"github.com/lunatic-solutions/lunatic-go/lunatic/vm/exitreason"
)

type RunOpt func(ro runOptions) runOptions

type runOptions struct {
	timeout time.Duration
	vmOpts  []vm.Option
	vm      *vm.VM
}

// Timeout bounds how long the root process may run. See [timeout.Default].
func Timeout(d time.Duration) RunOpt {
	return func(ro runOptions) runOptions {
		ro.timeout = d
		return ro
	}
}

// VMOptions are passed to [vm.New] when the harness creates the VM.
func VMOptions(opts ...vm.Option) RunOpt {
	return func(ro runOptions) runOptions {
		ro.vmOpts = append(ro.vmOpts, opts...)
		return ro
	}
}

// On runs the root process in [v] instead of a new VM.
func On(v *vm.VM) RunOpt {
	return func(ro runOptions) runOptions {
		ro.vm = v
		return ro
	}
}

// NewVM returns a VM that is shut down when the test ends.
func NewVM(t testing.TB, opts ...vm.Option) *vm.VM {
	t.Helper()
	v := vm.New(opts...)
	t.Cleanup(v.Shutdown)
	return v
}

// Run executes [fn] as a root process and fails the test unless it returns normally.
func Run(t testing.TB, fn func(inst *lunatic.Instance), opts ...RunOpt) {
	t.Helper()
	reason := run(t, fn, opts)
	if !exitreason.IsNormal(reason) {
		if exitreason.IsTrap(reason) {
			t.Fatalf("root process trapped: %v", reason.TrapDetail())
		}
		t.Fatalf("root process exited with %v", reason)
	}
}

// RunExpectTrap executes [fn] as a root process and fails the test unless it traps.
func RunExpectTrap(t testing.TB, fn func(inst *lunatic.Instance), opts ...RunOpt) *exitreason.S {
	t.Helper()
	reason := run(t, fn, opts)
	if !exitreason.IsTrap(reason) {
		t.Fatalf("expected the root process to trap, it exited with %v", reason)
	}
	return reason
}

func run(t testing.TB, fn func(inst *lunatic.Instance), opts []RunOpt) *exitreason.S {
	t.Helper()
	ro := runOptions{timeout: timeout.Default}
	for _, o := range opts {
		ro = o(ro)
	}
	v := ro.vm
	if v == nil {
		v = NewVM(t, ro.vmOpts...)
	}

	reason, err := v.Run(func(abi host.ABI) {
		fn(lunatic.NewInstance(abi))
	}, ro.timeout)
	if err != nil {
		t.Fatalf("lunatictest: %v", err)
	}
	return reason
}

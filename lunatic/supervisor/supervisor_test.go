//go:build !integration

package supervisor_test

import (
	"errors"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/ap"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
	"github.com/lunatic-solutions/lunatic-go/lunatic/supervisor"
	"github.com/lunatic-solutions/lunatic-go/lunatic/tuple"
)

type WorkerArg struct {
	Name     string
	Observer *lunatic.Process[string]
	// Linger is how long Terminate takes
	Linger time.Duration
}

type Worker struct {
	arg WorkerArg
}

func (Worker) Init(_ *ap.Config[Worker], arg WorkerArg) (Worker, error) {
	return Worker{arg: arg}, nil
}

func (w *Worker) Terminate(cfg *ap.Config[Worker]) {
	if w.arg.Linger > 0 {
		cfg.Instance().Sleep(w.arg.Linger)
	}
	if w.arg.Observer != nil {
		w.arg.Observer.Send("stopped " + w.arg.Name)
	}
}

var (
	crash = ap.HandleMessage(func(w *Worker, _ *ap.Config[Worker], _ lunatic.Unit) {
		panic(w.arg.Name + " crashed")
	})
	nameOf = ap.HandleRequest(func(w *Worker, _ *ap.Config[Worker], _ lunatic.Unit) string {
		return w.arg.Name
	})
	workers = ap.Handlers[Worker, WorkerArg](crash, nameOf)
)

func worker(name string, opts ...supervisor.ChildOpt) supervisor.ChildSpec {
	return supervisor.Child(workers, WorkerArg{Name: name}, opts...)
}

var (
	oneForOne = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Children(worker("a"), worker("b"))
	})
	oneForAll = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Flags(supervisor.NewSupFlags(supervisor.SetStrategy(supervisor.OneForAll)))
		s.Children(worker("a"), worker("b"))
	})
	restForOne = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Flags(supervisor.NewSupFlags(supervisor.SetStrategy(supervisor.RestForOne)))
		s.Children(worker("a"), worker("b"), worker("c"))
	})
	named = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Children(worker("a", supervisor.Name(lunatic.Name("worker-a"))))
	})
	duplicated = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Children(worker("a", supervisor.Name(lunatic.Name("same"))), worker("b", supervisor.Name(lunatic.Name("same"))))
	})
	// children report their Terminate to the observer in the argument
	observed = supervisor.Define(func(s *supervisor.Spec, observer lunatic.Process[string]) {
		s.Children(
			supervisor.Child(workers, WorkerArg{Name: "a", Observer: &observer}),
			supervisor.Child(workers, WorkerArg{Name: "b", Observer: &observer}),
		)
	})
	observedAll = supervisor.Define(func(s *supervisor.Spec, observer lunatic.Process[string]) {
		s.Flags(supervisor.NewSupFlags(supervisor.SetStrategy(supervisor.OneForAll)))
		s.Children(observedWorkers(observer, "a", "b", "c")...)
	})
	observedRest = supervisor.Define(func(s *supervisor.Spec, observer lunatic.Process[string]) {
		s.Flags(supervisor.NewSupFlags(supervisor.SetStrategy(supervisor.RestForOne)))
		s.Children(observedWorkers(observer, "a", "b", "c")...)
	})
	// the child outlives its shutdown timeout
	stuck = supervisor.Define(func(s *supervisor.Spec, observer lunatic.Process[string]) {
		s.Children(supervisor.Child(workers,
			WorkerArg{Name: "stuck", Observer: &observer, Linger: 3 * time.Second},
			supervisor.ShutdownTimeout(50*time.Millisecond)))
	})
	// the child is waited for however long it takes
	patient = supervisor.Define(func(s *supervisor.Spec, observer lunatic.Process[string]) {
		s.Children(supervisor.Child(workers,
			WorkerArg{Name: "slow", Observer: &observer, Linger: 100 * time.Millisecond},
			supervisor.ShutdownTimeout(0)))
	})
	// a supervisor of supervisors
	nested = supervisor.Define(func(s *supervisor.Spec, _ lunatic.Unit) {
		s.Children(
			supervisor.Child(oneForOne.Behavior(), lunatic.Unit{}),
			worker("c"),
		)
	})

	// starts a linked supervisor, hands it to the parent and crashes
	crashingParent = lunatic.NewEntry(func(parent lunatic.Process[supervisor.Ref], mb lunatic.Mailbox[int]) {
		ref, err := oneForOne.StartLink(mb.Instance(), lunatic.Unit{})
		if err != nil {
			panic(err)
		}
		parent.Send(ref)
		panic("parent crashed")
	})

	// waits for the supervisor to shut down and reports it
	shutdownWaiter = lunatic.NewEntry(func(c tuple.T2[lunatic.Process[string], supervisor.Ref], _ lunatic.Mailbox[int]) {
		if err := c.B.WaitOnShutdown(); err != nil {
			c.A.Send(err.Error())
			return
		}
		c.A.Send("supervisor down")
	})
)

func observedWorkers(observer lunatic.Process[string], names ...string) []supervisor.ChildSpec {
	specs := make([]supervisor.ChildSpec, len(names))
	for i, n := range names {
		specs[i] = supervisor.Child(workers, WorkerArg{Name: n, Observer: &observer})
	}
	return specs
}

func ids(refs []supervisor.ChildRef) []uint64 {
	out := make([]uint64, len(refs))
	for i, r := range refs {
		out[i] = r.Process.ID()
	}
	return out
}

// awaitRestart polls the children until the one at [index] has a new process.
func awaitRestart(t *testing.T, inst *lunatic.Instance, ref supervisor.Ref, before []uint64, index int) []uint64 {
	for range 1000 {
		refs, err := ref.Children()
		if !assert.Check(t, err) {
			return nil
		}
		if now := ids(refs); len(now) == len(before) && now[index] != before[index] {
			return now
		}
		inst.Sleep(time.Millisecond)
	}
	t.Errorf("child %d was not restarted", index)
	return nil
}

func crashChild(c supervisor.ChildRef) {
	crash.Send(supervisor.As[Worker](c), lunatic.Unit{})
}

func TestOneForOne_RestartsOnlyFailedChild(t *testing.T) {
	var before, after []uint64
	var names []string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := oneForOne.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		children, err := ref.Children()
		if !assert.Check(t, err) {
			return
		}
		before = ids(children)
		crashChild(children[0])
		after = awaitRestart(t, inst, ref, before, 0)

		children, err = ref.Children()
		if !assert.Check(t, err) {
			return
		}
		for _, c := range children {
			n, err := nameOf.Call(supervisor.As[Worker](c), lunatic.Unit{})
			assert.Check(t, err)
			names = append(names, n)
		}
	})

	assert.Equal(t, len(after), 2)
	assert.Assert(t, after[0] != before[0])
	assert.Equal(t, after[1], before[1])
	assert.DeepEqual(t, names, []string{"a", "b"})
}

func TestOneForAll_RestartsEveryChild(t *testing.T) {
	var before, after []uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := oneForAll.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		children, err := ref.Children()
		if !assert.Check(t, err) {
			return
		}
		before = ids(children)
		crashChild(children[1])
		after = awaitRestart(t, inst, ref, before, 1)
	})

	assert.Equal(t, len(after), 2)
	assert.Assert(t, after[0] != before[0])
	assert.Assert(t, after[1] != before[1])
}

func TestRestForOne_RestartsLaterChildren(t *testing.T) {
	var before, after []uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := restForOne.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		children, err := ref.Children()
		if !assert.Check(t, err) {
			return
		}
		before = ids(children)
		crashChild(children[1])
		after = awaitRestart(t, inst, ref, before, 1)
	})

	assert.Equal(t, len(after), 3)
	assert.Equal(t, after[0], before[0])
	assert.Assert(t, after[1] != before[1])
	assert.Assert(t, after[2] != before[2])
}

func TestIntensityExceeded_TrapsSupervisor(t *testing.T) {
	var died lunatic.MailboxResult[int]
	var supID uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := oneForOne.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		supID = ref.ID()
		ref.Monitor()
		children, err := ref.Children()
		if !assert.Check(t, err) {
			return
		}
		before := ids(children)
		crashChild(children[0])
		if awaitRestart(t, inst, ref, before, 0) == nil {
			return
		}
		crashChild(children[1])
		died = lunatic.NewMailbox[int](inst).Monitorable().ReceiveTimeout(time.Second)
	})

	assert.Equal(t, died.Kind, lunatic.ProcessDied)
	assert.Equal(t, died.ProcessID, supID)
}

func TestNamedChild_ReRegisteredOnRestart(t *testing.T) {
	var first, restarted, found ap.ProcessRef[Worker]
	var ok bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := named.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		first, ok = ap.Lookup[Worker](inst, lunatic.Name("worker-a"))
		if !assert.Check(t, ok) {
			return
		}
		crash.Send(first, lunatic.Unit{})
		after := awaitRestart(t, inst, ref, []uint64{first.ID()}, 0)
		if after == nil {
			return
		}
		restarted = ap.RefOf[Worker](lunatic.ProcessFromID[lunatic.Unit](inst, after[0]))
		found, ok = ap.Lookup[Worker](inst, lunatic.Name("worker-a"))
	})

	assert.Assert(t, ok)
	assert.Assert(t, first.ID() != restarted.ID())
	assert.Equal(t, found.ID(), restarted.ID())
}

func TestStart_DuplicateChildNameFails(t *testing.T) {
	var startErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		_, startErr = duplicated.Start(inst, lunatic.Unit{})
	})

	var se *ap.StartupError[supervisor.State]
	assert.Assert(t, errors.As(startErr, &se))
	assert.Equal(t, se.Kind, ap.Custom)
	assert.ErrorContains(t, startErr, `duplicate child name "same"`)
}

func TestShutdown_StopsChildrenInReverseOrder(t *testing.T) {
	var stops []string
	var shutdownErr error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := observed.Start(inst, lunatic.This[string](inst))
		if !assert.Check(t, err) {
			return
		}
		shutdownErr = ref.Shutdown()
		mb := lunatic.NewMailbox[string](inst)
		for range 2 {
			msg, err := mb.ReceiveTimeout(time.Second)
			if !assert.Check(t, err) {
				return
			}
			stops = append(stops, msg)
		}
	})

	assert.NilError(t, shutdownErr)
	assert.DeepEqual(t, stops, []string{"stopped b", "stopped a"})
}

func TestWaitOnShutdown(t *testing.T) {
	var report string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := oneForOne.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		_, err = lunatic.Spawn(inst, shutdownWaiter, tuple.New2(lunatic.This[string](inst), ref))
		if !assert.Check(t, err) {
			return
		}
		inst.Sleep(20 * time.Millisecond)
		assert.Check(t, ref.Shutdown())
		report, err = lunatic.NewMailbox[string](inst).ReceiveTimeout(time.Second)
		assert.Check(t, err)
	})

	assert.Equal(t, report, "supervisor down")
}

func TestUnknownLinkTag_TrapsSupervisor(t *testing.T) {
	var died lunatic.MailboxResult[int]
	var supID uint64

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		_, err := lunatic.Spawn(inst, crashingParent, lunatic.This[supervisor.Ref](inst))
		if !assert.Check(t, err) {
			return
		}
		ref, err := lunatic.NewMailbox[supervisor.Ref](inst).ReceiveTimeout(time.Second)
		if !assert.Check(t, err) {
			return
		}
		supID = ref.ID()
		ref.Monitor()
		died = lunatic.NewMailbox[int](inst).Monitorable().ReceiveTimeout(time.Second)
	})

	assert.Equal(t, died.Kind, lunatic.ProcessDied)
	assert.Equal(t, died.ProcessID, supID)
}

func TestNested_ChildSupervisorIsAChild(t *testing.T) {
	var children []supervisor.ChildRef
	var inner []supervisor.ChildRef

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := nested.Start(inst, lunatic.Unit{})
		if !assert.Check(t, err) {
			return
		}
		children, err = ref.Children()
		if !assert.Check(t, err) || !assert.Check(t, is.Len(children, 2)) {
			return
		}
		innerRef := supervisor.Ref{ProcessRef: supervisor.As[supervisor.State](children[0])}
		inner, err = innerRef.Children()
		assert.Check(t, err)
		assert.Check(t, ref.Shutdown())
	})

	assert.Equal(t, len(children), 2)
	assert.Equal(t, len(inner), 2)
}

// restartStops crashes child [index] of a supervisor observed by the caller
// and collects the Terminate reports of the siblings restarted with it.
func restartStops(t *testing.T, sup *supervisor.Supervisor[lunatic.Process[string]], index, want int) (stops []string, after []uint64) {
	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := sup.Start(inst, lunatic.This[string](inst))
		if !assert.Check(t, err) {
			return
		}
		children, err := ref.Children()
		if !assert.Check(t, err) {
			return
		}
		crashChild(children[index])
		after = awaitRestart(t, inst, ref, ids(children), index)

		mb := lunatic.NewMailbox[string](inst)
		for range want {
			msg, err := mb.ReceiveTimeout(time.Second)
			if !assert.Check(t, err) {
				return
			}
			stops = append(stops, msg)
		}
		_, err = mb.ReceiveTimeout(50 * time.Millisecond)
		assert.Check(t, is.ErrorIs(err, lunatic.ErrTimeout))
	})
	return stops, after
}

func TestOneForAll_SiblingsTerminateInReverseOrder(t *testing.T) {
	stops, after := restartStops(t, observedAll, 1, 2)

	assert.DeepEqual(t, stops, []string{"stopped c", "stopped a"})
	assert.Equal(t, len(after), 3)
}

func TestRestForOne_LaterSiblingsTerminateInReverseOrder(t *testing.T) {
	stops, after := restartStops(t, observedRest, 0, 2)

	assert.DeepEqual(t, stops, []string{"stopped c", "stopped b"})
	assert.Equal(t, len(after), 3)
}

func TestShutdown_KillsChildPastItsTimeout(t *testing.T) {
	var shutdownErr error
	var took time.Duration
	var alive bool
	var report error

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := stuck.Start(inst, lunatic.This[string](inst))
		if !assert.Check(t, err) {
			return
		}
		children, err := ref.Children()
		if !assert.Check(t, err) || !assert.Check(t, is.Len(children, 1)) {
			return
		}
		start := time.Now()
		shutdownErr = ref.Shutdown()
		took = time.Since(start)

		proc := children[0].Process
		for i := 0; i < 100 && proc.IsAlive(); i++ {
			inst.Sleep(time.Millisecond)
		}
		alive = proc.IsAlive()
		_, report = lunatic.NewMailbox[string](inst).ReceiveTimeout(50 * time.Millisecond)
	})

	assert.NilError(t, shutdownErr)
	assert.Assert(t, took < time.Second, "shutdown took %v", took)
	assert.Assert(t, !alive)
	assert.ErrorIs(t, report, lunatic.ErrTimeout)
}

func TestShutdown_ZeroTimeoutWaitsForTerminate(t *testing.T) {
	var shutdownErr error
	var took time.Duration
	var report string

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		ref, err := patient.Start(inst, lunatic.This[string](inst))
		if !assert.Check(t, err) {
			return
		}
		start := time.Now()
		shutdownErr = ref.Shutdown()
		took = time.Since(start)
		report, err = lunatic.NewMailbox[string](inst).ReceiveTimeout(10 * time.Millisecond)
		assert.Check(t, err)
	})

	assert.NilError(t, shutdownErr)
	assert.Assert(t, took >= 100*time.Millisecond, "shutdown took %v", took)
	assert.Equal(t, report, "stopped slow")
}

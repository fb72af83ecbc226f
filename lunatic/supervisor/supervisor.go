package supervisor

import (
	"fmt"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/ap"
)

// Spec collects the flags and children of a supervisor while it starts.
type Spec struct {
	flags    SupFlags
	children []ChildSpec
}

func (s *Spec) Flags(flags SupFlags) {
	s.flags = flags
}

// Children appends [children], which start in the order given.
func (s *Spec) Children(children ...ChildSpec) {
	s.children = append(s.children, children...)
}

// State is the state of a running supervisor.
type State struct {
	flags    SupFlags
	children []*child
	// tags of links that were replaced and whose deaths are expected
	retired  mapset.Set[lunatic.Tag]
	restarts []time.Time
}

var listChildren = ap.HandleRequest(func(s *State, _ *ap.Config[State], _ lunatic.Unit) []ChildRef {
	refs := make([]ChildRef, len(s.children))
	for i, c := range s.children {
		refs[i] = c.ref()
	}
	return refs
})

// Supervisor is a supervisor definition taking Arg when started.
type Supervisor[Arg any] struct {
	behavior *ap.Behavior[State, Arg]
}

// Define declares a supervisor. [fn] runs inside the new supervisor process
// and describes its children through the given [Spec].
func Define[Arg any](fn func(s *Spec, arg Arg)) *Supervisor[Arg] {
	initFn := func(cfg *ap.Config[State], arg Arg) (State, error) {
		spec := &Spec{flags: NewSupFlags()}
		fn(spec, arg)
		return initState(cfg.Instance(), spec)
	}
	return &Supervisor[Arg]{behavior: ap.Define(initFn, listChildren)}
}

// Behavior returns the supervisor as an abstract process behavior, for
// example to nest it as the child of another supervisor.
func (s *Supervisor[Arg]) Behavior() *ap.Behavior[State, Arg] {
	return s.behavior
}

func (s *Supervisor[Arg]) Start(inst *lunatic.Instance, arg Arg) (Ref, error) {
	ref, err := ap.Start(inst, s.behavior, arg)
	return Ref{ProcessRef: ref}, err
}

func (s *Supervisor[Arg]) StartLink(inst *lunatic.Instance, arg Arg) (Ref, error) {
	ref, err := ap.StartLink(inst, s.behavior, arg)
	return Ref{ProcessRef: ref}, err
}

func (s *Supervisor[Arg]) StartAs(inst *lunatic.Instance, name lunatic.ProcessName, arg Arg) (Ref, error) {
	ref, err := ap.StartAs(inst, s.behavior, name, arg)
	return Ref{ProcessRef: ref}, err
}

// Ref is a reference on a running supervisor. Shutdown stops the children in
// reverse start order before the supervisor exits.
type Ref struct {
	ap.ProcessRef[State]
}

// Children returns the running children in start order.
func (r Ref) Children() ([]ChildRef, error) {
	return listChildren.Call(r.ProcessRef, lunatic.Unit{})
}

func initState(inst *lunatic.Instance, spec *Spec) (State, error) {
	s := State{
		flags:   spec.flags,
		retired: mapset.NewThreadUnsafeSet[lunatic.Tag](),
	}
	names := mapset.NewThreadUnsafeSet[string]()
	for _, cs := range spec.children {
		if cs.name != "" && !names.Add(cs.name) {
			s.stopChildren()
			return State{}, fmt.Errorf("duplicate child name %q", cs.name)
		}
		c := &child{spec: cs}
		if err := c.start(inst); err != nil {
			s.stopChildren()
			return State{}, fmt.Errorf("start child %d: %w", len(s.children), err)
		}
		s.children = append(s.children, c)
	}
	return s, nil
}

// HandleLinkDeath restarts the children the strategy asks for. The other
// children that restart are shut down first, in reverse start order, and run
// their Terminate. A death whose tag belongs to no child is not something this
// supervisor can handle and traps it.
func (s *State) HandleLinkDeath(cfg *ap.Config[State], tag lunatic.Tag) {
	if s.retired.Contains(tag) {
		s.retired.Remove(tag)
		return
	}
	failed := slices.IndexFunc(s.children, func(c *child) bool { return c.tag == tag })
	if failed < 0 {
		panic(fmt.Sprintf("supervisor: %v got a link death with unknown tag %d", cfg.Self(), tag))
	}

	var err error
	s.restarts, err = addRestart(s.restarts, s.flags, time.Now())
	if err != nil {
		panic(fmt.Sprintf("supervisor: %v: %v", cfg.Self(), err))
	}

	var restart []*child
	switch s.flags.Strategy {
	case OneForAll:
		restart = s.children
	case RestForOne:
		restart = s.children[failed:]
	default:
		restart = s.children[failed : failed+1]
	}
	for i := len(restart) - 1; i >= 0; i-- {
		if c := restart[i]; c.tag != tag {
			s.stopSibling(c)
		}
	}

	inst := cfg.Instance()
	for _, c := range restart {
		if err := c.restart(inst); err != nil {
			panic(fmt.Sprintf("supervisor: %v: restart of child %v failed: %v", cfg.Self(), c.spec.name, err))
		}
	}
}

// stopSibling shuts [c] down while it stays linked. Its tag is only retired
// when a link death is still to come.
func (s *State) stopSibling(c *child) {
	if c.stop() {
		s.retired.Add(c.tag)
	}
}

func (s *State) Terminate(*ap.Config[State]) {
	s.stopChildren()
}

// stopChildren unlinks and stops every child. The supervisor is going away,
// so none of their deaths are waited for.
func (s *State) stopChildren() {
	for i := len(s.children) - 1; i >= 0; i-- {
		c := s.children[i]
		c.proc.Unlink()
		c.stop()
	}
}

package supervisor

import (
	"time"

	"github.com/lunatic-solutions/lunatic-go/chronos"
	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/ap"
)

// ChildSpec describes how to start one child. Create it with [Child].
type ChildSpec struct {
	name     string
	config   *lunatic.ProcessConfig
	shutdown time.Duration
	start    func(inst *lunatic.Instance, spec ChildSpec, tag lunatic.Tag) (lunatic.Process[lunatic.Unit], error)
	forget   func(inst *lunatic.Instance, name string)
}

type ChildOpt func(cs ChildSpec) ChildSpec

// Name registers the child under [name] every time it starts.
func Name(name lunatic.ProcessName) ChildOpt {
	return func(cs ChildSpec) ChildSpec {
		cs.name = name.ProcessName()
		return cs
	}
}

// Config starts the child with [cfg].
func Config(cfg *lunatic.ProcessConfig) ChildOpt {
	return func(cs ChildSpec) ChildSpec {
		cs.config = cfg
		return cs
	}
}

// ShutdownTimeout is how long the supervisor waits for the child to shut down
// before killing it. The default is 5 seconds, zero waits forever.
func ShutdownTimeout(d time.Duration) ChildOpt {
	return func(cs ChildSpec) ChildSpec {
		cs.shutdown = d
		return cs
	}
}

// Child declares a child running behavior [b], started with [arg].
func Child[S, Arg any](b *ap.Behavior[S, Arg], arg Arg, opts ...ChildOpt) ChildSpec {
	cs := ChildSpec{shutdown: chronos.Dur("5s")}
	for _, opt := range opts {
		cs = opt(cs)
	}
	cs.start = func(inst *lunatic.Instance, spec ChildSpec, tag lunatic.Tag) (lunatic.Process[lunatic.Unit], error) {
		builder := ap.Build(inst, b).LinkWith(tag)
		if spec.config != nil {
			builder.Configure(spec.config)
		}
		var ref ap.ProcessRef[S]
		var err error
		if spec.name != "" {
			ref, err = builder.StartAs(lunatic.Name(spec.name), arg)
		} else {
			ref, err = builder.Start(arg)
		}
		if err != nil {
			return lunatic.Process[lunatic.Unit]{}, err
		}
		return lunatic.ProcessOnNode[lunatic.Unit](inst, ref.NodeID(), ref.ID()), nil
	}
	cs.forget = func(inst *lunatic.Instance, name string) {
		ap.Remove[S](inst, lunatic.Name(name))
	}
	return cs
}

// ChildRef is a running child as reported by [Ref.Children].
type ChildRef struct {
	Name    string
	Process lunatic.Process[lunatic.Unit]
}

// As returns a reference on the child for talking to it through the handlers
// of its behavior.
func As[S any](c ChildRef) ap.ProcessRef[S] {
	return ap.RefOf[S](c.Process)
}

type child struct {
	spec ChildSpec
	tag  lunatic.Tag
	proc lunatic.Process[lunatic.Unit]
}

func (c *child) start(inst *lunatic.Instance) error {
	c.tag = inst.NewTag()
	p, err := c.spec.start(inst, c.spec, c.tag)
	if err != nil {
		return err
	}
	c.proc = p
	return nil
}

// restart starts the child again after it died. A named child leaves a stale
// registry entry behind, which is dropped first.
func (c *child) restart(inst *lunatic.Instance) error {
	if c.spec.name != "" {
		c.spec.forget(inst, c.spec.name)
	}
	return c.start(inst)
}

// stop asks the child to shut down and kills it if it does not within its
// shutdown timeout. It reports whether a link death from the child may still
// arrive: a child that shuts down in order exits normally and only unlinks,
// a killed or already dead one sends its death.
func (c *child) stop() (deathPending bool) {
	if !c.proc.IsAlive() {
		return true
	}
	ref := ap.RefOf[lunatic.Unit](c.proc).WithTimeout(c.spec.shutdown)
	if err := ref.Shutdown(); err != nil {
		lunatic.Logger().Sugar().Debugf("supervisor: shutdown of %v failed, killing it: %v", c.proc, err)
		c.proc.Kill()
		return true
	}
	return false
}

func (c *child) ref() ChildRef {
	return ChildRef{Name: c.spec.name, Process: c.proc}
}

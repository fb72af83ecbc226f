//go:build !integration

package ap_test

import (
	"errors"
	"time"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/ap"
	"github.com/lunatic-solutions/lunatic-go/lunatic/tuple"
)

type Counter struct {
	N int
}

func (Counter) Init(_ *ap.Config[Counter], start int) (Counter, error) {
	return Counter{N: start}, nil
}

var (
	increment  = ap.HandleMessage(func(c *Counter, _ *ap.Config[Counter], _ lunatic.Unit) { c.N++ })
	count      = ap.HandleRequest(func(c *Counter, _ *ap.Config[Counter], _ lunatic.Unit) int { return c.N })
	addToCount = ap.HandleRequest(func(c *Counter, _ *ap.Config[Counter], args tuple.T2[int, int]) int {
		c.N += args.A + args.B
		return c.N
	})
	// sleeps for the given duration before answering
	slowCount = ap.HandleRequest(func(c *Counter, cfg *ap.Config[Counter], d time.Duration) int {
		cfg.Instance().Sleep(d)
		return c.N
	})

	counters = ap.Handlers[Counter, int](increment, count, addToCount, slowCount)

	// only known to loudCounters, counters has no handler at its index
	shout        = ap.HandleMessage(func(*Counter, *ap.Config[Counter], string) {})
	loudCounters = ap.Handlers[Counter, int](increment, count, addToCount, slowCount, shout)
)

// Gate parks callers of wait until release is called.
type Gate struct {
	waiting []ap.DeferredResponse[string]
}

func (Gate) Init(*ap.Config[Gate], lunatic.Unit) (Gate, error) {
	return Gate{}, nil
}

var (
	wait = ap.HandleDeferredRequest(func(g *Gate, _ *ap.Config[Gate], _ lunatic.Unit, resp ap.DeferredResponse[string]) {
		g.waiting = append(g.waiting, resp)
	})
	release = ap.HandleRequest(func(g *Gate, _ *ap.Config[Gate], msg string) int {
		n := len(g.waiting)
		for _, w := range g.waiting {
			w.Send(msg)
		}
		g.waiting = nil
		return n
	})

	gates = ap.Handlers[Gate, lunatic.Unit](wait, release)

	// calls wait on the gate and forwards the answer
	gateWaiter = lunatic.NewEntry(func(c tuple.T2[lunatic.Process[string], ap.ProcessRef[Gate]], _ lunatic.Mailbox[int]) {
		resp, err := wait.Call(c.B, lunatic.Unit{})
		if err != nil {
			resp = err.Error()
		}
		c.A.Send(resp)
	})
)

// Fragile fails its Init on request.
type Fragile struct{}

func (Fragile) Init(_ *ap.Config[Fragile], mode string) (Fragile, error) {
	switch mode {
	case "panic":
		panic("fragile init")
	case "fail":
		return Fragile{}, errors.New("refusing to start")
	}
	return Fragile{}, nil
}

var fragiles = ap.Handlers[Fragile, string]()

// Watched reports its Terminate to an observer.
type Watched struct {
	observer lunatic.Process[string]
}

func (Watched) Init(_ *ap.Config[Watched], observer lunatic.Process[string]) (Watched, error) {
	return Watched{observer: observer}, nil
}

func (w *Watched) Terminate(*ap.Config[Watched]) {
	w.observer.Send("terminated")
}

var (
	watched = ap.Handlers[Watched, lunatic.Process[string]]()

	// waits for the shutdown of the process and reports it
	shutdownWaiter = lunatic.NewEntry(func(c tuple.T2[lunatic.Process[string], ap.ProcessRef[Watched]], _ lunatic.Mailbox[int]) {
		if err := c.B.WaitOnShutdown(); err != nil {
			c.A.Send(err.Error())
			return
		}
		c.A.Send("shut down")
	})
)

// Guardian links itself to a crashing process during Init and records the
// link deaths it sees.
type Guardian struct {
	linkTag lunatic.Tag
	deaths  []lunatic.Tag
}

func (Guardian) Init(cfg *ap.Config[Guardian], _ lunatic.Unit) (Guardian, error) {
	inst := cfg.Instance()
	tag := inst.NewTag()
	if _, err := lunatic.Spawn(inst, crasher, lunatic.Unit{}, lunatic.LinkTag(tag)); err != nil {
		return Guardian{}, err
	}
	return Guardian{linkTag: tag}, nil
}

func (g *Guardian) HandleLinkDeath(_ *ap.Config[Guardian], tag lunatic.Tag) {
	g.deaths = append(g.deaths, tag)
}

var (
	deaths = ap.HandleRequest(func(g *Guardian, _ *ap.Config[Guardian], _ lunatic.Unit) tuple.T2[lunatic.Tag, []lunatic.Tag] {
		return tuple.New2(g.linkTag, g.deaths)
	})
	guardians = ap.Handlers[Guardian, lunatic.Unit](deaths)

	crasher = lunatic.NewEntry(func(_ lunatic.Unit, _ lunatic.Mailbox[int]) {
		panic("crash")
	})
)

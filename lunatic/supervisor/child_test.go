//go:build !integration

package supervisor

import (
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"gotest.tools/v3/assert"

	"github.com/lunatic-solutions/lunatic-go/lunatic"
	"github.com/lunatic-solutions/lunatic-go/lunatic/ap"
	"github.com/lunatic-solutions/lunatic-go/lunatic/lunatictest"
)

// lingering takes its argument's duration to terminate
type lingering struct {
	d time.Duration
}

func (lingering) Init(_ *ap.Config[lingering], d time.Duration) (lingering, error) {
	return lingering{d: d}, nil
}

func (l *lingering) Terminate(cfg *ap.Config[lingering]) {
	cfg.Instance().Sleep(l.d)
}

var lingerers = ap.Handlers[lingering, time.Duration]()

// stopLinked starts [spec] linked to the caller, stops it as a restarting
// sibling and waits [wait] for its link death.
func stopLinked(t *testing.T, spec ChildSpec, wait time.Duration) (tag lunatic.Tag, retired []lunatic.Tag, death lunatic.Envelope) {
	lunatictest.Run(t, func(inst *lunatic.Instance) {
		lunatic.NewMailbox[lunatic.Unit](inst).CatchLinkFailure()
		c := &child{spec: spec}
		if !assert.Check(t, c.start(inst)) {
			return
		}
		tag = c.tag
		s := State{retired: mapset.NewThreadUnsafeSet[lunatic.Tag]()}
		s.stopSibling(c)
		retired = s.retired.ToSlice()
		death = lunatic.ReceiveEnvelope(inst, wait, c.tag)
	})
	return tag, retired, death
}

func TestStopSibling_OrderlyExitRetiresNothing(t *testing.T) {
	_, retired, death := stopLinked(t, Child(lingerers, time.Duration(0)), 50*time.Millisecond)

	assert.Equal(t, len(retired), 0)
	assert.Equal(t, death.Kind, lunatic.TimedOut)
}

func TestStopSibling_KilledChildRetiresItsTag(t *testing.T) {
	tag, retired, death := stopLinked(t, Child(lingerers, 3*time.Second, ShutdownTimeout(20*time.Millisecond)), time.Second)

	assert.DeepEqual(t, retired, []lunatic.Tag{tag})
	assert.Equal(t, death.Kind, lunatic.LinkDied)
	assert.Equal(t, death.Tag, tag)
}

func TestStop_DeadChildReportsPendingDeath(t *testing.T) {
	var pending bool

	lunatictest.Run(t, func(inst *lunatic.Instance) {
		lunatic.NewMailbox[lunatic.Unit](inst).CatchLinkFailure()
		c := &child{spec: Child(lingerers, time.Duration(0))}
		if !assert.Check(t, c.start(inst)) {
			return
		}
		c.proc.Kill()
		for i := 0; i < 1000 && c.proc.IsAlive(); i++ {
			inst.Sleep(time.Millisecond)
		}
		pending = c.stop()
	})

	assert.Assert(t, pending)
}

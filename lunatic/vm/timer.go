package vm

import (
	"sync"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

type timer struct {
	claimed *atomic.Bool
	cancel  chan struct{}
}

// claim decides between firing and cancelling; only the first caller wins.
func (t *timer) claim() bool {
	return t.claimed.CompareAndSwap(false, true)
}

type timers struct {
	mx     sync.Mutex
	nextID uint64
	active map[uint64]*timer
	group  errgroup.Group
	done   chan struct{}
}

func newTimers() *timers {
	return &timers{
		active: make(map[uint64]*timer),
		done:   make(chan struct{}),
	}
}

// after calls [fire] once [d] has passed unless the timer is cancelled first.
func (ts *timers) after(d time.Duration, fire func()) uint64 {
	t := &timer{claimed: atomic.NewBool(false), cancel: make(chan struct{})}

	ts.mx.Lock()
	ts.nextID++
	id := ts.nextID
	ts.active[id] = t
	ts.mx.Unlock()

	ts.group.Go(func() error {
		defer ts.forget(id)

		select {
		case <-time.After(d):
			if t.claim() {
				fire()
			}
		case <-t.cancel:
		case <-ts.done:
		}
		return nil
	})
	return id
}

// cancel returns true if the timer had not fired yet.
func (ts *timers) cancel(id uint64) bool {
	ts.mx.Lock()
	t, ok := ts.active[id]
	ts.mx.Unlock()

	if !ok || !t.claim() {
		return false
	}
	close(t.cancel)
	return true
}

func (ts *timers) forget(id uint64) {
	ts.mx.Lock()
	defer ts.mx.Unlock()
	delete(ts.active, id)
}

// stop drops every pending timer and waits for their goroutines.
func (ts *timers) stop() error {
	close(ts.done)
	return ts.group.Wait()
}

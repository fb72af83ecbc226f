package inbox

import (
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by the pop methods once the inbox has been closed.
var ErrClosed = errors.New("inbox closed")

type Inbox[M any] struct {
	msgQ   []M
	mx     sync.Mutex
	closed bool
	cond   *sync.Cond
}

// Create an Inbox that will store messages of type [M].
// An Inbox is written to using the `Enqueue` method, which will
// append itself to the end of a message queue. To read these messages,
// there are three methods:
//
//  1. Calling [Pop], which will return the head of the queue or nothing.
//  2. Calling [PopMatch], which will return the first queued message accepted by a matcher.
//  3. Calling [WaitMatch], which blocks until a message accepted by the matcher arrives,
//     the timeout passes or the inbox is closed.
//
// Messages the matcher rejects keep their position in the queue, which is what
// selective receive is built on. All methods are safe for concurrent use.
func New[M any]() *Inbox[M] {
	i := &Inbox[M]{
		msgQ: make([]M, 0, 10),
	}
	i.cond = sync.NewCond(&i.mx)
	return i
}

// Add a message to the end of the queue. Returns false if the inbox is closed.
func (i *Inbox[M]) Enqueue(msg M) bool {
	i.mx.Lock()
	defer i.mx.Unlock()

	if i.closed {
		return false
	}

	i.msgQ = append(i.msgQ, msg)
	i.cond.Broadcast()

	return true
}

// get and remove the head of the inbox.
// if there was no item returned, [ok] returns false
// if the inbox is closed and will never return a value, [closed] will be not nil
func (i *Inbox[M]) Pop() (item M, ok bool, closed error) {
	return i.PopMatch(func(M) bool { return true })
}

// PopMatch removes and returns the oldest message for which [match] returns true.
// It never blocks.
func (i *Inbox[M]) PopMatch(match func(M) bool) (item M, ok bool, closed error) {
	i.mx.Lock()
	defer i.mx.Unlock()

	if i.closed {
		return item, false, ErrClosed
	}
	item, ok = i.take(match)
	return item, ok, nil
}

// WaitMatch is the blocking form of [PopMatch]. A negative [timeout] waits forever.
// If the timeout passes without a matching message [ok] is false and [closed] is nil.
//
// Under the hood, this is using [sync.Cond] to sleep callers until there are messages;
// a timer broadcasts on the condition when the deadline passes.
func (i *Inbox[M]) WaitMatch(match func(M) bool, timeout time.Duration) (item M, ok bool, closed error) {
	var deadline time.Time
	if timeout >= 0 {
		deadline = time.Now().Add(timeout)
		t := time.AfterFunc(timeout, func() {
			i.mx.Lock()
			i.cond.Broadcast()
			i.mx.Unlock()
		})
		defer t.Stop()
	}

	i.mx.Lock()
	defer i.mx.Unlock()

	for {
		if i.closed {
			return item, false, ErrClosed
		}
		if item, ok = i.take(match); ok {
			return item, true, nil
		}
		if !deadline.IsZero() && !time.Now().Before(deadline) {
			return item, false, nil
		}
		i.cond.Wait()
	}
}

func (i *Inbox[M]) take(match func(M) bool) (item M, ok bool) {
	for idx, m := range i.msgQ {
		if match(m) {
			i.msgQ = append(i.msgQ[:idx], i.msgQ[idx+1:]...)
			return m, true
		}
	}
	return item, false
}

// Return the number of items in the Inbox
func (i *Inbox[M]) Size() int {
	i.mx.Lock()
	defer i.mx.Unlock()

	return len(i.msgQ)
}

// closes the inbox and returns everything left in the message queue
func (i *Inbox[M]) Drain() []M {
	i.mx.Lock()
	defer i.mx.Unlock()

	result := make([]M, len(i.msgQ))
	copy(result, i.msgQ)
	i.msgQ = nil
	if !i.closed {
		i.closed = true
		i.cond.Broadcast()
	}

	return result
}

// prevents any messages from being queued/dequeued. Blocked [WaitMatch] callers return [ErrClosed].
func (i *Inbox[M]) Close() {
	i.mx.Lock()
	defer i.mx.Unlock()
	if i.closed {
		return
	}
	i.closed = true
	i.cond.Broadcast()
}

package connection

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopStopped indicates work was posted to a stopped loop.
var ErrLoopStopped = errors.New("connection loop stopped")

// taskBuffer bounds the number of queued tasks. The agent posts a
// handful of callbacks per connection attempt; the buffer only needs to
// absorb bursts around connect/disconnect transitions.
const taskBuffer = 64

// Loop is a single-goroutine serialized executor. Everything posted to
// it runs on one dedicated goroutine, in order, one task at a time.
// It is the designated execution context for connection state: the
// state machine mutates its fields only from loop tasks.
type Loop struct {
	tasks chan func()
	quit  chan struct{}
	done  chan struct{}

	// Goroutine ID of the loop goroutine, for affinity checks.
	gid atomic.Uint64

	stopOnce sync.Once
}

// NewLoop creates and starts a loop.
func NewLoop() *Loop {
	l := &Loop{
		tasks: make(chan func(), taskBuffer),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run()
	return l
}

func (l *Loop) run() {
	defer close(l.done)
	l.gid.Store(goroutineID())

	for {
		select {
		case fn := <-l.tasks:
			fn()
		case <-l.quit:
			// Run tasks that were queued before the stop, then exit.
			for {
				select {
				case fn := <-l.tasks:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Post schedules fn to run on the loop goroutine. It returns
// ErrLoopStopped when the loop has been stopped; the task is dropped.
//
// Post blocks while the task buffer is full. A loop task must
// therefore post fewer than taskBuffer tasks before returning: the
// loop cannot drain the buffer while it is blocked inside the task,
// so filling it from the loop goroutine deadlocks.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.quit:
		return ErrLoopStopped
	case l.tasks <- fn:
		return nil
	}
}

// PostDelayed schedules fn onto the loop after the given delay.
// The returned timer can be stopped to cancel delivery. Posting after
// the loop has stopped is a silent no-op.
func (l *Loop) PostDelayed(delay time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(delay, func() {
		_ = l.Post(fn)
	})
}

// InLoop reports whether the caller is running on the loop goroutine.
// State-mutating code checks this at entry; a false result there is a
// programming error and the operation must be abandoned.
func (l *Loop) InLoop() bool {
	return goroutineID() == l.gid.Load()
}

// Stop stops the loop after running already-queued tasks. Safe to call
// multiple times and from loop tasks; when called from the loop itself
// it does not wait for shutdown (the loop drains and exits once the
// current task returns).
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.quit)
	})
	if l.InLoop() {
		return
	}
	<-l.done
}

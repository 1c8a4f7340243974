package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrStopped is returned by Do once the loop has stopped.
var ErrStopped = errors.New("session: loop stopped")

// defaultLoopQueue bounds pending loop tasks.
const defaultLoopQueue = 128

// Loop runs posted functions one at a time on the goroutine that called Run.
// Everything it runs may touch session state without locking.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
}

// NewLoop creates a loop with room for size pending tasks.
// A non-positive size selects a default.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = defaultLoopQueue
	}
	return &Loop{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// Post enqueues fn. It blocks while the queue is full and returns false,
// without running fn, once the loop has stopped. Post must not be called
// from the loop goroutine when the queue may be full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. Calling Do from the
// loop goroutine deadlocks.
//
// A nil error means fn ran. Any error means it did not and never will: if
// ctx ends or the loop stops while fn is still queued, fn is skipped.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var claimed atomic.Bool
	finished := make(chan struct{})
	if !l.Post(func() {
		if !claimed.CompareAndSwap(false, true) {
			return
		}
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}

	var err error
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		err = ctx.Err()
	case <-l.done:
		err = ErrStopped
	}

	if claimed.CompareAndSwap(false, true) {
		return err
	}
	// fn already started on the loop; wait for it to commit.
	<-finished
	return nil
}

// Run executes tasks until ctx is cancelled. Tasks still queued when Run
// returns are discarded.
func (l *Loop) Run(ctx context.Context) {
	defer l.stop()

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

// Stopped is closed once Run has returned.
func (l *Loop) Stopped() <-chan struct{} {
	return l.done
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

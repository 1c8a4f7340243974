package sink

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultQueueSize bounds the number of droppable events waiting for delivery.
const DefaultQueueSize = 256

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Warn(msg string, args ...any)
}

// Fanout delivers events to every sink from a single goroutine, in the
// order they were published.
//
// Publish never blocks. Once size droppable events are waiting, further
// ones are discarded with a warning, so sinks cannot stall the session loop.
// Chat entries are never dropped and do not count against size.
type Fanout struct {
	sinks  []Sink
	size   int
	logger Logger

	mu      sync.Mutex
	pending []Event
	lossy   int // pending events that count against size
	wake    chan struct{}

	dropped atomic.Uint64
}

// NewFanout creates a fan-out with room for size pending droppable events.
// A non-positive size selects DefaultQueueSize.
func NewFanout(size int, logger Logger, sinks ...Sink) *Fanout {
	if size <= 0 {
		size = DefaultQueueSize
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Fanout{
		sinks:  sinks,
		size:   size,
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// durable reports whether events of kind k bypass the size limit.
func durable(k Kind) bool {
	return k == KindChat
}

// Publish enqueues ev. It returns false when the event was dropped.
func (f *Fanout) Publish(ev Event) bool {
	keep := durable(ev.Kind)

	f.mu.Lock()
	if !keep && f.lossy >= f.size {
		f.mu.Unlock()
		n := f.dropped.Add(1)
		f.logger.Warn("sink queue full, event dropped", "kind", ev.Kind, "dropped_total", n)
		return false
	}
	f.pending = append(f.pending, ev)
	if !keep {
		f.lossy++
	}
	f.mu.Unlock()

	select {
	case f.wake <- struct{}{}:
	default:
	}
	return true
}

// Run delivers queued events until ctx is cancelled. Events still queued
// at that point are delivered with ctx before Run returns so that sinks
// see the final state changes.
func (f *Fanout) Run(ctx context.Context) {
	for {
		f.drain(ctx)
		select {
		case <-f.wake:
		case <-ctx.Done():
			f.drain(ctx)
			return
		}
	}
}

func (f *Fanout) drain(ctx context.Context) {
	for {
		ev, ok := f.next()
		if !ok {
			return
		}
		f.deliver(ctx, ev)
	}
}

func (f *Fanout) next() (Event, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.pending) == 0 {
		return Event{}, false
	}
	ev := f.pending[0]
	f.pending[0] = Event{}
	f.pending = f.pending[1:]
	if !durable(ev.Kind) {
		f.lossy--
	}
	return ev, true
}

func (f *Fanout) deliver(ctx context.Context, ev Event) {
	for _, s := range f.sinks {
		if err := f.handle(ctx, s, ev); err != nil {
			f.logger.Warn("sink failed", "sink", s.Name(), "kind", ev.Kind, "error", err)
		}
	}
}

// handle isolates a panicking sink from the others.
func (f *Fanout) handle(ctx context.Context, s Sink, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			f.logger.Warn("sink panicked", "sink", s.Name(), "kind", ev.Kind, "panic", r)
		}
	}()
	return s.Handle(ctx, ev)
}

// Pending returns the number of queued events.
func (f *Fanout) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// Dropped returns how many events were discarded because the queue was full.
func (f *Fanout) Dropped() uint64 {
	return f.dropped.Load()
}

// Sinks returns the names of the registered sinks.
func (f *Fanout) Sinks() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return names
}

type nopLogger struct{}

func (nopLogger) Warn(string, ...any) {}

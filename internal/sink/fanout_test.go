package sink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordingSink remembers every event it handled.
type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Name() string { return r.name }

func (r *recordingSink) Handle(_ context.Context, ev Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return r.err
}

func (r *recordingSink) kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Kind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

type panickingSink struct{}

func (panickingSink) Name() string { return "panics" }

func (panickingSink) Handle(context.Context, Event) error { panic("boom") }

// warnLogger counts warnings.
type warnLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *warnLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func (l *warnLogger) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

func TestFanout_DeliversInOrderToEverySink(t *testing.T) {
	a := &recordingSink{name: "a"}
	b := &recordingSink{name: "b"}
	f := NewFanout(8, nil, a, b)

	want := []Kind{KindConnection, KindSamples, KindEmotion, KindChat}
	for _, k := range want {
		if !f.Publish(Event{Kind: k}) {
			t.Fatalf("Publish(%s) dropped", k)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Run(ctx) // drains what is queued, then returns

	for _, s := range []*recordingSink{a, b} {
		got := s.kinds()
		if len(got) != len(want) {
			t.Fatalf("sink %s got %v, want %v", s.name, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("sink %s event %d = %s, want %s", s.name, i, got[i], want[i])
			}
		}
	}
}

func TestFanout_DropsWhenFull(t *testing.T) {
	logger := &warnLogger{}
	f := NewFanout(2, logger)

	results := []bool{
		f.Publish(Event{Kind: KindSamples}),
		f.Publish(Event{Kind: KindSamples}),
		f.Publish(Event{Kind: KindSamples}),
	}

	if !results[0] || !results[1] {
		t.Errorf("first two Publish() = %v, want accepted", results[:2])
	}
	if results[2] {
		t.Error("third Publish() accepted on a full queue")
	}
	if f.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", f.Dropped())
	}
	if f.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", f.Pending())
	}
	if logger.count() != 1 {
		t.Errorf("warnings = %d, want 1", logger.count())
	}

	if !f.Publish(Event{Kind: KindChat}) {
		t.Error("Publish(chat) dropped on a full queue")
	}
	if f.Pending() != 3 {
		t.Errorf("Pending() after chat = %d, want 3", f.Pending())
	}
}

// slowSink blocks for delay on every event, like a stalled broker.
type slowSink struct {
	delay time.Duration
}

func (s slowSink) Name() string { return "slow" }

func (s slowSink) Handle(context.Context, Event) error {
	time.Sleep(s.delay)
	return nil
}

func TestFanout_ChatSurvivesSampleFlood(t *testing.T) {
	store := &recordingSink{name: "store"}
	f := NewFanout(16, &warnLogger{}, slowSink{delay: 5 * time.Millisecond}, store)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	for i := 0; i < 300; i++ {
		f.Publish(Event{Kind: KindSamples, Samples: []float64{1}})
	}
	if !f.Publish(Event{Kind: KindChat}) {
		t.Fatal("Publish(chat) dropped behind a sample flood")
	}
	if f.Dropped() == 0 {
		t.Error("Dropped() = 0, want samples discarded by the flood")
	}

	hasChat := func() bool {
		for _, k := range store.kinds() {
			if k == KindChat {
				return true
			}
		}
		return false
	}
	deadline := time.After(5 * time.Second)
	for !hasChat() {
		select {
		case <-deadline:
			t.Fatal("chat entry never reached the store sink")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestFanout_FailingSinkDoesNotStopOthers(t *testing.T) {
	logger := &warnLogger{}
	bad := &recordingSink{name: "bad", err: errors.New("unavailable")}
	good := &recordingSink{name: "good"}
	f := NewFanout(4, logger, bad, panickingSink{}, good)

	f.Publish(Event{Kind: KindChat})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.Run(ctx)

	if len(good.kinds()) != 1 {
		t.Errorf("good sink events = %d, want 1", len(good.kinds()))
	}
	if logger.count() != 2 {
		t.Errorf("warnings = %d, want 2 (error and panic)", logger.count())
	}
}

func TestFanout_RunDeliversWhileRunning(t *testing.T) {
	s := &recordingSink{name: "s"}
	f := NewFanout(4, nil, s)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.Run(ctx)
		close(done)
	}()

	f.Publish(Event{Kind: KindEmotion})

	deadline := time.After(2 * time.Second)
	for len(s.kinds()) == 0 {
		select {
		case <-deadline:
			t.Fatal("event not delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestFanout_Sinks(t *testing.T) {
	f := NewFanout(0, nil, &recordingSink{name: "a"}, NewConsole(nil))

	names := f.Sinks()
	if len(names) != 2 || names[0] != "a" || names[1] != "console" {
		t.Errorf("Sinks() = %v", names)
	}
	if f.size != DefaultQueueSize {
		t.Errorf("queue size = %d, want %d", f.size, DefaultQueueSize)
	}
}

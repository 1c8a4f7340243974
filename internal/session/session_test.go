package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/neurobot-client/internal/chart"
	"github.com/nerrad567/neurobot-client/internal/chat"
	"github.com/nerrad567/neurobot-client/internal/connection"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/logging"
	"github.com/nerrad567/neurobot-client/internal/sink"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeConn struct {
	reads     chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu     sync.Mutex
	writes []string
}

func newFakeConn() *fakeConn {
	return &fakeConn{reads: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Read() ([]byte, error) {
	select {
	case data := <-c.reads:
		return data, nil
	case <-c.closed:
		return nil, errors.New("connection closed")
	}
}

func (c *fakeConn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, string(data))
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) written() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.writes...)
}

// fakeDialer hands out conn, or fails when conn is nil.
type fakeDialer struct {
	conn *fakeConn
}

func (d fakeDialer) Dial(context.Context, string) (connection.Conn, error) {
	if d.conn == nil {
		return nil, connection.ErrDialFailed
	}
	return d.conn, nil
}

// heldScheduler never fires, so a closed channel stays closed.
type heldScheduler struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *heldScheduler) AfterFunc(d time.Duration, _ func()) {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []sink.Event
}

func (r *recordingSink) Name() string { return "recording" }

func (r *recordingSink) Handle(_ context.Context, ev sink.Event) error {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) count(kind sink.Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

type memStore struct {
	entries []chat.Entry
}

func (m *memStore) Create(_ context.Context, e *chat.Entry) error {
	m.entries = append(m.entries, *e)
	return nil
}

func (m *memStore) Recent(_ context.Context, limit int) ([]chat.Entry, error) {
	if limit < len(m.entries) {
		return m.entries[len(m.entries)-limit:], nil
	}
	return m.entries, nil
}

// =============================================================================
// Harness
// =============================================================================

type harness struct {
	sess   *Session
	conn   *fakeConn
	sink   *recordingSink
	sched  *heldScheduler
	cancel context.CancelFunc
	done   chan struct{}
}

func newSession(t *testing.T, conn *fakeConn, mutate func(*Options)) *harness {
	t.Helper()

	h := &harness{conn: conn, sink: &recordingSink{}, sched: &heldScheduler{}, done: make(chan struct{})}
	opts := Options{
		Endpoint:  "ws://localhost:8000/ws/neuro/",
		Dialer:    fakeDialer{conn: conn},
		Scheduler: h.sched,
		Policy:    connection.DefaultBackoff(),
		Capacity:  50,
		Prefill:   true,
		History:   10,
		Renderer:  chart.NewRenderer(0, 0),
		Sinks:     []sink.Sink{h.sink},
		Logger:    logging.Discard(),
	}
	if mutate != nil {
		mutate(&opts)
	}

	sess, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.sess = sess
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() {
		defer close(h.done)
		//nolint:errcheck // Run only fails when started twice
		h.sess.Run(ctx)
	}()
	t.Cleanup(h.stop)
}

func (h *harness) stop() {
	h.cancel()
	<-h.done
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) waitState(t *testing.T, want connection.State) {
	t.Helper()
	eventually(t, "state "+want.String(), func() bool {
		st, err := h.sess.Status(context.Background())
		return err == nil && st.State == want
	})
}

// =============================================================================
// Tests
// =============================================================================

func TestNew_RequiresLogger(t *testing.T) {
	_, err := New(Options{Endpoint: "ws://x/", Dialer: fakeDialer{}})
	if err == nil {
		t.Error("New() without logger succeeded")
	}
}

func TestNew_InvalidEndpoint(t *testing.T) {
	_, err := New(Options{Dialer: fakeDialer{}, Logger: logging.Discard()})
	if err == nil {
		t.Error("New() without endpoint succeeded")
	}
}

func TestSession_PrefilledWindow(t *testing.T) {
	h := newSession(t, newFakeConn(), nil)
	h.start(t)

	snap, err := h.sess.Window(context.Background())
	if err != nil {
		t.Fatalf("Window() error = %v", err)
	}
	if len(snap.Samples) != 50 || snap.Capacity != 50 {
		t.Errorf("window len/cap = %d/%d, want 50/50", len(snap.Samples), snap.Capacity)
	}
	if h.sess.Renderer().Frames() != 1 {
		t.Errorf("initial frames = %d, want 1", h.sess.Renderer().Frames())
	}
}

func TestSession_SamplesUpdateWindowAndChart(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	conn.reads <- []byte(`{"type":"eeg_data","eeg_data":[1,2,3]}`)

	eventually(t, "samples applied", func() bool {
		snap, err := h.sess.Window(context.Background())
		return err == nil && snap.Samples[49] == 3
	})

	snap, _ := h.sess.Window(context.Background())
	tail := snap.Samples[47:]
	if tail[0] != 1 || tail[1] != 2 || tail[2] != 3 {
		t.Errorf("window tail = %v, want [1 2 3]", tail)
	}
	if len(snap.Samples) != 50 {
		t.Errorf("window len = %d, want 50", len(snap.Samples))
	}
	if snap.Features.Max != 3 || snap.Features.Length != 50 {
		t.Errorf("features = %+v", snap.Features)
	}
	if got := h.sess.Renderer().Values(); len(got) != 50 || got[49] != 3 {
		t.Errorf("chart snapshot not redrawn: %v", got)
	}

	eventually(t, "samples event", func() bool { return h.sink.count(sink.KindSamples) == 1 })
}

func TestSession_Dispatch(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	frames := []string{
		`{"type":"welcome","message":"Welcome to NeuroBot"}`,
		`not json`,
		`{"type":"echo","message":"ignored"}`,
		`{"type":"emotion","emotion":"happy"}`,
		`{"type":"chat_response","message":"Hello!"}`,
		`{"type":"eeg_processed","record_id":7,"features":{"mean":1},"mood":"relaxed"}`,
	}
	for _, f := range frames {
		conn.reads <- []byte(f)
	}

	ctx := context.Background()
	eventually(t, "all frames handled", func() bool {
		st, err := h.sess.Status(ctx)
		return err == nil && st.Processed == 1
	})

	entries, err := h.sess.Transcript(ctx, 0)
	if err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2: %+v", len(entries), entries)
	}
	if entries[0].Role != chat.RoleSystem || entries[0].Text != "Welcome to NeuroBot" {
		t.Errorf("entry 0 = %+v, want system welcome", entries[0])
	}
	if entries[1].Role != chat.RoleBot || entries[1].Text != "Hello!" {
		t.Errorf("entry 1 = %+v, want bot reply", entries[1])
	}

	d, ok, err := h.sess.Emotion(ctx)
	if err != nil || !ok {
		t.Fatalf("Emotion() = %v, %v, %v", d, ok, err)
	}
	if d.Label != "relaxed" || d.Text != "Relaxed" || d.Glyph != "😌" {
		t.Errorf("emotion = %+v, want relaxed from processed mood", d)
	}

	eventually(t, "emotion events", func() bool { return h.sink.count(sink.KindEmotion) == 2 })
}

func TestSession_ProcessedMoodOnlyKnownLabels(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	frames := []string{
		`{"type":"emotion","emotion":"happy"}`,
		`{"type":"eeg_processed","record_id":1,"mood":"unknown (no-openai-key)"}`,
		`{"type":"eeg_processed","record_id":2,"mood":"error"}`,
		`{"type":"eeg_processed","record_id":3,"mood":""}`,
	}
	for _, f := range frames {
		conn.reads <- []byte(f)
	}

	ctx := context.Background()
	eventually(t, "processed records", func() bool {
		st, err := h.sess.Status(ctx)
		return err == nil && st.Processed == 3
	})

	d, ok, err := h.sess.Emotion(ctx)
	if err != nil || !ok {
		t.Fatalf("Emotion() = %v, %v, %v", d, ok, err)
	}
	if d.Label != "happy" {
		t.Errorf("emotion label = %q, want happy kept over free-text moods", d.Label)
	}
	eventually(t, "emotion event", func() bool { return h.sink.count(sink.KindEmotion) == 1 })
	if n := h.sink.count(sink.KindEmotion); n != 1 {
		t.Errorf("emotion events = %d, want 1", n)
	}
}

func TestSession_EmotionBeforeAnyMessage(t *testing.T) {
	h := newSession(t, newFakeConn(), nil)
	h.start(t)

	_, ok, err := h.sess.Emotion(context.Background())
	if err != nil {
		t.Fatalf("Emotion() error = %v", err)
	}
	if ok {
		t.Error("Emotion() reported a value before any message")
	}
}

func TestSession_SubmitChatOpen(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	res, err := h.sess.SubmitChat(context.Background(), "  hello  ")
	if err != nil {
		t.Fatalf("SubmitChat() error = %v", err)
	}
	if !res.Sent || res.Entry.Text != "hello" || res.Entry.Role != chat.RoleUser {
		t.Errorf("result = %+v", res)
	}

	writes := conn.written()
	if len(writes) != 1 || writes[0] != `{"type":"chat_message","message":"hello"}` {
		t.Errorf("writes = %v", writes)
	}

	eventually(t, "chat event", func() bool { return h.sink.count(sink.KindChat) == 1 })
}

func TestSession_SubmitChatClosed(t *testing.T) {
	h := newSession(t, nil, nil)
	h.start(t)

	eventually(t, "retry scheduled", func() bool {
		st, err := h.sess.Status(context.Background())
		return err == nil && st.Attempts == 1
	})

	res, err := h.sess.SubmitChat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SubmitChat() error = %v", err)
	}
	if res.Sent {
		t.Error("Sent = true while channel closed")
	}

	entries, _ := h.sess.Transcript(context.Background(), 0)
	if len(entries) != 1 || entries[0].Text != "hello" {
		t.Errorf("transcript = %+v, want the local entry", entries)
	}

	h.sched.mu.Lock()
	delays := append([]time.Duration(nil), h.sched.delays...)
	h.sched.mu.Unlock()
	if len(delays) != 1 || delays[0] != 2*time.Second {
		t.Errorf("retry delays = %v, want [2s]", delays)
	}
}

func TestSession_SubmitChatDeadlineWhileQueued(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	release := make(chan struct{})
	h.sess.loop.Post(func() { <-release })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.sess.SubmitChat(ctx, "too late"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("SubmitChat() error = %v, want DeadlineExceeded", err)
	}
	close(release)

	entries, err := h.sess.Transcript(context.Background(), 0)
	if err != nil {
		t.Fatalf("Transcript() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("transcript = %+v, want no entry for a timed-out submission", entries)
	}
	if len(conn.written()) != 0 {
		t.Errorf("writes = %v, want none", conn.written())
	}
	if n := h.sink.count(sink.KindChat); n != 0 {
		t.Errorf("chat events = %d, want 0", n)
	}
}

func TestSession_SubmitChatBlank(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	for _, input := range []string{"", "   ", "\n\t"} {
		if _, err := h.sess.SubmitChat(context.Background(), input); !errors.Is(err, chat.ErrEmptyMessage) {
			t.Errorf("SubmitChat(%q) error = %v, want ErrEmptyMessage", input, err)
		}
	}

	entries, _ := h.sess.Transcript(context.Background(), 0)
	if len(entries) != 0 {
		t.Errorf("transcript = %+v, want empty", entries)
	}
	if len(conn.written()) != 0 {
		t.Errorf("writes = %v, want none", conn.written())
	}
}

func TestSession_SubmitChatPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"json", `{"message":"from mqtt"}`, "from mqtt"},
		{"plain text", "plain words", "plain words"},
		{"json-looking text", "{not json", "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newSession(t, newFakeConn(), nil)
			h.start(t)

			res, err := h.sess.SubmitChatPayload(context.Background(), []byte(tt.payload))
			if err != nil {
				t.Fatalf("SubmitChatPayload() error = %v", err)
			}
			if res.Entry.Text != tt.want {
				t.Errorf("text = %q, want %q", res.Entry.Text, tt.want)
			}
		})
	}
}

func TestSession_Restore(t *testing.T) {
	store := &memStore{}
	for _, text := range []string{"a", "b", "c"} {
		e := chat.NewEntry(chat.RoleUser, text)
		store.entries = append(store.entries, e)
	}

	h := newSession(t, newFakeConn(), func(o *Options) {
		o.Store = store
		o.History = 2
	})

	n, err := h.sess.Restore(context.Background())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("restored = %d, want 2", n)
	}

	h.start(t)
	entries, _ := h.sess.Transcript(context.Background(), 0)
	if len(entries) != 2 || entries[0].Text != "b" || entries[1].Text != "c" {
		t.Errorf("transcript = %+v, want [b c]", entries)
	}

	if _, err := h.sess.Restore(context.Background()); err == nil {
		t.Error("Restore() after Run succeeded")
	}
}

func TestSession_RunStopsAndClosesChannel(t *testing.T) {
	conn := newFakeConn()
	h := newSession(t, conn, nil)
	h.start(t)
	h.waitState(t, connection.StateConnected)

	h.cancel()
	select {
	case <-h.done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return")
	}

	select {
	case <-conn.closed:
	default:
		t.Error("channel left open after Run returned")
	}

	if _, err := h.sess.Status(context.Background()); !errors.Is(err, ErrStopped) {
		t.Errorf("Status() after stop error = %v, want ErrStopped", err)
	}
	if err := h.sess.Run(context.Background()); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Errorf("second Run() error = %v", err)
	}

	if h.sink.count(sink.KindConnection) == 0 {
		t.Error("no connection events delivered")
	}
}

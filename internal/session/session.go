package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nerrad567/neurobot-client/internal/chart"
	"github.com/nerrad567/neurobot-client/internal/chat"
	"github.com/nerrad567/neurobot-client/internal/connection"
	"github.com/nerrad567/neurobot-client/internal/emotion"
	"github.com/nerrad567/neurobot-client/internal/infrastructure/logging"
	"github.com/nerrad567/neurobot-client/internal/protocol"
	"github.com/nerrad567/neurobot-client/internal/sink"
	"github.com/nerrad567/neurobot-client/internal/window"
)

// Options configures a Session.
type Options struct {
	// Endpoint is the backend channel address (ws:// or wss://).
	Endpoint string

	Dialer    connection.Dialer
	Scheduler connection.Scheduler
	Policy    connection.LinearBackoff

	// Capacity of the sample window; Prefill starts it with Capacity zeros.
	Capacity int
	Prefill  bool

	// History bounds the in-memory transcript.
	History int

	// Renderer is redrawn after every sample batch. Optional.
	Renderer *chart.Renderer

	// Store supplies the transcript restored by Restore. Optional.
	Store chat.Store

	// Sinks receive every session event. QueueSize bounds the events
	// waiting for them.
	Sinks     []sink.Sink
	QueueSize int

	Logger *logging.Logger

	// Now is the clock used to stamp events. Defaults to time.Now.
	Now func() time.Time
}

// Session is the single owner of the client's state: the sample window,
// the backend channel, the transcript and the emotion display. All of it is
// mutated on the session loop only.
type Session struct {
	loop       *Loop
	mgr        *connection.Manager
	dispatcher *protocol.Dispatcher
	fanout     *sink.Fanout
	logger     *logging.Logger
	now        func() time.Time
	policy     connection.LinearBackoff

	window     *window.Window
	transcript *chat.Transcript
	renderer   *chart.Renderer
	store      chat.Store

	emotion    emotion.Display
	hasEmotion bool
	processed  int

	running atomic.Bool
}

// New builds a Session. Nothing runs until Run is called.
func New(opts Options) (*Session, error) {
	if opts.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		loop:       NewLoop(0),
		logger:     opts.Logger.With("component", "session"),
		now:        opts.Now,
		policy:     opts.Policy,
		transcript: chat.NewTranscript(opts.History),
		renderer:   opts.Renderer,
		store:      opts.Store,
	}

	if opts.Prefill {
		s.window = window.NewZeroed(opts.Capacity)
	} else {
		s.window = window.New(opts.Capacity)
	}

	s.fanout = sink.NewFanout(opts.QueueSize, s.logger, opts.Sinks...)

	s.dispatcher = protocol.NewDispatcher(protocol.Handlers{
		Samples:   s.onSamples,
		Emotion:   s.setEmotion,
		ChatReply: func(msg string) { s.record(chat.RoleBot, msg) },
		Welcome:   func(msg string) { s.record(chat.RoleSystem, msg) },
		Processed: s.onProcessed,
	})

	mgr, err := connection.NewManager(connection.Options{
		URL:       opts.Endpoint,
		Dialer:    opts.Dialer,
		Scheduler: opts.Scheduler,
		Policy:    opts.Policy,
		Post:      s.loop.Post,
		Events: connection.Events{
			OnMessage: s.onMessage,
			OnState:   s.onState,
		},
		Logger: opts.Logger.With("component", "connection"),
	})
	if err != nil {
		return nil, fmt.Errorf("creating channel manager: %w", err)
	}
	s.mgr = mgr

	if s.renderer != nil {
		s.renderer.Redraw(s.window.Values())
	}

	return s, nil
}

// Restore loads the most recent persisted entries into the transcript.
// It must be called before Run.
func (s *Session) Restore(ctx context.Context) (int, error) {
	if s.running.Load() {
		return 0, fmt.Errorf("restore after session started")
	}
	if s.store == nil {
		return 0, nil
	}

	entries, err := s.store.Recent(ctx, s.transcript.Limit())
	if err != nil {
		return 0, fmt.Errorf("restoring transcript: %w", err)
	}
	for _, e := range entries {
		s.transcript.Append(e)
	}
	return len(entries), nil
}

// Run opens the backend channel and processes events until ctx is
// cancelled. On return the channel is closed and pending sink events have
// been delivered.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("session already running")
	}

	sinkCtx, cancelSinks := context.WithCancel(context.WithoutCancel(ctx))
	sinksDone := make(chan struct{})
	go func() {
		defer close(sinksDone)
		s.fanout.Run(sinkCtx)
	}()

	s.loop.Post(func() { s.mgr.Start(ctx) })
	s.logger.Info("session started", "endpoint", s.mgr.URL(), "sinks", s.fanout.Sinks())

	s.loop.Run(ctx)

	// The loop has stopped, so this goroutine is the only owner left.
	s.mgr.Close()
	cancelSinks()
	<-sinksDone

	s.logger.Info("session stopped", "dropped_events", s.fanout.Dropped())
	return nil
}

// SubmitChat records input as a user entry and sends it when the channel
// is open. Blank input returns chat.ErrEmptyMessage.
func (s *Session) SubmitChat(ctx context.Context, input string) (chat.Result, error) {
	var (
		res       chat.Result
		submitErr error
	)
	err := s.loop.Do(ctx, func() {
		res, submitErr = chat.Submit(s.transcript, s.mgr, input)
		if errors.Is(submitErr, chat.ErrEmptyMessage) {
			return
		}
		s.publishEntry(res.Entry)
		if !res.Sent {
			s.logger.Debug("chat message kept locally, channel not open", "state", s.mgr.State().String())
		}
	})
	if err != nil {
		return chat.Result{}, err
	}
	if submitErr != nil && !errors.Is(submitErr, chat.ErrEmptyMessage) {
		s.logger.Warn("chat message send failed", "error", submitErr)
	}
	return res, submitErr
}

// Status is a snapshot of the channel and session counters.
type Status struct {
	State         connection.State `json:"state"`
	Attempts      int              `json:"attempts"`
	MaxAttempts   int              `json:"max_attempts"`
	Endpoint      string           `json:"endpoint"`
	Frames        uint64           `json:"frames"`
	Entries       int              `json:"transcript_entries"`
	Processed     int              `json:"processed_records"`
	PendingEvents int              `json:"pending_events"`
	DroppedEvents uint64           `json:"dropped_events"`
}

// Status returns the current channel state and counters.
func (s *Session) Status(ctx context.Context) (Status, error) {
	var st Status
	err := s.loop.Do(ctx, func() {
		st = Status{
			State:         s.mgr.State(),
			Attempts:      s.mgr.Attempts(),
			MaxAttempts:   s.policy.MaxAttempts,
			Endpoint:      s.mgr.URL(),
			Entries:       s.transcript.Len(),
			Processed:     s.processed,
			PendingEvents: s.fanout.Pending(),
			DroppedEvents: s.fanout.Dropped(),
		}
		if s.renderer != nil {
			st.Frames = s.renderer.Frames()
		}
	})
	return st, err
}

// WindowSnapshot is a copy of the sample window with its statistics.
type WindowSnapshot struct {
	Samples  []float64       `json:"samples"`
	Capacity int             `json:"capacity"`
	Features window.Features `json:"features"`
}

// Window returns a copy of the sample window.
func (s *Session) Window(ctx context.Context) (WindowSnapshot, error) {
	var snap WindowSnapshot
	err := s.loop.Do(ctx, func() {
		snap = WindowSnapshot{
			Samples:  s.window.Values(),
			Capacity: s.window.Cap(),
			Features: s.window.Features(),
		}
	})
	return snap, err
}

// Emotion returns the current emotion display and whether any emotion has
// been received yet.
func (s *Session) Emotion(ctx context.Context) (emotion.Display, bool, error) {
	var (
		d  emotion.Display
		ok bool
	)
	err := s.loop.Do(ctx, func() {
		d, ok = s.emotion, s.hasEmotion
	})
	return d, ok, err
}

// Transcript returns the most recent n entries, oldest first.
// n <= 0 returns the whole transcript.
func (s *Session) Transcript(ctx context.Context, n int) ([]chat.Entry, error) {
	var entries []chat.Entry
	err := s.loop.Do(ctx, func() {
		entries = s.transcript.Entries(n)
	})
	return entries, err
}

// Renderer returns the chart renderer, or nil when none was configured.
func (s *Session) Renderer() *chart.Renderer {
	return s.renderer
}

// onMessage runs on the loop for every inbound frame.
func (s *Session) onMessage(data []byte) {
	msgType, handled, err := s.dispatcher.Dispatch(data)
	if err != nil {
		s.logger.Warn("dropping malformed message", "error", err, "size", len(data))
		return
	}
	if !handled {
		s.logger.Debug("ignoring message", "type", msgType)
	}
}

// onSamples appends a batch to the window and redraws the chart.
func (s *Session) onSamples(batch []float64) {
	s.window.Append(batch)
	values := s.window.Values()
	if s.renderer != nil {
		s.renderer.Redraw(values)
	}

	features := window.Compute(values)
	samples := make([]float64, len(batch))
	copy(samples, batch)

	s.publish(sink.Event{
		Kind:     sink.KindSamples,
		Samples:  samples,
		Features: &features,
	})
}

// setEmotion replaces the emotion display.
func (s *Session) setEmotion(label string) {
	d := emotion.NewDisplay(label)
	s.emotion = d
	s.hasEmotion = true
	if !emotion.Known(label) {
		s.logger.Debug("unknown emotion label", "label", label)
	}
	s.publish(sink.Event{Kind: sink.KindEmotion, Emotion: &d})
}

// onProcessed handles the backend's acknowledgement of a stored record.
// The mood is free text from the backend's classifier; only a known
// emotion label replaces the display.
func (s *Session) onProcessed(p protocol.Processed) {
	s.processed++
	s.logger.Debug("record processed", "record_id", p.RecordID, "features", p.Features, "mood", p.Mood)
	if emotion.Known(p.Mood) {
		s.setEmotion(p.Mood)
	}
}

// record appends an inbound entry to the transcript.
func (s *Session) record(role chat.Role, text string) {
	e := chat.NewEntry(role, text)
	s.transcript.Append(e)
	s.publishEntry(e)
}

func (s *Session) publishEntry(e chat.Entry) {
	s.publish(sink.Event{Kind: sink.KindChat, At: e.At, Entry: &e})
}

// onState forwards channel transitions to the sinks.
func (s *Session) onState(state connection.State, attempts int) {
	s.publish(sink.Event{
		Kind:     sink.KindConnection,
		State:    state.String(),
		Attempts: attempts,
	})
}

func (s *Session) publish(ev sink.Event) {
	if ev.At.IsZero() {
		ev.At = s.now().UTC()
	}
	s.fanout.Publish(ev)
}

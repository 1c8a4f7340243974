package connection

import (
	"context"
	"errors"
	"fmt"
)

// Executor runs fn on the owner's event loop. It returns false when the
// loop has stopped and fn will never run.
type Executor func(fn func()) bool

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Events are the handler slots the Manager notifies. All run on the event loop.
// Any slot may be nil.
type Events struct {
	// OnOpen fires after the channel opened and the attempt counter was reset.
	OnOpen func()

	// OnMessage fires for each inbound data frame.
	OnMessage func(data []byte)

	// OnClose fires when the channel (or the dial) ended, before any retry is scheduled.
	OnClose func(err error)

	// OnState fires on every state transition.
	OnState func(state State, attempts int)
}

// Options configures a Manager.
type Options struct {
	URL       string
	Dialer    Dialer
	Scheduler Scheduler
	Policy    LinearBackoff
	Post      Executor
	Events    Events
	Logger    Logger
}

// Manager owns the channel to the backend and its reconnect policy.
//
// See the package documentation for the execution model.
type Manager struct {
	url       string
	dialer    Dialer
	scheduler Scheduler
	policy    LinearBackoff
	post      Executor
	events    Events
	logger    Logger

	ctx      context.Context
	state    State
	attempts int
	conn     Conn

	// gen identifies the current channel. Events carrying an older
	// generation belong to a superseded channel and are ignored.
	gen     uint64
	stopped bool
}

// NewManager validates opts and returns an idle Manager in the disconnected state.
func NewManager(opts Options) (*Manager, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("connection: url is required")
	}
	if opts.Dialer == nil {
		return nil, fmt.Errorf("connection: dialer is required")
	}
	if opts.Post == nil {
		return nil, fmt.Errorf("connection: executor is required")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = TimerScheduler{}
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger{}
	}

	return &Manager{
		url:       opts.URL,
		dialer:    opts.Dialer,
		scheduler: opts.Scheduler,
		policy:    opts.Policy,
		post:      opts.Post,
		events:    opts.Events,
		logger:    opts.Logger,
		ctx:       context.Background(),
		state:     StateDisconnected,
	}, nil
}

// Start opens the first channel. ctx bounds every dial made by this
// Manager, including retries.
func (m *Manager) Start(ctx context.Context) {
	if m.stopped {
		return
	}
	m.ctx = ctx
	m.open()
}

// Close shuts the Manager down: the live channel is closed, any pending
// retry becomes a no-op and the state is disconnected. OnClose is not
// fired. Close is idempotent.
func (m *Manager) Close() {
	if m.stopped {
		return
	}
	m.stopped = true
	m.gen++

	if m.conn != nil {
		//nolint:errcheck // Shutdown path; nothing useful to do with the error
		m.conn.Close()
		m.conn = nil
	}
	m.setState(StateDisconnected)
	m.logger.Info("channel manager stopped")
}

// Send writes payload as one text frame when the channel is open.
// Otherwise it returns ErrNotConnected and nothing is written.
func (m *Manager) Send(payload []byte) error {
	if m.state != StateConnected || m.conn == nil {
		return ErrNotConnected
	}
	if err := m.conn.Write(payload); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}

// IsOpen reports whether Send would transmit.
func (m *Manager) IsOpen() bool {
	return m.state == StateConnected && m.conn != nil
}

// State returns the current channel state.
func (m *Manager) State() State {
	return m.state
}

// Attempts returns the number of retries made since the last successful open.
func (m *Manager) Attempts() int {
	return m.attempts
}

// URL returns the channel address.
func (m *Manager) URL() string {
	return m.url
}

// open starts a dial for a new generation.
func (m *Manager) open() {
	m.gen++
	gen := m.gen
	m.setState(StateConnecting)
	m.logger.Info("opening channel", "url", m.url, "attempt", m.attempts)

	ctx := m.ctx
	go func() {
		conn, err := m.dialer.Dial(ctx, m.url)
		posted := m.post(func() {
			if err != nil {
				m.handleClose(gen, err)
				return
			}
			m.handleOpen(gen, conn)
		})
		if !posted && conn != nil {
			//nolint:errcheck // Loop is gone; nobody owns this channel
			conn.Close()
		}
	}()
}

// handleOpen runs on the loop once a dial succeeded.
func (m *Manager) handleOpen(gen uint64, conn Conn) {
	if m.stopped || gen != m.gen {
		//nolint:errcheck // Superseded channel
		conn.Close()
		return
	}

	m.conn = conn
	m.attempts = 0
	m.setState(StateConnected)
	m.logger.Info("channel open", "url", m.url)

	if m.events.OnOpen != nil {
		m.events.OnOpen()
	}

	go m.readLoop(gen, conn)
}

// readLoop forwards frames to the loop until the channel fails.
func (m *Manager) readLoop(gen uint64, conn Conn) {
	for {
		data, err := conn.Read()
		if err != nil {
			m.post(func() { m.handleClose(gen, err) })
			return
		}

		if !m.post(func() { m.handleMessage(gen, data) }) {
			//nolint:errcheck // Loop is gone
			conn.Close()
			return
		}
	}
}

// handleMessage runs on the loop for each inbound frame.
func (m *Manager) handleMessage(gen uint64, data []byte) {
	if gen != m.gen || m.conn == nil {
		return
	}
	if m.events.OnMessage != nil {
		m.events.OnMessage(data)
	}
}

// handleClose runs on the loop when a channel or dial ends.
func (m *Manager) handleClose(gen uint64, err error) {
	if m.stopped || gen != m.gen {
		return
	}

	if m.conn != nil {
		//nolint:errcheck // Already failed
		m.conn.Close()
		m.conn = nil
	}

	m.setState(StateDisconnected)
	if errors.Is(err, ErrDialFailed) {
		m.logger.Warn("channel dial failed", "url", m.url, "error", err)
	} else {
		m.logger.Warn("channel closed", "url", m.url, "error", err)
	}

	if m.events.OnClose != nil {
		m.events.OnClose(err)
	}

	m.scheduleRetry()
}

// scheduleRetry arms exactly one retry unless the ceiling was reached.
func (m *Manager) scheduleRetry() {
	if m.stopped {
		return
	}

	attempt := m.attempts + 1
	delay, ok := m.policy.Next(attempt)
	if !ok {
		m.logger.Warn("giving up on channel", "attempts", m.attempts)
		return
	}

	m.attempts = attempt
	m.setState(StateConnecting)
	m.logger.Info("scheduling reconnect",
		"attempt", attempt,
		"max_attempts", m.policy.MaxAttempts,
		"delay", delay,
	)

	gen := m.gen
	m.scheduler.AfterFunc(delay, func() {
		m.post(func() {
			if m.stopped || gen != m.gen {
				return
			}
			m.open()
		})
	})
}

// setState records a transition and notifies OnState.
func (m *Manager) setState(s State) {
	if m.state == s {
		return
	}
	m.state = s
	m.logger.Debug("channel state", "state", s.String(), "attempts", m.attempts)
	if m.events.OnState != nil {
		m.events.OnState(s, m.attempts)
	}
}

// nopLogger discards everything.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}

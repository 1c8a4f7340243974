// Package connection manages the single WebSocket channel to the NeuroBot
// backend.
//
// The Manager owns at most one channel at a time. When the channel closes,
// whether gracefully, on a read error, or because the dial itself failed,
// the Manager moves to disconnected and schedules one retry after
// base × attempt (linear backoff, no jitter). Retries stop once the attempt
// counter reaches the ceiling; a successful open resets the counter to 0.
//
// # Execution Model
//
// Manager methods are not safe for concurrent use. They must run on the
// owner's event loop. Background work (dialing, reading frames, retry
// timers) never touches Manager state directly: it hands a closure to the
// Executor supplied in Options, which runs it on that loop.
//
//	mgr, err := connection.NewManager(connection.Options{
//	    URL:       endpoint,
//	    Dialer:    connection.WebSocketDialer{HandshakeTimeout: 10 * time.Second},
//	    Scheduler: connection.TimerScheduler{},
//	    Policy:    connection.DefaultBackoff(),
//	    Post:      loop.Post,
//	    Events:    connection.Events{OnMessage: dispatch},
//	})
//	loop.Post(func() { mgr.Start(ctx) })
package connection

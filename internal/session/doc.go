// Package session ties the NeuroBot client together.
//
// A Session is constructed once per process. It owns the sample window,
// the backend channel manager, the chat transcript and the emotion display,
// and mutates them only on its Loop goroutine. Dial results, inbound
// frames, retry timers, chat submissions and API reads are all posted to
// that loop, so none of the state needs a lock.
//
// Every observable change is published as a sink.Event through a bounded
// fan-out; a full queue drops the event rather than blocking the loop.
// Transcript entries are the exception and are always delivered.
//
//	sess, err := session.New(session.Options{
//	    Endpoint: endpoint,
//	    Dialer:   connection.WebSocketDialer{HandshakeTimeout: 10 * time.Second},
//	    Policy:   connection.DefaultBackoff(),
//	    Capacity: window.DefaultCapacity,
//	    Prefill:  true,
//	    Sinks:    []sink.Sink{sink.NewConsole(os.Stdout)},
//	    Logger:   logger,
//	})
//	go sess.Run(ctx)
//	sess.SubmitChat(ctx, "hello")
package session

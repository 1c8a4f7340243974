package connection

import "errors"

// Sentinel errors for channel operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned by Send when the channel is not open.
	ErrNotConnected = errors.New("connection: channel not open")

	// ErrDialFailed wraps failures of the WebSocket opening handshake.
	ErrDialFailed = errors.New("connection: dial failed")

	// ErrSendFailed wraps write failures on an open channel.
	ErrSendFailed = errors.New("connection: send failed")

	// ErrInvalidOrigin is returned when the page origin cannot produce an endpoint.
	ErrInvalidOrigin = errors.New("connection: invalid origin")
)

// Package api implements the local HTTP API and WebSocket relay for the
// NeuroBot client.
//
// This package provides:
//   - Read endpoints for the channel status, sample window, emotion and
//     transcript
//   - Chat submission (POST /api/v1/chat)
//   - A PNG rendering of the sample window
//   - A WebSocket hub relaying session events as they happen
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Architecture
//
// Every read and write goes through the session, which serialises it onto
// its event loop; handlers never touch session state directly. The Hub is
// registered with the session as an event sink, so each eeg.samples,
// emotion.changed, chat.entry and connection.state event is broadcast to
// the WebSocket clients subscribed to that channel.
//
// The server binds to a local address and has no authentication.
package api

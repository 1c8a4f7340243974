package sink

import (
	"context"
	"time"

	"github.com/nerrad567/neurobot-client/internal/chat"
	"github.com/nerrad567/neurobot-client/internal/emotion"
	"github.com/nerrad567/neurobot-client/internal/window"
)

// Kind names a session event. The value doubles as the WebSocket relay
// channel name.
type Kind string

// Event kinds.
const (
	KindSamples    Kind = "eeg.samples"
	KindEmotion    Kind = "emotion.changed"
	KindChat       Kind = "chat.entry"
	KindConnection Kind = "connection.state"
)

// Event is one observable change in the session. Only the fields that
// belong to Kind are set.
type Event struct {
	Kind Kind      `json:"kind"`
	At   time.Time `json:"at"`

	// KindSamples: the inbound batch and the window statistics after it
	// was applied.
	Samples  []float64        `json:"samples,omitempty"`
	Features *window.Features `json:"features,omitempty"`

	// KindEmotion
	Emotion *emotion.Display `json:"emotion,omitempty"`

	// KindChat
	Entry *chat.Entry `json:"entry,omitempty"`

	// KindConnection
	State    string `json:"state,omitempty"`
	Attempts int    `json:"attempts"`
}

// Sink receives session events on the fan-out goroutine.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string

	// Handle processes one event. A returned error is logged; it does not
	// stop delivery to other sinks.
	Handle(ctx context.Context, ev Event) error
}

package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformed is returned when an inbound frame is not valid JSON or its
// tag's payload fields have the wrong shape.
var ErrMalformed = errors.New("protocol: malformed message")

// Handlers are the named slots a Dispatcher routes to.
// A nil slot means the message type is accepted and dropped.
type Handlers struct {
	Samples   func(batch []float64)
	Emotion   func(label string)
	ChatReply func(message string)
	Welcome   func(message string)
	Processed func(p Processed)
}

// Dispatcher decodes inbound frames and invokes the matching handler.
type Dispatcher struct {
	handlers Handlers
}

// NewDispatcher creates a Dispatcher for the given handler slots.
func NewDispatcher(h Handlers) *Dispatcher {
	return &Dispatcher{handlers: h}
}

// Dispatch decodes data and calls the handler selected by its type tag.
//
// It returns the decoded type (empty on decode failure), and whether a
// handler slot was matched. Unknown tags are not an error. Only the fields
// belonging to the tag are decoded; other fields are ignored.
func (d *Dispatcher) Dispatch(data []byte) (string, bool, error) {
	var hdr header
	if err := decode(data, &hdr); err != nil {
		return "", false, err
	}

	h := d.handlers
	switch hdr.Type {
	case TypeEEGData:
		var p samplesPayload
		if err := decode(data, &p); err != nil {
			return hdr.Type, false, err
		}
		if h.Samples != nil {
			h.Samples(p.EEGData)
		}
	case TypeEmotion:
		var p emotionPayload
		if err := decode(data, &p); err != nil {
			return hdr.Type, false, err
		}
		if h.Emotion != nil {
			h.Emotion(p.Emotion)
		}
	case TypeChatResponse, TypeWelcome:
		var p messagePayload
		if err := decode(data, &p); err != nil {
			return hdr.Type, false, err
		}
		slot := h.ChatReply
		if hdr.Type == TypeWelcome {
			slot = h.Welcome
		}
		if slot != nil {
			slot(p.Message)
		}
	case TypeEEGProcessed:
		var p processedPayload
		if err := decode(data, &p); err != nil {
			return hdr.Type, false, err
		}
		if h.Processed != nil {
			out := Processed{Features: p.Features, Mood: p.Mood}
			if p.RecordID != nil {
				out.RecordID = *p.RecordID
			}
			h.Processed(out)
		}
	default:
		return hdr.Type, false, nil
	}

	return hdr.Type, true, nil
}

func decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return nil
}

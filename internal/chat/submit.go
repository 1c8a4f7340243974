package chat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/neurobot-client/internal/connection"
	"github.com/nerrad567/neurobot-client/internal/protocol"
)

// ErrEmptyMessage is returned by Submit for blank input.
var ErrEmptyMessage = errors.New("chat: message is empty")

// Sender is the outbound side of the channel.
type Sender interface {
	IsOpen() bool
	Send(payload []byte) error
}

// Result describes one accepted submission.
type Result struct {
	Entry Entry `json:"entry"`

	// Sent is true when the payload was written to an open channel.
	Sent bool `json:"sent"`
}

// Submit trims input and, when anything remains, records it as a user entry
// in t. The chat_message payload is sent only while ch is open; otherwise
// the entry is kept and nothing is transmitted.
//
// Blank input returns ErrEmptyMessage and leaves t untouched. A write
// failure on an open channel is returned alongside the recorded entry.
func Submit(t *Transcript, ch Sender, input string) (Result, error) {
	text := strings.TrimSpace(input)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}

	res := Result{Entry: NewEntry(RoleUser, text)}
	t.Append(res.Entry)

	if ch == nil || !ch.IsOpen() {
		return res, nil
	}

	payload, err := protocol.EncodeChatMessage(text)
	if err != nil {
		return res, err
	}

	if err := ch.Send(payload); err != nil {
		if errors.Is(err, connection.ErrNotConnected) {
			return res, nil
		}
		return res, fmt.Errorf("sending chat message: %w", err)
	}

	res.Sent = true
	return res, nil
}

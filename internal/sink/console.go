package sink

import (
	"context"
	"fmt"
	"io"

	"github.com/nerrad567/neurobot-client/internal/chat"
)

// Console prints the conversation and emotion changes for a terminal user.
// Samples are not printed.
type Console struct {
	w io.Writer
}

// NewConsole creates a console printer on w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Name implements Sink.
func (c *Console) Name() string { return "console" }

// Handle implements Sink.
func (c *Console) Handle(_ context.Context, ev Event) error {
	var err error
	switch ev.Kind {
	case KindChat:
		if ev.Entry != nil {
			_, err = fmt.Fprintf(c.w, "%s: %s\n", speaker(ev.Entry.Role), ev.Entry.Text)
		}
	case KindEmotion:
		if ev.Emotion != nil {
			_, err = fmt.Fprintf(c.w, "Emotion: %s %s\n", ev.Emotion.Text, ev.Emotion.Glyph)
		}
	case KindConnection:
		_, err = fmt.Fprintf(c.w, "[%s]\n", ev.State)
	}
	return err
}

func speaker(r chat.Role) string {
	switch r {
	case chat.RoleUser:
		return "You"
	case chat.RoleBot:
		return "NeuroBot"
	default:
		return "System"
	}
}

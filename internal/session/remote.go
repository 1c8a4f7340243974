package session

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nerrad567/neurobot-client/internal/chat"
)

// remoteChat is the JSON form accepted on the chat submit topic.
type remoteChat struct {
	Message string `json:"message"`
}

// SubmitChatPayload submits a chat message received from outside the
// process, such as an MQTT publish. The payload is either {"message": "..."}
// or plain text.
func (s *Session) SubmitChatPayload(ctx context.Context, payload []byte) (chat.Result, error) {
	text := string(payload)
	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "{") {
		var msg remoteChat
		if err := json.Unmarshal([]byte(trimmed), &msg); err == nil {
			text = msg.Message
		}
	}
	return s.SubmitChat(ctx, text)
}

package protocol

import (
	"encoding/json"
	"fmt"
)

// Message type tags.
const (
	TypeEEGData      = "eeg_data"
	TypeEmotion      = "emotion"
	TypeChatResponse = "chat_response"
	TypeWelcome      = "welcome"
	TypeEEGProcessed = "eeg_processed"
	TypeChatMessage  = "chat_message"
)

// header carries the type tag. The rest of the frame is decoded only
// once the tag is known, into the payload type belonging to it.
type header struct {
	Type string `json:"type"`
}

type samplesPayload struct {
	EEGData []float64 `json:"eeg_data"`
}

type emotionPayload struct {
	Emotion string `json:"emotion"`
}

// messagePayload is shared by chat_response and welcome.
type messagePayload struct {
	Message string `json:"message"`
}

type processedPayload struct {
	RecordID *int64             `json:"record_id"`
	Features map[string]float64 `json:"features"`
	Mood     string             `json:"mood"`
}

// Processed is the payload of an eeg_processed notification.
type Processed struct {
	RecordID int64
	Features map[string]float64
	Mood     string
}

// ChatMessage is the only outbound message.
type ChatMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// EncodeChatMessage serialises text as a chat_message payload.
func EncodeChatMessage(text string) ([]byte, error) {
	data, err := json.Marshal(ChatMessage{Type: TypeChatMessage, Message: text})
	if err != nil {
		return nil, fmt.Errorf("encoding chat message: %w", err)
	}
	return data, nil
}

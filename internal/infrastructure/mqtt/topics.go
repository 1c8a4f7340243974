package mqtt

import "strings"

// DefaultTopicPrefix is the root of every NeuroBot topic.
const DefaultTopicPrefix = "neurobot"

// Topics builds the NeuroBot topic tree under a prefix.
//
//	topics := mqtt.NewTopics("neurobot")
//	topics.EEGSamples() // "neurobot/eeg/samples"
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Leading and trailing slashes
// are dropped; an empty prefix selects DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	return t.root()
}

func (t Topics) root() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// EEGSamples carries each inbound sample batch as a JSON array.
//
// Example: neurobot/eeg/samples
func (t Topics) EEGSamples() string {
	return t.root() + "/eeg/samples"
}

// Emotion carries the current emotion display (retained).
//
// Example: neurobot/emotion
func (t Topics) Emotion() string {
	return t.root() + "/emotion"
}

// Chat carries every transcript entry.
//
// Example: neurobot/chat
func (t Topics) Chat() string {
	return t.root() + "/chat"
}

// ChatSubmit is the inbound topic whose payloads are submitted as chat input.
//
// Example: neurobot/chat/submit
func (t Topics) ChatSubmit() string {
	return t.root() + "/chat/submit"
}

// ClientStatus carries online/offline status (retained, also the LWT topic).
//
// Example: neurobot/client/status
func (t Topics) ClientStatus() string {
	return t.root() + "/client/status"
}

// Connection carries backend channel state transitions (retained).
//
// Example: neurobot/client/connection
func (t Topics) Connection() string {
	return t.root() + "/client/connection"
}

// All matches every topic under the prefix.
//
// Example: neurobot/#
func (t Topics) All() string {
	return t.root() + "/#"
}

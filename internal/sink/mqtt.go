package sink

import (
	"context"
	"time"

	"github.com/nerrad567/neurobot-client/internal/infrastructure/mqtt"
)

// Publisher is the part of the MQTT client the republisher needs.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// MQTT republishes session events on the broker topic tree.
type MQTT struct {
	pub    Publisher
	topics mqtt.Topics
}

// NewMQTT creates a republisher writing under topics.
func NewMQTT(pub Publisher, topics mqtt.Topics) *MQTT {
	return &MQTT{pub: pub, topics: topics}
}

// samplesMessage is published on {prefix}/eeg/samples.
type samplesMessage struct {
	Samples []float64 `json:"samples"`
	Mean    float64   `json:"mean"`
	Std     float64   `json:"std"`
	At      string    `json:"at"`
}

// connectionMessage is published on {prefix}/client/connection.
type connectionMessage struct {
	State    string `json:"state"`
	Attempts int    `json:"attempts"`
	At       string `json:"at"`
}

// Name implements Sink.
func (m *MQTT) Name() string { return "mqtt" }

// Handle implements Sink.
func (m *MQTT) Handle(_ context.Context, ev Event) error {
	at := ev.At.UTC().Format(time.RFC3339Nano)

	switch ev.Kind {
	case KindSamples:
		msg := samplesMessage{Samples: ev.Samples, At: at}
		if ev.Features != nil {
			msg.Mean = ev.Features.Mean
			msg.Std = ev.Features.Std
		}
		return m.pub.PublishJSON(m.topics.EEGSamples(), msg, false)

	case KindEmotion:
		if ev.Emotion == nil {
			return nil
		}
		return m.pub.PublishJSON(m.topics.Emotion(), ev.Emotion, true)

	case KindChat:
		if ev.Entry == nil {
			return nil
		}
		return m.pub.PublishJSON(m.topics.Chat(), ev.Entry, false)

	case KindConnection:
		return m.pub.PublishJSON(m.topics.Connection(), connectionMessage{
			State:    ev.State,
			Attempts: ev.Attempts,
			At:       at,
		}, true)
	}
	return nil
}

package sink

import (
	"context"
	"time"
)

// PointWriter is the part of the InfluxDB client the recorder needs.
// Writes are non-blocking and batched by the client.
type PointWriter interface {
	WriteSamples(samples []float64, at time.Time)
	WriteEmotion(label string, at time.Time)
	WriteFeatures(features map[string]float64, at time.Time)
	WriteConnection(state string, attempts int, at time.Time)
}

// Influx records session events as time series.
type Influx struct {
	w PointWriter
}

// NewInflux creates a recorder on w.
func NewInflux(w PointWriter) *Influx {
	return &Influx{w: w}
}

// Name implements Sink.
func (i *Influx) Name() string { return "influxdb" }

// Handle implements Sink. Chat entries are not recorded.
func (i *Influx) Handle(_ context.Context, ev Event) error {
	switch ev.Kind {
	case KindSamples:
		i.w.WriteSamples(ev.Samples, ev.At)
		if f := ev.Features; f != nil && f.Length > 0 {
			i.w.WriteFeatures(map[string]float64{
				"mean":   f.Mean,
				"std":    f.Std,
				"min":    f.Min,
				"max":    f.Max,
				"length": float64(f.Length),
			}, ev.At)
		}
	case KindEmotion:
		if ev.Emotion != nil {
			i.w.WriteEmotion(ev.Emotion.Label, ev.At)
		}
	case KindConnection:
		i.w.WriteConnection(ev.State, ev.Attempts, ev.At)
	}
	return nil
}

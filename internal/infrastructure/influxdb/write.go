package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementSamples    = "eeg_samples"
	MeasurementEmotion    = "emotion"
	MeasurementFeatures   = "eeg_features"
	MeasurementConnection = "connection"
)

// sampleSpacing separates points of one batch so they do not overwrite
// each other (same measurement, tags and timestamp).
const sampleSpacing = time.Microsecond

// WriteSamples writes one eeg_samples point per value, in batch order,
// starting at at.
func (c *Client) WriteSamples(samples []float64, at time.Time) {
	if !c.IsConnected() {
		return
	}

	tags := c.tags()
	for i, v := range samples {
		c.writeAPI.WritePoint(write.NewPoint(
			MeasurementSamples,
			tags,
			map[string]interface{}{"value": v},
			at.Add(time.Duration(i)*sampleSpacing),
		))
	}
}

// WriteEmotion records an emotion label change.
func (c *Client) WriteEmotion(label string, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementEmotion,
		c.tags(),
		map[string]interface{}{"label": label},
		at,
	))
}

// WriteFeatures records the window statistics computed after an update.
func (c *Client) WriteFeatures(features map[string]float64, at time.Time) {
	if !c.IsConnected() || len(features) == 0 {
		return
	}

	fields := make(map[string]interface{}, len(features))
	for k, v := range features {
		fields[k] = v
	}
	c.writeAPI.WritePoint(write.NewPoint(MeasurementFeatures, c.tags(), fields, at))
}

// WriteConnection records a backend channel state transition.
func (c *Client) WriteConnection(state string, attempts int, at time.Time) {
	if !c.IsConnected() {
		return
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementConnection,
		c.tags(),
		map[string]interface{}{"state": state, "attempts": attempts},
		at,
	))
}

func (c *Client) tags() map[string]string {
	return map[string]string{"session": c.session}
}

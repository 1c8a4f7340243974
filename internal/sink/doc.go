// Package sink fans session events out to the process's outputs.
//
// The session loop publishes an Event for every observable change: a
// sample batch, an emotion change, a transcript entry, a channel state
// transition. A Fanout queues them and a single goroutine hands each one
// to every registered Sink in order:
//
//	MQTT     republishes on the {prefix}/... topic tree
//	Influx   records eeg_samples, eeg_features, emotion and connection points
//	Store    persists transcript entries to SQLite
//	Console  prints the conversation for a terminal user
//
// The local API's WebSocket hub is also a Sink.
package sink

// Package window holds the rolling sample buffer that feeds the EEG chart.
//
// A Window keeps the most recent N samples in chronological order. New
// batches are appended and the oldest values are discarded so the length
// never exceeds the capacity. Sample values are not validated: NaN and
// out-of-range values pass through unchanged.
//
// A Window is not safe for concurrent use. The session owns it and only
// touches it from its event loop.
package window

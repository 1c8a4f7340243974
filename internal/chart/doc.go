// Package chart renders the rolling sample window as a line chart.
//
// The session calls Redraw after every window update; Render draws the
// most recent snapshot as a PNG with go-chart. There is no animation: a
// redraw only swaps the stored values.
package chart

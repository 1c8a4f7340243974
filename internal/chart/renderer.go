package chart

import (
	"fmt"
	"io"
	"math"
	"slices"
	"sync"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Defaults used when the configured size is not positive.
const (
	DefaultWidth  = 800
	DefaultHeight = 300

	// LineColor is the EEG trace colour.
	LineColor = "6C63FF"
)

// Renderer holds the latest window snapshot. Redraw and Render may be
// called from different goroutines.
type Renderer struct {
	width  int
	height int
	title  string

	mu     sync.RWMutex
	values []float64
	frames uint64
}

// NewRenderer returns a renderer producing width × height images.
func NewRenderer(width, height int) *Renderer {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Renderer{width: width, height: height, title: "EEG"}
}

// Redraw replaces the snapshot with a copy of values.
func (r *Renderer) Redraw(values []float64) {
	snapshot := slices.Clone(values)

	r.mu.Lock()
	r.values = snapshot
	r.frames++
	r.mu.Unlock()
}

// Frames returns how many redraws have happened.
func (r *Renderer) Frames() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frames
}

// Values returns a copy of the current snapshot.
func (r *Renderer) Values() []float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.values)
}

// Render draws the current snapshot as a PNG into w.
func (r *Renderer) Render(w io.Writer) error {
	ch := r.build(r.Values())
	if err := ch.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

// build lays the values out on a 0-based index axis. The y axis starts at
// zero (or the lowest sample when negative). NaN and ±Inf are drawn as zero;
// go-chart cannot range them.
func (r *Renderer) build(values []float64) gochart.Chart {
	values = finite(values)

	// go-chart needs at least two points to draw a line.
	for len(values) < 2 {
		values = append(values, 0)
	}

	xs := make([]float64, len(values))
	minY, maxY := 0.0, 0.0
	for i, v := range values {
		xs[i] = float64(i)
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}
	if maxY <= minY {
		maxY = minY + 1
	}

	line := drawing.ColorFromHex(LineColor)

	return gochart.Chart{
		Title:      r.title,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 20, Left: 16, Right: 12, Bottom: 20}},
		XAxis: gochart.XAxis{
			Range: &gochart.ContinuousRange{Min: 0, Max: float64(len(values) - 1)},
		},
		YAxis: gochart.YAxis{
			Range: &gochart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "EEG",
				XValues: xs,
				YValues: values,
				Style: gochart.Style{
					StrokeWidth: 2,
					StrokeColor: line,
					FillColor:   line.WithAlpha(40),
				},
			},
		},
	}
}

// finite returns a copy of values with NaN and ±Inf replaced by zero.
func finite(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[i] = v
		}
	}
	return out
}

package window

// DefaultCapacity is the number of samples shown on the chart.
const DefaultCapacity = 50

// Window is a fixed-capacity, oldest-first sequence of samples.
type Window struct {
	samples  []float64
	capacity int
}

// New creates an empty Window. A capacity below 1 is raised to 1.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{
		samples:  make([]float64, 0, capacity),
		capacity: capacity,
	}
}

// NewZeroed creates a Window already holding capacity zeros.
func NewZeroed(capacity int) *Window {
	w := New(capacity)
	w.samples = w.samples[:w.capacity]
	return w
}

// Append adds batch in order, then trims from the front so that only the
// most recent Cap() values remain.
func (w *Window) Append(batch []float64) {
	if len(batch) == 0 {
		return
	}

	w.samples = append(w.samples, batch...)
	if excess := len(w.samples) - w.capacity; excess > 0 {
		// Copy into a fresh slice so the backing array does not grow without bound.
		trimmed := make([]float64, w.capacity)
		copy(trimmed, w.samples[excess:])
		w.samples = trimmed
	}
}

// Values returns a copy of the samples, oldest first.
func (w *Window) Values() []float64 {
	out := make([]float64, len(w.samples))
	copy(out, w.samples)
	return out
}

// Len returns the number of samples held.
func (w *Window) Len() int {
	return len(w.samples)
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return w.capacity
}

// Latest returns the most recent sample and true,
// or 0 and false if the window is empty.
func (w *Window) Latest() (float64, bool) {
	if len(w.samples) == 0 {
		return 0, false
	}
	return w.samples[len(w.samples)-1], true
}

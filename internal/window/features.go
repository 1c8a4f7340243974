package window

import "math"

// Features are summary statistics over the current window contents.
type Features struct {
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Length int     `json:"length"`
}

// Features computes mean, sample standard deviation (n-1), min and max.
//
// Std is 0 for fewer than two samples. An empty window yields the zero value.
func (w *Window) Features() Features {
	return Compute(w.samples)
}

// Compute returns Features for an arbitrary sample slice.
//
// Mean and variance are accumulated with Welford's method.
func Compute(samples []float64) Features {
	f := Features{Length: len(samples)}
	if len(samples) == 0 {
		return f
	}

	f.Min = samples[0]
	f.Max = samples[0]

	var mean, m2 float64
	for i, v := range samples {
		delta := v - mean
		mean += delta / float64(i+1)
		m2 += delta * (v - mean)

		if v < f.Min {
			f.Min = v
		}
		if v > f.Max {
			f.Max = v
		}
	}

	f.Mean = mean
	if len(samples) > 1 {
		f.Std = math.Sqrt(m2 / float64(len(samples)-1))
	}
	return f
}

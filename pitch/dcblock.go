package pitch

import "math"

// dcBlocker is the one-pole high-pass y[n] = x[n] - x[n-1] + R*y[n-1]. A DC offset in
// the input inflates the YIN difference function at every lag and hides the period dip.
type dcBlocker struct {
	pole   float64
	x1, y1 float64
}

// newDCBlocker derives the pole from the -3 dB cutoff as R = 1 - 2*pi*fc/fs, clamped to
// [0.9, 0.9999].
func newDCBlocker(sampleRate int, cutoffHz float64) *dcBlocker {
	pole := 1 - 2*math.Pi*cutoffHz/float64(sampleRate)
	pole = math.Max(0.9, math.Min(0.9999, pole))
	return &dcBlocker{pole: pole}
}

func (d *dcBlocker) process(in []float64) []float64 {
	out := make([]float64, len(in))
	for i, x := range in {
		y := x - d.x1 + d.pole*d.y1
		d.x1, d.y1 = x, y
		out[i] = y
	}
	return out
}

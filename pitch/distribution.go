// Package pitch turns fundamental-frequency measurements into normalized histograms
// over a fixed integer-Hz range, and provides an in-process YIN tracker that produces
// those measurements from PCM.
package pitch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DefaultQuantileHz is reported for every requested quantile of an invalid distribution.
const DefaultQuantileHz = 150

// sumTolerance is how far the probability mass may drift from 1.0 and still be valid.
const sumTolerance = 1e-6

// Distribution is a dense probability histogram: index i holds the probability of
// pitch Range.Min+i Hz. Distributions are immutable once built.
type Distribution struct {
	rng   Range
	probs []float64
}

// Build truncates every finite sample in the range to integer Hz, counts occurrences
// per bin and normalizes by the total count. Non-finite samples and samples outside
// the range are dropped. When nothing is left the result is Uniform(r).
func Build(samples []float64, r Range) *Distribution {
	bins := r.Bins()
	if bins <= 0 {
		return &Distribution{rng: r}
	}

	counts := make([]float64, bins)
	total := 0
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		hz := int(s)
		if !r.Contains(hz) {
			continue
		}
		counts[hz-r.Min]++
		total++
	}

	if total == 0 {
		return Uniform(r)
	}

	floats.Scale(1/float64(total), counts)
	return &Distribution{rng: r, probs: counts}
}

// Uniform gives every bin of r probability 1/r.Bins().
func Uniform(r Range) *Distribution {
	bins := r.Bins()
	if bins <= 0 {
		return &Distribution{rng: r}
	}
	probs := make([]float64, bins)
	for i := range probs {
		probs[i] = 1 / float64(bins)
	}
	return &Distribution{rng: r, probs: probs}
}

// FromProbabilities wraps an existing probability vector. The vector must have exactly
// r.Bins() entries; it is copied, not normalized.
func FromProbabilities(r Range, probs []float64) (*Distribution, error) {
	if len(probs) != r.Bins() {
		return nil, fmt.Errorf("probability vector has %d entries, range %s needs %d", len(probs), r, r.Bins())
	}
	return &Distribution{rng: r, probs: append([]float64(nil), probs...)}, nil
}

// Range returns the frequency range covered by the distribution.
func (d *Distribution) Range() Range {
	if d == nil {
		return Range{}
	}
	return d.rng
}

// Len returns the number of bins.
func (d *Distribution) Len() int {
	if d == nil {
		return 0
	}
	return len(d.probs)
}

// At returns the probability of the hz bin, or 0 outside the range.
func (d *Distribution) At(hz int) float64 {
	if d == nil || !d.rng.Contains(hz) || len(d.probs) != d.rng.Bins() {
		return 0
	}
	return d.probs[hz-d.rng.Min]
}

// Probabilities returns a copy of the probability vector.
func (d *Distribution) Probabilities() []float64 {
	if d == nil {
		return nil
	}
	return append([]float64(nil), d.probs...)
}

// Sum returns the total probability mass.
func (d *Distribution) Sum() float64 {
	if d == nil || len(d.probs) == 0 {
		return 0
	}
	return floats.Sum(d.probs)
}

// Valid reports whether the distribution is non-empty, matches its range, holds only
// finite non-negative values and sums to 1.
func (d *Distribution) Valid() bool {
	if d == nil || len(d.probs) == 0 || len(d.probs) != d.rng.Bins() {
		return false
	}
	for _, p := range d.probs {
		if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
			return false
		}
	}
	return math.Abs(d.Sum()-1) <= sumTolerance
}

// Overlap returns the aligned probability slices of a and b over the bins both cover.
// ok is false when the ranges do not intersect. The slices alias the distributions and
// must not be modified. Both arguments must be Valid.
func Overlap(a, b *Distribution) (pa, pb []float64, ok bool) {
	lo := max(a.rng.Min, b.rng.Min)
	hi := min(a.rng.Max, b.rng.Max)
	if lo >= hi {
		return nil, nil, false
	}
	pa = a.probs[lo-a.rng.Min : hi-a.rng.Min]
	pb = b.probs[lo-b.rng.Min : hi-b.rng.Min]
	return pa, pb, true
}

// Quantiles returns the probability-weighted pitch quantiles keyed "quantile_<percent>",
// with the percent truncated toward zero.
// Quantiles that cannot be computed, or all of them for an invalid distribution, are
// reported as DefaultQuantileHz.
func (d *Distribution) Quantiles(qs ...float64) map[string]int {
	if len(qs) == 0 {
		qs = []float64{0.5}
	}
	out := make(map[string]int, len(qs))
	valid := d.Valid()

	var hz []float64
	if valid {
		hz = make([]float64, len(d.probs))
		for i := range hz {
			hz[i] = float64(d.rng.Min + i)
		}
	}

	for _, q := range qs {
		key := fmt.Sprintf("quantile_%d", int(q*100)) // truncated: 0.29 is quantile_28
		if !valid || q < 0 || q > 1 {
			out[key] = DefaultQuantileHz
			continue
		}
		out[key] = d.quantile(q, hz)
	}
	return out
}

// quantile pins the extremes to the outermost populated bins; stat.Quantile would
// return the range edge for q=0 regardless of mass.
func (d *Distribution) quantile(q float64, hz []float64) int {
	switch q {
	case 0:
		for i, p := range d.probs {
			if p > 0 {
				return int(hz[i])
			}
		}
	case 1:
		for i := len(d.probs) - 1; i >= 0; i-- {
			if d.probs[i] > 0 {
				return int(hz[i])
			}
		}
	}
	return int(stat.Quantile(q, stat.Empirical, hz, d.probs))
}

// Median is shorthand for the 0.5 quantile.
func (d *Distribution) Median() int {
	return d.Quantiles(0.5)["quantile_50"]
}

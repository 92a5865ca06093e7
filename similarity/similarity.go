// Package similarity scores how much two pitch histograms overlap.
package similarity

import (
	"math"

	"github.com/RyanBlaney/sonido-timbre/pitch"
	"gonum.org/v1/gonum/floats"
)

// FallbackScore is returned when a score cannot be computed. Callers rely on this exact
// value.
const FallbackScore = 0.25

// Scorer compares two distributions.
type Scorer func(a, b *pitch.Distribution) float64

// Compare returns the inner product of a and b aligned by Hz bin, clamped to [0, 1].
// It is an overlap measure, not a normalized similarity: a uniform distribution over N
// bins compared with itself scores 1/N. FallbackScore is returned when either argument
// is invalid, when the ranges do not intersect, or when the product is NaN.
func Compare(a, b *pitch.Distribution) float64 {
	if !a.Valid() || !b.Valid() {
		return FallbackScore
	}
	pa, pb, ok := pitch.Overlap(a, b)
	if !ok {
		return FallbackScore
	}
	score := floats.Dot(pa, pb)
	if math.IsNaN(score) {
		return FallbackScore
	}
	return math.Max(0, math.Min(1, score))
}

package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEmptyIsUniform(t *testing.T) {
	d := Build(nil, DefaultRange)

	require.Equal(t, 420, d.Len())
	for hz := DefaultRange.Min; hz < DefaultRange.Max; hz++ {
		assert.InDelta(t, 1.0/420, d.At(hz), 1e-15)
	}
	assert.InDelta(t, 1.0, d.Sum(), 1e-9)
	assert.True(t, d.Valid())
}

func TestBuildNormalizesCounts(t *testing.T) {
	r := Range{Min: 100, Max: 110}
	d := Build([]float64{100, 100.9, 101, 105.2, 109.99}, r)

	require.Equal(t, 10, d.Len())
	assert.InDelta(t, 0.4, d.At(100), 1e-12)
	assert.InDelta(t, 0.2, d.At(101), 1e-12)
	assert.InDelta(t, 0.2, d.At(105), 1e-12)
	assert.InDelta(t, 0.2, d.At(109), 1e-12)
	assert.Zero(t, d.At(102))
	assert.InDelta(t, 1.0, d.Sum(), 1e-9)
}

func TestBuildDropsNonFiniteAndOutOfRange(t *testing.T) {
	r := Range{Min: 100, Max: 110}
	d := Build([]float64{math.NaN(), math.Inf(1), math.Inf(-1), 99.9, 110, 250, 104}, r)

	assert.InDelta(t, 1.0, d.At(104), 1e-12)
	assert.InDelta(t, 1.0, d.Sum(), 1e-9)

	onlyJunk := Build([]float64{math.NaN(), 20, 900}, r)
	assert.InDelta(t, 0.1, onlyJunk.At(100), 1e-15, "nothing usable falls back to uniform")
}

func TestBuildSumsToOneForManySamples(t *testing.T) {
	samples := make([]float64, 0, 5000)
	for i := range 5000 {
		samples = append(samples, 80+float64((i*37)%420))
	}
	d := Build(samples, DefaultRange)

	assert.Equal(t, 420, d.Len())
	assert.InDelta(t, 1.0, d.Sum(), 1e-9)
	assert.True(t, d.Valid())
}

func TestFromProbabilitiesChecksLength(t *testing.T) {
	r := Range{Min: 1, Max: 4}

	_, err := FromProbabilities(r, []float64{0.5, 0.5})
	require.Error(t, err)

	probs := []float64{0.2, 0.3, 0.5}
	d, err := FromProbabilities(r, probs)
	require.NoError(t, err)
	probs[0] = 9
	assert.InDelta(t, 0.2, d.At(1), 1e-15, "input is copied")
	assert.True(t, d.Valid())
}

func TestValid(t *testing.T) {
	r := Range{Min: 1, Max: 3}
	tests := []struct {
		name  string
		probs []float64
		want  bool
	}{
		{"ok", []float64{0.5, 0.5}, true},
		{"short mass", []float64{0.5, 0.4}, false},
		{"negative", []float64{1.5, -0.5}, false},
		{"nan", []float64{math.NaN(), 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := FromProbabilities(r, tt.probs)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Valid())
		})
	}

	var nilDist *Distribution
	assert.False(t, nilDist.Valid())
	assert.False(t, Uniform(Range{Min: 5, Max: 5}).Valid())
}

func TestOverlapAlignsBins(t *testing.T) {
	a := Uniform(Range{Min: 100, Max: 110})
	b := Uniform(Range{Min: 105, Max: 120})

	pa, pb, ok := Overlap(a, b)
	require.True(t, ok)
	assert.Len(t, pa, 5)
	assert.Len(t, pb, 5)

	_, _, ok = Overlap(a, Uniform(Range{Min: 200, Max: 210}))
	assert.False(t, ok)
}

func TestQuantiles(t *testing.T) {
	r := Range{Min: 100, Max: 110}
	d := Build([]float64{101, 102, 102, 103, 108}, r)

	q := d.Quantiles(0.25, 0.5, 0.95)
	assert.Equal(t, 102, q["quantile_50"])
	assert.Equal(t, 102, q["quantile_25"])
	assert.Equal(t, 108, q["quantile_95"])
	assert.Equal(t, 102, d.Median())
}

func TestQuantilesDefaultForInvalid(t *testing.T) {
	bad, err := FromProbabilities(Range{Min: 1, Max: 3}, []float64{0.1, 0.1})
	require.NoError(t, err)

	q := bad.Quantiles(0.1, 0.5)
	assert.Equal(t, map[string]int{"quantile_10": DefaultQuantileHz, "quantile_50": DefaultQuantileHz}, q)

	good := Uniform(Range{Min: 1, Max: 3})
	assert.Equal(t, DefaultQuantileHz, good.Quantiles(1.5)["quantile_150"])
}

func TestQuantileExtremesUsePopulatedBins(t *testing.T) {
	d := Build([]float64{103, 106}, Range{Min: 100, Max: 110})

	q := d.Quantiles(0, 1)
	assert.Equal(t, 103, q["quantile_0"])
	assert.Equal(t, 106, q["quantile_100"])
}

func TestQuantileKeysTruncatePercent(t *testing.T) {
	d := Build([]float64{101, 102, 103}, Range{Min: 100, Max: 110})

	q := d.Quantiles(0.29, 0.999)
	assert.Contains(t, q, "quantile_28")
	assert.Contains(t, q, "quantile_99")
	assert.NotContains(t, q, "quantile_29")
	assert.NotContains(t, q, "quantile_100")
}

package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSamples(t *testing.T) {
	got, err := ParseSamples("120,121\n122\r\n, 130.5 ,\n\n")
	require.NoError(t, err)
	assert.Equal(t, []float64{120, 121, 122, 130.5}, got)

	got, err = ParseSamples("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseSamplesRejectsJunk(t *testing.T) {
	_, err := ParseSamples("120\nabc\n130")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"abc"`)
}

func TestParseSamplesLenient(t *testing.T) {
	got := ParseSamplesLenient("120\n--undefined--\n 130 ,x,140")
	assert.Equal(t, []float64{120, 130, 140}, got)
}

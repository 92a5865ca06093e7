package pitch

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSamples reads a text blob of pitch values separated by newlines and/or commas.
// Blank entries are skipped. Any entry that is not a number makes the whole blob
// invalid.
func ParseSamples(blob string) ([]float64, error) {
	fields := strings.FieldsFunc(blob, isSampleSeparator)
	samples := make([]float64, 0, len(fields))
	for i, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("pitch sample %d (%q) is not a number: %w", i+1, field, err)
		}
		samples = append(samples, v)
	}
	return samples, nil
}

// ParseSamplesLenient is ParseSamples without the failure mode: entries that are not
// numbers (for example Praat's "--undefined--") are dropped.
func ParseSamplesLenient(blob string) []float64 {
	fields := strings.FieldsFunc(blob, isSampleSeparator)
	samples := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			continue
		}
		samples = append(samples, v)
	}
	return samples
}

func isSampleSeparator(r rune) bool {
	return r == '\n' || r == '\r' || r == ','
}

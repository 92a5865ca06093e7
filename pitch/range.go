package pitch

import "fmt"

// Range is the half-open frequency interval [Min, Max) in integer Hz covered by a
// Distribution. Every integer in the interval is one histogram bin.
type Range struct {
	Min int `json:"min" toml:"min"`
	Max int `json:"max" toml:"max"`
}

// DefaultRange is the range used for voice analysis unless configured otherwise.
var DefaultRange = Range{Min: 80, Max: 500}

// Bins returns the number of histogram bins in the range.
func (r Range) Bins() int {
	return r.Max - r.Min
}

// Contains reports whether hz falls into a bin of the range.
func (r Range) Contains(hz int) bool {
	return hz >= r.Min && hz < r.Max
}

// Validate checks that the range is usable for histogram construction.
func (r Range) Validate() error {
	if r.Min <= 0 {
		return fmt.Errorf("pitch range minimum must be positive: %d", r.Min)
	}
	if r.Min >= r.Max {
		return fmt.Errorf("pitch range minimum (%d) must be below maximum (%d)", r.Min, r.Max)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d) Hz", r.Min, r.Max)
}

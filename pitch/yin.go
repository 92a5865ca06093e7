package pitch

import (
	"fmt"
	"math"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

// TrackerParams configures the YIN tracker.
type TrackerParams struct {
	SampleRate int     `json:"sample_rate"`
	FrameSize  int     `json:"frame_size"` // samples per analysis frame, split in half for the YIN window
	HopSize    int     `json:"hop_size"`
	MinFreq    float64 `json:"min_freq"`  // Hz
	MaxFreq    float64 `json:"max_freq"`  // Hz
	Threshold  float64 `json:"threshold"` // CMNDF threshold (0.1-0.2 typical)
	SilenceRMS float64 `json:"silence_rms"`
	DCCutoff   float64 `json:"dc_cutoff"` // Hz, 0 disables DC removal
}

// DefaultTrackerParams returns parameters tuned for speech at 44.1 kHz over r.
func DefaultTrackerParams(r Range) TrackerParams {
	return TrackerParams{
		SampleRate: 44100,
		FrameSize:  2048,
		HopSize:    512,
		MinFreq:    float64(r.Min),
		MaxFreq:    float64(r.Max),
		Threshold:  0.15,
		SilenceRMS: 0.01,
		DCCutoff:   20,
	}
}

// Tracker estimates one fundamental frequency per voiced frame with the YIN method
// (de Cheveigné & Kawahara, 2002). The difference function is computed through an
// FFT cross-correlation so each frame costs O(n log n).
type Tracker struct {
	params TrackerParams
	minLag int
	maxLag int
}

// NewTracker validates params and returns a Tracker.
func NewTracker(params TrackerParams) (*Tracker, error) {
	if params.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive: %d", params.SampleRate)
	}
	if params.FrameSize < 4 || params.HopSize <= 0 {
		return nil, fmt.Errorf("invalid framing: frame=%d hop=%d", params.FrameSize, params.HopSize)
	}
	if params.MinFreq <= 0 || params.MinFreq >= params.MaxFreq {
		return nil, fmt.Errorf("invalid frequency bounds: [%.1f, %.1f]", params.MinFreq, params.MaxFreq)
	}
	if params.DCCutoff < 0 || params.DCCutoff >= params.MinFreq {
		return nil, fmt.Errorf("dc cutoff %.1f Hz must be in [0, %.1f)", params.DCCutoff, params.MinFreq)
	}

	window := params.FrameSize / 2
	minLag := int(math.Floor(float64(params.SampleRate) / params.MaxFreq))
	maxLag := int(math.Ceil(float64(params.SampleRate) / params.MinFreq))
	if minLag < 2 {
		minLag = 2
	}
	if maxLag > window-2 {
		return nil, fmt.Errorf("frame size %d too small for %.1f Hz at %d Hz sample rate",
			params.FrameSize, params.MinFreq, params.SampleRate)
	}

	return &Tracker{params: params, minLag: minLag, maxLag: maxLag}, nil
}

// Params returns the tracker configuration.
func (t *Tracker) Params() TrackerParams {
	return t.params
}

// Track returns the pitch estimates (Hz) of every voiced frame of mono PCM, in order.
// Silent frames, unvoiced frames and estimates outside [MinFreq, MaxFreq] are omitted,
// so the result may be empty.
func (t *Tracker) Track(pcm []float64) []float64 {
	if t.params.DCCutoff > 0 {
		pcm = newDCBlocker(t.params.SampleRate, t.params.DCCutoff).process(pcm)
	}

	n := t.params.FrameSize
	estimates := make([]float64, 0, len(pcm)/t.params.HopSize+1)
	for start := 0; start+n <= len(pcm); start += t.params.HopSize {
		frame := pcm[start : start+n]
		if rms(frame) < t.params.SilenceRMS {
			continue
		}
		if hz, ok := t.detect(frame); ok {
			estimates = append(estimates, hz)
		}
	}
	return estimates
}

// detect runs YIN on one frame.
func (t *Tracker) detect(frame []float64) (float64, bool) {
	diff := t.difference(frame)
	cmndf := cumulativeMeanNormalized(diff)

	tau := -1
	for lag := t.minLag; lag <= t.maxLag; lag++ {
		if cmndf[lag] < t.params.Threshold {
			for lag+1 <= t.maxLag && cmndf[lag+1] < cmndf[lag] {
				lag++
			}
			tau = lag
			break
		}
	}
	if tau < 0 {
		return 0, false
	}

	period := parabolicInterpolation(cmndf, tau)
	if period <= 0 {
		return 0, false
	}
	hz := float64(t.params.SampleRate) / period
	if hz < t.params.MinFreq || hz > t.params.MaxFreq {
		return 0, false
	}
	return hz, true
}

// difference computes d(tau) = sum_{j<W} (x_j - x_{j+tau})^2 for tau in [0, W) where
// W is half the frame, expanding the square into two energy terms and a
// cross-correlation.
func (t *Tracker) difference(frame []float64) []float64 {
	n := len(frame)
	w := n / 2

	head := make([]float64, n)
	copy(head, frame[:w])

	spectrumHead := fft.FFTReal(head)
	spectrumFrame := fft.FFTReal(frame)
	for i := range spectrumHead {
		re, im := real(spectrumHead[i]), imag(spectrumHead[i])
		spectrumHead[i] = complex(re, -im) * spectrumFrame[i]
	}
	cross := fft.IFFT(spectrumHead)

	diff := make([]float64, w)
	energyHead := floats.Dot(frame[:w], frame[:w])
	energyLag := energyHead
	for tau := 0; tau < w; tau++ {
		if tau > 0 {
			energyLag += frame[tau+w-1]*frame[tau+w-1] - frame[tau-1]*frame[tau-1]
		}
		d := energyHead + energyLag - 2*real(cross[tau])
		if d < 0 {
			d = 0
		}
		diff[tau] = d
	}
	return diff
}

func cumulativeMeanNormalized(diff []float64) []float64 {
	cmndf := make([]float64, len(diff))
	cmndf[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau < len(diff); tau++ {
		runningSum += diff[tau]
		if runningSum == 0 {
			cmndf[tau] = 1.0
			continue
		}
		cmndf[tau] = diff[tau] / (runningSum / float64(tau))
	}
	return cmndf
}

// parabolicInterpolation refines a minimum index to sub-sample precision.
func parabolicInterpolation(data []float64, idx int) float64 {
	if idx <= 0 || idx >= len(data)-1 {
		return float64(idx)
	}

	y1 := data[idx-1]
	y2 := data[idx]
	y3 := data[idx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(idx)
	}
	return float64(idx) - b/(2*a)
}

func rms(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

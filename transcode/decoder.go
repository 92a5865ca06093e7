// Package transcode wraps ffmpeg and ffprobe: it converts arbitrary audio or video input
// into the mono PCM16 WAV the pitch extractors read, and decodes audio to float64 PCM.
package transcode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-timbre/logging"
)

// AudioData is decoded mono or interleaved PCM.
type AudioData struct {
	PCM        []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	Duration   time.Duration `json:"duration"`
	Source     string        `json:"source"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	SampleRate  int           `json:"sample_rate"`
	Channels    int           `json:"channels"`
	FFmpegPath  string        `json:"ffmpeg_path"`  // Path to ffmpeg binary
	FFprobePath string        `json:"ffprobe_path"` // Path to ffprobe binary
	Timeout     time.Duration `json:"timeout"`      // Per invocation, 0 disables
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		SampleRate:  44100,
		Channels:    1,
		FFmpegPath:  "ffmpeg",  // Assume in PATH
		FFprobePath: "ffprobe", // Assume in PATH
		Timeout:     120 * time.Second,
	}
}

// Decoder runs ffmpeg.
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// Config returns the decoder configuration.
func (d *Decoder) Config() DecoderConfig {
	return *d.config
}

// ValidateConfig validates the decoder configuration
func (d *Decoder) ValidateConfig() error {
	if d.config.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive: %d", d.config.SampleRate)
	}
	if d.config.Channels <= 0 || d.config.Channels > 8 {
		return fmt.Errorf("channels must be between 1 and 8: %d", d.config.Channels)
	}
	if d.config.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %v", d.config.Timeout)
	}
	if strings.TrimSpace(d.config.FFmpegPath) == "" {
		return errors.New("ffmpeg path is empty")
	}
	return nil
}

// DecodePCM decodes filename to float64 PCM at the configured rate and channel count.
func (d *Decoder) DecodePCM(ctx context.Context, filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodePCM",
		"filename":  filename,
	})

	output, err := d.run(ctx, d.config.FFmpegPath, d.pcmArgs(filename), logger)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", err)
	}

	samples := bytesToFloat64(output)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio samples decoded from %s", filename)
	}

	perChannel := len(samples) / d.config.Channels
	duration := time.Duration(perChannel) * time.Second / time.Duration(d.config.SampleRate)

	logger.Debug("Decode completed", logging.Fields{
		"samples":  len(samples),
		"duration": duration.Seconds(),
	})

	return &AudioData{
		PCM:        samples,
		SampleRate: d.config.SampleRate,
		Channels:   d.config.Channels,
		Duration:   duration,
		Source:     filename,
	}, nil
}

func (d *Decoder) pcmArgs(filename string) []string {
	return []string{
		"-v", "error",
		"-i", filename,
		"-vn",
		"-f", "f64le", // raw float64 little-endian
		"-ac", strconv.Itoa(d.config.Channels),
		"-ar", strconv.Itoa(d.config.SampleRate),
		"pipe:1",
	}
}

// run executes binary with the configured timeout and returns stdout. Stderr is
// attached to the error when the process fails.
func (d *Decoder) run(ctx context.Context, binary string, args []string, logger logging.Logger) ([]byte, error) {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, args...)

	logger.Debug("Running command", logging.Fields{
		"command": fmt.Sprintf("%s %s", binary, strings.Join(args, " ")),
	})

	start := time.Now()
	output, err := cmd.Output()
	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			stderr := strings.TrimSpace(string(exitError.Stderr))
			logger.Error(err, "Command failed", logging.Fields{"stderr": stderr})
			return nil, fmt.Errorf("%w, stderr: %s", err, stderr)
		}
		return nil, err
	}

	logger.Debug("Command completed", logging.Fields{
		"output_bytes": len(output),
		"elapsed":      time.Since(start).Seconds(),
	})
	return output, nil
}

// bytesToFloat64 converts raw float64 bytes to []float64
func bytesToFloat64(data []byte) []float64 {
	if len(data)%8 != 0 {
		// Trim to multiple of 8 bytes
		data = data[:len(data)-(len(data)%8)]
	}

	if len(data) == 0 {
		return nil
	}

	sampleCount := len(data) / 8
	samples := make([]float64, sampleCount)

	for i := range sampleCount {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}

	return samples
}

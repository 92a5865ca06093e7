// Package praat extracts pitch samples from a WAV file by running a generated Praat
// script.
package praat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
)

// Config configures a Runner.
type Config struct {
	Path    string        `json:"path"`     // praat binary
	WorkDir string        `json:"work_dir"` // script and output files are created here
	Timeout time.Duration `json:"timeout"`  // 0 disables
	Range   pitch.Range   `json:"range"`
}

// DefaultConfig returns a configuration using praat from PATH and the system temp dir.
func DefaultConfig() Config {
	return Config{
		Path:    "praat",
		WorkDir: os.TempDir(),
		Timeout: 120 * time.Second,
		Range:   pitch.DefaultRange,
	}
}

// Runner runs Praat in batch mode.
type Runner struct {
	cfg Config
}

// NewRunner returns a Runner.
func NewRunner(cfg Config) *Runner {
	if cfg.Path == "" {
		cfg.Path = "praat"
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	if cfg.Range == (pitch.Range{}) {
		cfg.Range = pitch.DefaultRange
	}
	return &Runner{cfg: cfg}
}

// Name identifies the extractor in logs.
func (r *Runner) Name() string {
	return "praat"
}

const scriptTemplate = `Read from file: "%s"
To Pitch: 0.0, %d, %d
numberOfFrames = Get number of frames
for i to numberOfFrames
    time = Get time from frame number: i
    pitch = Get value at time: time, "Hertz", "Linear"
    if pitch <> undefined
        appendFileLine: "%s", pitch
    endif
endfor
`

// Script returns the Praat script that appends one defined pitch value per frame of
// wavPath to csvPath.
func Script(wavPath, csvPath string, r pitch.Range) string {
	return fmt.Sprintf(scriptTemplate, praatString(wavPath), r.Min, r.Max, praatString(csvPath))
}

// praatString escapes a path for a double-quoted Praat string literal.
func praatString(path string) string {
	return strings.ReplaceAll(filepath.ToSlash(path), `"`, `""`)
}

// Extract returns the defined pitch values of every analysis frame of wavPath in
// order. A recording without voiced frames yields an empty slice and no error. The
// generated script and output file are removed before returning.
func (r *Runner) Extract(ctx context.Context, wavPath string) ([]float64, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "praat",
		"function":  "Extract",
		"wav":       wavPath,
	})

	if _, err := os.Stat(wavPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}
	if err := os.MkdirAll(r.cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	id := uuid.NewString()
	scriptPath := filepath.Join(r.cfg.WorkDir, id+".praat")
	csvPath := filepath.Join(r.cfg.WorkDir, id+".csv")
	defer removeQuietly(logger, scriptPath, csvPath)

	if err := os.WriteFile(scriptPath, []byte(Script(wavPath, csvPath, r.cfg.Range)), 0o644); err != nil {
		return nil, fmt.Errorf("write praat script: %w", err)
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.cfg.Path, "--run", scriptPath)
	logger.Debug("Running praat", logging.Fields{"command": r.cfg.Path + " --run " + scriptPath})

	start := time.Now()
	if output, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("praat failed: %w, output: %s", err, strings.TrimSpace(string(output)))
	}

	data, err := os.ReadFile(csvPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Praat produced no pitch values")
		return []float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read praat output: %w", err)
	}

	samples := pitch.ParseSamplesLenient(string(data))
	logger.Debug("Praat extraction completed", logging.Fields{
		"samples": len(samples),
		"elapsed": time.Since(start).Seconds(),
	})
	return samples, nil
}

func removeQuietly(logger logging.Logger, paths ...string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Failed to remove temporary file", logging.Fields{"path": p, "error": err.Error()})
		}
	}
}

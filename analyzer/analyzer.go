// Package analyzer runs the classification pipeline: acquire the audio, transcode it
// to WAV, extract pitch samples, build the distribution and rank it against the
// catalog.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-timbre/catalog"
	"github.com/RyanBlaney/sonido-timbre/judge"
	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
	"github.com/RyanBlaney/sonido-timbre/transcode"
)

// Extractor turns a WAV file into pitch samples in Hz.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, wavPath string) ([]float64, error)
}

// Converter transcodes any audio or video input into the WAV the extractors read.
type Converter interface {
	ToWAV(ctx context.Context, src, dest string) error
}

// Downloader stores a remote source locally and returns the file path.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (string, error)
}

// Prober reports stream properties of a source. Optional.
type Prober interface {
	Probe(ctx context.Context, filename string) (*transcode.AudioMetadata, error)
}

// Config wires an Analyzer.
type Config struct {
	WorkDir    string
	Converter  Converter
	Extractor  Extractor
	Downloader Downloader // required by AnalyzeURL only
	Prober     Prober     // optional
	Registry   *catalog.Registry
	Ranker     *judge.Ranker
	Logger     logging.Logger
}

// Report is the outcome of one analysis.
type Report struct {
	Source       string                   `json:"source"`
	Extractor    string                   `json:"extractor"`
	Samples      int                      `json:"samples"`
	MedianHz     int                      `json:"median_hz"`
	Distribution *pitch.Distribution      `json:"-"`
	Metadata     *transcode.AudioMetadata `json:"metadata,omitempty"`
	Result       *judge.Result            `json:"result"`
	Elapsed      time.Duration            `json:"elapsed"`
}

// Analyzer is safe for concurrent use as long as each call gets its own Rand.
type Analyzer struct {
	cfg    Config
	logger logging.Logger
}

// New checks the required collaborators and returns an Analyzer.
func New(cfg Config) (*Analyzer, error) {
	if cfg.Converter == nil {
		return nil, errors.New("analyzer: converter is required")
	}
	if cfg.Extractor == nil {
		return nil, errors.New("analyzer: extractor is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("analyzer: registry is required")
	}
	if cfg.Ranker == nil {
		cfg.Ranker = judge.NewRanker(judge.DefaultRankerConfig())
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = os.TempDir()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Analyzer{
		cfg:    cfg,
		logger: logger.WithFields(logging.Fields{"component": "analyzer"}),
	}, nil
}

// AnalyzeURL downloads rawURL and analyzes it. The download is removed afterwards.
func (a *Analyzer) AnalyzeURL(ctx context.Context, rawURL string, filter judge.Filter, rnd judge.Rand) (*Report, error) {
	if a.cfg.Downloader == nil {
		return nil, errors.New("analyzer: no downloader configured")
	}
	logger := a.logger.WithFields(logging.Fields{
		"function": "AnalyzeURL",
		"url":      rawURL,
	})

	local, err := a.cfg.Downloader.Download(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", rawURL, err)
	}
	defer a.remove(logger, local)

	report, err := a.analyze(ctx, local, filter, rnd, logger)
	if err != nil {
		return nil, err
	}
	report.Source = rawURL
	return report, nil
}

// AnalyzeFile analyzes a local file, which must exist.
func (a *Analyzer) AnalyzeFile(ctx context.Context, path string, filter judge.Filter, rnd judge.Rand) (*Report, error) {
	logger := a.logger.WithFields(logging.Fields{
		"function": "AnalyzeFile",
		"file":     path,
	})

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("input file %s does not exist", path)
		}
		return nil, fmt.Errorf("stat input file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("input %s is a directory", path)
	}

	report, err := a.analyze(ctx, path, filter, rnd, logger)
	if err != nil {
		return nil, err
	}
	report.Source = path
	return report, nil
}

func (a *Analyzer) analyze(ctx context.Context, src string, filter judge.Filter, rnd judge.Rand, logger logging.Logger) (*Report, error) {
	start := time.Now()
	if rnd == nil {
		rnd = judge.NewRand(0)
	}

	if err := os.MkdirAll(a.cfg.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}

	report := &Report{Extractor: a.cfg.Extractor.Name()}
	if a.cfg.Prober != nil {
		meta, err := a.cfg.Prober.Probe(ctx, src)
		if err != nil {
			logger.Debug("Probe failed", logging.Fields{"error": err.Error()})
		} else {
			report.Metadata = meta
			logger.Debug("Probed source", logging.Fields{
				"codec":       meta.Codec,
				"sample_rate": meta.SampleRate,
				"channels":    meta.Channels,
				"duration":    meta.Duration,
			})
		}
	}

	wav := filepath.Join(a.cfg.WorkDir, uuid.NewString()+".wav")
	defer a.remove(logger, wav)
	if err := a.cfg.Converter.ToWAV(ctx, src, wav); err != nil {
		return nil, fmt.Errorf("transcode %s: %w", src, err)
	}

	samples, err := a.cfg.Extractor.Extract(ctx, wav)
	if err != nil {
		logger.Error(err, "Pitch extraction failed, using empty samples", logging.Fields{
			"extractor": a.cfg.Extractor.Name(),
		})
		samples = nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snapshot := a.cfg.Registry.Snapshot()
	dist := pitch.Build(samples, a.cfg.Registry.Range())
	result, err := a.cfg.Ranker.Classify(snapshot, dist, filter, rnd)
	if err != nil {
		return nil, fmt.Errorf("classify: %w", err)
	}

	report.Samples = len(samples)
	report.Distribution = dist
	report.MedianHz = dist.Median()
	report.Result = result
	report.Elapsed = time.Since(start)

	logger.Debug("Analysis complete", logging.Fields{
		"samples":   report.Samples,
		"median_hz": report.MedianHz,
		"outcome":   result.Outcome.String(),
		"elapsed":   report.Elapsed.String(),
	})
	return report, nil
}

func (a *Analyzer) remove(logger logging.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("Failed to remove work file", logging.Fields{
			"path":  path,
			"error": err.Error(),
		})
	}
}

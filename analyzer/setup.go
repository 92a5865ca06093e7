package analyzer

import (
	"fmt"

	"github.com/RyanBlaney/sonido-timbre/catalog"
	"github.com/RyanBlaney/sonido-timbre/config"
	"github.com/RyanBlaney/sonido-timbre/fetch"
	"github.com/RyanBlaney/sonido-timbre/judge"
	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/praat"
	"github.com/RyanBlaney/sonido-timbre/transcode"
)

// NewRegistry returns a catalog registry over the configured model and mapping tables.
func NewRegistry(cfg *config.Config, logger logging.Logger) *catalog.Registry {
	models, mappings := catalog.TablesFor(cfg.ModelPath(), cfg.MappingPath())
	return catalog.NewRegistry(catalog.RegistryConfig{
		Range:    cfg.PitchRange(),
		Models:   models,
		Mappings: mappings,
		Logger:   logger,
	})
}

// FromConfig builds an Analyzer with the production collaborators: ffmpeg, the
// configured extractor, an HTTP downloader and the table-backed registry.
func FromConfig(cfg *config.Config, logger logging.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	decoder := transcode.NewDecoder(&transcode.DecoderConfig{
		SampleRate:  44100,
		Channels:    1,
		FFmpegPath:  cfg.Tools.FFmpeg,
		FFprobePath: cfg.Tools.FFprobe,
		Timeout:     cfg.ToolTimeout(),
	})
	if err := decoder.ValidateConfig(); err != nil {
		return nil, fmt.Errorf("decoder config: %w", err)
	}

	var extractor Extractor
	switch cfg.Pitch.Extractor {
	case config.ExtractorYIN:
		extractor = NewYINExtractor(decoder, cfg.PitchRange())
	case config.ExtractorPraat:
		extractor = praat.NewRunner(praat.Config{
			Path:    cfg.Tools.Praat,
			WorkDir: cfg.Paths.WorkDir,
			Timeout: cfg.ToolTimeout(),
			Range:   cfg.PitchRange(),
		})
	default:
		return nil, fmt.Errorf("unknown pitch extractor %q", cfg.Pitch.Extractor)
	}

	downloader := fetch.New(fetch.Config{
		Dir:       cfg.Paths.WorkDir,
		Timeout:   cfg.FetchTimeout(),
		UserAgent: cfg.Fetch.UserAgent,
		MaxBytes:  cfg.FetchMaxBytes(),
	})

	return New(Config{
		WorkDir:    cfg.Paths.WorkDir,
		Converter:  decoder,
		Extractor:  extractor,
		Downloader: downloader,
		Prober:     decoder,
		Registry:   NewRegistry(cfg, logger),
		Ranker:     judge.NewRanker(judge.RankerConfig{Logger: logger}),
		Logger:     logger,
	})
}

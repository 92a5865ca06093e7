package config

const (
	defaultPitchMin       = 80
	defaultPitchMax       = 500
	defaultExtractor      = ExtractorPraat
	defaultWorkDir        = "~/.cache/sonido-timbre"
	defaultModelDir       = "models"
	defaultModelFile      = "voice_model.csv"
	defaultMappingFile    = "voice_analyzer_mapping.csv"
	defaultFFmpeg         = "ffmpeg"
	defaultFFprobe        = "ffprobe"
	defaultPraat          = "praat"
	defaultToolTimeout    = 120
	defaultFetchTimeout   = 60
	defaultFetchUserAgent = "sonido-timbre"
	defaultFetchMaxMiB    = 512
	defaultLogLevel       = "info"
)

// Extractor names accepted by pitch.extractor.
const (
	ExtractorPraat = "praat"
	ExtractorYIN   = "yin"
)

// Default returns a Config populated with built-in defaults.
func Default() Config {
	return Config{
		Pitch: Pitch{
			Min:       defaultPitchMin,
			Max:       defaultPitchMax,
			Extractor: defaultExtractor,
		},
		Paths: Paths{
			WorkDir:     defaultWorkDir,
			ModelDir:    defaultModelDir,
			ModelFile:   defaultModelFile,
			MappingFile: defaultMappingFile,
		},
		Tools: Tools{
			FFmpeg:         defaultFFmpeg,
			FFprobe:        defaultFFprobe,
			Praat:          defaultPraat,
			TimeoutSeconds: defaultToolTimeout,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeout,
			UserAgent:      defaultFetchUserAgent,
			MaxMiB:         defaultFetchMaxMiB,
		},
		Logging: Logging{
			Level: defaultLogLevel,
		},
	}
}

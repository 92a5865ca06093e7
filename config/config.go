// Package config loads the TOML configuration of the timbre tools.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/RyanBlaney/sonido-timbre/pitch"
)

//go:embed sample_config.toml
var sampleConfig string

// Pitch contains the histogram range and extractor selection.
type Pitch struct {
	Min       int    `toml:"min"`
	Max       int    `toml:"max"`
	Extractor string `toml:"extractor"`
}

// Paths contains working and catalog locations.
type Paths struct {
	WorkDir     string `toml:"work_dir"`
	ModelDir    string `toml:"model_dir"`
	ModelFile   string `toml:"model_file"`
	MappingFile string `toml:"mapping_file"`
}

// Tools contains external binaries.
type Tools struct {
	FFmpeg         string `toml:"ffmpeg"`
	FFprobe        string `toml:"ffprobe"`
	Praat          string `toml:"praat"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Fetch contains download settings.
type Fetch struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
	MaxMiB         int    `toml:"max_mib"`
}

// Classify contains ranking settings.
type Classify struct {
	Seed uint64 `toml:"seed"` // 0 picks a random seed per run
}

// Logging contains log output settings.
type Logging struct {
	Level string `toml:"level"`
}

// Config encapsulates all configuration values.
type Config struct {
	Pitch    Pitch    `toml:"pitch"`
	Paths    Paths    `toml:"paths"`
	Tools    Tools    `toml:"tools"`
	Fetch    Fetch    `toml:"fetch"`
	Classify Classify `toml:"classify"`
	Logging  Logging  `toml:"logging"`

	// baseDir anchors relative catalog paths; it is the config file's directory when
	// one was loaded.
	baseDir string
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/sonido-timbre/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is not an
// error; defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.baseDir = filepath.Dir(resolvedPath)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("timbre.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the working directory.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.WorkDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.WorkDir, err)
	}
	return nil
}

// PitchRange returns the configured histogram range.
func (c *Config) PitchRange() pitch.Range {
	return pitch.Range{Min: c.Pitch.Min, Max: c.Pitch.Max}
}

// ModelPath returns the model table location.
func (c *Config) ModelPath() string {
	return c.catalogPath(c.Paths.ModelFile)
}

// MappingPath returns the alias mapping table location.
func (c *Config) MappingPath() string {
	return c.catalogPath(c.Paths.MappingFile)
}

func (c *Config) catalogPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.ModelDir, name)
}

// ToolTimeout is the per-invocation limit for ffmpeg and praat.
func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutSeconds) * time.Second
}

// FetchTimeout is the limit for one download.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FetchMaxBytes is the download size limit; 0 means unlimited.
func (c *Config) FetchMaxBytes() int64 {
	return int64(c.Fetch.MaxMiB) << 20
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

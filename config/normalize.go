package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTools()
	c.normalizePitch()
	c.normalizeFetch()
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkDir) == "" {
		c.Paths.WorkDir = defaultWorkDir
	}
	if c.Paths.WorkDir, err = expandPath(c.Paths.WorkDir); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}

	modelDir := strings.TrimSpace(c.Paths.ModelDir)
	if modelDir == "" {
		modelDir = defaultModelDir
	}
	if !strings.HasPrefix(modelDir, "~") && !filepath.IsAbs(modelDir) && c.baseDir != "" {
		modelDir = filepath.Join(c.baseDir, modelDir)
	}
	if c.Paths.ModelDir, err = expandPath(modelDir); err != nil {
		return fmt.Errorf("paths.model_dir: %w", err)
	}

	c.Paths.ModelFile = strings.TrimSpace(c.Paths.ModelFile)
	if c.Paths.ModelFile == "" {
		c.Paths.ModelFile = defaultModelFile
	}
	c.Paths.MappingFile = strings.TrimSpace(c.Paths.MappingFile)
	if c.Paths.MappingFile == "" {
		c.Paths.MappingFile = defaultMappingFile
	}
	return nil
}

func (c *Config) normalizeTools() {
	if value, ok := os.LookupEnv("SONIDO_TIMBRE_FFMPEG"); ok && strings.TrimSpace(value) != "" {
		c.Tools.FFmpeg = value
	}
	if value, ok := os.LookupEnv("SONIDO_TIMBRE_PRAAT"); ok && strings.TrimSpace(value) != "" {
		c.Tools.Praat = value
	}
	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	if c.Tools.FFmpeg == "" {
		c.Tools.FFmpeg = defaultFFmpeg
	}
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	if c.Tools.FFprobe == "" {
		c.Tools.FFprobe = defaultFFprobe
	}
	c.Tools.Praat = strings.TrimSpace(c.Tools.Praat)
	if c.Tools.Praat == "" {
		c.Tools.Praat = defaultPraat
	}
}

func (c *Config) normalizePitch() {
	c.Pitch.Extractor = strings.ToLower(strings.TrimSpace(c.Pitch.Extractor))
	if c.Pitch.Extractor == "" {
		c.Pitch.Extractor = defaultExtractor
	}
}

func (c *Config) normalizeFetch() {
	c.Fetch.UserAgent = strings.TrimSpace(c.Fetch.UserAgent)
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = defaultFetchUserAgent
	}
}

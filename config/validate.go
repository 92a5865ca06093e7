package config

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-timbre/logging"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePitch(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	return nil
}

func (c *Config) validatePitch() error {
	if err := c.PitchRange().Validate(); err != nil {
		return fmt.Errorf("pitch: %w", err)
	}
	switch c.Pitch.Extractor {
	case ExtractorPraat, ExtractorYIN:
	default:
		return fmt.Errorf("pitch.extractor must be %q or %q, got %q", ExtractorPraat, ExtractorYIN, c.Pitch.Extractor)
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Tools.TimeoutSeconds < 0 {
		return errors.New("tools.timeout_seconds must not be negative")
	}
	if c.Fetch.TimeoutSeconds < 0 {
		return errors.New("fetch.timeout_seconds must not be negative")
	}
	if c.Fetch.MaxMiB < 0 {
		return errors.New("fetch.max_mib must not be negative")
	}
	return nil
}

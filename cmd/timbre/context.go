package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timbre/analyzer"
	"github.com/RyanBlaney/sonido-timbre/catalog"
	"github.com/RyanBlaney/sonido-timbre/config"
	"github.com/RyanBlaney/sonido-timbre/judge"
	"github.com/RyanBlaney/sonido-timbre/logging"
)

// buildAnalyzer is replaced in tests.
var buildAnalyzer = analyzer.FromConfig

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to w, never stdout, so command output stays parseable. It is also
// installed as the global logger for the packages that log through it.
func (c *commandContext) logger(w io.Writer) logging.Logger {
	logger := logging.NewWriterLogger(w)
	level := logging.InfoLevel
	if c.config != nil {
		level, _ = logging.ParseLevel(c.config.Logging.Level)
	}
	if c.verbose != nil && *c.verbose {
		level = logging.DebugLevel
	}
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)
	return logger
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// parseGenderFlag maps "", "0" and "1" to a filter.
func parseGenderFlag(value string) (judge.Filter, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return judge.AnyGender, nil
	}
	flag, err := strconv.Atoi(value)
	if err != nil {
		return judge.Filter{}, fmt.Errorf("invalid --gender %q: must be 0 (male) or 1 (female)", value)
	}
	g, err := catalog.ParseGender(flag)
	if err != nil {
		return judge.Filter{}, fmt.Errorf("invalid --gender %q: must be 0 (male) or 1 (female)", value)
	}
	return judge.OnlyGender(g), nil
}

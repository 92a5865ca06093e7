package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timbre/analyzer"
	"github.com/RyanBlaney/sonido-timbre/judge"
)

type classifyOptions struct {
	url     string
	file    string
	gender  string
	json    bool
	seed    uint64
	verbose bool
}

func newRootCommand() *cobra.Command {
	var configFlag string
	opts := &classifyOptions{}

	ctx := newCommandContext(&configFlag, &opts.verbose)

	rootCmd := &cobra.Command{
		Use:           "timbre",
		Short:         "Classify voice timbre from pitch",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, ctx, opts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging and pitch summary")

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.url, "url", "u", "", "Audio URL to download and classify")
	flags.StringVarP(&opts.file, "file", "f", "", "Local audio or video file to classify")
	flags.StringVarP(&opts.gender, "gender", "g", "", "Restrict candidates to 0 (male) or 1 (female)")
	flags.BoolVarP(&opts.json, "json", "j", false, "Print the result as JSON")
	flags.Uint64Var(&opts.seed, "seed", 0, "Random seed for secondary voices (overrides classify.seed)")

	rootCmd.AddCommand(newModelsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func runClassify(cmd *cobra.Command, ctx *commandContext, opts *classifyOptions) error {
	url := strings.TrimSpace(opts.url)
	file := strings.TrimSpace(opts.file)
	switch {
	case url == "" && file == "":
		return errors.New("one of --url or --file is required")
	case url != "" && file != "":
		return errors.New("--url and --file are mutually exclusive")
	}

	filter, err := parseGenderFlag(opts.gender)
	if err != nil {
		return err
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger := ctx.logger(cmd.ErrOrStderr())

	a, err := buildAnalyzer(cfg, logger)
	if err != nil {
		return err
	}

	seed := cfg.Classify.Seed
	if cmd.Flags().Changed("seed") {
		seed = opts.seed
	}
	rnd := judge.NewRand(seed)

	var report *analyzer.Report
	if url != "" {
		report, err = a.AnalyzeURL(cmd.Context(), url, filter, rnd)
	} else {
		report, err = a.AnalyzeFile(cmd.Context(), file, filter, rnd)
	}
	if err != nil {
		return err
	}

	if opts.json {
		return writeJSON(cmd, report.Result)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, judge.Format(report.Result))
	if opts.verbose {
		fmt.Fprintf(out, "Median pitch: %d Hz (%d samples, %s)\n", report.MedianHz, report.Samples, report.Extractor)
	}
	return nil
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/RyanBlaney/sonido-timbre/analyzer"
	"github.com/RyanBlaney/sonido-timbre/catalog"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var gender string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the voice models in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseGenderFlag(gender)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.logger(cmd.ErrOrStderr())

			registry := analyzer.NewRegistry(cfg, logger)
			report := registry.Load(cmd.Context())
			snapshot := registry.Snapshot()

			models := snapshot.All()
			if g, ok := filter.Gender(); ok {
				models = snapshot.ModelsOfGender(g)
			}

			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{
					strconv.Itoa(m.ID),
					m.Name,
					m.Gender.String(),
					strconv.Itoa(len(snapshot.Aliases(m.Name))),
					strconv.Itoa(m.Distribution.Median()),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name", "Gender", "Aliases", "Median Hz"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintln(out, describeSource(report))
			return nil
		},
	}

	cmd.Flags().StringVarP(&gender, "gender", "g", "", "Only list 0 (male) or 1 (female) models")
	return cmd
}

func describeSource(report *catalog.LoadReport) string {
	if report.Builtin {
		reason := "no model table"
		if report.Fallback != nil {
			reason = report.Fallback.Error()
		}
		return fmt.Sprintf("Source: built-in catalog (%s)", reason)
	}
	line := fmt.Sprintf("Source: %s (%s), %d male, %d female", report.ModelSource, report.ModelEncoding, report.Males, report.Females)
	if report.MappingsAccepted > 0 {
		line += fmt.Sprintf("; %d aliases from %s", report.MappingsAccepted, report.MappingSource)
	}
	return line
}

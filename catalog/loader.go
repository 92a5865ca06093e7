package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
)

// LoadReport describes what a load produced.
type LoadReport struct {
	ModelSource   string
	ModelEncoding string
	Males         int
	Females       int
	ModelErrors   []RowError

	// Builtin is set when the built-in catalog was installed; Fallback holds the reason.
	Builtin  bool
	Fallback *LoadError

	MappingSource    string
	MappingEncoding  string
	MappingError     *LoadError // nil when the mapping table was read or not configured
	MappingsRead     int
	MappingsAccepted int
	MappingsUnknown  int
	MappingErrors    []RowError
}

// build reads both tables and assembles a catalog. It never fails: an unusable model
// table yields the built-in catalog, an unusable mapping table yields no aliases.
func build(ctx context.Context, r pitch.Range, models, mappings Table, logger logging.Logger) (*Catalog, *LoadReport) {
	report := &LoadReport{}

	loaded, err := readModels(ctx, r, models, report)
	if err != nil {
		report.Builtin = true
		report.Fallback = err
		c := Builtin(r)
		report.Males = len(c.male)
		report.Females = len(c.female)
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("Model table not found, using built-in catalog", logging.Fields{"path": err.Path})
		} else {
			logger.Error(err, "Model table unusable, using built-in catalog", logging.Fields{"path": err.Path})
		}
		return c, report
	}

	for _, m := range loaded {
		if m.Gender == Male {
			report.Males++
		} else {
			report.Females++
		}
	}
	logger.Info("Loaded voice models", logging.Fields{
		"path":     report.ModelSource,
		"encoding": report.ModelEncoding,
		"male":     report.Males,
		"female":   report.Females,
		"skipped":  len(report.ModelErrors),
	})

	aliases := readMappings(ctx, loaded, mappings, report)
	switch {
	case report.MappingError == nil && mappings != nil:
		fields := logging.Fields{
			"path":     report.MappingSource,
			"read":     report.MappingsRead,
			"accepted": report.MappingsAccepted,
		}
		if lost := report.MappingsRead - report.MappingsAccepted; lost > 0 {
			fields["lost"] = lost
			logger.Warn("Some mapping rows were not loaded", fields)
		} else {
			logger.Info("Loaded alias mappings", fields)
		}
	case report.MappingError != nil && errors.Is(report.MappingError, fs.ErrNotExist):
		logger.Info("No mapping table, continuing without aliases", logging.Fields{"path": report.MappingSource})
	case report.MappingError != nil:
		logger.Error(report.MappingError, "Mapping table unusable, continuing without aliases")
	}

	for _, rowErr := range report.ModelErrors {
		logger.Warn("Skipped model row", logging.Fields{"line": rowErr.Line, "reason": rowErr.Err.Error()})
	}
	for _, rowErr := range report.MappingErrors {
		logger.Warn("Skipped mapping row", logging.Fields{"line": rowErr.Line, "reason": rowErr.Err.Error()})
	}

	return New(loaded, aliases), report
}

func readModels(ctx context.Context, r pitch.Range, table Table, report *LoadReport) ([]Model, *LoadError) {
	if table == nil {
		return nil, &LoadError{Source: "models", Err: errors.New("no model table configured")}
	}
	report.ModelSource = table.Location()

	rows, err := table.Read(ctx)
	if err != nil {
		return nil, &LoadError{Source: "models", Path: table.Location(), Err: err}
	}
	report.ModelEncoding = rows.Encoding
	report.ModelErrors = append(report.ModelErrors, tagRows("models", rows.Skipped)...)

	models := make([]Model, 0, len(rows.Records))
	for _, rec := range rows.Records {
		m, err := parseModel(rec, r)
		if err != nil {
			report.ModelErrors = append(report.ModelErrors, RowError{Source: "models", Line: rec.Line, Err: err})
			continue
		}
		// ids follow accepted rows across both genders
		m.ID = len(models) + 1
		models = append(models, m)
	}

	if len(models) == 0 {
		return nil, &LoadError{Source: "models", Path: table.Location(), Err: ErrNoRows}
	}
	return models, nil
}

func parseModel(rec Record, r pitch.Range) (Model, error) {
	name := strings.TrimSpace(rec.Values[ColumnName])
	if name == "" {
		return Model{}, errors.New("empty name")
	}
	flag, err := strconv.Atoi(strings.TrimSpace(rec.Values[ColumnGender]))
	if err != nil {
		return Model{}, fmt.Errorf("invalid gender %q: %w", rec.Values[ColumnGender], err)
	}
	gender, err := ParseGender(flag)
	if err != nil {
		return Model{}, err
	}
	samples, err := pitch.ParseSamples(rec.Values[ColumnRawData])
	if err != nil {
		return Model{}, err
	}
	return Model{Name: name, Gender: gender, Distribution: pitch.Build(samples, r)}, nil
}

func readMappings(ctx context.Context, models []Model, table Table, report *LoadReport) *AliasMap {
	aliases := NewAliasMap()
	if table == nil {
		return aliases
	}
	report.MappingSource = table.Location()

	rows, err := table.Read(ctx)
	if err != nil {
		report.MappingError = &LoadError{Source: "mappings", Path: table.Location(), Err: err}
		return aliases
	}
	report.MappingEncoding = rows.Encoding
	report.MappingsRead = len(rows.Records) + len(rows.Skipped)
	report.MappingErrors = append(report.MappingErrors, tagRows("mappings", rows.Skipped)...)

	known := make(map[string]struct{}, len(models))
	for _, m := range models {
		known[m.Name] = struct{}{}
	}

	nextID := 1
	for _, rec := range rows.Records {
		name := strings.TrimSpace(rec.Values[ColumnName])
		sub := strings.TrimSpace(rec.Values[ColumnSubName])
		if name == "" || sub == "" {
			report.MappingErrors = append(report.MappingErrors, RowError{
				Source: "mappings", Line: rec.Line, Err: errors.New("empty name or sub_name"),
			})
			continue
		}
		if _, ok := known[name]; !ok {
			report.MappingsUnknown++
			report.MappingErrors = append(report.MappingErrors, RowError{
				Source: "mappings", Line: rec.Line, Err: fmt.Errorf("unknown model name %q", name),
			})
			continue
		}
		aliases.Add(name, Alias{ID: nextID, Name: sub})
		nextID++
		report.MappingsAccepted++
	}
	return aliases
}

func tagRows(source string, skipped []RowError) []RowError {
	out := make([]RowError, len(skipped))
	for i, e := range skipped {
		e.Source = source
		out[i] = e
	}
	return out
}

package judge

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-timbre/catalog"
)

var (
	// ErrNoCandidates is the ranking failure for an empty candidate set.
	ErrNoCandidates = errors.New("no candidate models")
	// ErrFallbackFailed means not even the synthetic fallback result could be built.
	ErrFallbackFailed = errors.New("fallback classification failed")
)

// Outcome says which path produced a Result.
type Outcome int

const (
	OutcomeRanked Outcome = iota
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRanked:
		return "ranked"
	case OutcomeFallback:
		return "fallback"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Filter restricts the candidate set to one gender, or allows both.
type Filter struct {
	gender catalog.Gender
	set    bool
}

// AnyGender compares against the whole catalog.
var AnyGender = Filter{}

// OnlyGender compares against models of g.
func OnlyGender(g catalog.Gender) Filter {
	return Filter{gender: g, set: true}
}

// Gender returns the filtered gender and whether a filter is set.
func (f Filter) Gender() (catalog.Gender, bool) {
	return f.gender, f.set
}

func (f Filter) String() string {
	if !f.set {
		return "any"
	}
	return f.gender.String()
}

// Row is one presented identity. Score is a two-decimal percentage, or empty for the
// opposite-gender match.
type Row struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score string `json:"score,omitempty"`
}

// Result is a classification.
type Result struct {
	Main          Row
	Sub           []Row
	OppositeMatch *Row

	Outcome Outcome
	// Fallback is the reason the fallback path ran; empty for ranked results.
	Fallback string

	// primaryGender is the gender of the main model.
	primaryGender catalog.Gender
}

// PrimaryGender returns the gender partition of the main voice.
func (r *Result) PrimaryGender() catalog.Gender {
	return r.primaryGender
}

type jsonRow struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score string `json:"score"`
}

type jsonIdentity struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type jsonResult struct {
	Main          jsonRow       `json:"main"`
	Sub           []jsonRow     `json:"sub"`
	OppositeMatch *jsonIdentity `json:"opposite_match,omitempty"`
}

// MarshalJSON renders {main, sub, opposite_match?}; the opposite match carries no score.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := jsonResult{
		Main: jsonRow(r.Main),
		Sub:  make([]jsonRow, 0, len(r.Sub)),
	}
	for _, s := range r.Sub {
		out.Sub = append(out.Sub, jsonRow(s))
	}
	if r.OppositeMatch != nil {
		out.OppositeMatch = &jsonIdentity{ID: r.OppositeMatch.ID, Name: r.OppositeMatch.Name}
	}
	return json.Marshal(out)
}

// Format renders the human-readable report.
func Format(r *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Main voice: %s %s%%\n", r.Main.Name, r.Main.Score)
	if r.OppositeMatch != nil {
		fmt.Fprintf(&b, "Best opposite-gender match: %s\n", r.OppositeMatch.Name)
	}
	b.WriteString("Secondary voices:")
	for _, s := range r.Sub {
		fmt.Fprintf(&b, "\n  %s %s%%", s.Name, s.Score)
	}
	return b.String()
}

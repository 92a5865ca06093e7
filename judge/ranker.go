// Package judge ranks a catalog against an observed pitch distribution and assembles the
// presented classification: a main voice, up to three weighted secondary voices and the
// closest voice of the opposite gender.
package judge

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RyanBlaney/sonido-timbre/catalog"
	"github.com/RyanBlaney/sonido-timbre/logging"
	"github.com/RyanBlaney/sonido-timbre/pitch"
	"github.com/RyanBlaney/sonido-timbre/similarity"
)

const (
	// maxSecondaries is how many secondary voices are sampled from the ranked remainder.
	maxSecondaries = 3
	// minSecondaryPercent drops secondaries that contribute less than this.
	minSecondaryPercent = 1.0
	// defaultMainPercent replaces a main percentage that is NaN; secondary i (1-based)
	// gets defaultMainPercent/(i+1).
	defaultMainPercent = 25.0
	// fallbackPerGender and fallbackFiltered size the synthetic candidate set.
	fallbackPerGender = 2
	fallbackFiltered  = 4
)

// RankerConfig configures a Ranker.
type RankerConfig struct {
	Scorer similarity.Scorer // defaults to similarity.Compare
	Logger logging.Logger
}

// DefaultRankerConfig returns the production configuration.
func DefaultRankerConfig() RankerConfig {
	return RankerConfig{Scorer: similarity.Compare}
}

// Ranker classifies observed distributions. It holds no per-request state and is safe
// for concurrent use as long as each call gets its own Rand.
type Ranker struct {
	score  similarity.Scorer
	logger logging.Logger
}

// NewRanker returns a Ranker.
func NewRanker(cfg RankerConfig) *Ranker {
	if cfg.Scorer == nil {
		cfg.Scorer = similarity.Compare
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Ranker{
		score:  cfg.Scorer,
		logger: logger.WithFields(logging.Fields{"component": "judge"}),
	}
}

// candidate is a model with its score against the observed distribution.
type candidate struct {
	model catalog.Model
	score float64
}

// Classify ranks the models of c allowed by filter against observed. Any failure of the
// ranking itself, panics included, is answered with the synthetic fallback result and
// OutcomeFallback; only a failure to build that fallback is returned as an error
// wrapping ErrFallbackFailed. A nil rnd selects a randomly seeded generator.
func (r *Ranker) Classify(c *catalog.Catalog, observed *pitch.Distribution, filter Filter, rnd Rand) (*Result, error) {
	if rnd == nil {
		rnd = NewRand(0)
	}
	logger := r.logger.WithFields(logging.Fields{"function": "Classify", "filter": filter.String()})

	result, err := r.guard(func() (*Result, error) {
		return r.rank(c, observed, filter, rnd, logger)
	})
	if err == nil {
		result.Outcome = OutcomeRanked
		return result, nil
	}

	logger.Warn("Classification failed, using fallback result", logging.Fields{"cause": err.Error()})
	fallback, ferr := r.guard(func() (*Result, error) {
		return r.fallback(c, filter, rnd, logger)
	})
	if ferr != nil {
		return nil, fmt.Errorf("%w: %w (after: %v)", ErrFallbackFailed, ferr, err)
	}
	fallback.Outcome = OutcomeFallback
	fallback.Fallback = err.Error()
	return fallback, nil
}

// guard turns a panic in fn into an error.
func (r *Ranker) guard(fn func() (*Result, error)) (result *Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = nil
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn()
}

func (r *Ranker) rank(c *catalog.Catalog, observed *pitch.Distribution, filter Filter, rnd Rand, logger logging.Logger) (*Result, error) {
	if c == nil {
		return nil, errors.New("nil catalog")
	}
	models := candidatesFor(c, filter)
	if len(models) == 0 {
		return nil, ErrNoCandidates
	}

	ranked := make([]candidate, len(models))
	for i, m := range models {
		ranked[i] = candidate{model: m, score: r.score(observed, m.Distribution)}
		logger.Debug("Scored model", logging.Fields{"model": m.Name, "score": ranked[i].score})
	}
	// stable: equal scores keep catalog order
	slices.SortStableFunc(ranked, func(a, b candidate) int {
		return cmp.Compare(b.score, a.score)
	})

	remaining := ranked[1:]
	selected := make([]candidate, 0, 1+maxSecondaries)
	selected = append(selected, ranked[0])
	for _, idx := range sampleIndices(rnd, len(remaining), maxSecondaries) {
		selected = append(selected, remaining[idx])
	}

	return r.assemble(c, selected, ranked, filter, rnd, logger), nil
}

// fallback scores a fixed slice of the catalog at similarity.FallbackScore each.
func (r *Ranker) fallback(c *catalog.Catalog, filter Filter, rnd Rand, logger logging.Logger) (*Result, error) {
	if c == nil {
		return nil, errors.New("nil catalog")
	}

	var models []catalog.Model
	if g, ok := filter.Gender(); ok {
		models = head(c.ModelsOfGender(g), fallbackFiltered)
	} else {
		models = append(head(c.ModelsOfGender(catalog.Male), fallbackPerGender),
			head(c.ModelsOfGender(catalog.Female), fallbackPerGender)...)
	}
	if len(models) == 0 {
		return nil, ErrNoCandidates
	}

	synthetic := make([]candidate, len(models))
	for i, m := range models {
		synthetic[i] = candidate{model: m, score: similarity.FallbackScore}
	}
	return r.assemble(c, synthetic, synthetic, filter, rnd, logger), nil
}

// assemble turns the selected candidates (primary first) into a Result. ranked is the
// full ordered list used for the opposite-gender match when no filter is set.
func (r *Ranker) assemble(c *catalog.Catalog, selected, ranked []candidate, filter Filter, rnd Rand, logger logging.Logger) *Result {
	total := 0.0
	for _, s := range selected {
		total += s.score
	}
	if total <= 0 {
		logger.Warn("Total score is not positive, using 1.0", logging.Fields{"total": total})
		total = 1.0
	}

	primary := selected[0]
	mainPercent := 100 * primary.score / total
	if math.IsNaN(mainPercent) {
		mainPercent = defaultMainPercent
	}
	result := &Result{
		Main:          Row{ID: primary.model.ID, Name: primary.model.Name, Score: formatPercent(mainPercent)},
		Sub:           make([]Row, 0, len(selected)-1),
		primaryGender: primary.model.Gender,
	}

	for i, s := range selected[1:] {
		position := i + 1
		percent := 100 * s.score / total
		if math.IsNaN(percent) {
			percent = defaultMainPercent / float64(position+1)
		}
		if percent < minSecondaryPercent {
			logger.Debug("Dropped minor secondary voice", logging.Fields{"model": s.model.Name, "percent": percent})
			continue
		}

		row := Row{ID: s.model.ID, Name: s.model.Name, Score: formatPercent(percent)}
		if aliases := c.Aliases(s.model.Name); len(aliases) > 0 {
			alias := aliases[rnd.IntN(len(aliases))]
			row.ID, row.Name = alias.ID, alias.Name
		}
		result.Sub = append(result.Sub, row)
	}

	if _, ok := filter.Gender(); ok {
		result.OppositeMatch = r.closestOpposite(c, primary.model)
	} else {
		result.OppositeMatch = firstOpposite(ranked, primary.model.Gender)
	}
	if result.OppositeMatch == nil {
		logger.Warn("No opposite-gender match", logging.Fields{"main": primary.model.Name})
	}

	logger.Info("Classified voice", logging.Fields{
		"main":       result.Main.Name,
		"main_score": result.Main.Score,
		"secondary":  len(result.Sub),
	})
	return result
}

// closestOpposite compares the primary model's own distribution with every model of the
// other gender. The first maximum in catalog order wins.
func (r *Ranker) closestOpposite(c *catalog.Catalog, primary catalog.Model) *Row {
	var best *Row
	bestScore := math.Inf(-1)
	for _, m := range c.ModelsOfGender(primary.Gender.Opposite()) {
		if s := r.score(primary.Distribution, m.Distribution); s > bestScore {
			bestScore = s
			best = &Row{ID: m.ID, Name: m.Name}
		}
	}
	return best
}

// firstOpposite returns the highest ranked candidate of the other gender.
func firstOpposite(ranked []candidate, g catalog.Gender) *Row {
	for _, cand := range ranked {
		if cand.model.Gender != g {
			return &Row{ID: cand.model.ID, Name: cand.model.Name}
		}
	}
	return nil
}

func candidatesFor(c *catalog.Catalog, filter Filter) []catalog.Model {
	if g, ok := filter.Gender(); ok {
		return c.ModelsOfGender(g)
	}
	return c.All()
}

func head(models []catalog.Model, n int) []catalog.Model {
	if len(models) > n {
		return models[:n]
	}
	return models
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f", p)
}

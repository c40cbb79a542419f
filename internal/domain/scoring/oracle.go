// Package scoring defines the contract for computing team balance scores
// from persona bundles.
package scoring

import (
	"context"
	"math"
	"time"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

// Default oracle configuration constants.
const (
	defaultExpectedCategories = 4
	evennessShare             = 0.40
	diversityShare            = 0.35
	coverageShare             = 0.25
)

// Oracle produces the base balance score for one or more persona bundles.
// The formula is a black box to the rest of the system; implementations
// only promise a result in [0,100].
type Oracle interface {
	// Score aggregates all bundles of a candidate group into one base score.
	Score(ctx context.Context, bundles []model.PersonaBundle) (float64, error)
}

// OracleOption applies a configuration option to the BalanceOracle.
type OracleOption func(*BalanceOracle)

// WithExpectedCategories sets how many persona categories a fully covered
// team is expected to span.
func WithExpectedCategories(n int) OracleOption {
	return func(o *BalanceOracle) {
		if n > 0 {
			o.expectedCategories = n
		}
	}
}

// BalanceOracle implements Oracle with a deterministic balance heuristic:
// even weight distribution across members, alias diversity, and category
// coverage each contribute a fixed share of the score.
type BalanceOracle struct {
	expectedCategories int
}

// NewBalanceOracle creates a balance oracle with configuration options.
func NewBalanceOracle(opts ...OracleOption) *BalanceOracle {
	o := &BalanceOracle{
		expectedCategories: defaultExpectedCategories,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Score computes the base score for the group's bundles.
func (o *BalanceOracle) Score(ctx context.Context, bundles []model.PersonaBundle) (float64, error) {
	start := time.Now()
	defer func() {
		metrics.RecordOracleLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	metrics.RecordOracleCall()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(bundles) == 0 {
		return 0, ErrNoBundles
	}

	memberWeights := make([]float64, 0, len(bundles))
	aliases := make(map[string]struct{})
	categories := make(map[string]struct{})
	var assignments int

	for _, b := range bundles {
		var total float64
		for _, a := range b {
			total += a.Weight
			aliases[a.Alias] = struct{}{}
			categories[a.Category] = struct{}{}
			assignments++
		}
		memberWeights = append(memberWeights, total)
	}
	if assignments == 0 {
		return 0, ErrNoBundles
	}

	evenness := weightEvenness(memberWeights)
	diversity := float64(len(aliases)) / float64(assignments)
	coverage := math.Min(1, float64(len(categories))/float64(o.expectedCategories))

	score := 100 * (evennessShare*evenness + diversityShare*diversity + coverageShare*coverage)
	return math.Max(0, math.Min(100, score)), nil
}

// weightEvenness maps the spread of per-member weight totals to [0,1],
// where 1 means every member carries the same total weight.
func weightEvenness(weights []float64) float64 {
	if len(weights) < 2 {
		return 1
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	mean := sum / float64(len(weights))
	if mean == 0 {
		return 1
	}
	var variance float64
	for _, w := range weights {
		d := w - mean
		variance += d * d
	}
	variance /= float64(len(weights))
	cv := math.Sqrt(variance) / mean
	// cv of 0 is perfectly even; cv >= 1 counts as fully uneven.
	return math.Max(0, 1-cv)
}

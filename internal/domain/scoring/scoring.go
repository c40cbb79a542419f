// Package scoring defines the contract for computing team balance scores
// from persona bundles.
package scoring

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/okian/huddle/internal/domain/feedback"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

// Default scorer configuration constants.
const (
	// StudentCategory scopes which assignments feed the pairwise adjustment.
	StudentCategory = "student"

	defaultMaxAdjustment = 15.0
	maxScoreValue        = 100.0
)

// BundleSource supplies persona bundles for actors. Implemented by the
// roster store; callers wrap it in a per-request cache so repeated lookups
// of the same actor hit the store once.
type BundleSource interface {
	// BundleFor returns all assignments of an actor, possibly empty.
	BundleFor(ctx context.Context, actorID string) (model.PersonaBundle, error)
}

// Scorer computes one clamped score for a candidate group.
type Scorer interface {
	// Score combines the oracle's base score for the group with the learned
	// pairwise adjustment for the group's primary student personas.
	Score(ctx context.Context, actorIDs []string, delta feedback.PairDelta) (float64, error)
}

// Option applies a configuration option to the TeamScorer.
type Option func(*TeamScorer)

// WithOracle swaps the base compatibility oracle.
func WithOracle(o Oracle) Option {
	return func(s *TeamScorer) {
		if o != nil {
			s.oracle = o
		}
	}
}

// WithMaxAdjustment sets the cap on the absolute feedback adjustment.
func WithMaxAdjustment(max float64) Option {
	return func(s *TeamScorer) {
		if max > 0 {
			s.maxAdjustment = max
		}
	}
}

// TeamScorer implements Scorer on top of an Oracle and a BundleSource.
type TeamScorer struct {
	oracle        Oracle
	bundles       BundleSource
	maxAdjustment float64
}

// NewTeamScorer creates a team scorer with configuration options.
func NewTeamScorer(bundles BundleSource, opts ...Option) (*TeamScorer, error) {
	if bundles == nil {
		return nil, ErrNoBundleStore
	}

	s := &TeamScorer{
		oracle:        NewBalanceOracle(),
		bundles:       bundles,
		maxAdjustment: defaultMaxAdjustment,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Score computes the final clamped score for a group.
//
// An actor with no assignments contributes no bundle; a group where nobody
// has assignments scores a base of 0. An oracle failure likewise degrades
// to a 0 base rather than failing the group, so one ungraded group never
// blocks forming the rest.
func (s *TeamScorer) Score(ctx context.Context, actorIDs []string, delta feedback.PairDelta) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	bundles := make([]model.PersonaBundle, 0, len(actorIDs))
	aliases := make([]string, 0, len(actorIDs))
	for _, id := range actorIDs {
		b, err := s.bundles.BundleFor(ctx, id)
		if err != nil {
			metrics.RecordBundleSourceError()
			continue
		}
		if len(b) == 0 {
			continue
		}
		bundles = append(bundles, b)
		if alias, ok := PrimaryStudentAlias(b); ok {
			aliases = append(aliases, alias)
		}
	}

	var base float64
	if len(bundles) > 0 {
		v, err := s.oracle.Score(ctx, bundles)
		if err != nil && !errors.Is(err, ErrNoBundles) {
			metrics.RecordOracleError()
		}
		if err == nil {
			base = v
		}
	}

	// Empty delta short-circuits; identical to summing all-zero deltas.
	var adjustment float64
	if len(delta) > 0 {
		adjustment = s.pairAdjustment(aliases, delta)
	}

	score := round2(clamp(base+adjustment, 0, maxScoreValue))
	metrics.RecordTeamScore(score)
	return score, nil
}

// pairAdjustment sums learned deltas over every unordered pair of primary
// student aliases and clamps the total to the configured cap. The cap is
// independent of group size.
func (s *TeamScorer) pairAdjustment(aliases []string, delta feedback.PairDelta) float64 {
	if len(aliases) < 2 {
		return 0
	}
	var total float64
	for i := 0; i < len(aliases); i++ {
		for j := i + 1; j < len(aliases); j++ {
			total += delta.Get(aliases[i], aliases[j])
		}
	}
	return clamp(total, -s.maxAdjustment, s.maxAdjustment)
}

// PrimaryStudentAlias picks the most important student-category persona of
// a bundle: highest weight wins, ties break by most recent selection, and
// a remaining tie breaks by alias so the choice stays deterministic.
// Returns false when the bundle holds no student-category assignment.
func PrimaryStudentAlias(b model.PersonaBundle) (string, bool) {
	students := make([]model.PersonaAssignment, 0, len(b))
	for _, a := range b {
		if a.Category == StudentCategory {
			students = append(students, a)
		}
	}
	if len(students) == 0 {
		return "", false
	}
	sort.Slice(students, func(i, j int) bool {
		if students[i].Weight != students[j].Weight {
			return students[i].Weight > students[j].Weight
		}
		if !students[i].SelectedAt.Equal(students[j].SelectedAt) {
			return students[i].SelectedAt.After(students[j].SelectedAt)
		}
		return students[i].Alias < students[j].Alias
	})
	return students[0].Alias, true
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// Package feedback turns historical team outcomes into pairwise persona
// score adjustments.
package feedback

import (
	"context"

	"github.com/okian/huddle/internal/domain/model"
	"github.com/okian/huddle/pkg/metrics"
)

// Default learner configuration constants.
const (
	defaultAlpha      = 2.0
	neutralRating     = 3.0
	minPersonasPerRow = 2
)

// PairDelta maps unordered persona-alias pairs to a learned adjustment.
// Built fresh per request; an empty map is a valid "no adjustment" outcome.
type PairDelta map[model.PairKey]float64

// Get returns the adjustment for an alias pair, zero when unknown.
func (d PairDelta) Get(a, b string) float64 {
	return d[model.NewPairKey(a, b)]
}

// Learner converts feedback records into a PairDelta.
type Learner interface {
	// Learn folds records into pairwise adjustments. Invalid records are
	// skipped, never fatal; the result may be empty.
	Learn(ctx context.Context, records []model.FeedbackRecord) PairDelta
}

// Option applies a configuration option to the AveragingLearner.
type Option func(*AveragingLearner)

// WithAlpha sets the learning rate applied to centered ratings.
func WithAlpha(alpha float64) Option {
	return func(l *AveragingLearner) {
		if alpha > 0 {
			l.alpha = alpha
		}
	}
}

// AveragingLearner implements Learner by centering the mean of the two
// ratings around neutral and spreading the resulting delta over every
// unordered persona pair in the record.
type AveragingLearner struct {
	alpha float64
}

// NewAveragingLearner creates a learner with configuration options.
func NewAveragingLearner(opts ...Option) *AveragingLearner {
	l := &AveragingLearner{
		alpha: defaultAlpha,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Alpha returns the configured learning rate.
func (l *AveragingLearner) Alpha() float64 {
	return l.alpha
}

// cleanRecord is a record that survived sanitization.
type cleanRecord struct {
	aliases []string
	student int
	teacher int
}

// sanitize drops malformed records: fewer than two non-blank aliases, or
// an effective rating outside 1..5. Missing ratings already read back as
// neutral from model.Rating.
func sanitize(records []model.FeedbackRecord) []cleanRecord {
	cleaned := make([]cleanRecord, 0, len(records))
	for _, r := range records {
		aliases := make([]string, 0, len(r.Personas))
		for _, p := range r.Personas {
			if p.Alias != "" {
				aliases = append(aliases, p.Alias)
			}
		}
		if len(aliases) < minPersonasPerRow {
			metrics.RecordFeedbackRowDropped("too_few_personas")
			continue
		}
		if !r.StudentRating.InRange() || !r.TeacherRating.InRange() {
			metrics.RecordFeedbackRowDropped("rating_out_of_range")
			continue
		}
		cleaned = append(cleaned, cleanRecord{
			aliases: aliases,
			student: r.StudentRating.Value(),
			teacher: r.TeacherRating.Value(),
		})
	}
	return cleaned
}

// Learn implements Learner. Accumulation is plain addition, so the result
// does not depend on record order. A record with k personas contributes the
// same delta to all k*(k-1)/2 pairs.
func (l *AveragingLearner) Learn(_ context.Context, records []model.FeedbackRecord) PairDelta {
	delta := make(PairDelta)

	for _, r := range sanitize(records) {
		avg := (float64(r.student) + float64(r.teacher)) / 2.0 // 1..5
		d := (avg - neutralRating) * l.alpha                   // -2..+2 scaled

		for i := 0; i < len(r.aliases); i++ {
			for j := i + 1; j < len(r.aliases); j++ {
				delta[model.NewPairKey(r.aliases[i], r.aliases[j])] += d
			}
		}
		metrics.RecordFeedbackRowAccepted()
	}

	metrics.UpdateLearnedPairs(len(delta))
	return delta
}

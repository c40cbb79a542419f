package scoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	feedback "github.com/okian/huddle/internal/domain/feedback"
	model "github.com/okian/huddle/internal/domain/model"
	scoring "github.com/okian/huddle/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

// stubBundles serves fixed bundles keyed by actor id.
type stubBundles struct {
	bundles map[string]model.PersonaBundle
	err     error
}

func (s *stubBundles) BundleFor(_ context.Context, actorID string) (model.PersonaBundle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bundles[actorID], nil
}

// stubOracle returns a fixed base score or a fixed error.
type stubOracle struct {
	score float64
	err   error
	calls int
}

func (s *stubOracle) Score(_ context.Context, _ []model.PersonaBundle) (float64, error) {
	s.calls++
	if s.err != nil {
		return 0, s.err
	}
	return s.score, nil
}

func assignment(actorID, alias string, weight float64, selectedAt time.Time) model.PersonaAssignment {
	return model.PersonaAssignment{
		ActorID:    actorID,
		PersonaID:  "p-" + alias,
		Alias:      alias,
		Category:   scoring.StudentCategory,
		Weight:     weight,
		SelectedAt: selectedAt,
	}
}

func TestTeamScorer_Score(t *testing.T) {
	Convey("Given a team scorer with a deterministic oracle", t, func() {
		ctx := context.Background()
		now := time.Now()

		bundles := &stubBundles{bundles: map[string]model.PersonaBundle{
			"u1": {assignment("u1", "indy", 2, now)},
			"u2": {assignment("u2", "salem", 1, now)},
			"u3": {}, // no assignments
		}}
		oracle := &stubOracle{score: 70}
		scorer, err := scoring.NewTeamScorer(bundles, scoring.WithOracle(oracle))
		So(err, ShouldBeNil)

		Convey("When scoring with an empty pair delta", func() {
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, nil)

			Convey("Then the base score should pass through", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 70.0)
				So(oracle.calls, ShouldEqual, 1)
			})
		})

		Convey("When a positive adjustment is learned for the pair", func() {
			delta := feedback.PairDelta{model.NewPairKey("indy", "salem"): 6.0}
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, delta)

			Convey("Then the adjustment should be added to the base", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 76.0)
			})
		})

		Convey("When the raw adjustment exceeds the cap", func() {
			delta := feedback.PairDelta{model.NewPairKey("indy", "salem"): 40.0}
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, delta)

			Convey("Then it should clamp to +15", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 85.0)
			})
		})

		Convey("When a large penalty is learned", func() {
			delta := feedback.PairDelta{model.NewPairKey("indy", "salem"): -50.0}
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, delta)

			Convey("Then it should clamp to -15", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 55.0)
			})
		})

		Convey("When the adjusted score would leave [0,100]", func() {
			oracle.score = 95
			delta := feedback.PairDelta{model.NewPairKey("indy", "salem"): 14.0}
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, delta)

			Convey("Then the final clamp should hold", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 100.0)
			})
		})

		Convey("When no actor in the group has assignments", func() {
			score, err := scorer.Score(ctx, []string{"u3", "unknown"}, nil)

			Convey("Then the base should be zero without calling the oracle", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 0.0)
				So(oracle.calls, ShouldEqual, 0)
			})
		})

		Convey("When the oracle is unavailable", func() {
			oracle.err = errors.New("model endpoint down")
			delta := feedback.PairDelta{model.NewPairKey("indy", "salem"): 5.0}
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, delta)

			Convey("Then the group degrades to a zero base plus adjustment", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 5.0)
			})
		})

		Convey("When the result needs rounding", func() {
			oracle.score = 66.666
			score, err := scorer.Score(ctx, []string{"u1", "u2"}, nil)

			Convey("Then it should round to 2 decimal places", func() {
				So(err, ShouldBeNil)
				So(score, ShouldEqual, 66.67)
			})
		})
	})

	Convey("Given a scorer without a bundle source", t, func() {
		_, err := scoring.NewTeamScorer(nil)

		Convey("Then construction should fail", func() {
			So(err, ShouldEqual, scoring.ErrNoBundleStore)
		})
	})
}

func TestPrimaryStudentAlias(t *testing.T) {
	Convey("Given an actor's persona bundle", t, func() {
		now := time.Now()

		Convey("When one student persona outweighs the rest", func() {
			alias, ok := scoring.PrimaryStudentAlias(model.PersonaBundle{
				assignment("u1", "indy", 1, now),
				assignment("u1", "salem", 3, now),
			})

			Convey("Then the heaviest alias should win", func() {
				So(ok, ShouldBeTrue)
				So(alias, ShouldEqual, "salem")
			})
		})

		Convey("When weights tie", func() {
			alias, ok := scoring.PrimaryStudentAlias(model.PersonaBundle{
				assignment("u1", "indy", 2, now.Add(-time.Hour)),
				assignment("u1", "salem", 2, now),
			})

			Convey("Then the most recent selection should win", func() {
				So(ok, ShouldBeTrue)
				So(alias, ShouldEqual, "salem")
			})
		})

		Convey("When weight and timestamp both tie", func() {
			alias, ok := scoring.PrimaryStudentAlias(model.PersonaBundle{
				assignment("u1", "salem", 2, now),
				assignment("u1", "indy", 2, now),
			})

			Convey("Then the lexicographically smallest alias should win", func() {
				So(ok, ShouldBeTrue)
				So(alias, ShouldEqual, "indy")
			})
		})

		Convey("When only non-student personas exist", func() {
			b := model.PersonaBundle{{
				ActorID: "u1", PersonaID: "p-owl", Alias: "owl",
				Category: "mentor", Weight: 5, SelectedAt: now,
			}}
			_, ok := scoring.PrimaryStudentAlias(b)

			Convey("Then no alias should be contributed", func() {
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestBalanceOracle(t *testing.T) {
	Convey("Given the default balance oracle", t, func() {
		oracle := scoring.NewBalanceOracle()
		ctx := context.Background()
		now := time.Now()

		Convey("When scoring an evenly weighted, diverse group", func() {
			score, err := oracle.Score(ctx, []model.PersonaBundle{
				{assignment("u1", "indy", 2, now)},
				{assignment("u2", "salem", 2, now)},
			})

			Convey("Then the score should land in [0,100]", func() {
				So(err, ShouldBeNil)
				So(score, ShouldBeGreaterThanOrEqualTo, 0)
				So(score, ShouldBeLessThanOrEqualTo, 100)
			})

			Convey("And it should be deterministic", func() {
				again, err := oracle.Score(ctx, []model.PersonaBundle{
					{assignment("u1", "indy", 2, now)},
					{assignment("u2", "salem", 2, now)},
				})
				So(err, ShouldBeNil)
				So(again, ShouldEqual, score)
			})
		})

		Convey("When the group is lopsided", func() {
			even, err := oracle.Score(ctx, []model.PersonaBundle{
				{assignment("u1", "indy", 2, now)},
				{assignment("u2", "salem", 2, now)},
			})
			So(err, ShouldBeNil)

			uneven, err := oracle.Score(ctx, []model.PersonaBundle{
				{assignment("u1", "indy", 9, now)},
				{assignment("u2", "salem", 1, now)},
			})

			Convey("Then the even group should score at least as well", func() {
				So(err, ShouldBeNil)
				So(even, ShouldBeGreaterThanOrEqualTo, uneven)
			})
		})

		Convey("When there are no bundles", func() {
			_, err := oracle.Score(ctx, nil)

			Convey("Then it should report the empty input", func() {
				So(err, ShouldEqual, scoring.ErrNoBundles)
			})
		})
	})
}

package service //nolint:testpackage // testing internal helpers

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/huddle/internal/domain/formation"
	"github.com/okian/huddle/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func startedService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc := New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)
	return svc
}

func seedRoster(t *testing.T, svc *Service, actorIDs []string) {
	t.Helper()
	ctx := context.Background()

	for _, id := range actorIDs {
		if err := svc.UpsertActor(ctx, model.Actor{ID: id, Name: "Actor " + id}); err != nil {
			t.Fatalf("upsert actor %s: %v", id, err)
		}
	}

	personas := []model.Persona{
		{Alias: "planner", Category: "student", Title: "The Planner", Description: "Organizes the work"},
		{Alias: "builder", Category: "student", Title: "The Builder", Description: "Gets things done"},
		{Alias: "mentor", Category: "coach", Title: "The Mentor", Description: "Guides the others"},
	}
	created := make([]model.Persona, 0, len(personas))
	for _, p := range personas {
		cp, err := svc.CreatePersona(ctx, p)
		if err != nil {
			t.Fatalf("create persona %s: %v", p.Alias, err)
		}
		created = append(created, cp)
	}

	for i, id := range actorIDs {
		p := created[i%len(created)]
		if _, err := svc.SelectPersona(ctx, id, p.ID, 0); err != nil {
			t.Fatalf("select persona for %s: %v", id, err)
		}
	}
}

func TestService_Lifecycle(t *testing.T) {
	convey.Convey("Given a new service", t, func() {
		svc := New(
			WithShardCount(4),
			WithTrialWorkerCount(2),
			WithTrialBudgets(10, 20),
			WithFeedbackAlpha(1.5),
			WithMaxPairAdjustment(10),
			WithBundleCacheSize(100),
			WithDefaultWeight(2.0),
			WithExpectedCategories(3),
		)

		convey.Convey("When started", func() {
			err := svc.Start(context.Background())
			defer svc.Stop()

			convey.So(err, convey.ShouldBeNil)

			convey.Convey("Then starting again is a no-op", func() {
				convey.So(svc.Start(context.Background()), convey.ShouldBeNil)
			})

			convey.Convey("Then stats reflect configuration", func() {
				stats := svc.GetStats()
				convey.So(stats["started"], convey.ShouldBeTrue)
				convey.So(stats["shardCount"], convey.ShouldEqual, 4)
				convey.So(stats["trials"], convey.ShouldEqual, 10)
				convey.So(stats["trialsWithFeedback"], convey.ShouldEqual, 20)
			})
		})
	})
}

func TestService_FormGroups(t *testing.T) {
	convey.Convey("Given a started service with a seeded roster", t, func() {
		svc := startedService(t, WithTrialBudgets(5, 10), WithTrialWorkerCount(1))
		actorIDs := []string{"a1", "a2", "a3", "a4", "a5"}
		seedRoster(t, svc, actorIDs)

		convey.Convey("When forming groups of 2", func() {
			res, err := svc.FormGroups(context.Background(), actorIDs, 2, nil, false)

			convey.So(err, convey.ShouldBeNil)
			convey.So(res, convey.ShouldNotBeNil)
			convey.So(len(res.Groups), convey.ShouldEqual, 3)
			convey.So(res.Method, convey.ShouldEqual, formation.MethodAI)
			convey.So(res.FeedbackUsed, convey.ShouldBeFalse)

			total := 0
			for _, g := range res.Groups {
				total += len(g.ActorIDs)
				convey.So(g.Score, convey.ShouldBeBetweenOrEqual, 0, 100)
			}
			convey.So(total, convey.ShouldEqual, len(actorIDs))
		})

		convey.Convey("When a requested actor is unknown", func() {
			_, err := svc.FormGroups(context.Background(), []string{"a1", "ghost"}, 2, nil, false)

			convey.So(err, convey.ShouldNotBeNil)
			missing, ok := formation.AsMissingActors(err)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(missing.IDs, convey.ShouldResemble, []string{"ghost"})
		})

		convey.Convey("When feedback rows are supplied", func() {
			records := []model.FeedbackRecord{
				{
					Personas:      []model.PersonaRef{{Alias: "planner"}, {Alias: "builder"}},
					StudentRating: model.NewRating(5),
					TeacherRating: model.NewRating(5),
				},
			}

			res, err := svc.FormGroups(context.Background(), actorIDs, 2, records, true)

			convey.So(err, convey.ShouldBeNil)
			convey.So(res.Method, convey.ShouldEqual, formation.MethodAIFeedback)
			convey.So(res.FeedbackUsed, convey.ShouldBeTrue)
			convey.So(res.LearnedPairs, convey.ShouldEqual, 1)
		})
	})
}

func TestService_EvaluateGroup(t *testing.T) {
	convey.Convey("Given a started service with a seeded roster", t, func() {
		svc := startedService(t)
		actorIDs := []string{"e1", "e2", "e3"}
		seedRoster(t, svc, actorIDs)

		convey.Convey("When evaluating a seeded group", func() {
			ev, err := svc.EvaluateGroup(context.Background(), actorIDs)

			convey.So(err, convey.ShouldBeNil)
			convey.So(ev.Score, convey.ShouldBeBetweenOrEqual, 0, 100)
			convey.So(ev.Verdict, convey.ShouldNotBeEmpty)
			convey.So(len(ev.Members), convey.ShouldEqual, len(actorIDs))
			convey.So(len(ev.Members[0].Personas), convey.ShouldBeGreaterThan, 0)
			convey.So(ev.Members[0].Personas[0].Title, convey.ShouldNotBeEmpty)
		})

		convey.Convey("When no member has any personas", func() {
			ctx := context.Background()
			convey.So(svc.UpsertActor(ctx, model.Actor{ID: "bare1", Name: "Bare"}), convey.ShouldBeNil)
			convey.So(svc.UpsertActor(ctx, model.Actor{ID: "bare2", Name: "Bare"}), convey.ShouldBeNil)

			ev, err := svc.EvaluateGroup(ctx, []string{"bare1", "bare2"})

			convey.So(err, convey.ShouldBeNil)
			convey.So(ev.Score, convey.ShouldEqual, 0.0)
			convey.So(ev.Verdict, convey.ShouldEqual, verdictNoPersonas)
			convey.So(len(ev.Members), convey.ShouldEqual, 2)
			convey.So(ev.Members[0].Personas, convey.ShouldBeEmpty)
		})

		convey.Convey("When the group is empty", func() {
			_, err := svc.EvaluateGroup(context.Background(), nil)

			convey.So(errors.Is(err, formation.ErrNoActors), convey.ShouldBeTrue)
		})

		convey.Convey("When a member is unknown", func() {
			_, err := svc.EvaluateGroup(context.Background(), []string{"e1", "nope"})

			convey.So(err, convey.ShouldNotBeNil)
			_, ok := formation.AsMissingActors(err)
			convey.So(ok, convey.ShouldBeTrue)
		})
	})
}

func TestVerdictFor(t *testing.T) {
	convey.Convey("Given the verdict bands", t, func() {
		convey.So(verdictFor(92), convey.ShouldEqual, verdictExcellent)
		convey.So(verdictFor(80), convey.ShouldEqual, verdictExcellent)
		convey.So(verdictFor(79.99), convey.ShouldEqual, verdictGood)
		convey.So(verdictFor(70), convey.ShouldEqual, verdictGood)
		convey.So(verdictFor(65), convey.ShouldEqual, verdictFair)
		convey.So(verdictFor(60), convey.ShouldEqual, verdictFair)
		convey.So(verdictFor(59.99), convey.ShouldEqual, verdictPoor)
		convey.So(verdictFor(0), convey.ShouldEqual, verdictPoor)
	})
}

func TestService_RosterPassthrough(t *testing.T) {
	convey.Convey("Given a started service", t, func() {
		svc := startedService(t)
		ctx := context.Background()

		convey.Convey("When managing actors and personas", func() {
			convey.So(svc.UpsertActor(ctx, model.Actor{ID: "p1", Name: "One"}), convey.ShouldBeNil)

			got, err := svc.GetActor(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(got.Name, convey.ShouldEqual, "One")

			p, err := svc.CreatePersona(ctx, model.Persona{
				Alias: "scout", Category: "student", Title: "Scout", Description: "Finds the path",
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.ID, convey.ShouldNotBeEmpty)

			asg, err := svc.SelectPersona(ctx, "p1", p.ID, 0)
			convey.So(err, convey.ShouldBeNil)
			convey.So(asg.Weight, convey.ShouldEqual, 1.0) // default weight applied

			bundle, err := svc.BundleFor(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(bundle), convey.ShouldEqual, 1)

			byCat, err := svc.SelectionsByCategory(ctx, "p1")
			convey.So(err, convey.ShouldBeNil)
			convey.So(byCat["student"].Alias, convey.ShouldEqual, "scout")

			cat, err := svc.RemoveSelection(ctx, "p1", p.ID)
			convey.So(err, convey.ShouldBeNil)
			convey.So(cat, convey.ShouldEqual, "student")

			_, err = svc.DeletePersona(ctx, p.ID)
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

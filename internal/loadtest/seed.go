package loadtest

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/okian/huddle/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	weightMin          = 0.5
	weightRange        = 2.5
	selectionsPerActor = 2
)

// personaSeed is one catalog entry the test creates on the target service.
type personaSeed struct {
	base        string
	category    string
	title       string
	description string
}

// personaCatalog covers four categories so coverage scoring has room to
// differentiate groups.
var personaCatalog = []personaSeed{
	{"planner", "student", "The Planner", "Breaks work into steps and keeps the group on schedule"},
	{"builder", "student", "The Builder", "Prefers making progress over discussing it"},
	{"questioner", "student", "The Questioner", "Challenges assumptions before the group commits"},
	{"explainer", "student", "The Explainer", "Restates hard ideas until everyone follows"},
	{"optimist", "mindset", "The Optimist", "Keeps momentum when the group gets stuck"},
	{"skeptic", "mindset", "The Skeptic", "Stress-tests plans before they ship"},
	{"anchor", "role", "The Anchor", "Holds the group to its own decisions"},
	{"scout", "role", "The Scout", "Hunts for resources and prior art"},
	{"bridge", "social", "The Bridge", "Pulls quiet members into the conversation"},
	{"referee", "social", "The Referee", "Settles disagreements without taking sides"},
}

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// randomIndex returns a random int in [0, n).
func randomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// seededRoster is what seedRoster leaves behind on the target service.
type seededRoster struct {
	actorIDs   []string
	personaIDs []string
	aliases    []string
}

// seedRoster creates actors, a persona catalog, and persona selections on
// the target service. Aliases get a per-run suffix so repeated runs against
// a long-lived instance never collide.
func seedRoster(ctx context.Context, client *HTTPClient, config *Config, stats *Stats) (*seededRoster, error) {
	logger.Get().Info(ctx, "seeding roster",
		logger.Int("actors", config.NumActors),
		logger.Int("personas", len(personaCatalog)))

	runTag := uuid.New().String()[:8]
	roster := &seededRoster{}

	// Persona catalog first so selections can reference it.
	for _, seed := range personaCatalog {
		alias := fmt.Sprintf("%s-%s", seed.base, runTag)
		created, err := createPersona(ctx, client, config.BaseURL, personaPayload{
			Alias:       alias,
			Category:    seed.category,
			Title:       seed.title,
			Description: seed.description,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create persona %s: %w", alias, err)
		}
		roster.personaIDs = append(roster.personaIDs, created.ID)
		roster.aliases = append(roster.aliases, created.Alias)
	}
	stats.PersonasSeeded = len(roster.personaIDs)

	// Actors with a couple of persona selections each.
	for i := 0; i < config.NumActors; i++ {
		actorID := fmt.Sprintf("actor-%s-%d", runTag, i)
		if err := createActor(ctx, client, config.BaseURL, actorID, fmt.Sprintf("Test Actor %d", i)); err != nil {
			return nil, fmt.Errorf("failed to create actor %s: %w", actorID, err)
		}
		roster.actorIDs = append(roster.actorIDs, actorID)

		for s := 0; s < selectionsPerActor; s++ {
			idx := randomIndex(len(roster.personaIDs))
			weight := weightMin + getRandomFloat()*weightRange
			if err := selectPersona(ctx, client, config.BaseURL, actorID, roster.personaIDs[idx], weight); err != nil {
				return nil, fmt.Errorf("failed to select persona for %s: %w", actorID, err)
			}
			stats.SelectionsMade++
		}
	}
	stats.ActorsSeeded = len(roster.actorIDs)

	logger.Get().Info(ctx, "roster seeded",
		logger.Int("actors", stats.ActorsSeeded),
		logger.Int("personas", stats.PersonasSeeded),
		logger.Int("selections", stats.SelectionsMade))

	return roster, nil
}

// randomFeedbackRows builds synthetic prior-session rows over the seeded
// aliases: a few highly rated pairs and a few poorly rated ones.
func randomFeedbackRows(aliases []string, rows int) []FeedbackRow {
	out := make([]FeedbackRow, 0, rows)
	for i := 0; i < rows; i++ {
		a := aliases[randomIndex(len(aliases))]
		b := aliases[randomIndex(len(aliases))]
		if a == b {
			continue
		}
		rating := 5
		if i%2 == 1 {
			rating = 1
		}
		out = append(out, FeedbackRow{
			Personas:      []string{a, b},
			StudentRating: rating,
			TeacherRating: rating,
		})
	}
	return out
}

// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Rating defaults and bounds on the 1..5 feedback scale.
const (
	RatingDefault = 3
	RatingMin     = 1
	RatingMax     = 5
)

// Actor represents a roster member (a student) owned by the persona store.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Persona is a labeled trait bundle actors can select with a weight.
type Persona struct {
	ID          string            `json:"id"`
	Alias       string            `json:"alias"`
	Category    string            `json:"category"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	EmpathyMap  map[string]string `json:"empathy_map,omitempty"`
}

// PersonaAssignment links an actor to a persona with a weight.
// The store keeps at most one active assignment per category per actor.
type PersonaAssignment struct {
	ActorID    string    `json:"actor_id"`
	PersonaID  string    `json:"persona_id"`
	Alias      string    `json:"alias"`
	Category   string    `json:"category"`
	Weight     float64   `json:"weight"`
	SelectedAt time.Time `json:"selected_at"`
}

// PersonaBundle is the full set of one actor's assignments. The scorer
// treats it as opaque and hands it to the oracle whole.
type PersonaBundle []PersonaAssignment

// Rating is a tolerant 1..5 rating. Missing or unparseable values decode
// as unset and read back as the neutral default.
type Rating struct {
	value int
	set   bool
}

// NewRating builds a set rating; mainly for tests and generators.
func NewRating(v int) Rating {
	return Rating{value: v, set: true}
}

// Value returns the decoded rating, or the neutral default when unset.
func (r Rating) Value() int {
	if !r.set {
		return RatingDefault
	}
	return r.value
}

// InRange reports whether the effective rating falls inside 1..5.
func (r Rating) InRange() bool {
	v := r.Value()
	return v >= RatingMin && v <= RatingMax
}

// UnmarshalJSON accepts a JSON number (fractions truncate) or an integer
// string. Anything else leaves the rating unset rather than erroring, so a
// malformed rating never fails the surrounding record.
func (r *Rating) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*r = Rating{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			*r = Rating{}
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(unquoted))
		if err != nil {
			*r = Rating{}
			return nil
		}
		*r = Rating{value: n, set: true}
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*r = Rating{}
		return nil
	}
	*r = Rating{value: int(f), set: true}
	return nil
}

// MarshalJSON writes the effective value.
func (r Rating) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value())
}

// PersonaRef is a persona identifier inside a feedback row. Rows may carry
// bare alias strings or objects with an "alias" field; both decode to the
// trimmed alias, and anything else decodes to an empty (discardable) ref.
type PersonaRef struct {
	Alias string
}

// UnmarshalJSON accepts "alias" or {"alias": ...}.
func (p *PersonaRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		p.Alias = strings.TrimSpace(s)
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err == nil {
		if v, ok := obj["alias"]; ok {
			p.Alias = strings.TrimSpace(fmt.Sprint(v))
		}
		return nil
	}
	p.Alias = ""
	return nil
}

// MarshalJSON writes the bare alias form.
func (p PersonaRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Alias)
}

// FeedbackRecord is one historical team outcome: the personas that
// co-occurred and two independent 1..5 ratings. Request-scoped input;
// never persisted.
type FeedbackRecord struct {
	Personas      []PersonaRef `json:"personas"`
	StudentRating Rating       `json:"student_rating_1to5"`
	TeacherRating Rating       `json:"teacher_rating_1to5"`
}

// UnmarshalJSON absorbs rows that are not object-shaped, or whose fields
// cannot decode, into a zero record. Sanitization drops the zero record
// later, so one malformed row never fails the surrounding request.
func (f *FeedbackRecord) UnmarshalJSON(b []byte) error {
	*f = FeedbackRecord{}
	if !strings.HasPrefix(strings.TrimSpace(string(b)), "{") {
		return nil
	}
	type plain FeedbackRecord
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*f = FeedbackRecord(p)
	return nil
}

// PairKey is an unordered persona-alias pair in canonical order (A <= B).
type PairKey struct {
	A string
	B string
}

// NewPairKey canonicalizes the pair by lexicographic order.
func NewPairKey(a, b string) PairKey {
	if b < a {
		a, b = b, a
	}
	return PairKey{A: a, B: b}
}

// Trial is one randomized partition attempt: a sequence number and a
// permutation of the input actor ids, not yet sliced into groups.
type Trial struct {
	Seq   int
	Order []string
}

// ScoredGroup is one group of a candidate partition with its team score.
type ScoredGroup struct {
	ActorIDs []string `json:"actor_ids"`
	Score    float64  `json:"team_score"`
}

// TrialResult is a fully scored trial: the partition and its mean fitness.
type TrialResult struct {
	Seq     int
	Groups  []ScoredGroup
	Fitness float64
}

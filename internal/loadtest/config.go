package loadtest

import "time"

// Config holds configuration for the formation load test.
type Config struct {
	BaseURL      string        // Base URL of the service
	NumActors    int           // Number of actors to seed
	NumRequests  int           // Number of formation requests to submit
	GroupSize    int           // Fixed group size; 0 picks one at random per request
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Output file for the run summary
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
	WithFeedback bool          // Attach synthetic feedback rows to requests
}

// FormGroupsRequest mirrors the POST /form-groups schema.
type FormGroupsRequest struct {
	ActorIDs            []string      `json:"actor_ids"`
	GroupSize           int           `json:"group_size"`
	IncorporateFeedback bool          `json:"incorporate_prior_experiences"`
	FeedbackRows        []FeedbackRow `json:"feedback_rows,omitempty"`
}

// FeedbackRow mirrors one prior-session observation.
type FeedbackRow struct {
	Personas      []string `json:"personas"`
	StudentRating int      `json:"student_rating_1to5"`
	TeacherRating int      `json:"teacher_rating_1to5"`
}

// ScoredGroup mirrors one group in a formation response.
type ScoredGroup struct {
	ActorIDs []string `json:"actor_ids"`
	Score    float64  `json:"team_score"`
}

// FormationResult mirrors the POST /form-groups response.
type FormationResult struct {
	Groups       []ScoredGroup `json:"groups"`
	AverageScore float64       `json:"average_score"`
	Method       string        `json:"method"`
	FeedbackUsed bool          `json:"feedback_used"`
	LearnedPairs int           `json:"learned_pairs"`
}

// Evaluation mirrors the POST /evaluate-group response.
type Evaluation struct {
	Score   float64 `json:"team_score"`
	Members []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"members"`
	Verdict string `json:"evaluation"`
}

// Stats holds test statistics.
type Stats struct {
	ActorsSeeded        int
	PersonasSeeded      int
	SelectionsMade      int
	RequestsSubmitted   int
	RequestsSuccessful  int
	RequestsFailed      int
	InvariantViolations int
	EvaluationsRun      int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}

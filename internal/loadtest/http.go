package loadtest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
)

// HTTPClient wraps http.Client with timeout.
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// actorPayload mirrors the POST /actors schema.
type actorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// personaPayload mirrors the POST /personas schema and response.
type personaPayload struct {
	ID          string `json:"id,omitempty"`
	Alias       string `json:"alias"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// selectionPayload mirrors the POST /actors/{id}/personas schema.
type selectionPayload struct {
	PersonaID string  `json:"persona_id"`
	Weight    float64 `json:"weight"`
}

func createActor(ctx context.Context, client *HTTPClient, baseURL, id, name string) error {
	resp, err := client.Post(ctx, baseURL+"/actors", actorPayload{ID: id, Name: name})
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusCreated {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func createPersona(ctx context.Context, client *HTTPClient, baseURL string, p personaPayload) (personaPayload, error) {
	resp, err := client.Post(ctx, baseURL+"/personas", p)
	if err != nil {
		return personaPayload{}, err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return personaPayload{}, err
	}
	if resp.StatusCode != StatusCreated {
		return personaPayload{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	var created personaPayload
	if err := json.Unmarshal(body, &created); err != nil {
		return personaPayload{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return created, nil
}

func selectPersona(ctx context.Context, client *HTTPClient, baseURL, actorID, personaID string, weight float64) error {
	resp, err := client.Post(ctx, baseURL+"/actors/"+actorID+"/personas", selectionPayload{
		PersonaID: personaID,
		Weight:    weight,
	})
	if err != nil {
		return err
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return err
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// submitFormations fires formation requests concurrently and verifies the
// partition invariants of every successful response.
func submitFormations(ctx context.Context, config *Config, roster *seededRoster, stats *Stats) error {
	log.Printf("submitting %d formation requests with %d workers...", config.NumRequests, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/form-groups"

	var (
		successful int64
		failed     int64
		violations int64
		submitted  int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	requestChan := make(chan FormGroupsRequest, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for req := range requestChan {
				select {
				case <-ctx.Done():
					return
				default:
					result, err := submitSingleFormation(ctx, client, url, req)
					atomic.AddInt64(&submitted, 1)

					switch {
					case err != nil:
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("request failed: %v", err)
						}
					default:
						atomic.AddInt64(&successful, 1)
						if verr := verifyPartition(req, result); verr != nil {
							atomic.AddInt64(&violations, 1)
							log.Printf("INVARIANT VIOLATION: %v", verr)
						}
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						log.Printf("progress: %d/%d submitted (success: %d, failed: %d, violations: %d)",
							atomic.LoadInt64(&submitted), config.NumRequests,
							atomic.LoadInt64(&successful), atomic.LoadInt64(&failed),
							atomic.LoadInt64(&violations))
					}
				}
			}
		}()
	}

	// Build and send requests
	go func() {
		defer close(requestChan)
		for i := 0; i < config.NumRequests; i++ {
			select {
			case <-ctx.Done():
				return
			case requestChan <- buildFormationRequest(config, roster):
			}
		}
	}()

	wg.Wait()

	stats.RequestsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RequestsSuccessful = int(atomic.LoadInt64(&successful))
	stats.RequestsFailed = int(atomic.LoadInt64(&failed))
	stats.InvariantViolations = int(atomic.LoadInt64(&violations))

	log.Printf(`formation submission completed:
   Successful: %d
   Failed: %d
   Invariant violations: %d
`, stats.RequestsSuccessful, stats.RequestsFailed, stats.InvariantViolations)

	return nil
}

// buildFormationRequest picks a random actor subset and group size.
func buildFormationRequest(config *Config, roster *seededRoster) FormGroupsRequest {
	// Subset size between 4 and 24 actors, bounded by the roster.
	maxSubset := len(roster.actorIDs)
	if maxSubset > 24 {
		maxSubset = 24
	}
	subsetSize := 4
	if maxSubset > 4 {
		subsetSize += randomIndex(maxSubset - 3)
	}

	// Sample without replacement from a shuffled copy.
	ids := make([]string, len(roster.actorIDs))
	copy(ids, roster.actorIDs)
	for i := 0; i < subsetSize; i++ {
		j := i + randomIndex(len(ids)-i)
		ids[i], ids[j] = ids[j], ids[i]
	}
	subset := ids[:subsetSize]

	groupSize := config.GroupSize
	if groupSize == 0 {
		groupSize = 2 + randomIndex(5) // 2..6
	}

	req := FormGroupsRequest{
		ActorIDs:  subset,
		GroupSize: groupSize,
	}
	if config.WithFeedback {
		req.IncorporateFeedback = true
		req.FeedbackRows = randomFeedbackRows(roster.aliases, 6)
	}
	return req
}

// submitSingleFormation submits one request and parses the response.
func submitSingleFormation(ctx context.Context, client *HTTPClient, url string, req FormGroupsRequest) (*FormationResult, error) {
	resp, err := client.Post(ctx, url, req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var result FormationResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

// runEvaluations scores a handful of fixed groups through /evaluate-group.
func runEvaluations(ctx context.Context, config *Config, roster *seededRoster, stats *Stats) error {
	log.Println("running fixed-group evaluations...")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/evaluate-group"

	evaluations := 5
	for i := 0; i < evaluations; i++ {
		req := buildFormationRequest(config, roster)

		resp, err := client.Post(ctx, url, map[string]any{
			"actor_ids": req.ActorIDs,
		})
		if err != nil {
			return fmt.Errorf("evaluation request failed: %w", err)
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return fmt.Errorf("failed to read evaluation response: %w", err)
		}
		if resp.StatusCode != StatusOK {
			return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}

		var ev Evaluation
		if err := json.Unmarshal(body, &ev); err != nil {
			return fmt.Errorf("failed to parse evaluation response: %w", err)
		}
		if ev.Score < 0 || ev.Score > 100 {
			return fmt.Errorf("evaluation score %.2f out of range", ev.Score)
		}
		if len(ev.Members) != len(req.ActorIDs) {
			return fmt.Errorf("evaluation returned %d members for %d actors", len(ev.Members), len(req.ActorIDs))
		}
		stats.EvaluationsRun++

		if config.Verbose {
			log.Printf("evaluation %d: score=%.2f verdict=%q", i+1, ev.Score, ev.Verdict)
		}
	}

	log.Printf("completed %d evaluations", stats.EvaluationsRun)
	return nil
}

package loadtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"github.com/okian/huddle/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	summaryPermission   = 0600
)

// Run executes the complete formation test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting huddle formation test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("actors", config.NumActors),
		logger.Int("requests", config.NumRequests),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Any("feedback", config.WithFeedback),
		logger.Any("verbose", config.Verbose))

	client := newHTTPClient(config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, client, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Seed the roster
	roster, err := seedRoster(ctx, client, config, stats)
	if err != nil {
		return fmt.Errorf("roster seeding failed: %w", err)
	}

	// Step 3: Submit formation requests concurrently
	if err := submitFormations(ctx, config, roster, stats); err != nil {
		return fmt.Errorf("formation submission failed: %w", err)
	}

	// Step 4: Evaluate a few fixed groups
	if err := runEvaluations(ctx, config, roster, stats); err != nil {
		return fmt.Errorf("evaluation run failed: %w", err)
	}

	// Step 5: Save the run summary
	if err := saveSummary(ctx, config, stats); err != nil {
		logger.Get().Warn(ctx, "failed to save run summary", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	if stats.InvariantViolations > 0 {
		return fmt.Errorf("%d invariant violations detected", stats.InvariantViolations)
	}

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	// Accept any 200 response as healthy (the service returns Prometheus metrics)
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveSummary writes the run statistics to a JSON file.
func saveSummary(ctx context.Context, config *Config, stats *Stats) error {
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "formation_run_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	if err := os.WriteFile(filename, data, summaryPermission); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	logger.Get().Info(ctx, "run summary saved", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, requestsPerSecond float64

	if stats.RequestsSubmitted > 0 {
		successRate = float64(stats.RequestsSuccessful) / float64(stats.RequestsSubmitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.RequestsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("actorsSeeded", stats.ActorsSeeded),
		logger.Int("personasSeeded", stats.PersonasSeeded),
		logger.Int("selectionsMade", stats.SelectionsMade),
		logger.Int("requestsSubmitted", stats.RequestsSubmitted),
		logger.Int("requestsSuccessful", stats.RequestsSuccessful),
		logger.Int("requestsFailed", stats.RequestsFailed),
		logger.Int("invariantViolations", stats.InvariantViolations),
		logger.Int("evaluationsRun", stats.EvaluationsRun),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
}

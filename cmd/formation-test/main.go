package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/huddle/internal/loadtest"
)

// Default configuration constants.
const (
	defaultNumActors   = 200
	defaultNumRequests = 500
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numActors   = flag.Int("actors", defaultNumActors, "Number of actors to seed")
		numRequests = flag.Int("requests", defaultNumRequests, "Number of formation requests to submit")
		groupSize   = flag.Int("size", 0, "Fixed group size; 0 picks one at random per request")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		feedback    = flag.Bool("feedback", false, "Attach synthetic feedback rows to requests")
		outputFile  = flag.String("output", "", "Output file for the run summary (default: formation_run_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: formation_test_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	// Setup logging
	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &loadtest.Config{
		BaseURL:      *baseURL,
		NumActors:    *numActors,
		NumRequests:  *numRequests,
		GroupSize:    *groupSize,
		Workers:      *workers,
		Timeout:      *timeout,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
		WithFeedback: *feedback,
	}

	// Run the test
	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

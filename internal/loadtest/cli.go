package loadtest

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/huddle/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "formation_test_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the formation test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Huddle Formation Test Tool
==========================

A concurrent tool for exercising the Huddle group formation service.
It seeds a roster of actors with persona selections, fires formation
requests, and verifies the partition invariants of every response.

Usage:
  go run cmd/formation-test/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -actors int
        Number of actors to seed (default 200)
  -requests int
        Number of formation requests to submit (default 500)
  -size int
        Fixed group size; 0 picks one at random per request (default 0)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -feedback
        Attach synthetic feedback rows to requests
  -output string
        Output file for the run summary (default: formation_run_TIMESTAMP.json)
  -log string
        Log file for test output (default: formation_test_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/formation-test/main.go

  # Heavier run with feedback rows
  go run cmd/formation-test/main.go -actors 1000 -requests 5000 -feedback

  # Fixed group size against a remote instance
  go run cmd/formation-test/main.go -size 4 -url http://huddle.internal:8080
`)
}

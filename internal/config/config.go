// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and environment vars.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of shards in the roster store.
	ShardCount int `koanf:"shard_count"`

	// TrialWorkerCount sets the number of trial evaluation workers per request.
	TrialWorkerCount int `koanf:"trial_worker_count"`

	// TrialQueueSize bounds the per-request trial queue.
	TrialQueueSize int `koanf:"trial_queue_size"`

	// Trials is the number of random partitions tried without feedback.
	Trials int `koanf:"trials"`

	// TrialsWithFeedback is the trial budget when feedback adjustments apply.
	TrialsWithFeedback int `koanf:"trials_with_feedback"`

	// FeedbackAlpha scales how strongly ratings move pair adjustments.
	FeedbackAlpha float64 `koanf:"feedback_alpha"`

	// MaxPairAdjustment caps the total feedback adjustment per group.
	MaxPairAdjustment float64 `koanf:"max_pair_adjustment"`

	// BundleCacheSize bounds the per-request persona bundle cache.
	BundleCacheSize int `koanf:"bundle_cache_size"`

	// DefaultWeight is assigned to persona selections without an explicit weight.
	DefaultWeight float64 `koanf:"default_weight"`

	// ExpectedCategories is the category count used for coverage scoring.
	ExpectedCategories int `koanf:"expected_categories"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		Addr:               ":9080",
		ShardCount:         8,
		TrialWorkerCount:   runtime.NumCPU(),
		TrialQueueSize:     1024,
		Trials:             50,
		TrialsWithFeedback: 80,
		FeedbackAlpha:      2.0,
		MaxPairAdjustment:  15.0,
		BundleCacheSize:    10_000,
		DefaultWeight:      1.0,
		ExpectedCategories: 4,
	}
}

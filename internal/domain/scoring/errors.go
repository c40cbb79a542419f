package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrNoBundles     = errors.New("no persona bundles to score")
	ErrNoBundleStore = errors.New("bundle source is required")
)

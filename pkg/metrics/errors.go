package metrics

import "errors"

// ErrInvalidRegistry indicates the provided Prometheus registry is nil.
var ErrInvalidRegistry = errors.New("invalid prometheus registry")

package formation

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds for formation errors.
var (
	ErrNoActors     = errors.New("actor ids required")
	ErrTooFewActors = errors.New("need at least 2 actors")
	ErrGroupSize    = errors.New("group size must be between 2 and 10")
	ErrNoResult     = errors.New("no trial produced a result")
	ErrNoRoster     = errors.New("roster is required")
	ErrNoBundles    = errors.New("bundle source is required")
)

// MissingActorsError reports the specific actor ids that could not be
// resolved against the roster.
type MissingActorsError struct {
	IDs []string
}

func (e *MissingActorsError) Error() string {
	return fmt.Sprintf("some actors not found: %s", strings.Join(e.IDs, ", "))
}

// AsMissingActors unwraps err into a MissingActorsError when possible.
func AsMissingActors(err error) (*MissingActorsError, bool) {
	var m *MissingActorsError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

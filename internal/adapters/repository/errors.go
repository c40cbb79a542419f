package repository

import "errors"

// Sentinel kinds for roster errors.
var (
	ErrActorNotFound   = errors.New("actor not found")
	ErrPersonaNotFound = errors.New("persona not found")
	ErrDuplicateAlias  = errors.New("persona alias already exists")
	ErrNotAssigned     = errors.New("persona not assigned")
	ErrInvalidActor    = errors.New("invalid actor")
	ErrInvalidPersona  = errors.New("invalid persona")
)

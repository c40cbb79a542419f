package api

import "github.com/go-playground/validator/v10"

// validate is the shared request validator. validator instances cache
// struct metadata, so a single instance serves all handlers.
var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // intentional shared validator

package util

import "errors"

// ErrNotFound indicates a required resource was not found. The rest of
// the failure taxonomy lives in internal/apperr.
var ErrNotFound = errors.New("not found")

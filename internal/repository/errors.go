package repository

import "errors"

// ErrNotFound marks a lookup that matched no row. Callers distinguish it
// from infrastructure failures, which propagate as-is.
var ErrNotFound = errors.New("repository: not found")

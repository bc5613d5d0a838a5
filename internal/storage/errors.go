package storage

import "errors"

// ErrNotFound is returned when a lookup by id matches no entry.
var ErrNotFound = errors.New("storage: not found")

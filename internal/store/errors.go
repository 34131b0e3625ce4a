package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint is violated,
// e.g. two concurrent registrations racing on the same username.
var ErrConflict = errors.New("conflict")

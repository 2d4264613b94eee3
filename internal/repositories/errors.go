package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the write would violate a uniqueness constraint,
	// such as a taken username or an existing subscription edge.
	ErrConflict = errors.New("record conflict")
)

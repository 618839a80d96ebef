package repository

import "errors"

var (
	// ErrNotFound means no record matched the id/owner scope. A record
	// owned by another user is reported the same way as a missing one.
	ErrNotFound = errors.New("record not found")

	// ErrConflict means an insert collided with an existing unique value.
	ErrConflict = errors.New("record already exists")
)

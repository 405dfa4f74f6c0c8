package repository

import "errors"

var (
	// ErrNotFound indicates the referenced row does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a constraint violation such as a duplicate email
	// or a reference to a missing post or user.
	ErrConflict = errors.New("repository: constraint violation")
)

package service

import "errors"

var (
	// ErrValidation marks input that is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	// Unknown emails and wrong passwords both map to it.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to sign up with a taken email.
	ErrUserAlreadyExists = errors.New("user already exists")
)

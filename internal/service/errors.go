package service

import "errors"

// Service layer errors. Callers match them with errors.Is; details are wrapped with %w.
var (
	// ErrValidation marks missing or malformed input rejected before any side effect.
	ErrValidation = errors.New("invalid input")
	// ErrDuplicateUsername is returned by Register when the username is taken.
	ErrDuplicateUsername = errors.New("registration failed: username already taken")
	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

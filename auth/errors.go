package auth

import "errors"

// Signup errors
var (
	ErrWeakPassword          = errors.New("weak-password")
	ErrPasswordTooLong       = errors.New("password-too-long")
	ErrInvalidUsernameFormat = errors.New("invalid-username-format")
	ErrInvalidDisplayName    = errors.New("invalid-display-name")
)

// Login errors
var (
	ErrIncorrectPassword = errors.New("incorrect-password")
)

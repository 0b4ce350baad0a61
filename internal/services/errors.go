package services

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidInput       = errors.New("invalid input")
	// ErrForbidden rejects a request that names a user other than the caller.
	ErrForbidden = errors.New("user_id does not match token")
)

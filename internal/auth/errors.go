package auth

import "errors"

// Authentication and authorization failures.
var (
	ErrMissingToken       = errors.New("auth: missing token")
	ErrMalformedToken     = errors.New("auth: malformed token")
	ErrInvalidSignature   = errors.New("auth: invalid token signature")
	ErrExpiredToken       = errors.New("auth: token expired")
	ErrRoleDenied         = errors.New("auth: role denied")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

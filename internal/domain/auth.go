package domain

import "time"

// Session describes an issued session token for the login response.
type Session struct {
	ID        string
	Identity  string
	Role      string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

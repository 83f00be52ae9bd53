package domain

import "time"

// Role labels carried in the token role claim.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Credential is a login record resolved by identity.
type Credential struct {
	Identity   string
	SecretHash string
	Role       string
	CreatedAt  time.Time
}

// DemoCredential is a plaintext seed entry, hashed before it is stored.
type DemoCredential struct {
	Identity string
	Secret   string
	Role     string
}

// DemoCredentials returns the built-in demonstration accounts.
func DemoCredentials() []DemoCredential {
	return []DemoCredential{
		{Identity: "user", Secret: "password123", Role: RoleUser},
		{Identity: "admin", Secret: "adminpassword", Role: RoleAdmin},
	}
}

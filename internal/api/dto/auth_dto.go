package dto

import "time"

// LoginRequest is the login form submission.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// LoginView binds the login template.
type LoginView struct {
	Message string
}

// DashboardView binds the dashboard templates.
type DashboardView struct {
	Username  string
	Role      string
	ExpiresAt time.Time
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard-auth/internal/api/dto"
	"github.com/spec-kit/dashboard-auth/internal/auth"
	"github.com/spec-kit/dashboard-auth/internal/service"
	apperrors "github.com/spec-kit/dashboard-auth/pkg/util"
)

const invalidCredentialsMessage = "Invalid credentials."

// CookieConfig controls how the session cookie is written.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler exposes login and logout endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	gate   *auth.Gate
	cookie CookieConfig
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, gate *auth.Gate, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{auth: authService, gate: gate, cookie: cookie}
}

// Index handles GET /.
func (h *AuthHandler) Index(c *fiber.Ctx) error {
	return c.Redirect(auth.DefaultLoginPath, fiber.StatusFound)
}

// ShowLogin handles GET /login.
func (h *AuthHandler) ShowLogin(c *fiber.Ctx) error {
	return c.Render("login", dto.LoginView{})
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	session, err := h.auth.Login(c.UserContext(), req.Username, req.Password, c.IP())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Render("login", dto.LoginView{Message: invalidCredentialsMessage})
		}
		return apperrors.NewInternalError(err)
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// Logout handles GET /logout by expiring the session cookie.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	// best effort, only for the audit trail
	claims, _ := h.gate.Authenticate(c)
	h.auth.Logout(c.UserContext(), claims, c.IP())

	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.Redirect(auth.DefaultLoginPath, fiber.StatusFound)
}

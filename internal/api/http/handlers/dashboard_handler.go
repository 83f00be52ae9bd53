package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dashboard-auth/internal/api/dto"
	"github.com/spec-kit/dashboard-auth/internal/auth"
	"github.com/spec-kit/dashboard-auth/internal/service"
	apperrors "github.com/spec-kit/dashboard-auth/pkg/util"
)

// DashboardHandler serves the role dashboards behind the gate.
type DashboardHandler struct{}

// NewDashboardHandler constructs handler.
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Dispatch handles GET /dashboard by redirecting to the dashboard for the token role.
func (h *DashboardHandler) Dispatch(c *fiber.Ctx) error {
	claims, err := claimsOrError(c)
	if err != nil {
		return err
	}
	return c.Redirect(service.DashboardPath(claims.Role), fiber.StatusFound)
}

// User handles GET /user/dashboard.
func (h *DashboardHandler) User(c *fiber.Ctx) error {
	claims, err := claimsOrError(c)
	if err != nil {
		return err
	}
	return c.Render("user_dashboard", dashboardView(claims))
}

// Admin handles GET /admin/dashboard.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	claims, err := claimsOrError(c)
	if err != nil {
		return err
	}
	return c.Render("admin_dashboard", dashboardView(claims))
}

func claimsOrError(c *fiber.Ctx) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromContext(c)
	if !ok {
		// route registered without the gate
		return nil, apperrors.NewUnauthorized("Invalid token")
	}
	return claims, nil
}

func dashboardView(claims *auth.Claims) dto.DashboardView {
	return dto.DashboardView{
		Username:  claims.Identity,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAtTime(),
	}
}

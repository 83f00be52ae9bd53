package auth

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spec-kit/dashboard-auth/internal/events"
	"github.com/spec-kit/dashboard-auth/internal/observability"
	apperrors "github.com/spec-kit/dashboard-auth/pkg/util"
)

const claimsKey = "auth_claims"

// DefaultLoginPath is where requests without a session token are sent.
const DefaultLoginPath = "/login"

// Outcome is the terminal state of a request passing through the gate.
type Outcome string

const (
	OutcomeAllowed      Outcome = "allowed"
	OutcomeRedirected   Outcome = "redirected"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeForbidden    Outcome = "forbidden"
)

// OutcomeFor maps an Authenticate/Authorize error to the gate outcome.
func OutcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeAllowed
	case errors.Is(err, ErrMissingToken):
		return OutcomeRedirected
	case errors.Is(err, ErrRoleDenied):
		return OutcomeForbidden
	default:
		return OutcomeUnauthorized
	}
}

// GateConfig configures token transport and the role predicate.
type GateConfig struct {
	CookieName string
	LoginPath  string
	Matcher    RoleMatcher
}

// Gate enforces authentication and role checks in front of protected handlers.
type Gate struct {
	tokens     *TokenManager
	cookieName string
	loginPath  string
	match      RoleMatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	dispatcher events.Dispatcher
}

// NewGate constructs the gate. A nil matcher falls back to ExactRoleMatch.
func NewGate(tokens *TokenManager, cfg GateConfig, logger *zap.Logger, metrics *observability.Metrics, dispatcher events.Dispatcher) *Gate {
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.Matcher == nil {
		cfg.Matcher = ExactRoleMatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		tokens:     tokens,
		cookieName: cfg.CookieName,
		loginPath:  cfg.LoginPath,
		match:      cfg.Matcher,
		logger:     logger,
		metrics:    metrics,
		dispatcher: dispatcher,
	}
}

// Authenticate extracts the session cookie and verifies it.
func (g *Gate) Authenticate(c *fiber.Ctx) (*Claims, error) {
	token := c.Cookies(g.cookieName)
	if token == "" {
		return nil, ErrMissingToken
	}
	return g.tokens.Verify(token)
}

// Authorize applies the role predicate to verified claims.
func (g *Gate) Authorize(claims *Claims, expectedRole string) error {
	if !g.match(expectedRole, claims.Role) {
		return ErrRoleDenied
	}
	return nil
}

// RequireValidToken admits any request carrying a valid session token.
func (g *Gate) RequireValidToken() fiber.Handler {
	return g.guard("")
}

// RequireRole admits requests whose token role satisfies expectedRole under the configured matcher.
func (g *Gate) RequireRole(expectedRole string) fiber.Handler {
	return g.guard(expectedRole)
}

func (g *Gate) guard(expectedRole string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := g.Authenticate(c)
		if err == nil && expectedRole != "" {
			err = g.Authorize(claims, expectedRole)
		}

		outcome := OutcomeFor(err)
		g.metrics.RecordGateOutcome(string(outcome), expectedRole)

		switch outcome {
		case OutcomeAllowed:
			c.Locals(claimsKey, claims)
			return c.Next()
		case OutcomeRedirected:
			return c.Redirect(g.loginPath, fiber.StatusFound)
		case OutcomeForbidden:
			g.logger.Info("access denied",
				zap.String("identity", claims.Identity),
				zap.String("role", claims.Role),
				zap.String("required_role", expectedRole),
				zap.String("path", c.Path()))
			g.publish(c, claims, events.EventAccessDenied, events.AccessDeniedPayload{RequiredRole: expectedRole})
			return apperrors.NewForbidden(fmt.Sprintf("Access Denied: %s role required.", cases.Title(language.English).String(expectedRole)))
		default:
			g.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
			expired := errors.Is(err, ErrExpiredToken)
			g.publish(c, nil, events.EventTokenRejected, events.TokenRejectedPayload{Reason: err.Error(), Expired: expired})
			if expired {
				return apperrors.NewUnauthorizedCause("TOKEN_EXPIRED", "Token has expired", err)
			}
			return apperrors.NewUnauthorizedCause("TOKEN_INVALID", "Invalid token", err)
		}
	}
}

func (g *Gate) publish(c *fiber.Ctx, claims *Claims, eventType events.EventType, payload interface{}) {
	if g.dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, "", "")
	if claims != nil {
		event.Identity = claims.Identity
		event.Role = claims.Role
	}
	event.RemoteIP = c.IP()
	event.Path = c.Path()
	event.Payload = payload

	if err := g.dispatcher.Publish(c.UserContext(), event); err != nil {
		g.logger.Warn("publish audit event", zap.String("type", string(eventType)), zap.Error(err))
	}
}

// ClaimsFromContext retrieves the claims attached by the gate.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}

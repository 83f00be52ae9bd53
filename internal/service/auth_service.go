package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/dashboard-auth/internal/auth"
	"github.com/spec-kit/dashboard-auth/internal/domain"
	"github.com/spec-kit/dashboard-auth/internal/events"
	"github.com/spec-kit/dashboard-auth/internal/observability"
	"github.com/spec-kit/dashboard-auth/internal/repository"
)

// Dashboard routes selected by role.
const (
	UserDashboardPath  = "/user/dashboard"
	AdminDashboardPath = "/admin/dashboard"
)

// AuthService coordinates the login and logout flows.
type AuthService struct {
	credentials repository.CredentialRepository
	tokens      *auth.TokenManager
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Credentials repository.CredentialRepository
	Tokens      *auth.TokenManager
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		credentials: deps.Credentials,
		tokens:      deps.Tokens,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      logger,
	}
}

// Login checks identity and secret against the credential store and issues a session token.
// Any mismatch is reported as auth.ErrInvalidCredentials without saying which field was wrong.
func (s *AuthService) Login(ctx context.Context, identity, secret, remoteIP string) (*domain.Session, error) {
	cred, err := s.credentials.Lookup(ctx, identity)
	if err != nil {
		if !errors.Is(err, repository.ErrCredentialNotFound) {
			return nil, fmt.Errorf("lookup credential: %w", err)
		}
		auth.CompareDecoy(secret)
		s.loginFailed(ctx, identity, remoteIP, "unknown identity")
		return nil, auth.ErrInvalidCredentials
	}

	if err := auth.ComparePassword(cred.SecretHash, secret); err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, fmt.Errorf("compare secret: %w", err)
		}
		s.loginFailed(ctx, identity, remoteIP, "secret mismatch")
		return nil, auth.ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Issue(cred.Identity, cred.Role)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin("success")
	event := events.NewEvent(events.EventLoginSucceeded, cred.Identity, cred.Role)
	event.RemoteIP = remoteIP
	s.publish(ctx, event)

	return &domain.Session{
		ID:        claims.ID,
		Identity:  cred.Identity,
		Role:      cred.Role,
		Token:     token,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAtTime(),
	}, nil
}

// Logout records the logout; the token itself is discarded client-side.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims, remoteIP string) {
	event := events.NewEvent(events.EventLogout, "", "")
	if claims != nil {
		event.Identity = claims.Identity
		event.Role = claims.Role
	}
	event.RemoteIP = remoteIP
	s.publish(ctx, event)
}

// DashboardPath picks the dashboard route for a role.
func DashboardPath(role string) string {
	if role == domain.RoleAdmin {
		return AdminDashboardPath
	}
	return UserDashboardPath
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

func (s *AuthService) loginFailed(ctx context.Context, identity, remoteIP, reason string) {
	s.metrics.RecordLogin("failure")
	event := events.NewEvent(events.EventLoginFailed, identity, "")
	event.RemoteIP = remoteIP
	event.Payload = events.LoginFailedPayload{Reason: reason}
	s.publish(ctx, event)
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish audit event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}

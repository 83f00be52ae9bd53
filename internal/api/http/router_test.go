package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/thejerf/abtime"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/dashboard-auth/internal/api/http/handlers"
	"github.com/spec-kit/dashboard-auth/internal/auth"
	"github.com/spec-kit/dashboard-auth/internal/config"
	"github.com/spec-kit/dashboard-auth/internal/domain"
	"github.com/spec-kit/dashboard-auth/internal/events"
	"github.com/spec-kit/dashboard-auth/internal/observability"
	"github.com/spec-kit/dashboard-auth/internal/repository"
	"github.com/spec-kit/dashboard-auth/internal/service"
)

const (
	cookieName = "jwt_token"
	testSecret = "super-secret-key-for-jwt-signing"
)

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	clock  *abtime.ManualTime
}

type brokenPinger struct{}

func (brokenPinger) Enabled() bool { return true }
func (brokenPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T, matcher auth.RoleMatcher, deps map[string]handlers.Pinger) *testServer {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	service.NewAuditService(dispatcher, logger).RegisterHandlers()

	clock := abtime.NewManual()
	tokens := auth.NewTokenManager(testSecret, 30*time.Minute, clock)
	creds, err := repository.NewStaticCredentialRepository(domain.DemoCredentials(), auth.Hasher(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("NewStaticCredentialRepository() error = %v", err)
	}

	authService := service.NewAuthService(service.AuthDependencies{
		Credentials: creds,
		Tokens:      tokens,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})
	gate := auth.NewGate(tokens, auth.GateConfig{CookieName: cookieName, Matcher: matcher}, logger, metrics, dispatcher)

	app := NewApp("test", logger, metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:       handlers.NewHealthHandler("test", "dev", deps),
		Auth:         handlers.NewAuthHandler(authService, gate, handlers.CookieConfig{Name: cookieName}),
		Dashboard:    handlers.NewDashboardHandler(),
		Gate:         gate,
		LoginLimiter: LoginRateLimiter(nil, config.RateLimitConfig{LoginLimit: 1}, logger),
		Metrics:      metrics.Handler(),
	})

	return &testServer{app: app, tokens: tokens, clock: clock}
}

func (s *testServer) do(t *testing.T, req *nethttp.Request) *nethttp.Response {
	t.Helper()
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	return resp
}

func (s *testServer) get(t *testing.T, path, token string) *nethttp.Response {
	t.Helper()
	req := httptest.NewRequest(nethttp.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&nethttp.Cookie{Name: cookieName, Value: token})
	}
	return s.do(t, req)
}

func (s *testServer) login(t *testing.T, username, password string) *nethttp.Response {
	t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(nethttp.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(t, req)
}

func sessionCookie(resp *nethttp.Response) *nethttp.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func readBody(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func expectRedirect(t *testing.T, resp *nethttp.Response, location string) {
	t.Helper()
	if resp.StatusCode != nethttp.StatusFound {
		t.Fatalf("expected status 302, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func errorCode(t *testing.T, resp *nethttp.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error.Code
}

func TestIndexRedirectsToLogin(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)
	expectRedirect(t, s.get(t, "/", ""), "/login")
}

func TestLoginPageRenders(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)

	resp := s.get(t, "/login", "")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if body := readBody(t, resp); !strings.Contains(body, `name="username"`) {
		t.Errorf("login form missing: %s", body)
	}
}

func TestAdminLoginFlow(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)

	resp := s.login(t, "admin", "adminpassword")
	expectRedirect(t, resp, "/dashboard")

	cookie := sessionCookie(resp)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie")
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
	if cookie.Secure {
		t.Error("session cookie should not be Secure by default")
	}

	expectRedirect(t, s.get(t, "/dashboard", cookie.Value), "/admin/dashboard")

	resp = s.get(t, "/admin/dashboard", cookie.Value)
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Admin Dashboard") || !strings.Contains(body, "admin") {
		t.Errorf("unexpected admin page: %s", body)
	}
}

func TestUserLoginFlow(t *testing.T) {
	for _, tt := range []struct {
		name    string
		matcher auth.RoleMatcher
	}{
		{name: "substring", matcher: auth.SubstringRoleMatch},
		{name: "exact", matcher: auth.ExactRoleMatch},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.matcher, nil)

			resp := s.login(t, "user", "password123")
			expectRedirect(t, resp, "/dashboard")
			token := sessionCookie(resp).Value

			expectRedirect(t, s.get(t, "/dashboard", token), "/user/dashboard")

			resp = s.get(t, "/user/dashboard", token)
			if resp.StatusCode != nethttp.StatusOK {
				t.Fatalf("expected status 200, got %d", resp.StatusCode)
			}
			if body := readBody(t, resp); !strings.Contains(body, "Welcome, user.") {
				t.Errorf("unexpected user page: %s", body)
			}

			resp = s.get(t, "/admin/dashboard", token)
			if resp.StatusCode != nethttp.StatusForbidden {
				t.Fatalf("expected status 403, got %d", resp.StatusCode)
			}
			if code := errorCode(t, resp); code != "FORBIDDEN" {
				t.Errorf("code = %q, want FORBIDDEN", code)
			}
		})
	}
}

func TestCraftedRoleTokenOnAdminDashboard(t *testing.T) {
	tests := []struct {
		name       string
		matcher    auth.RoleMatcher
		wantStatus int
	}{
		{name: "substring predicate admits crafted role", matcher: auth.SubstringRoleMatch, wantStatus: nethttp.StatusOK},
		{name: "exact predicate denies crafted role", matcher: auth.ExactRoleMatch, wantStatus: nethttp.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.matcher, nil)
			token, _, err := s.tokens.Issue("mallory", "user;admin")
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}

			resp := s.get(t, "/admin/dashboard", token)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			// dispatch compares roles exactly, so the crafted role lands on the user dashboard
			expectRedirect(t, s.get(t, "/dashboard", token), "/user/dashboard")
		})
	}
}

func TestInvalidCredentialsRerenderLogin(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)

	for _, creds := range [][2]string{{"admin", "wrong"}, {"nobody", "adminpassword"}, {"", ""}} {
		resp := s.login(t, creds[0], creds[1])
		if resp.StatusCode != nethttp.StatusOK {
			t.Fatalf("%v: expected status 200, got %d", creds, resp.StatusCode)
		}
		if sessionCookie(resp) != nil {
			t.Fatalf("%v: no cookie expected on failed login", creds)
		}
		if body := readBody(t, resp); !strings.Contains(body, "Invalid credentials.") {
			t.Errorf("%v: missing generic error message", creds)
		}
	}
}

func TestProtectedRoutesWithoutCookieRedirect(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)
	for _, path := range []string{"/dashboard", "/user/dashboard", "/admin/dashboard"} {
		expectRedirect(t, s.get(t, path, ""), "/login")
	}
}

func TestTamperedCookieUnauthorized(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)

	token, _, err := s.tokens.Issue("user", "user")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	parts := strings.Split(token, ".")
	forged, _, err := auth.NewTokenManager("guessed-secret", time.Hour, s.clock).Issue("user", "admin")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	for _, value := range []string{
		"garbage",
		parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2],
		forged,
	} {
		resp := s.get(t, "/user/dashboard", value)
		if resp.StatusCode != nethttp.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", resp.StatusCode)
		}
		if code := errorCode(t, resp); code != "TOKEN_INVALID" {
			t.Errorf("code = %q, want TOKEN_INVALID", code)
		}
	}
}

func TestExpiredCookieUnauthorized(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)

	token := sessionCookie(s.login(t, "user", "password123")).Value
	s.clock.Advance(31 * time.Minute)

	resp := s.get(t, "/user/dashboard", token)
	if resp.StatusCode != nethttp.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "TOKEN_EXPIRED" {
		t.Errorf("code = %q, want TOKEN_EXPIRED", code)
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)
	token := sessionCookie(s.login(t, "admin", "adminpassword")).Value

	resp := s.get(t, "/logout", token)
	expectRedirect(t, resp, "/login")

	cookie := sessionCookie(resp)
	if cookie == nil {
		t.Fatal("expected cookie to be overwritten")
	}
	if cookie.Value != "" {
		t.Errorf("cookie value = %q, want empty", cookie.Value)
	}
	if !cookie.Expires.Before(time.Now()) {
		t.Errorf("cookie expires %v, want past", cookie.Expires)
	}
	if !cookie.HttpOnly {
		t.Error("cleared cookie must stay HttpOnly")
	}
}

func TestUnknownRouteNotFound(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)
	resp := s.get(t, "/nope", "")
	if resp.StatusCode != nethttp.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.StatusCode)
	}
	if code := errorCode(t, resp); code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, map[string]handlers.Pinger{"redis": nil})

	if resp := s.get(t, "/health/live", ""); resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("live: expected status 200, got %d", resp.StatusCode)
	}
	resp := s.get(t, "/health/ready", "")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("ready: expected status 200, got %d", resp.StatusCode)
	}
	if body := readBody(t, resp); !strings.Contains(body, `"redis":"disabled"`) {
		t.Errorf("ready body = %s", body)
	}

	broken := newTestServer(t, auth.SubstringRoleMatch, map[string]handlers.Pinger{"postgres": brokenPinger{}})
	if resp := broken.get(t, "/health/ready", ""); resp.StatusCode != nethttp.StatusServiceUnavailable {
		t.Fatalf("ready with broken dependency: expected status 503, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, auth.SubstringRoleMatch, nil)
	s.login(t, "user", "password123")
	s.get(t, "/admin/dashboard", "")

	resp := s.get(t, "/metrics", "")
	if resp.StatusCode != nethttp.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	body := readBody(t, resp)
	for _, want := range []string{
		`auth_logins_total{result="success"} 1`,
		`auth_gate_outcomes_total{outcome="redirected",required_role="admin"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

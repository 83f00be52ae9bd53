package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dashboard-auth/internal/api/http"
	"github.com/spec-kit/dashboard-auth/internal/api/http/handlers"
	"github.com/spec-kit/dashboard-auth/internal/auth"
	"github.com/spec-kit/dashboard-auth/internal/config"
	"github.com/spec-kit/dashboard-auth/internal/domain"
	"github.com/spec-kit/dashboard-auth/internal/events"
	"github.com/spec-kit/dashboard-auth/internal/observability"
	"github.com/spec-kit/dashboard-auth/internal/persistence"
	"github.com/spec-kit/dashboard-auth/internal/repository"
	"github.com/spec-kit/dashboard-auth/internal/service"
	"github.com/spec-kit/dashboard-auth/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	credentials, err := buildCredentials(ctx, cfg, pg, logger)
	if err != nil {
		logger.Fatal("failed to prepare credential store", zap.Error(err))
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	matcher, err := auth.ParseRoleMatcher(cfg.Auth.RoleMatch)
	if err != nil {
		logger.Fatal("invalid role match strategy", zap.Error(err))
	}
	if cfg.Auth.RoleMatch == auth.RoleMatchSubstring {
		logger.Warn("role checks use substring matching; set AUTH_ROLE_MATCH=exact to harden")
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), nil)
	gate := auth.NewGate(tokens, auth.GateConfig{
		CookieName: cfg.Auth.CookieName,
		Matcher:    matcher,
	}, logger, metrics, dispatcher)

	authService := service.NewAuthService(service.AuthDependencies{
		Credentials: credentials,
		Tokens:      tokens,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
	})

	app := httptransport.NewApp(cfg.App.Name, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth: handlers.NewAuthHandler(authService, gate, handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		}),
		Dashboard:    handlers.NewDashboardHandler(),
		Gate:         gate,
		LoginLimiter: httptransport.LoginRateLimiter(redis.Client, cfg.RateLimit, logger),
		Metrics:      metrics.Handler(),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildCredentials picks the Postgres store when a pool is configured and the static demo table otherwise.
func buildCredentials(ctx context.Context, cfg *config.Config, pg *persistence.Postgres, logger *zap.Logger) (repository.CredentialRepository, error) {
	hash := auth.Hasher(cfg.Auth.BcryptCost)

	if !pg.Enabled() {
		return repository.NewStaticCredentialRepository(domain.DemoCredentials(), hash)
	}

	pool := pg.PoolHandle()
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, persistence.DefaultMigrationsDir, logger); err != nil {
			return nil, err
		}
	}
	if cfg.Auth.SeedDemoUsers {
		n, err := repository.SeedCredentials(ctx, pool, domain.DemoCredentials(), hash)
		if err != nil {
			return nil, err
		}
		logger.Info("demo credentials seeded", zap.Int("inserted", n))
	}
	return repository.NewPostgresCredentialRepository(pool), nil
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	identity "github.com/selvahq/go-identity"
	"github.com/selvahq/go-identity/ratelimit"
)

type appLogger struct{}

func (appLogger) Debug(format string, args ...any) { log.Printf("[DBG] identityd "+format, args...) }
func (appLogger) Info(format string, args ...any)  { log.Printf("[INF] identityd "+format, args...) }
func (appLogger) Warn(format string, args ...any)  { log.Printf("[WRN] identityd "+format, args...) }
func (appLogger) Error(format string, args ...any) { log.Printf("[ERR] identityd "+format, args...) }

func main() {
	logger := appLogger{}
	cfg := identity.NewConfigFromEnv()

	sqldb, err := sql.Open(sqliteshim.ShimName, getenv("IDENTITY_DB_DSN", "file:identity.db?cache=shared"))
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := identity.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	repo := identity.NewRepositoryManager(db)
	provider := identity.NewUserProvider(repo.Users()).WithLogger(logger)
	tokens := identity.NewTokenService(cfg, repo.Tokens(), logger)
	auther := identity.NewAuthenticator(provider, tokens).WithLogger(logger)
	notifier := identity.NewLogNotifier(logger)

	bootstrapSuperuser(ctx, repo, logger)

	sweeper := identity.NewSweeper(repo, cfg.GetRefreshTokenTTL()).WithLogger(logger)
	go sweeper.Run(ctx)

	controller := identity.NewAuthController(
		identity.WithControllerRepo(repo),
		identity.WithControllerAuther(auther),
		identity.WithControllerTokens(tokens),
		identity.WithControllerConfig(cfg),
		identity.WithControllerNotifier(notifier),
		identity.WithControllerLogger(logger),
		identity.WithControllerLimiter(newLimiter()),
		identity.WithControllerDebug(getenvBool("IDENTITY_DEBUG", false)),
	)

	app := fiber.New(fiber.Config{
		AppName:               "identityd",
		DisableStartupMessage: true,
	})
	controller.RegisterRoutes(app)

	addr := getenv("IDENTITY_HTTP_ADDR", ":8080")
	go func() {
		logger.Info("listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			logger.Error("http server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		logger.Error("shutdown", "error", err)
	}
}

// newLimiter uses a shared Redis window when an address is configured and
// falls back to the in-process limiter otherwise.
func newLimiter() ratelimit.Limiter {
	fallback := ratelimit.Rate{Requests: 60, Window: time.Minute}

	if addr := os.Getenv("IDENTITY_REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		return ratelimit.NewRedisLimiter(client, ratelimit.DefaultRates(), fallback)
	}

	return ratelimit.NewMemoryLimiter(ratelimit.DefaultRates(), fallback)
}

// bootstrapSuperuser seeds one admin account on first boot when the
// IDENTITY_SUPERUSER_EMAIL and IDENTITY_SUPERUSER_PASSWORD variables are
// set. An already-registered email is not an error.
func bootstrapSuperuser(ctx context.Context, repo identity.RepositoryManager, logger identity.Logger) {
	email := os.Getenv("IDENTITY_SUPERUSER_EMAIL")
	password := os.Getenv("IDENTITY_SUPERUSER_PASSWORD")
	if email == "" || password == "" {
		return
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		logger.Error("superuser bootstrap hash", "error", err)
		return
	}

	_, err = repo.Users().CreateSuperuser(ctx, &identity.User{
		Email:        email,
		FirstName:    "Admin",
		LastName:     "Admin",
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			logger.Info("superuser already present", "email", email)
			return
		}
		logger.Error("superuser bootstrap", "error", err)
		return
	}

	logger.Info("superuser created", "email", email)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

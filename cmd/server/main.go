package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/postshare/backend/internal/auth"
	"github.com/anonto42/postshare/backend/internal/observability"
	"github.com/anonto42/postshare/backend/internal/presence"
	"github.com/anonto42/postshare/backend/internal/push"
	"github.com/anonto42/postshare/backend/internal/repositories"
	"github.com/anonto42/postshare/backend/internal/router"
	"github.com/anonto42/postshare/backend/internal/services"
	"github.com/anonto42/postshare/backend/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type stores struct {
	users   repositories.UserRepository
	posts   repositories.PostRepository
	renames repositories.RenameRepository
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		observability.Log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	observability.SetupLogging(cfg.Env, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(cfg.TracingEnabled)
	if err != nil {
		observability.Log.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Initialize storage
	var st stores
	var db *config.DB
	switch cfg.StoreDriver {
	case config.StoreMemory:
		mem := repositories.NewMemoryStore()
		st = stores{users: mem.Users(), posts: mem.Posts(), renames: mem.Renames()}
		observability.Log.Warn("using in-memory store, data is lost on restart")
	default:
		db, err = config.InitDB(ctx, cfg)
		if err != nil {
			observability.Log.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		defer db.CloseDB() // Ensure database connections are closed when main exits

		users := repositories.NewMongoUserRepository(db.Database)
		posts := repositories.NewMongoPostRepository(db.Database)
		if err := users.EnsureIndexes(ctx); err != nil {
			observability.Log.Error("failed to create user indexes", "error", err)
			os.Exit(1)
		}
		if err := posts.EnsureIndexes(ctx); err != nil {
			observability.Log.Error("failed to create post indexes", "error", err)
			os.Exit(1)
		}
		st = stores{users: users, posts: posts, renames: repositories.NewMongoRenameRepository(db.Database)}
	}

	// Optional Redis mirror of the presence registry
	var mirror presence.Mirror
	if cfg.RedisURL != "" {
		rdb, err := presence.NewRedisClient(cfg.RedisURL)
		if err != nil {
			observability.Log.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			observability.Log.Warn("redis unreachable, presence mirror disabled", "error", err)
		} else {
			mirror = presence.NewRedisMirror(rdb)
		}
	}
	registry := presence.NewRegistry(mirror)

	renames := services.NewRenameService(st.users, st.posts, st.renames, registry)
	if n, err := renames.ResumePending(ctx); err != nil {
		observability.Log.Error("some renames could not be resumed", "completed", n, "error", err)
	} else if n > 0 {
		observability.Log.Info("resumed pending renames", "completed", n)
	}

	// Metrics server
	metrics := echo.New()
	metrics.HideBanner = true
	metrics.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	go func() {
		if err := metrics.Start(":" + cfg.MetricsPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Log.Error("metrics server stopped", "error", err)
		}
	}()

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Setup global middleware
	config.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	router.SetupRoutes(e, router.Dependencies{
		Users:    st.users,
		Posts:    st.posts,
		Renames:  renames,
		Registry: registry,
		Tokens:   auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL),
		Upgrader: push.NewUpgrader(cfg.AllowedOrigins),
	})

	go func() {
		observability.Log.Info("server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.StoreDriver)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			observability.Log.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	observability.Log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		observability.Log.Error("server shutdown error", "error", err)
	}
	_ = metrics.Shutdown(shutdownCtx)
}

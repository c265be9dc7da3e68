package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/recipe-pantry/config"
	"github.com/ErlanBelekov/recipe-pantry/internal/email"
	"github.com/ErlanBelekov/recipe-pantry/internal/health"
	"github.com/ErlanBelekov/recipe-pantry/internal/infrastructure/postgres"
	ctxlog "github.com/ErlanBelekov/recipe-pantry/internal/log"
	"github.com/ErlanBelekov/recipe-pantry/internal/magiclink"
	"github.com/ErlanBelekov/recipe-pantry/internal/metrics"
	"github.com/ErlanBelekov/recipe-pantry/internal/ratelimit"
	"github.com/ErlanBelekov/recipe-pantry/internal/session"
	httptransport "github.com/ErlanBelekov/recipe-pantry/internal/transport/http"
	"github.com/ErlanBelekov/recipe-pantry/internal/transport/http/handler"
	"github.com/ErlanBelekov/recipe-pantry/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		stop()
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}

	deps := []health.Dependency{{Name: "postgres", Pinger: pool}}

	// Login throttling is optional; without Redis every request is allowed.
	var limiter ratelimit.Limiter = ratelimit.NoopLimiter{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			stop()
			pool.Close()
			log.Fatalf("redis url: %v", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		limiter = ratelimit.NewRedisLimiter(rdb, cfg.LoginRateLimit, cfg.LoginRateWindow(), logger)
		deps = append(deps, health.Dependency{Name: "redis", Pinger: health.RedisPinger(rdb)})
	} else {
		logger.Warn("REDIS_URL not set, login rate limiting disabled")
	}

	userRepo := postgres.NewUserRepository(pool)

	codec, err := magiclink.NewCodec(cfg.MagicLinkSecret, cfg.Origin)
	if err != nil {
		stop()
		pool.Close()
		log.Fatalf("magic link codec: %v", err)
	}

	sessions, err := session.NewStore(cfg.SessionSecret, cfg.SessionCookieName, cfg.SessionMaxAge(),
		session.WithSecure(cfg.Env != "local"))
	if err != nil {
		stop()
		pool.Close()
		log.Fatalf("session store: %v", err)
	}

	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.EmailFrom, logger)
	authUsecase := usecase.NewAuthUsecase(userRepo, codec, sender, logger,
		usecase.WithEmailTimeout(cfg.EmailTimeout()))

	authHandler := handler.NewAuthHandler(authUsecase, codec, sessions, limiter, logger)
	appHandler := handler.NewAppHandler()
	var testHandler *handler.TestRoutesHandler
	if !cfg.IsProduction() {
		testHandler = handler.NewTestRoutesHandler(userRepo, sessions, logger)
	}

	metrics.Register()
	checker := health.NewChecker(logger, prometheus.DefaultRegisterer, deps...)

	router := httptransport.NewRouter(
		httptransport.RouterConfig{
			HSTS:       cfg.Env != "local",
			TestRoutes: !cfg.IsProduction(),
		},
		logger, sessions, userRepo, authHandler, appHandler, testHandler,
	)

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "origin", cfg.Origin)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}

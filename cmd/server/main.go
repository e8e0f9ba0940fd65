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

	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/loginflow/loginflow/config"
	"github.com/loginflow/loginflow/internal/email"
	"github.com/loginflow/loginflow/internal/health"
	"github.com/loginflow/loginflow/internal/infrastructure/postgres"
	ctxlog "github.com/loginflow/loginflow/internal/log"
	"github.com/loginflow/loginflow/internal/metrics"
	"github.com/loginflow/loginflow/internal/password"
	"github.com/loginflow/loginflow/internal/session"
	"github.com/loginflow/loginflow/internal/token"
	httptransport "github.com/loginflow/loginflow/internal/transport/http"
	"github.com/loginflow/loginflow/internal/transport/http/handler"
	"github.com/loginflow/loginflow/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
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

	metrics.Register()

	userRepo := postgres.NewUserRepository(pool)
	mailer := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	sessions, err := session.NewCookieManager(session.Config{
		Secret:       []byte(cfg.SessionSecret),
		TTL:          cfg.SessionTTL,
		CookieName:   cfg.CookieName,
		CookieDomain: cfg.CookieDomain,
		CookieSecure: cfg.CookieSecure,
		SameSite:     cfg.SameSite(),
	})
	if err != nil {
		stop()
		log.Fatalf("sessions: %v", err)
	}

	authUsecase := usecase.NewAuthUsecase(
		userRepo,
		mailer,
		sessions,
		token.NewRandom(),
		password.NewBcrypt(cfg.BcryptCost),
		logger,
		usecase.Options{
			BaseURL:            cfg.BaseURL,
			ConfirmEmailRoute:  cfg.ConfirmEmailRoute,
			ResetPasswordRoute: cfg.ResetPasswordRoute,
			ResetTokenTTL:      cfg.ResetTokenTTL,
		},
	)
	authHandler := handler.NewAuthHandler(authUsecase, logger)

	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, sessions.Middleware(), cfg.RoutePrefix, authHandler),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	sweeper := cron.New()
	if _, err := sweeper.AddFunc("@every "+cfg.SessionSweepEvery.String(), sessions.Sweep); err != nil {
		stop()
		log.Fatalf("session sweeper: %v", err)
	}
	sweeper.Start()

	go func() {
		logger.Info("server started", "port", cfg.Port)
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

	<-sweeper.Stop().Done()

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

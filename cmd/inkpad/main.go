package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/inkpad-app/inkpad/internal/app"
	"github.com/inkpad-app/inkpad/internal/auth"
	"github.com/inkpad-app/inkpad/internal/notes"
	"github.com/inkpad-app/inkpad/internal/observability"
	"github.com/inkpad-app/inkpad/internal/platform/cache"
	"github.com/inkpad-app/inkpad/internal/platform/db"
	"github.com/inkpad-app/inkpad/internal/rbac"
	"github.com/inkpad-app/inkpad/internal/session"
	"github.com/inkpad-app/inkpad/internal/shared"
	"github.com/inkpad-app/inkpad/internal/view"
	"github.com/inkpad-app/inkpad/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Error("run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	cookies := session.NewCookieCodec(cfg.SessionCookieName, cfg.SessionSecret, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	sessionRepo := session.NewRepository(pool)
	sessionService := session.NewService(sessionRepo)
	sessionHandler := session.NewHandler(logger, sessionService, cookies)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authenticator := auth.NewAuthenticator(auth.StrategyForm, authService)

	metrics := observability.NewMetrics()

	flow := auth.NewFlow(logger, sessionService, cookies)
	flow.SetMetrics(metrics)

	authHandler := auth.NewHandler(logger, authService, authenticator, flow, templates, csrfManager)

	rbacRepo := rbac.NewRepository(pool)
	rbacCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	rbacService := rbac.NewService(rbacRepo, rbacCache)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	notesRepo := notes.NewRepository(pool)
	notesService := notes.NewService(notesRepo)
	notesHandler := notes.NewHandler(logger, notesService, rbacService, rbacMiddleware, templates, csrfManager)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		Templates:      templates,
		CSRFManager:    csrfManager,
		SessionFlow:    flow,
		Users:          authService,
		AuthHandler:    authHandler,
		NotesHandler:   notesHandler,
		SessionHandler: sessionHandler,
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}

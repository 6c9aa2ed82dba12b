package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-registry/meridian/internal/app"
	"github.com/meridian-registry/meridian/internal/audit"
	"github.com/meridian-registry/meridian/internal/auth"
	"github.com/meridian-registry/meridian/internal/companies"
	"github.com/meridian-registry/meridian/internal/entity"
	"github.com/meridian-registry/meridian/internal/identity"
	"github.com/meridian-registry/meridian/internal/platform/cache"
	"github.com/meridian-registry/meridian/internal/platform/db"
	"github.com/meridian-registry/meridian/internal/rbac"
	"github.com/meridian-registry/meridian/internal/shared"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "meridian_session", cfg.SessionTTL, cfg.IsProduction())

	directory := identity.NewService(identity.NewRepository(pool))
	if err := bootstrapDirectory(ctx, directory, cfg); err != nil {
		logger.Error("bootstrap directory", slog.Any("error", err))
		os.Exit(1)
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	recorder := audit.NewQueueRecorder(asynqClient, logger)

	engine := rbac.NewEngine(directory)
	validate := entity.NewFieldValidator()

	companyService := companies.NewService(companies.NewRepository(pool), engine, validate)
	companyHandler := companies.NewHandler(logger, companyService, recorder)
	authHandler := auth.NewHandler(logger, directory, sessionManager)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		AuthHandler:      authHandler,
		CompaniesHandler: companyHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// bootstrapDirectory seeds the admin role, the entity-scoped company
// roles and the bootstrap admin account when missing.
func bootstrapDirectory(ctx context.Context, directory *identity.Service, cfg *app.Config) error {
	if _, err := directory.EnsureRole(ctx, identity.AdminRole, "unrestricted access"); err != nil {
		return err
	}
	for _, name := range companies.DefaultRoles() {
		if _, err := directory.EnsureRole(ctx, name, "company entity role"); err != nil {
			return err
		}
	}
	_, err := directory.FindUser(ctx, cfg.BootstrapAdminUser)
	if err == nil {
		return nil
	}
	if !errors.Is(err, identity.ErrNotFound) {
		return err
	}
	if _, err := directory.AddUser(ctx, identity.NewUserParams{
		Username: cfg.BootstrapAdminUser,
		Password: cfg.BootstrapAdminPassword,
		Admin:    true,
	}); err != nil {
		return fmt.Errorf("create bootstrap admin: %w", err)
	}
	return nil
}

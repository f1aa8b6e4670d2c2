// Package entrypoint wires the CMS backend together and runs it until the
// process is asked to stop.
package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/booklify/admin/internal/audit"
	"github.com/booklify/admin/internal/auth"
	"github.com/booklify/admin/internal/config"
	"github.com/booklify/admin/internal/database"
	auditrepo "github.com/booklify/admin/internal/database/audit"
	"github.com/booklify/admin/internal/database/books"
	"github.com/booklify/admin/internal/database/categories"
	"github.com/booklify/admin/internal/database/settings"
	"github.com/booklify/admin/internal/database/subscriptions"
	"github.com/booklify/admin/internal/database/users"
	"github.com/booklify/admin/internal/entities"
	http_controllers "github.com/booklify/admin/internal/http"
	"github.com/booklify/admin/internal/scheduler"
	"github.com/booklify/admin/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

const rateLimiterSweep = time.Minute

// NewAuthService builds the auth service over db. Without a configured
// secret the signing key is generated once and kept in the settings table,
// so tokens survive restarts.
func NewAuthService(db *database.Database, cfg config.Auth) (*auth.Service, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		var err error
		secret, err = settings.NewRepository(db.DB).GetOrCreate(entities.SettingKeyJWTSecret, auth.GenerateSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve JWT secret: %w", err)
		}
	}
	issuer := auth.NewIssuer([]byte(secret), cfg.TokenExpiry, cfg.RefreshWindow)
	return auth.NewService(users.NewRepository(db.DB), issuer, cfg), nil
}

// Serve runs srv until ctx is cancelled, then shuts it down within timeout.
// onShutdown runs before the listener is closed.
func Serve(ctx context.Context, srv *http.Server, timeout time.Duration, onShutdown ShutdownFunc) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", timeout).Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("Server exiting")
	return nil
}

// Run starts the CMS backend and blocks until SIGINT/SIGTERM or ctx is done.
func Run(ctx context.Context, cfg *config.Config, version string) error {
	log.Info().Str("version", version).Msg("Starting Booklify admin")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	settingsRepo := settings.NewRepository(db.DB)
	auditService := audit.NewService(auditrepo.NewRepository(db.DB))
	defer auditService.Flush()

	authService, err := NewAuthService(db, cfg.Auth)
	if err != nil {
		return err
	}
	if admin, err := authService.EnsureAdmin(); err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	} else if admin != nil {
		log.Info().Str("username", admin.Username).Msg("Created bootstrap admin account")
	}

	rateLimiter := auth.NewRateLimiter(cfg.Auth)
	rateLimiter.Start(rateLimiterSweep)
	defer rateLimiter.Stop()

	var taskClient *tasks.Client
	taskCtx, taskCancel := context.WithCancel(context.Background())
	defer taskCancel()
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing task client")
			}
		}()
		taskClient.Register(tasks.NewCleanupAuditEventsQueue(auditService, settingsRepo))
		taskClient.Start(taskCtx)
	}

	cleanup := scheduler.New("audit_cleanup", cfg.Audit.CleanupSchedule, 5*time.Minute,
		auditCleanupJob(taskClient, auditService, settingsRepo, cfg.Audit.RetentionDays))
	if err := cleanup.Start(ctx); err != nil {
		if !errors.Is(err, scheduler.ErrEmptySchedule) {
			return fmt.Errorf("failed to start audit cleanup scheduler: %w", err)
		}
		log.Info().Msg("Audit cleanup schedule not set, scheduler disabled")
	}

	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	routerCfg := http_controllers.RouterConfig{
		Database:           db,
		Books:              books.NewRepository(db.DB),
		Categories:         categories.NewRepository(db.DB),
		Users:              users.NewRepository(db.DB),
		Subscriptions:      subscriptions.NewRepository(db.DB),
		Audit:              auditService,
		AuthService:        authService,
		AuthMiddleware:     auth.NewMiddleware(authService),
		RateLimiter:        rateLimiter,
		Settings:           settingsRepo,
		Schedule:           cleanup,
		AuditRetentionDays: cfg.Audit.RetentionDays,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		Version:            version,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
	}
	router := http_controllers.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	onShutdown := func(ctx context.Context) {
		cleanup.Stop()
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCancel()
		}
	}

	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	return Serve(ctx, srv, timeout, onShutdown)
}

// auditCleanupJob enqueues the retention cleanup, or runs it inline when the
// task queue is disabled.
func auditCleanupJob(client *tasks.Client, cleaner tasks.AuditEventCleaner, recorder tasks.StatusRecorder, retentionDays int) scheduler.Job {
	task := tasks.CleanupAuditEventsTask{RetentionDays: retentionDays}
	return func(ctx context.Context) error {
		if client == nil {
			return tasks.CleanupAuditEventsProcessor(cleaner, recorder)(ctx, task)
		}
		ids, err := client.Add(task).Ctx(ctx).Save()
		if err != nil {
			return fmt.Errorf("enqueue audit cleanup: %w", err)
		}
		log.Info().Strs("task_ids", ids).Msg("Audit cleanup enqueued")
		return nil
	}
}

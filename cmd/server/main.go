package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "elearning/docs" // swagger docs

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"elearning/internal/auth"
	"elearning/internal/cache"
	"elearning/internal/config"
	"elearning/internal/db"
	"elearning/internal/handler"
	"elearning/internal/logging"
	"elearning/internal/notify"
	"elearning/internal/repository"
	"elearning/internal/router"
	"elearning/internal/service"
	"elearning/internal/storage"
)

// @title E-learning API
// @version 1.0
// @description Accounts, verification codes, rotating JWT sessions and the course catalogue of the e-learning platform.
// @host localhost:8080
// @BasePath /ws
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx := context.Background()

	gormDB, err := db.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database init: %w", err)
	}
	if cfg.Database.ResetDB {
		logger.Warn().Msg("database reset requested, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			return fmt.Errorf("reset database: %w", err)
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	cacheClient := cache.New(cfg.Redis)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, catalogue served without cache")
	}

	notifier, closeNotifier, err := newNotifier(cfg, logger)
	if err != nil {
		return err
	}
	defer closeNotifier.Close()
	dispatcher := notify.NewDispatcher(notifier, cfg.Mail.SendTimeout, logger)

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	classRepo := repository.NewClassRepository(gormDB)

	// Initialize auth components
	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	codes := auth.NewCodeIssuer(cfg.Verification.CodeLength, cfg.Verification.CodeTTL)
	hasher := auth.NewHasher()

	// Initialize services
	authService := service.NewAuthService(userRepo, tokens, codes, hasher, dispatcher)
	profileService := service.NewProfileService(userRepo, classRepo, hasher)
	adminService := service.NewAdminService(userRepo)
	courseService := service.NewCourseService(courseRepo, classRepo, cacheClient, cfg.Catalog.CacheTTL)
	classService := service.NewClassService(classRepo, courseRepo, cacheClient, cfg.Catalog.CacheTTL)

	handlers := router.Handlers{
		Auth:   handler.NewAuthHandler(authService),
		Client: handler.NewClientHandler(profileService),
		Admin:  handler.NewAdminHandler(adminService),
		Course: handler.NewCourseHandler(courseService),
		Class:  handler.NewClassHandler(classService),
		Data:   handler.NewDataHandler(courseService, classService),
	}
	if cfg.Storage.Enabled {
		images, err := storage.New(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("storage init: %w", err)
		}
		handlers.Upload = handler.NewUploadHandler(images)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	router.Register(e, cfg, logger, tokens, adminService, handlers)

	addr := ":" + cfg.Server.Port
	go func() {
		logger.Info().Str("addr", addr).Str("mail", cfg.Mail.Transport).Bool("storage", cfg.Storage.Enabled).Msg("starting API server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	stopping := time.Now()
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// let queued mail finish
	dispatcher.Wait()
	logger.Info().Dur("took", time.Since(stopping)).Msg("server stopped")
	return nil
}

// newNotifier selects the outbound mail transport.
func newNotifier(cfg *config.Config, logger zerolog.Logger) (notify.Notifier, io.Closer, error) {
	switch cfg.Mail.Transport {
	case "", "log":
		return notify.NewLogNotifier(logger), noopCloser{}, nil
	case "smtp":
		return notify.NewSMTPNotifier(cfg.SMTP, cfg.Mail.From), noopCloser{}, nil
	case "amqp":
		n, err := notify.NewAMQPNotifier(cfg.AMQP.URL, cfg.AMQP.Queue)
		if err != nil {
			return nil, nil, fmt.Errorf("mail queue init: %w", err)
		}
		return n, n, nil
	default:
		return nil, nil, fmt.Errorf("unknown mail transport %q", cfg.Mail.Transport)
	}
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }

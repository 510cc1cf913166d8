package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/security_backend/internal/config"
	"github.com/Skotchmaster/security_backend/internal/db"
	"github.com/Skotchmaster/security_backend/internal/es"
	"github.com/Skotchmaster/security_backend/internal/handlers"
	"github.com/Skotchmaster/security_backend/internal/hash"
	"github.com/Skotchmaster/security_backend/internal/logging"
	"github.com/Skotchmaster/security_backend/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/security_backend/internal/middleware/logging"
	"github.com/Skotchmaster/security_backend/internal/mykafka"
	"github.com/Skotchmaster/security_backend/internal/repo"
	"github.com/Skotchmaster/security_backend/internal/service"
	"github.com/Skotchmaster/security_backend/internal/service/search"
	"github.com/Skotchmaster/security_backend/internal/token"
	httpserver "github.com/Skotchmaster/security_backend/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server", "status", "fail", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := logging.IntoContext(context.Background(), logger)

	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Error("db_close", "status", "fail", "error", err)
		}
	}()

	tokens, err := token.New(cfg.JWTSecret, cfg.TokenTTL, cfg.JWTIssuer)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	hasher, err := hash.NewHasher(cfg.BcryptCost)
	if err != nil {
		return err
	}

	producer := &mykafka.Producer{}
	if len(cfg.KafkaBrokers) > 0 {
		if producer, err = mykafka.NewProducer(cfg.KafkaBrokers); err != nil {
			return err
		}
	} else {
		logger.Warn("kafka", "status", "disabled", "reason", "KAFKA_BROKERS not set")
	}
	defer func() {
		if err := producer.Close(); err != nil {
			logger.Error("kafka_close", "status", "fail", "error", err)
		}
	}()

	index, err := productIndex(ctx, cfg, logger)
	if err != nil {
		return err
	}

	store := repo.New(gdb)
	authSvc, err := service.NewAuthService(store, hasher, tokens, producer)
	if err != nil {
		return err
	}

	var idx service.ProductIndex
	if index != nil {
		idx = index
	}
	products := service.NewProductService(store, producer, idx)

	e := newEcho(cfg, logger)
	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Auth: authSvc, SecureCookie: cfg.CookieSecure},
		ProductHandler: &handlers.ProductHandler{Products: products},
		StudentHandler: &handlers.StudentHandler{Students: service.NewStudentRegistry()},
		HealthHandler:  &handlers.HealthHandler{Ping: pinger(gdb)},
		Authenticator:  authSvc,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_listen", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCtx.Done():
	}

	logger.Info("shutdown", "status", "start")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "status", "fail", "error", err)
	}
	logger.Info("shutdown", "status", "success")
	return nil
}

func newEcho(cfg *config.Config, logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(logger),
		middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowCredentials: true,
			AllowHeaders: []string{
				echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept,
				echo.HeaderAuthorization, "X-CSRF-Token",
			},
		}),
		csrf.Middleware(csrf.Config{
			Secure:    cfg.CookieSecure,
			SkipPaths: []string{"/login", "/register", "/health/live", "/health/ready"},
		}),
	)
	return e
}

// productIndex returns nil when Elasticsearch is not configured.
func productIndex(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*search.Index, error) {
	client, err := es.NewClient(ctx, cfg, logger)
	if errors.Is(err, es.ErrDisabled) {
		logger.Warn("es", "status", "disabled", "reason", "ES_URL not set")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	index := search.NewIndex(client, cfg.ESIndex)
	if err := index.EnsureIndex(ctx); err != nil {
		return nil, err
	}
	return index, nil
}

func pinger(gdb *gorm.DB) func(ctx context.Context) error {
	return func(ctx context.Context) error { return db.Ping(ctx, gdb) }
}

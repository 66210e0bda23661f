// Command server runs the task API HTTP server.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/phrazzld/taskflow-api/internal/api"
	"github.com/phrazzld/taskflow-api/internal/api/middleware"
	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/phrazzld/taskflow-api/internal/service"
	"github.com/phrazzld/taskflow-api/internal/service/assistant"
	"github.com/phrazzld/taskflow-api/internal/service/auth"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	dbPingTimeout     = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; production sets real environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	db, err := openDatabase(cfg.Database.URL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database", slog.String("error", closeErr.Error()))
		}
	}()

	if err := runMigrations(db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	deps, err := buildDependencies(cfg, db, log)
	if err != nil {
		return err
	}
	router := newRouter(deps)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Serve until interrupted, then drain in-flight requests.
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", slog.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-stop:
		log.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// openDatabase opens and verifies the PostgreSQL connection.
func openDatabase(url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

// dependencies bundles everything the router needs.
type dependencies struct {
	authHandler      *api.AuthHandler
	taskHandler      *api.TaskHandler
	userHandler      *api.UserHandler
	assistantHandler *api.AssistantHandler
	authMiddleware   *middleware.AuthMiddleware
	logger           *slog.Logger
	db               *sql.DB
}

// buildDependencies wires stores, services and handlers together.
func buildDependencies(cfg *config.Config, db *sql.DB, log *slog.Logger) (*dependencies, error) {
	taskStore := postgres.NewPostgresTaskStore(db, log)
	userStore := postgres.NewPostgresUserStore(db, log)

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}
	passwordVerifier := auth.NewBcryptVerifier()

	taskService := service.NewTaskService(db, taskStore, userStore, log)
	resolver := assistant.NewResolver(taskStore, log)

	return &dependencies{
		authHandler:      api.NewAuthHandler(userStore, jwtService, passwordVerifier, &cfg.Auth, log),
		taskHandler:      api.NewTaskHandler(taskService, log),
		userHandler:      api.NewUserHandler(userStore, log),
		assistantHandler: api.NewAssistantHandler(resolver, log),
		authMiddleware:   middleware.NewAuthMiddleware(jwtService),
		logger:           log,
		db:               db,
	}, nil
}

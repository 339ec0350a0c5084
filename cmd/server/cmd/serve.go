package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/eventease/server/internal/api"
	"github.com/eventease/server/internal/auth"
	"github.com/eventease/server/internal/config"
	"github.com/eventease/server/internal/metrics"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the EventEase HTTP server",
	Long: `Start the EventEase HTTP server and begin accepting requests.

The server will:
- Load configuration from environment variables (or --config file if provided)
- Bootstrap the admin account if ADMIN_* env vars are set
- Serve the web UI, health endpoints, and Prometheus metrics
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Msg("starting EventEase server")

	metrics.Init(Version, GitCommit, BuildDate)

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("database config invalid: %w", err)
	}
	if cfg.Database.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.Database.MaxConnections)
	}
	if cfg.Database.MinConnections > 0 {
		poolCfg.MinConns = int32(cfg.Database.MinConnections)
	}

	poolCtx, poolCancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.NewWithConfig(poolCtx, poolCfg)
	poolCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	bootstrapCtx, bootstrapCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrapAdminUser(bootstrapCtx, pool, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	bootstrapCancel()

	dbCollector := metrics.NewDBCollector(pool)
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	go dbCollector.Start(collectorCtx, 15*time.Second)
	defer collectorCancel()
	defer dbCollector.Stop()

	handler, err := api.NewRouter(cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("router init failed: %w", err)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info().Msg("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// bootstrapAdminUser seeds the administrator account from ADMIN_USERNAME,
// ADMIN_PASSWORD, and ADMIN_EMAIL. Idempotent: an existing user with the
// same email or username short-circuits.
func bootstrapAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config, logger zerolog.Logger) error {
	bootstrap := cfg.AdminBootstrap
	if bootstrap.Username == "" || bootstrap.Password == "" || bootstrap.Email == "" {
		logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}

	const checkQuery = `SELECT id FROM users WHERE email = $1 OR username = $2 LIMIT 1`
	var existingID int64
	err := pool.QueryRow(ctx, checkQuery, bootstrap.Email, bootstrap.Username).Scan(&existingID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check admin user: %w", err)
	}

	hash, err := auth.HashPassword(bootstrap.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	const insertQuery = `
INSERT INTO users (username, email, password_hash, role)
VALUES ($1, $2, $3, 'admin')`
	if _, err := pool.Exec(ctx, insertQuery, bootstrap.Username, bootstrap.Email, hash); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	if cfg.Environment == "production" {
		logger.Info().Msg("bootstrapped admin user")
	} else {
		logger.Info().Str("email", bootstrap.Email).Msg("bootstrapped admin user")
	}
	return nil
}

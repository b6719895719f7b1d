package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/23f2004399/hms-tool/internal/config"
	"github.com/23f2004399/hms-tool/internal/domain/notification"
	"github.com/23f2004399/hms-tool/internal/platform/ai"
	"github.com/23f2004399/hms-tool/internal/platform/auth"
	"github.com/23f2004399/hms-tool/internal/platform/blobstore"
	"github.com/23f2004399/hms-tool/internal/platform/db"
	"github.com/23f2004399/hms-tool/internal/platform/middleware"
	"github.com/23f2004399/hms-tool/internal/server"
)

const (
	sessionPurgeInterval = 10 * time.Minute
	cleanupInterval      = 24 * time.Hour
	shutdownTimeout      = 10 * time.Second
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medifriend-server",
		Short: "MediFriend patient portal API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(notificationsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			conn, _, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			count, err := db.NewMigrator(conn).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			conn, _, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			statuses, err := db.NewMigrator(conn).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			printStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
	cmd.AddCommand(statusCmd)

	return cmd
}

func notificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Maintain user notifications",
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete notifications, read or unread, older than the retention period",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			conn, cfg, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer conn.Close()

			retention, _ := cmd.Flags().GetDuration("older-than")
			if retention <= 0 {
				retention = cfg.NotificationRetention
			}
			svc := notification.NewService(notification.NewSQLRepository(conn), newLogger(cfg.Env, cfg.LogLevel))
			n, err := svc.Cleanup(ctx, retention)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d notification(s).\n", n)
			return nil
		},
	}
	cleanupCmd.Flags().Duration("older-than", 0, "Retention period (defaults to NOTIFICATION_RETENTION)")
	cmd.AddCommand(cleanupCmd)

	return cmd
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	fmt.Fprintln(w, "---------- ---------------------------------------- ---------- --------------------")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

// openDatabase loads the configuration and connects without migrating.
func openDatabase(ctx context.Context) (*sqlx.DB, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Open(ctx, db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseDSN(),
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		return nil, nil, err
	}
	return conn, cfg, nil
}

func newLogger(env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env == "development" {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// resolveSessionSecret returns the configured secret, or in development a
// random 32-byte one. The second return value is true when a random secret
// was generated.
func resolveSessionSecret(secret string, dev bool) ([]byte, bool, error) {
	if secret != "" {
		return []byte(secret), false, nil
	}
	if !dev {
		return nil, false, errors.New("SESSION_SECRET is required outside development")
	}
	key := make([]byte, 32)
	if _, err := crypto_rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("failed to generate random session secret: %w", err)
	}
	return []byte(hex.EncodeToString(key)), true, nil
}

func newSessionStore(cfg *config.Config, conn *sqlx.DB) auth.SessionStore {
	if cfg.SessionStore == "sql" {
		return auth.NewSQLStore(conn)
	}
	return auth.NewMemoryStore(cfg.SessionIdleTimeout, time.Minute)
}

// aiPolicy mirrors the config fields that Validate checks against
// REQUEST_TIMEOUT, so the gateway can never outlive the request.
func aiPolicy(cfg *config.Config) ai.Policy {
	return ai.Policy{
		Timeout:    cfg.AITimeout,
		MaxRetries: cfg.AIMaxRetries,
		Backoff:    cfg.AIRetryBackoff,
		MaxBackoff: cfg.AIMaxBackoff,
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	secret, generated, err := resolveSessionSecret(cfg.SessionSecret, cfg.IsDev())
	if err != nil {
		return err
	}
	if generated {
		logger.Warn().Msg("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	conn, err := db.Open(ctx, db.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DatabaseDSN(),
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer conn.Close()

	applied, err := db.InitSchema(ctx, conn)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize schema")
		return err
	}
	logger.Info().Str("driver", cfg.DBDriver).Int("applied", applied).Msg("database ready")

	// Sessions
	store := newSessionStore(cfg, conn)
	defer store.Close()
	sessions := auth.NewSessionManager(store, auth.ManagerConfig{
		Secret:      secret,
		IdleTimeout: cfg.SessionIdleTimeout,
		MaxAge:      cfg.SessionMaxAge,
	}, logger)

	// Uploads and AI
	blobs, err := blobstore.NewFileStore(cfg.UploadDir, middleware.ParseLimit(cfg.MaxUploadSize))
	if err != nil {
		logger.Error().Err(err).Str("dir", cfg.UploadDir).Msg("failed to prepare upload directory")
		return err
	}
	client := ai.NewClient(ai.GeminiConfig{
		BaseURL: cfg.AIBaseURL,
		Model:   cfg.AIModel,
		APIKey:  cfg.AIAPIKey,
	}, aiPolicy(cfg), logger)

	e := server.New(server.Deps{
		Config:   cfg,
		DB:       conn,
		Sessions: sessions,
		Blobs:    blobs,
		AI:       client,
		Logger:   logger,
	})

	notifications := notification.NewService(notification.NewSQLRepository(conn), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", server.Version).Msg("starting server")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		every(gctx, sessionPurgeInterval, func() {
			if n, err := sessions.Purge(gctx); err != nil {
				logger.Error().Err(err).Msg("session purge failed")
			} else if n > 0 {
				logger.Debug().Int("purged", n).Msg("expired sessions purged")
			}
		})
		return nil
	})
	g.Go(func() error {
		every(gctx, cleanupInterval, func() {
			if _, err := notifications.Cleanup(gctx, cfg.NotificationRetention); err != nil {
				logger.Error().Err(err).Msg("notification cleanup failed")
			}
		})
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// every runs fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

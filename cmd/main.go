package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/advisor"
	"github.com/tallyhq/tally/internal/config"
	"github.com/tallyhq/tally/internal/httpapi"
	"github.com/tallyhq/tally/internal/service/auth"
	"github.com/tallyhq/tally/internal/service/ledgersvc"
	filestore "github.com/tallyhq/tally/internal/storage/file"
	"github.com/tallyhq/tally/internal/storage/memory"
	pgstore "github.com/tallyhq/tally/internal/storage/postgres"
	sqlitestore "github.com/tallyhq/tally/internal/storage/sqlite"
)

// store is the union of the repository, writer and session interfaces every
// backend provides.
type store interface {
	auth.Repo
	auth.Writer
	auth.SessionStore
	ledgersvc.Repo
	ledgersvc.Writer
}

func main() {
	// .env is a dev convenience; missing file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	st, closeFn, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.Backend, "err", err)
		os.Exit(1)
	}
	if closeFn != nil {
		defer closeFn()
	}
	logger.Info("storage backend: " + cfg.Backend)

	var adviser httpapi.Adviser
	if cfg.GeminiAPIKey != "" {
		a, err := advisor.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Error("failed to init advisor", "err", err)
			os.Exit(1)
		}
		adviser = a
		logger.Info("advice enabled", "model", cfg.GeminiModel)
	}

	handler := httpapi.New(st, st, st, st, st, adviser, st, cfg.BaseCurrency, logger).Handler()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("tally service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShutdown)
	})
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}

// openStore selects and opens the configured backend.
func openStore(ctx context.Context, cfg *config.Config) (store, func(), error) {
	switch cfg.Backend {
	case "postgres":
		pg, err := pgstore.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	case "sqlite":
		db, err := sqlitestore.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		return db, func() { _ = db.Close() }, nil
	case "file":
		fs, err := filestore.Open(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return fs, nil, nil
	default:
		return memory.New(), nil, nil
	}
}

// parseLogLevel maps env values to slog.Leveler
func parseLogLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "err":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func buildLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)
	if strings.ToLower(cfg.LogFormat) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	}
	// default to JSON
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

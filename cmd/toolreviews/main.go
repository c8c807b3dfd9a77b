package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	sqliteadapter "github.com/dmcnab/toolreviews/internal/adapter/driven/sqlite"
	httphandler "github.com/dmcnab/toolreviews/internal/adapter/driving/http"
	"github.com/dmcnab/toolreviews/internal/application"
	"github.com/dmcnab/toolreviews/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Local .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"stats_cache_ttl", cfg.StatsCacheTTL,
		"flag_threshold", cfg.FlagThreshold,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	commentStore := sqliteadapter.NewCommentRepo(db)
	interactionLedger := sqliteadapter.NewInteractionRepo(db)
	profileStore := sqliteadapter.NewProfileRepo(db)

	statsCache := application.NewStatsCache(cfg.StatsCacheTTL)
	commentSvc := application.NewCommentService(commentStore, interactionLedger, profileStore, statsCache)
	flagPolicy := application.NewFlagPolicy(cfg.FlagThreshold, commentSvc)

	if cfg.AdminToken == "" {
		slog.Warn("no admin token configured, moderation endpoints disabled")
	}

	apiHandler := httphandler.NewHandler(commentSvc, flagPolicy, cfg.AdminToken, slog.Default())
	handler := httphandler.NewServeMux(apiHandler, slog.Default())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("toolreviews started", "listen_addr", cfg.ListenAddr)

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

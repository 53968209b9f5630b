// Package main is the entry point for the business-day calendar API server.
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

	"github.com/zapponejosh/bizcal/internal/api"
	"github.com/zapponejosh/bizcal/internal/calendar"
	"github.com/zapponejosh/bizcal/internal/config"
	"github.com/zapponejosh/bizcal/internal/database"
	"github.com/zapponejosh/bizcal/internal/holidayfile"
	"github.com/zapponejosh/bizcal/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Setup structured logging
	log := logger.Setup(cfg)

	log.Info("starting bizcal API",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
		slog.String("log_level", cfg.LogLevel),
		slog.String("default_calendar", cfg.DefaultCalendar),
	)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("bizcal API stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(database.DefaultConfig(cfg.DatabasePath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations complete", slog.Int("applied", applied))

	registry := calendar.NewRegistry(db)

	if cfg.HolidaysDir != "" {
		files, err := holidayfile.LoadDir(cfg.HolidaysDir)
		if err != nil {
			return fmt.Errorf("load holiday files: %w", err)
		}
		if err := holidayfile.RegisterAll(ctx, registry, files); err != nil {
			return fmt.Errorf("register holiday files: %w", err)
		}
		log.Info("holiday files loaded",
			slog.String("dir", cfg.HolidaysDir),
			slog.Int("calendars", len(files)),
		)
	}

	if err := registry.SetDefault(ctx, cfg.DefaultCalendar); err != nil {
		return fmt.Errorf("default calendar: %w", err)
	}

	handlers := api.NewHandlers(db, registry, cfg, log)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           api.SetupRoutes(handlers, cfg, log),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("bizcal API ready", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received, stopping server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/mealweek/internal/aiplan"
	"github.com/dukerupert/mealweek/internal/auth"
	"github.com/dukerupert/mealweek/internal/catalog"
	"github.com/dukerupert/mealweek/internal/database"
	"github.com/dukerupert/mealweek/internal/photo"
	"github.com/dukerupert/mealweek/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (the default command)",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	cat, err := catalog.Builtin()
	if err != nil {
		return fmt.Errorf("load dish catalog: %w", err)
	}

	var aiSvc *aiplan.Service
	if cfg.AI.Enabled() {
		gen, err := aiplan.NewGemini(context.Background(), cfg.AI.GeminiAPIKey, cfg.AI.Model)
		if err != nil {
			return fmt.Errorf("create AI client: %w", err)
		}
		defer gen.Close()
		aiSvc = aiplan.NewService(gen, logger)
	} else {
		slog.Info("AI helpers disabled, MEALWEEK_GEMINI_API_KEY not set")
	}

	photos := photo.New(cfg.Photos)
	if !photos.Enabled() {
		slog.Info("dish photo uploads disabled, S3 settings incomplete")
	}

	srv := server.New(db, server.Options{
		Catalog:  cat,
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Audience),
		Photos:   photos,
		AI:       aiSvc,
		Planner:  cfg.Planner,
	}, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Background cleanup goroutine
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("mealweek starting", "addr", httpServer.Addr, "catalog_dishes", cat.Len())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		return fmt.Errorf("serve: %w", err)
	}

	slog.Info("shutting down")
	cleanupCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

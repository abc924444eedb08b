package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nutrisnap/backend/config"
	httpDelivery "github.com/nutrisnap/backend/internal/delivery/http"
	"github.com/nutrisnap/backend/internal/usecase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log.Printf("Starting NutriSnap Backend v%s", httpDelivery.Version)
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Storage Type: %s", cfg.Storage.Type)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	repo, closeRepo, err := openTrackerRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRepo(); err != nil {
			log.Printf("Failed to close tracker store: %v", err)
		}
	}()

	client := newNutritionClient(cfg)
	resolver, closeCache := newResolver(cfg, client)
	defer closeCache()

	detector, images, err := newAWSAdapters(ctx, cfg)
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	// Initialize usecase layer
	tracker := usecase.NewTrackerService(repo, images, usecase.TrackerServiceConfig{Location: loc})
	classifier := newClassifier(cfg, detector)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolver, tracker, classifier)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	err = config.Watch(func(updated *config.Config) {
		if client != nil {
			client.SetRateLimit(updated.RateLimit.Nutritionix, nutritionixBurst)
		}
		log.Printf("[Config] Nutritionix rate limit now %d/min; other changes apply on restart",
			updated.RateLimit.Nutritionix)
	})
	if err != nil {
		log.Printf("[Config] Watch disabled: %v", err)
	}

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Printf("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

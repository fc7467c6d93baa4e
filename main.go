package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "jobtrack-backend/cmd/api"
	"jobtrack-backend/internal/app"
	"jobtrack-backend/internal/watch/scheduler"
	"jobtrack-backend/pkg/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg := config.Load()

	// Wire database, repositories, extractor and ingestion pipeline
	tracker, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer tracker.Close()

	// Start push workers
	tracker.Queue.Start()
	defer tracker.Queue.Stop()

	// Pull subscription is optional; the push endpoint works without it
	subscriber, err := tracker.NewSubscriber(ctx)
	if err != nil {
		log.Printf("[ERROR] Failed to initialize Pub/Sub subscriber: %v", err)
	} else if subscriber != nil {
		go func() {
			if err := subscriber.Start(ctx); err != nil {
				log.Printf("[ERROR] Pub/Sub subscriber stopped: %v", err)
			}
		}()
	} else {
		log.Printf("[WARN] GOOGLE_PUBSUB_SUBSCRIPTION not configured, relying on push endpoint")
	}

	// Watch refresh scheduler
	if cfg.GoogleProjectID != "" {
		watchScheduler := scheduler.NewWatchRefreshScheduler(tracker.Watch, cfg.WatchRefreshInterval)
		watchScheduler.Start()
		defer watchScheduler.Stop()
	} else {
		log.Printf("[WARN] GoogleProjectID not configured, watch refresh disabled")
	}

	// Initialize HTTP handler
	handler := api.NewHandler(cfg, tracker.Applications, tracker.DeviceTokens, tracker.PushHandler)
	server := handler.Server(":" + cfg.Port)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[ERROR] HTTP shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("Failed to start server:", err)
	}
	log.Printf("Server stopped, draining workers")
}

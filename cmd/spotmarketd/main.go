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

	"spotmarket-backend/config"
	"spotmarket-backend/internal/alloc"
	"spotmarket-backend/internal/api"
	"spotmarket-backend/internal/booking"
	"spotmarket-backend/internal/db"
	"spotmarket-backend/internal/search"
	"spotmarket-backend/internal/store"
	"spotmarket-backend/internal/waitlist"
)

func main() {
	logger := log.New(os.Stdout, "spotmarket ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	bookings := booking.NewManager(appStore, cfg.Booking)
	allocator := alloc.NewAllocator(appStore, bookings)
	finder := search.NewFinder(appStore, cfg.Search)
	coordinator := waitlist.NewCoordinator(appStore, allocator)

	// Waitlist resolution: on-release workers plus the periodic sweep.
	sweeper := waitlist.NewSweeper(cfg.Waitlist.WorkerPoolSize, cfg.Waitlist.SweepInterval,
		appStore, coordinator, bookings)
	sweeper.Start(ctx)

	handler := api.NewHandler(appStore, finder, allocator, coordinator, bookings, sweeper)
	router := api.NewRouter(handler, &cfg.Server)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

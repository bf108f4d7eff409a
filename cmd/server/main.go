/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the shift tracking service. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment configuration (.env supported)
  2. Parse command-line flags (override environment)
  3. Initialize SQLite store
  4. Create lifecycle service and API handler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: from PORT env, else 8080)
  -db      SQLite database path (default: from DB_PATH env, shifts.db)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop GPS trackers and close the database
  4. Exit
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trackdog111/timetrack-nz-sub001/api"
	"github.com/trackdog111/timetrack-nz-sub001/config"
	"github.com/trackdog111/timetrack-nz-sub001/lifecycle"
	"github.com/trackdog111/timetrack-nz-sub001/shift"
	"github.com/trackdog111/timetrack-nz-sub001/store/sqlite"
)

// noLocationProvider is the server-side provider. The server has no
// GPS sensor; clients push samples through POST /api/shifts/locations.
type noLocationProvider struct{}

func (noLocationProvider) CurrentLocation(ctx context.Context, timeout time.Duration) *shift.Location {
	return nil
}

func main() {
	cfg := config.Load()

	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	service := lifecycle.New(store, noLocationProvider{}, nil, lifecycle.Config{
		TrackingInterval:        cfg.TrackingInterval,
		LocationTimeout:         time.Duration(cfg.LocationTimeoutMs) * time.Millisecond,
		DetectionDistanceMeters: cfg.DetectionDistanceMeters,
		PaidRestMinutes:         cfg.PaidRestMinutes,
		AutoTravel:              cfg.AutoTravel,
		RequireClockOutNotes:    cfg.RequireClockOutNotes,
	})
	defer service.Close()

	handler := api.NewHandler(service, store, nil, cfg.PaidRestMinutes)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

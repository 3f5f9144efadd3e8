package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gracebay/prayerwall/internal/database"
	"github.com/gracebay/prayerwall/internal/email"
	"github.com/gracebay/prayerwall/internal/logging"
	"github.com/gracebay/prayerwall/internal/server"
)

func main() {
	port := os.Getenv("PRAYERWALL_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("PRAYERWALL_DB_PATH")
	if dbPath == "" {
		dbPath = "prayerwall.db"
	}

	timezone := os.Getenv("PRAYERWALL_TZ")
	if timezone == "" {
		timezone = "UTC"
	}

	logger := logging.Setup(os.Getenv("PRAYERWALL_LOG_LEVEL"))

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("PRAYERWALL_POSTMARK_TOKEN"),
		os.Getenv("PRAYERWALL_POSTMARK_FROM"),
	)
	if !emailClient.Configured() {
		logger.Warn("email not configured, verification codes and reminders will not be delivered")
	}

	srv := server.New(db, emailClient, timezone, logger)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	srv.Scheduler().Start(schedulerCtx)

	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go runCleanup(cleanupCtx, srv, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Prayerwall running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	stopCleanup()
	stopScheduler()
	srv.Scheduler().Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// runCleanup periodically sweeps expired sessions, stale verification
// codes, and idle rate limiter entries.
func runCleanup(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := srv.SessionStore().DeleteExpired(); err != nil {
				logger.Error("cleanup expired sessions", "error", err)
			}
			if _, err := srv.VerificationCodeStore().DeleteExpired(); err != nil {
				logger.Error("cleanup expired verification codes", "error", err)
			}
			srv.RateLimiter().Cleanup()
		}
	}
}

package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/health/handlers"
)

// NewMux wires /ping, /health and /status.
func NewMux(tracker *Tracker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", handlers.HandlePing)
	mux.HandleFunc("/health", handlers.HandleHealth(tracker.Healthy))
	mux.HandleFunc("/status", handlers.HandleStatus(func() any { return tracker.Snapshot() }))
	return mux
}

// Run serves the health endpoints until ctx is done.
func Run(ctx context.Context, addr string, tracker *Tracker) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewMux(tracker),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("Health server listening", "service", tracker.service, "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Health server error", "service", tracker.service, "error", err)
		}
	}()
}

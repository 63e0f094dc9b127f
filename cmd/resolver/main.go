package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/app"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/engine"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/notify"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/health"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/logging"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/skiplog"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/storage"
)

const defaultConfigPath = "configs/resolver.yaml"

func main() {
	var (
		configPath string
		inPath     string
		interval   time.Duration
		asJSON     bool
		healthAddr string
	)

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.StringVar(&inPath, "in", "-", "JSON array of classified offers; - reads stdin")
	flag.DurationVar(&interval, "interval", 0, "Re-run the batch on this interval (overrides runner.interval)")
	flag.BoolVar(&asJSON, "json", false, "Print the batch result as JSON instead of a table")
	flag.StringVar(&healthAddr, "health-addr", "", "Health server listen address (overrides runner.health_addr)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := logging.SetupLogger(&cfg.Logging, "resolver"); err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}
	if interval <= 0 {
		interval = cfg.Runner.Interval
	}
	if healthAddr == "" {
		healthAddr = cfg.Runner.HealthAddr
	}

	resolution, err := app.NewResolution(cfg)
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	eng := engine.New(resolution.Resolver, app.NewBookFetcher(cfg, resolution.Client), engine.Options{
		Concurrency:     cfg.Resolver.OfferConcurrency,
		Filters:         app.Filters(cfg.Publish),
		DisableRunCache: cfg.Resolver.DisableRunCache,
	})

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping resolver...")
		cancel()
	}()

	tracker := health.NewTracker("resolver")
	runOnce := func() error {
		offers, err := readOffers(inPath)
		if err != nil {
			return err
		}
		res, err := eng.ProcessBatch(ctx, offers)
		if err != nil {
			tracker.RecordError(err)
			return err
		}
		tracker.Record(res)
		publisher.Publish(ctx, res)
		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		return engine.WriteReport(os.Stdout, res)
	}

	if interval <= 0 {
		if err := runOnce(); err != nil {
			log.Fatalf("resolver: %v", err)
		}
		return
	}

	if healthAddr != "" {
		health.Run(ctx, healthAddr, tracker)
	}
	slog.Info("Resolver started", "interval", interval, "input", inPath)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := runOnce(); err != nil {
			slog.Error("Batch failed", "error", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("Resolver stopped")
			return
		case <-ticker.C:
		}
	}
}

// newPublisher wires whichever sinks are configured. Unset sinks stay nil interfaces.
func newPublisher(cfg *config.Config) (*engine.Publisher, func()) {
	p := &engine.Publisher{}
	var closers []func()

	if w := skiplog.Open(cfg.SkipLog); w != nil {
		p.Skips = w
		closers = append(closers, func() { _ = w.Close() })
	}

	if cfg.Postgres.DSN != "" {
		pg, err := storage.NewPostgresOfferStorage(&cfg.Postgres)
		if err != nil {
			log.Fatalf("resolver: failed to initialize PostgreSQL storage: %v", err)
		}
		p.Store = pg
		closers = append(closers, func() {
			if err := pg.Close(); err != nil {
				slog.Warn("Error closing PostgreSQL storage", "error", err)
			}
		})
	}

	if cfg.Redis.Addr != "" {
		gate, err := storage.NewRedisAlertGate(&cfg.Redis)
		if err != nil {
			slog.Warn("Redis unavailable, using in-memory alert gate", "error", err)
			p.Gate = storage.NewMemoryAlertGate(cfg.Redis.AlertCooldown)
		} else {
			p.Gate = gate
			closers = append(closers, func() { _ = gate.Close() })
		}
	} else {
		p.Gate = storage.NewMemoryAlertGate(cfg.Redis.AlertCooldown)
	}

	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		n, err := notify.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			slog.Warn("Telegram notifier disabled", "error", err)
		} else {
			p.Alerts = n
			closers = append(closers, n.Stop)
		}
	}

	return p, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
}

func readOffers(path string) ([]models.ClassifiedOffer, error) {
	var r io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open offers: %w", err)
		}
		defer f.Close()
		r = f
	}
	var offers []models.ClassifiedOffer
	if err := json.NewDecoder(r).Decode(&offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}
	return offers, nil
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"
	"time"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/app"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/logging"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

func main() {
	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "configs/resolver.yaml"
	}
	configPath := flag.String("config", defaultConfig, "Path to config file")
	team := flag.String("team", "", "Team name as written by the bookmaker")
	kind := flag.String("kind", string(models.KindTeamWin), "TEAM_WIN, TEAM_DRAW, WIN_TO_NIL or TEAM_WIN_AND_BTTS")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall timeout")
	flag.Parse()

	if strings.TrimSpace(*team) == "" {
		log.Fatal("resolve-team: -team is required")
	}
	leg := models.AtomicLegRequest{Team: *team, Kind: models.AtomicKind(strings.ToUpper(*kind))}
	if !leg.Kind.Valid() {
		log.Fatalf("resolve-team: unknown kind %q", *kind)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if _, err := logging.SetupLogger(&cfg.Logging, "resolve-team"); err != nil {
		log.Fatalf("Failed to setup logging: %v", err)
	}

	resolution, err := app.NewResolution(cfg)
	if err != nil {
		log.Fatalf("resolve-team: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	out, err := resolution.Resolver.Resolve(ctx, leg)
	if err != nil {
		log.Fatalf("resolve-team: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("resolve-team: %v", err)
	}
	if out.Failure != nil {
		os.Exit(1)
	}
}

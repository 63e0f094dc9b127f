package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Betfair  BetfairConfig  `yaml:"betfair"`
	Resolver ResolverConfig `yaml:"resolver"`
	Aliases  AliasesConfig  `yaml:"aliases"`
	Publish  PublishConfig  `yaml:"publish"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Telegram TelegramConfig `yaml:"telegram"`
	Logging  LoggingConfig  `yaml:"logging"`
	SkipLog  FileLogConfig  `yaml:"skip_log"`
	Runner   RunnerConfig   `yaml:"runner"`
}

type BetfairConfig struct {
	AppKey            string        `yaml:"app_key"`
	Username          string        `yaml:"username"`
	Password          string        `yaml:"password"`
	CertFile          string        `yaml:"cert_file"`
	KeyFile           string        `yaml:"key_file"`
	Region            string        `yaml:"region"`        // com, it, es, com.au
	SessionToken      string        `yaml:"session_token"` // static token, skips cert login
	SessionCache      string        `yaml:"session_cache"`
	BettingURL        string        `yaml:"betting_url"`
	IdentityCertURL   string        `yaml:"identity_cert_url"`
	IdentityURL       string        `yaml:"identity_url"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Burst             int           `yaml:"burst"`
	BookChunkSize     int           `yaml:"book_chunk_size"`
	BookConcurrency   int           `yaml:"book_concurrency"`
	BackoffBase       time.Duration `yaml:"backoff_base"`
	BackoffMax        time.Duration `yaml:"backoff_max"`
	BestPricesDepth   int           `yaml:"best_prices_depth"`
	Virtualise        *bool         `yaml:"virtualise"`
}

type ResolverConfig struct {
	HorizonHours      int      `yaml:"horizon_hours"`
	MaxResults        int      `yaml:"max_results"`
	MatchOddsType     string   `yaml:"match_odds_type"`
	MatchOddsBTTSType string   `yaml:"match_odds_btts_type"`
	WinToNilTypes     []string `yaml:"win_to_nil_types"`
	OfferConcurrency  int      `yaml:"offer_concurrency"`
	BTeamWhitelist    []string `yaml:"b_team_whitelist"`
	DisableRunCache   bool     `yaml:"disable_run_cache"`
}

type AliasesConfig struct {
	MastersPath     string `yaml:"masters"`
	OverlaysDir     string `yaml:"overlays"`
	ExchangeOverlay string `yaml:"exchange_overlay"`
	SynonymsPath    string `yaml:"synonyms"`
	UseSynonyms     bool   `yaml:"use_synonyms"`
}

type PublishConfig struct {
	Threshold           float64 `yaml:"threshold"`
	MinLiquidity        float64 `yaml:"min_liquidity"`
	MaxSpreadPct        float64 `yaml:"max_spread_pct"`
	RequireMinLiquidity *bool   `yaml:"require_min_liquidity"`
	EnforceSpread       *bool   `yaml:"enforce_spread"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	AlertCooldown time.Duration `yaml:"alert_cooldown"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token"`
	ChatID   int64  `yaml:"chat_id"`
}

type LoggingConfig struct {
	Level         string `yaml:"level"`
	FileLogConfig `yaml:",inline"`
}

// FileLogConfig describes a size-rotated log file.
type FileLogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

type RunnerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	HealthAddr string        `yaml:"health_addr"`
}

// Horizon returns the candidate window length.
func (c ResolverConfig) Horizon() time.Duration {
	return time.Duration(c.HorizonHours) * time.Hour
}

func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, err
	}
	setDefaults(&config)
	return &config, nil
}

func applyEnvOverrides(cfg *Config) error {
	overrideString(&cfg.Betfair.AppKey, "BETFAIR_APP_KEY")
	overrideString(&cfg.Betfair.Username, "BETFAIR_USERNAME")
	overrideString(&cfg.Betfair.Password, "BETFAIR_PASSWORD")
	overrideString(&cfg.Betfair.CertFile, "BETFAIR_CERT")
	overrideString(&cfg.Betfair.KeyFile, "BETFAIR_KEY")
	overrideString(&cfg.Betfair.SessionToken, "BETFAIR_SESSION_TOKEN")
	overrideString(&cfg.Betfair.Region, "BETFAIR_REGION")
	overrideString(&cfg.Postgres.DSN, "POSTGRES_DSN")
	overrideString(&cfg.Redis.Addr, "REDIS_ADDR")
	overrideString(&cfg.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	overrideString(&cfg.Logging.Level, "LOG_LEVEL")

	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", v, err)
		}
		cfg.Telegram.ChatID = chatID
	}
	return nil
}

func overrideString(dst *string, env string) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		*dst = v
	}
}

func setDefaults(cfg *Config) {
	bf := &cfg.Betfair
	if bf.Region == "" {
		bf.Region = "com"
	}
	if bf.BettingURL == "" {
		bf.BettingURL = "https://api.betfair.com/exchange/betting/json-rpc/v1"
	}
	if bf.IdentityCertURL == "" {
		bf.IdentityCertURL = "https://identitysso-cert.betfair." + bf.Region + "/api/certlogin"
	}
	if bf.IdentityURL == "" {
		bf.IdentityURL = "https://identitysso.betfair." + bf.Region
	}
	if bf.SessionCache == "" {
		bf.SessionCache = ".cache/betfair-session.json"
	}
	if bf.Timeout <= 0 {
		bf.Timeout = 15 * time.Second
	}
	if bf.RequestsPerSecond <= 0 {
		bf.RequestsPerSecond = 5
	}
	if bf.Burst <= 0 {
		bf.Burst = 5
	}
	if bf.BookChunkSize <= 0 {
		bf.BookChunkSize = 20
	}
	if bf.BookConcurrency <= 0 {
		bf.BookConcurrency = 2
	}
	if bf.BackoffBase <= 0 {
		bf.BackoffBase = 200 * time.Millisecond
	}
	if bf.BackoffMax <= 0 {
		bf.BackoffMax = 2 * time.Second
	}
	if bf.BestPricesDepth <= 0 {
		bf.BestPricesDepth = 1
	}
	if bf.Virtualise == nil {
		bf.Virtualise = boolPtr(true)
	}

	rs := &cfg.Resolver
	if rs.HorizonHours <= 0 {
		rs.HorizonHours = 72
	}
	if rs.MaxResults <= 0 {
		rs.MaxResults = 200
	}
	if rs.MatchOddsType == "" {
		rs.MatchOddsType = "MATCH_ODDS"
	}
	if rs.MatchOddsBTTSType == "" {
		rs.MatchOddsBTTSType = "MATCH_ODDS_AND_BOTH_TEAMS_TO_SCORE"
	}
	if len(rs.WinToNilTypes) == 0 {
		rs.WinToNilTypes = []string{"WIN_TO_NIL"}
	}
	if rs.OfferConcurrency <= 0 {
		rs.OfferConcurrency = 4
	}

	if cfg.Aliases.MastersPath == "" {
		cfg.Aliases.MastersPath = "data/aliases/masters"
	}
	if cfg.Aliases.ExchangeOverlay == "" {
		cfg.Aliases.ExchangeOverlay = "betfair"
	}

	pb := &cfg.Publish
	if pb.Threshold <= 0 {
		pb.Threshold = 1.05
	}
	if pb.MinLiquidity <= 0 {
		pb.MinLiquidity = 20
	}
	if pb.MaxSpreadPct <= 0 {
		pb.MaxSpreadPct = 20
	}
	if pb.RequireMinLiquidity == nil {
		pb.RequireMinLiquidity = boolPtr(true)
	}
	if pb.EnforceSpread == nil {
		pb.EnforceSpread = boolPtr(true)
	}

	if cfg.Redis.AlertCooldown <= 0 {
		cfg.Redis.AlertCooldown = 6 * time.Hour
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Runner.HealthAddr == "" {
		cfg.Runner.HealthAddr = ":8080"
	}
}

func boolPtr(b bool) *bool { return &b }

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/config"
	"github.com/edgevip3r/edgeviper-scraper-v2/internal/pkg/models"
)

// Ensure PostgresOfferStorage implements OfferStorage
var _ OfferStorage = (*PostgresOfferStorage)(nil)

// PostgresOfferStorage stores resolved offers and skip records in PostgreSQL
type PostgresOfferStorage struct {
	db *sql.DB
}

// NewPostgresOfferStorage opens the connection and creates tables if needed
func NewPostgresOfferStorage(cfg *config.PostgresConfig) (*PostgresOfferStorage, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	storage := &PostgresOfferStorage{db: db}
	if err := storage.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL offer storage initialized")
	return storage, nil
}

func (s *PostgresOfferStorage) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS resolved_offers (
		id SERIAL PRIMARY KEY,
		uid VARCHAR(64) NOT NULL UNIQUE,
		run_id VARCHAR(64) NOT NULL,
		title TEXT NOT NULL,
		bet_type_id VARCHAR(100) NOT NULL,
		bookmaker VARCHAR(100) NOT NULL DEFAULT '',
		source_url TEXT NOT NULL DEFAULT '',
		boosted_odds DECIMAL(12, 4),
		fair_odds DECIMAL(12, 4),
		rating DECIMAL(10, 4),
		min_liquidity DECIMAL(14, 2) NOT NULL DEFAULT 0,
		max_spread_pct DECIMAL(10, 4),
		publishable BOOLEAN NOT NULL,
		status VARCHAR(32) NOT NULL,
		reasons TEXT[] NOT NULL DEFAULT '{}',
		legs JSONB NOT NULL,
		resolved_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_resolved_offers_resolved_at ON resolved_offers(resolved_at DESC);
	CREATE INDEX IF NOT EXISTS idx_resolved_offers_publishable ON resolved_offers(publishable, resolved_at DESC);

	CREATE TABLE IF NOT EXISTS skip_records (
		id SERIAL PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		stage VARCHAR(32) NOT NULL,
		bookmaker VARCHAR(100) NOT NULL DEFAULT '',
		offer_uid VARCHAR(64) NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		bet_type_id VARCHAR(100) NOT NULL DEFAULT '',
		team VARCHAR(200) NOT NULL DEFAULT '',
		kind VARCHAR(32) NOT NULL DEFAULT '',
		reason_code VARCHAR(64) NOT NULL,
		reason_detail TEXT NOT NULL DEFAULT '',
		tried_names TEXT[] NOT NULL DEFAULT '{}',
		candidates_hint TEXT[] NOT NULL DEFAULT '{}',
		event_name VARCHAR(300) NOT NULL DEFAULT '',
		market_id VARCHAR(32) NOT NULL DEFAULT '',
		recorded_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_skip_records_run_id ON skip_records(run_id);
	CREATE INDEX IF NOT EXISTS idx_skip_records_reason_code ON skip_records(reason_code);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// StoreOffer stores a resolved offer if its uid is not stored yet
func (s *PostgresOfferStorage) StoreOffer(ctx context.Context, offer *models.ResolvedOffer) (bool, error) {
	legs, err := json.Marshal(offer.Legs)
	if err != nil {
		return false, fmt.Errorf("failed to marshal legs: %w", err)
	}

	query := `
	INSERT INTO resolved_offers (
		uid, run_id, title, bet_type_id, bookmaker, source_url,
		boosted_odds, fair_odds, rating, min_liquidity, max_spread_pct,
		publishable, status, reasons, legs, resolved_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (uid) DO NOTHING
	RETURNING id
	`

	var id int
	err = s.db.QueryRowContext(ctx, query,
		offer.UID,
		offer.RunID,
		offer.Title,
		offer.BetTypeID,
		offer.Bookmaker,
		offer.SourceURL,
		nullFloat(offer.BoostedOdds),
		nullFloat(offer.FairOdds),
		nullFloat(offer.Rating),
		offer.Diagnostics.MinLiquidity,
		nullFloat(offer.Diagnostics.MaxSpreadPct),
		offer.Publishable,
		string(offer.Status),
		pq.Array(nonNil(offer.Reasons)),
		legs,
		offer.ResolvedAt.UTC(),
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		// Offer already stored under this uid
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to store offer: %w", err)
	}
	return true, nil
}

// StoreFailures inserts skip records in a single transaction
func (s *PostgresOfferStorage) StoreFailures(ctx context.Context, records []models.FailureRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO skip_records (
		run_id, stage, bookmaker, offer_uid, title, bet_type_id, team, kind,
		reason_code, reason_detail, tried_names, candidates_hint, event_name, market_id, recorded_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare skip record insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.RunID,
			r.Stage,
			r.Bookmaker,
			r.OfferUID,
			r.Title,
			r.BetTypeID,
			r.Team,
			string(r.Kind),
			string(r.ReasonCode),
			r.ReasonDetail,
			pq.Array(nonNil(r.TriedNames)),
			pq.Array(nonNil(r.CandidatesHint)),
			r.EventName,
			r.MarketID,
			r.Timestamp.UTC(),
		); err != nil {
			return fmt.Errorf("failed to store skip record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit skip records: %w", err)
	}
	return nil
}

// RecentOffers returns publishable offers resolved after since
func (s *PostgresOfferStorage) RecentOffers(ctx context.Context, since time.Time, limit int) ([]models.ResolvedOffer, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT uid, run_id, title, bet_type_id, bookmaker, source_url,
		boosted_odds, fair_odds, rating, min_liquidity, max_spread_pct,
		publishable, status, reasons, legs, resolved_at
	FROM resolved_offers
	WHERE publishable AND resolved_at >= $1
	ORDER BY resolved_at DESC
	LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent offers: %w", err)
	}
	defer rows.Close()

	var out []models.ResolvedOffer
	for rows.Next() {
		var (
			o                                models.ResolvedOffer
			boosted, fair, rating, maxSpread sql.NullFloat64
			status                           string
			reasons                          []string
			legs                             []byte
		)
		if err := rows.Scan(
			&o.UID, &o.RunID, &o.Title, &o.BetTypeID, &o.Bookmaker, &o.SourceURL,
			&boosted, &fair, &rating, &o.Diagnostics.MinLiquidity, &maxSpread,
			&o.Publishable, &status, pq.Array(&reasons), &legs, &o.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		if err := json.Unmarshal(legs, &o.Legs); err != nil {
			return nil, fmt.Errorf("failed to decode legs for %s: %w", o.UID, err)
		}
		o.BoostedOdds = floatPtr(boosted)
		o.FairOdds = floatPtr(fair)
		o.Rating = floatPtr(rating)
		o.Diagnostics.MaxSpreadPct = floatPtr(maxSpread)
		o.Status = models.OfferStatus(status)
		o.Reasons = reasons
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate offers: %w", err)
	}
	return out, nil
}

// Close closes the database connection
func (s *PostgresOfferStorage) Close() error {
	return s.db.Close()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

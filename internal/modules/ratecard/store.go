// README: Rate card store backed by PostgreSQL; publish assigns the next version.
package ratecard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Publish inserts the card under the next monotonic version in a single
// statement and fills in the assigned version. Concurrent publishers can
// compute the same next version; the loser's primary key violation is
// retried against a fresh MAX.
func (s *Store) Publish(ctx context.Context, c *RateCard) error {
	bands, err := json.Marshal(c.Bands)
	if err != nil {
		return err
	}
	sizes, err := json.Marshal(c.SizeMultipliers)
	if err != nil {
		return err
	}
	for attempt := 0; ; attempt++ {
		err := s.publishOnce(ctx, c, bands, sizes)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && attempt < 3 {
			continue
		}
		return err
	}
}

func (s *Store) publishOnce(ctx context.Context, c *RateCard, bands, sizes []byte) error {
	row := s.db.QueryRow(ctx, `
		INSERT INTO rate_cards (
			version, effective_from, currency,
			base_fare_cents, per_km_cents, per_min_cents, min_fare_cents,
			size_multipliers, bands, tax_enabled, tax_rate, created_at
		)
		SELECT COALESCE(MAX(version), 0) + 1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		FROM rate_cards
		RETURNING version, created_at`,
		c.EffectiveFrom, c.Currency,
		c.BaseFareCents, c.PerKmCents, c.PerMinCents, c.MinFareCents,
		sizes, bands, c.TaxEnabled, c.TaxRate, time.Now().UTC(),
	)
	return row.Scan(&c.Version, &c.CreatedAt)
}

// Active returns the highest-version card already effective at the given
// instant.
func (s *Store) Active(ctx context.Context, at time.Time) (*RateCard, error) {
	row := s.db.QueryRow(ctx, `
		SELECT version, effective_from, currency,
		       base_fare_cents, per_km_cents, per_min_cents, min_fare_cents,
		       size_multipliers, bands, tax_enabled, tax_rate, created_at
		FROM rate_cards
		WHERE effective_from <= $1
		ORDER BY version DESC
		LIMIT 1`, at,
	)
	return scanCard(row)
}

func (s *Store) ByVersion(ctx context.Context, version int) (*RateCard, error) {
	row := s.db.QueryRow(ctx, `
		SELECT version, effective_from, currency,
		       base_fare_cents, per_km_cents, per_min_cents, min_fare_cents,
		       size_multipliers, bands, tax_enabled, tax_rate, created_at
		FROM rate_cards
		WHERE version = $1`, version,
	)
	return scanCard(row)
}

func scanCard(row pgx.Row) (*RateCard, error) {
	var c RateCard
	var bands, sizes []byte
	err := row.Scan(
		&c.Version, &c.EffectiveFrom, &c.Currency,
		&c.BaseFareCents, &c.PerKmCents, &c.PerMinCents, &c.MinFareCents,
		&sizes, &bands, &c.TaxEnabled, &c.TaxRate, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(bands, &c.Bands); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(sizes, &c.SizeMultipliers); err != nil {
		return nil, err
	}
	return &c, nil
}

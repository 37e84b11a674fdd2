// README: Coupon store backed by PostgreSQL; Reserve is the atomic quota primitive.
package coupon

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"courier/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, c *Coupon) error {
	c.Code = NormalizeCode(c.Code)
	if c.AccountTypes == nil {
		c.AccountTypes = []string{}
	}
	if c.UserIDs == nil {
		c.UserIDs = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO coupons (
			id, code, discount_type, discount_value, expires_at,
			max_uses_total, max_uses_per_user, account_types, user_ids,
			min_order_amount_cents, active, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		string(c.ID), c.Code, string(c.DiscountType), c.DiscountValue, c.ExpiresAt,
		c.MaxUsesTotal, c.MaxUsesPerUser, c.AccountTypes, c.UserIDs,
		c.MinOrderAmountCents, c.Active, c.CreatedBy, c.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrCodeTaken
	}
	return err
}

func (s *Store) ByCode(ctx context.Context, code string) (*Coupon, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, code, discount_type, discount_value, expires_at,
		       max_uses_total, max_uses_per_user, account_types, user_ids,
		       min_order_amount_cents, active, created_by, created_at
		FROM coupons
		WHERE code = $1`, NormalizeCode(code),
	)
	var c Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.ExpiresAt,
		&c.MaxUsesTotal, &c.MaxUsesPerUser, &c.AccountTypes, &c.UserIDs,
		&c.MinOrderAmountCents, &c.Active, &c.CreatedBy, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) SetActive(ctx context.Context, code string, active bool) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE coupons SET active = $1 WHERE code = $2`,
		active, NormalizeCode(code),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reserve consumes one unit of quota in a single transaction. The coupon row
// is locked FOR UPDATE so concurrent redeemers of the same coupon serialize;
// counts are checked and the ledger row inserted under that lock, which makes
// check-and-insert one indivisible step. The (coupon_id, order_id) unique
// index makes retried requests return the original outcome.
func (s *Store) Reserve(ctx context.Context, r *Redemption, caps Caps) (ReserveOutcome, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return ReserveOutcome{}, err
	}
	defer tx.Rollback(ctx)

	var lockedID string
	err = tx.QueryRow(ctx, `
		SELECT id FROM coupons WHERE id = $1 FOR UPDATE`,
		string(r.CouponID),
	).Scan(&lockedID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ReserveOutcome{}, ErrNotFound
	}
	if err != nil {
		return ReserveOutcome{}, err
	}

	existing, err := findByOrder(ctx, tx, r.CouponID, r.OrderID)
	if err != nil {
		return ReserveOutcome{}, err
	}
	if existing != nil {
		return ReserveOutcome{Status: ReserveDuplicate, Redemption: existing}, nil
	}

	if caps.Total != nil {
		var count int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1`,
			string(r.CouponID),
		).Scan(&count)
		if err != nil {
			return ReserveOutcome{}, err
		}
		if count >= *caps.Total {
			return ReserveOutcome{Status: ReserveCapExceeded}, nil
		}
	}
	if caps.PerUser != nil {
		var count int
		err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1 AND user_id = $2`,
			string(r.CouponID), string(r.UserID),
		).Scan(&count)
		if err != nil {
			return ReserveOutcome{}, err
		}
		if count >= *caps.PerUser {
			return ReserveOutcome{Status: ReserveCapExceeded}, nil
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO coupon_redemptions (
			id, coupon_id, user_id, order_id, discount_cents, redeemed_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (coupon_id, order_id) DO NOTHING`,
		string(r.ID), string(r.CouponID), string(r.UserID), string(r.OrderID),
		r.DiscountCents, r.RedeemedAt,
	)
	if err != nil {
		return ReserveOutcome{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return ReserveOutcome{}, err
	}
	return ReserveOutcome{Status: ReserveOK, Redemption: r}, nil
}

func (s *Store) CountRedemptions(ctx context.Context, couponID types.ID) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM coupon_redemptions WHERE coupon_id = $1`,
		string(couponID),
	).Scan(&count)
	return count, err
}

func findByOrder(ctx context.Context, tx pgx.Tx, couponID, orderID types.ID) (*Redemption, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, coupon_id, user_id, order_id, discount_cents, redeemed_at
		FROM coupon_redemptions
		WHERE coupon_id = $1 AND order_id = $2`,
		string(couponID), string(orderID),
	)
	var r Redemption
	var redeemedAt time.Time
	err := row.Scan(&r.ID, &r.CouponID, &r.UserID, &r.OrderID, &r.DiscountCents, &redeemedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.RedeemedAt = redeemedAt
	return &r, nil
}

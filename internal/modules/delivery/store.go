// README: Delivery store backed by PostgreSQL.
package delivery

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"courier/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, d *Delivery) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO deliveries (
			id, user_id, status, status_version,
			pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
			package_size, distance_km, duration_minutes,
			rate_card_version, currency, fare_cents,
			coupon_code, discount_cents, total_cents, created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18
		)`,
		string(d.ID),
		string(d.UserID),
		string(d.Status),
		d.StatusVersion,
		d.Pickup.Lat, d.Pickup.Lng,
		d.Dropoff.Lat, d.Dropoff.Lng,
		d.PackageSize, d.DistanceKm, d.DurationMinutes,
		d.RateCardVersion, d.Currency, d.FareCents,
		d.CouponCode, d.DiscountCents, d.TotalCents,
		d.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Delivery, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, user_id, status, status_version,
		       pickup_lat, pickup_lng, dropoff_lat, dropoff_lng,
		       package_size, distance_km, duration_minutes,
		       rate_card_version, currency, fare_cents,
		       coupon_code, discount_cents, total_cents,
		       created_at, picked_up_at, delivered_at, cancelled_at, cancellation_reason
		FROM deliveries
		WHERE id = $1`, string(id),
	)

	var d Delivery
	var couponCode, cancelReason sql.NullString
	var pickedUpAt, deliveredAt, cancelledAt sql.NullTime

	err := row.Scan(
		&d.ID, &d.UserID, &d.Status, &d.StatusVersion,
		&d.Pickup.Lat, &d.Pickup.Lng, &d.Dropoff.Lat, &d.Dropoff.Lng,
		&d.PackageSize, &d.DistanceKm, &d.DurationMinutes,
		&d.RateCardVersion, &d.Currency, &d.FareCents,
		&couponCode, &d.DiscountCents, &d.TotalCents,
		&d.CreatedAt, &pickedUpAt, &deliveredAt, &cancelledAt, &cancelReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if couponCode.Valid {
		d.CouponCode = &couponCode.String
	}
	if cancelReason.Valid {
		d.CancelReason = &cancelReason.String
	}
	d.PickedUpAt = toTimePtr(pickedUpAt)
	d.DeliveredAt = toTimePtr(deliveredAt)
	d.CancelledAt = toTimePtr(cancelledAt)
	return &d, nil
}

func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE deliveries
		SET status = $1,
		    status_version = status_version + 1,
		    cancellation_reason = COALESCE($2, cancellation_reason),
		    picked_up_at = CASE WHEN $1 = 'picked_up' THEN NOW() ELSE picked_up_at END,
		    delivered_at = CASE WHEN $1 = 'delivered' THEN NOW() ELSE delivered_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		reason,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) ApplyDiscount(ctx context.Context, id types.ID, code string, discountCents, totalCents int64) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE deliveries
		SET coupon_code = $1, discount_cents = $2, total_cents = $3
		WHERE id = $4`,
		code, discountCents, totalCents, string(id),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO delivery_state_events (
			delivery_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		string(e.DeliveryID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		toStringPtr(e.ActorID),
		e.CreatedAt,
	)
	return err
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

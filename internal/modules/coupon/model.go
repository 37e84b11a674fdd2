// README: Coupon aggregate, redemption ledger entry, and validation reasons.
package coupon

import (
	"errors"
	"strings"
	"time"

	"courier/internal/types"
)

var (
	ErrNotFound  = errors.New("coupon not found")
	ErrCodeTaken = errors.New("coupon code already exists")
	// ErrReservationFailed means the ledger write itself malfunctioned. The
	// caller must not apply the discount; retry policy is the caller's call.
	ErrReservationFailed = errors.New("coupon reservation failed")
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixedAmount  DiscountType = "fixed_amount"
	DiscountFreeDelivery DiscountType = "free_delivery"
)

// Coupon is operator-owned. Coupons are toggled inactive, never deleted, so
// the redemption ledger always has a referent.
type Coupon struct {
	ID                  types.ID     `json:"id"`
	Code                string       `json:"code"`
	DiscountType        DiscountType `json:"discount_type"`
	DiscountValue       int64        `json:"discount_value"`
	ExpiresAt           *time.Time   `json:"expires_at,omitempty"`
	MaxUsesTotal        *int         `json:"max_uses_total,omitempty"`
	MaxUsesPerUser      *int         `json:"max_uses_per_user,omitempty"`
	AccountTypes        []string     `json:"account_types,omitempty"`
	UserIDs             []string     `json:"user_ids,omitempty"`
	MinOrderAmountCents int64        `json:"min_order_amount_cents"`
	Active              bool         `json:"active"`
	CreatedBy           string       `json:"created_by"`
	CreatedAt           time.Time    `json:"created_at"`
}

// Redemption is one consumed unit of a coupon's quota. Rows are append-only
// and unique per (coupon_id, order_id), which is the idempotency key for
// retried requests.
type Redemption struct {
	ID            types.ID  `json:"id"`
	CouponID      types.ID  `json:"coupon_id"`
	UserID        types.ID  `json:"user_id"`
	OrderID       types.ID  `json:"order_id"`
	DiscountCents int64     `json:"discount_cents"`
	RedeemedAt    time.Time `json:"redeemed_at"`
}

// Reason is a user-presentable rejection cause. Rejections are routine
// business outcomes returned as data, not errors.
type Reason string

const (
	ReasonNotFound     Reason = "not_found"
	ReasonExpired      Reason = "expired"
	ReasonBelowMinimum Reason = "below_minimum"
	ReasonNotEligible  Reason = "not_eligible"
	ReasonCapExceeded  Reason = "cap_exceeded"
)

// NormalizeCode makes code matching case- and whitespace-insensitive. Applied
// on both write and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

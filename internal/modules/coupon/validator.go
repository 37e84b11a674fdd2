// README: Coupon eligibility rules; read-only, short-circuits on the first failure.
package coupon

import (
	"time"

	"courier/internal/types"
)

type ValidationContext struct {
	UserID           types.ID
	AccountType      string
	OrderAmountCents int64
	Now              time.Time
}

// Validate checks a coupon against the order context. Usage caps are
// deliberately not checked here: cap enforcement happens inside the atomic
// reservation, otherwise a check here would race with concurrent redeemers.
// Safe to call any number of times without consuming quota.
func Validate(c *Coupon, vc ValidationContext) (Reason, bool) {
	if c == nil || !c.Active {
		return ReasonNotFound, false
	}
	if c.ExpiresAt != nil && vc.Now.After(*c.ExpiresAt) {
		return ReasonExpired, false
	}
	if vc.OrderAmountCents < c.MinOrderAmountCents {
		return ReasonBelowMinimum, false
	}
	if len(c.AccountTypes) > 0 && !contains(c.AccountTypes, vc.AccountType) {
		return ReasonNotEligible, false
	}
	if len(c.UserIDs) > 0 && !contains(c.UserIDs, string(vc.UserID)) {
		return ReasonNotEligible, false
	}
	return "", true
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// README: Redemption controller; validate -> calculate -> atomically reserve.
package coupon

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"courier/internal/types"
)

// Caps is the quota pair enforced by the ledger. A nil cap means unlimited,
// in which case reservation degenerates to a plain idempotent insert.
type Caps struct {
	Total   *int
	PerUser *int
}

type ReserveStatus int

const (
	ReserveOK ReserveStatus = iota
	ReserveDuplicate
	ReserveCapExceeded
)

type ReserveOutcome struct {
	Status     ReserveStatus
	Redemption *Redemption
}

// Ledger is the storage collaborator. Reserve must check both caps and
// insert the ledger row as one indivisible operation; the service never does
// a separate read-then-write, which would reintroduce the race this design
// exists to close.
type Ledger interface {
	Reserve(ctx context.Context, r *Redemption, caps Caps) (ReserveOutcome, error)
}

// Catalog is the coupon definition source.
type Catalog interface {
	Create(ctx context.Context, c *Coupon) error
	ByCode(ctx context.Context, code string) (*Coupon, error)
	SetActive(ctx context.Context, code string, active bool) error
}

type Service struct {
	catalog Catalog
	ledger  Ledger
	log     *logrus.Logger
	now     func() time.Time
}

func NewService(catalog Catalog, ledger Ledger, log *logrus.Logger) *Service {
	return &Service{catalog: catalog, ledger: ledger, log: log, now: time.Now}
}

type ValidateCommand struct {
	Code             string
	UserID           types.ID
	AccountType      string
	OrderAmountCents int64
	BaseFareCents    int64
}

type RedeemCommand struct {
	Code             string
	UserID           types.ID
	OrderID          types.ID
	AccountType      string
	OrderAmountCents int64
	BaseFareCents    int64
}

type Result struct {
	Valid         bool    `json:"valid"`
	Reason        Reason  `json:"reason,omitempty"`
	DiscountCents int64   `json:"discount_cents"`
	NewTotalCents int64   `json:"new_total_cents"`
	Coupon        *Coupon `json:"-"`
}

// Validate is the read-only preview: it reports eligibility and the
// prospective discount without consuming quota, so it is safe for live
// re-pricing. Usage caps are not visible here; a coupon can pass Validate
// and still be declined at Redeem when the quota runs out.
func (s *Service) Validate(ctx context.Context, cmd ValidateCommand) (*Result, error) {
	c, err := s.lookup(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}
	if reason, ok := s.check(c, cmd.UserID, cmd.AccountType, cmd.OrderAmountCents); !ok {
		return &Result{Valid: false, Reason: reason, NewTotalCents: cmd.OrderAmountCents}, nil
	}
	discount := DiscountFor(c, cmd.OrderAmountCents, cmd.BaseFareCents)
	return &Result{
		Valid:         true,
		DiscountCents: discount,
		NewTotalCents: cmd.OrderAmountCents - discount,
		Coupon:        c,
	}, nil
}

// Redeem converts a coupon usage intent into a permanent ledger entry. It is
// idempotent on (coupon, order): a retried request returns the original
// outcome and writes nothing new.
func (s *Service) Redeem(ctx context.Context, cmd RedeemCommand) (*Result, error) {
	c, err := s.lookup(ctx, cmd.Code)
	if err != nil {
		return nil, err
	}
	if reason, ok := s.check(c, cmd.UserID, cmd.AccountType, cmd.OrderAmountCents); !ok {
		return &Result{Valid: false, Reason: reason, NewTotalCents: cmd.OrderAmountCents}, nil
	}

	discount := DiscountFor(c, cmd.OrderAmountCents, cmd.BaseFareCents)
	outcome, err := s.ledger.Reserve(ctx, &Redemption{
		ID:            types.ID(uuid.NewString()),
		CouponID:      c.ID,
		UserID:        cmd.UserID,
		OrderID:       cmd.OrderID,
		DiscountCents: discount,
		RedeemedAt:    s.now().UTC(),
	}, Caps{Total: c.MaxUsesTotal, PerUser: c.MaxUsesPerUser})
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"coupon": c.Code,
			"order":  cmd.OrderID,
		}).Error("coupon reservation failed")
		return nil, ErrReservationFailed
	}

	switch outcome.Status {
	case ReserveCapExceeded:
		return &Result{Valid: false, Reason: ReasonCapExceeded, NewTotalCents: cmd.OrderAmountCents}, nil
	case ReserveDuplicate:
		// Retried request: report what the first attempt recorded.
		d := outcome.Redemption.DiscountCents
		return &Result{Valid: true, DiscountCents: d, NewTotalCents: cmd.OrderAmountCents - d, Coupon: c}, nil
	default:
		return &Result{Valid: true, DiscountCents: discount, NewTotalCents: cmd.OrderAmountCents - discount, Coupon: c}, nil
	}
}

func (s *Service) Create(ctx context.Context, c *Coupon) error {
	if c.ID == "" {
		c.ID = types.ID(uuid.NewString())
	}
	c.Code = NormalizeCode(c.Code)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	return s.catalog.Create(ctx, c)
}

func (s *Service) ByCode(ctx context.Context, code string) (*Coupon, error) {
	return s.catalog.ByCode(ctx, code)
}

func (s *Service) SetActive(ctx context.Context, code string, active bool) error {
	return s.catalog.SetActive(ctx, code, active)
}

// lookup folds "no such code" into the not-found validation outcome so the
// caller sees one uniform reason surface.
func (s *Service) lookup(ctx context.Context, code string) (*Coupon, error) {
	c, err := s.catalog.ByCode(ctx, NormalizeCode(code))
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) check(c *Coupon, userID types.ID, accountType string, orderAmountCents int64) (Reason, bool) {
	return Validate(c, ValidationContext{
		UserID:           userID,
		AccountType:      accountType,
		OrderAmountCents: orderAmountCents,
		Now:              s.now(),
	})
}

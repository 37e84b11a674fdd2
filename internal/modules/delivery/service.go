// README: Delivery service; quoting, placement with coupon redemption, state transitions.
package delivery

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math"
	"time"

	"courier/internal/modules/coupon"
	"courier/internal/modules/fare"
	"courier/internal/modules/ratecard"
	"courier/internal/types"
)

var (
	ErrInvalidState = errors.New("invalid state transition")
	ErrNotFound     = errors.New("delivery not found")
	ErrConflict     = errors.New("delivery state conflict")
	ErrBadRequest   = errors.New("bad request")
)

type Rates interface {
	Active(ctx context.Context) (*ratecard.RateCard, error)
}

type Coupons interface {
	Validate(ctx context.Context, cmd coupon.ValidateCommand) (*coupon.Result, error)
	Redeem(ctx context.Context, cmd coupon.RedeemCommand) (*coupon.Result, error)
}

// Distances measures a trip. Measurement is an external concern; this is
// only the input adapter for callers that send addresses instead of numbers.
type Distances interface {
	Estimate(ctx context.Context, origin, dest types.Point) (km, minutes float64, err error)
}

// Deliveries is the persistence collaborator for the checkout flow.
type Deliveries interface {
	Create(ctx context.Context, d *Delivery) error
	Get(ctx context.Context, id types.ID) (*Delivery, error)
	UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error)
	ApplyDiscount(ctx context.Context, id types.ID, code string, discountCents, totalCents int64) error
	AppendEvent(ctx context.Context, e *Event) error
}

type Service struct {
	store     Deliveries
	rates     Rates
	coupons   Coupons
	distances Distances
	calc      *fare.Calculator
}

func NewService(store Deliveries, rates Rates, coupons Coupons, distances Distances, calc *fare.Calculator) *Service {
	return &Service{store: store, rates: rates, coupons: coupons, distances: distances, calc: calc}
}

type QuoteCommand struct {
	UserID          types.ID
	AccountType     string
	Pickup          types.Point
	Dropoff         types.Point
	PackageSize     string
	DistanceKm      float64
	DurationMinutes float64
	CouponCode      string
}

type QuoteResult struct {
	Fare   *fare.Breakdown
	Coupon *coupon.Result
}

type PlaceCommand = QuoteCommand

type PlaceResult struct {
	Delivery *Delivery
	Fare     *fare.Breakdown
	Coupon   *coupon.Result
}

type CancelCommand struct {
	DeliveryID types.ID
	ActorType  string
	Reason     string
}

// Quote prices a trip without any side effects. A coupon code, if present,
// is previewed read-only: quota stays untouched until Place.
func (s *Service) Quote(ctx context.Context, cmd QuoteCommand) (*QuoteResult, error) {
	br, err := s.price(ctx, &cmd)
	if err != nil {
		return nil, err
	}
	res := &QuoteResult{Fare: br}
	if cmd.CouponCode != "" {
		cr, err := s.coupons.Validate(ctx, coupon.ValidateCommand{
			Code:             cmd.CouponCode,
			UserID:           cmd.UserID,
			AccountType:      cmd.AccountType,
			OrderAmountCents: br.TotalCents,
			BaseFareCents:    br.BaseFareCents,
		})
		if err != nil {
			return nil, err
		}
		res.Coupon = cr
	}
	return res, nil
}

// Place persists the delivery at the quoted price, then redeems the coupon
// with the delivery id as the idempotency key. Quota is consumed only after
// the delivery row exists, so a ledger entry always has a delivery to
// reconcile against; a failed write never strands a reservation. A cap or
// eligibility rejection leaves the delivery priced in full and carries the
// reason back to the caller.
func (s *Service) Place(ctx context.Context, cmd PlaceCommand) (*PlaceResult, error) {
	if cmd.UserID == "" {
		return nil, ErrBadRequest
	}
	br, err := s.price(ctx, &cmd)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	d := &Delivery{
		ID:              newID(),
		UserID:          cmd.UserID,
		Status:          StatusPlaced,
		StatusVersion:   0,
		Pickup:          cmd.Pickup,
		Dropoff:         cmd.Dropoff,
		PackageSize:     cmd.PackageSize,
		DistanceKm:      br.DistanceKm,
		DurationMinutes: br.DurationMinutes,
		RateCardVersion: br.RateCardVersion,
		Currency:        br.Currency,
		FareCents:       br.TotalCents,
		DiscountCents:   0,
		TotalCents:      br.TotalCents,
		CreatedAt:       now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	_ = s.store.AppendEvent(ctx, &Event{
		DeliveryID: d.ID,
		FromStatus: StatusNone,
		ToStatus:   StatusPlaced,
		ActorType:  "customer",
		ActorID:    &cmd.UserID,
		CreatedAt:  now,
	})

	var couponRes *coupon.Result
	if cmd.CouponCode != "" {
		couponRes, err = s.coupons.Redeem(ctx, coupon.RedeemCommand{
			Code:             cmd.CouponCode,
			UserID:           cmd.UserID,
			OrderID:          d.ID,
			AccountType:      cmd.AccountType,
			OrderAmountCents: br.TotalCents,
			BaseFareCents:    br.BaseFareCents,
		})
		if err != nil {
			return nil, err
		}
		if couponRes.Valid {
			code := coupon.NormalizeCode(cmd.CouponCode)
			total := br.TotalCents - couponRes.DiscountCents
			if err := s.store.ApplyDiscount(ctx, d.ID, code, couponRes.DiscountCents, total); err != nil {
				return nil, err
			}
			d.CouponCode = &code
			d.DiscountCents = couponRes.DiscountCents
			d.TotalCents = total
		}
	}
	return &PlaceResult{Delivery: d, Fare: br, Coupon: couponRes}, nil
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) error {
	d, err := s.store.Get(ctx, cmd.DeliveryID)
	if err != nil {
		return err
	}
	if !CanTransition(d.Status, StatusCancelled) {
		return ErrInvalidState
	}
	reason := cmd.Reason
	ok, err := s.store.UpdateStatus(ctx, d.ID, d.Status, StatusCancelled, d.StatusVersion, &reason)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		DeliveryID: d.ID,
		FromStatus: d.Status,
		ToStatus:   StatusCancelled,
		ActorType:  cmd.ActorType,
		ActorID:    &d.UserID,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) MarkPickedUp(ctx context.Context, id types.ID) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(d.Status, StatusPickedUp) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, d.ID, d.Status, StatusPickedUp, d.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		DeliveryID: d.ID,
		FromStatus: StatusPlaced,
		ToStatus:   StatusPickedUp,
		ActorType:  "courier",
		ActorID:    nil,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) MarkDelivered(ctx context.Context, id types.ID) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(d.Status, StatusDelivered) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, d.ID, d.Status, StatusDelivered, d.StatusVersion, nil)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	_ = s.store.AppendEvent(ctx, &Event{
		DeliveryID: d.ID,
		FromStatus: StatusPickedUp,
		ToStatus:   StatusDelivered,
		ActorType:  "courier",
		ActorID:    nil,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Delivery, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) price(ctx context.Context, cmd *QuoteCommand) (*fare.Breakdown, error) {
	if cmd.DistanceKm < 0 || cmd.DurationMinutes < 0 {
		return nil, ErrBadRequest
	}
	if cmd.DistanceKm == 0 && cmd.DurationMinutes == 0 {
		if s.distances != nil {
			km, minutes, err := s.distances.Estimate(ctx, cmd.Pickup, cmd.Dropoff)
			if err != nil {
				return nil, err
			}
			cmd.DistanceKm, cmd.DurationMinutes = km, minutes
		} else {
			// Offline fallback: straight-line distance at city pace.
			cmd.DistanceKm = distanceKm(cmd.Pickup, cmd.Dropoff)
			cmd.DurationMinutes = cmd.DistanceKm * 3
		}
	}
	card, err := s.rates.Active(ctx)
	if err != nil {
		return nil, err
	}
	return s.calc.Calculate(fare.Input{
		DistanceKm:      cmd.DistanceKm,
		DurationMinutes: cmd.DurationMinutes,
		PackageSize:     cmd.PackageSize,
	}, card)
}

func newID() types.ID {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return types.ID(hex.EncodeToString(b[:]))
}

func distanceKm(a, b types.Point) float64 {
	const R = 6371.0
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dlat := (b.Lat - a.Lat) * math.Pi / 180.0
	dlng := (b.Lng - a.Lng) * math.Pi / 180.0
	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * R * math.Asin(math.Sqrt(h))
}

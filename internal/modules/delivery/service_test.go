package delivery

import (
	"context"
	"errors"
	"testing"

	"courier/internal/modules/coupon"
	"courier/internal/modules/fare"
	"courier/internal/modules/ratecard"
	"courier/internal/types"
)

type stubRates struct {
	card *ratecard.RateCard
	err  error
}

func (s stubRates) Active(context.Context) (*ratecard.RateCard, error) {
	return s.card, s.err
}

type stubCoupons struct {
	validated []coupon.ValidateCommand
	redeemed  []coupon.RedeemCommand
	result    *coupon.Result
	err       error
	log       *[]string
}

func (s *stubCoupons) Validate(_ context.Context, cmd coupon.ValidateCommand) (*coupon.Result, error) {
	s.validated = append(s.validated, cmd)
	return s.result, s.err
}

func (s *stubCoupons) Redeem(_ context.Context, cmd coupon.RedeemCommand) (*coupon.Result, error) {
	if s.log != nil {
		*s.log = append(*s.log, "redeem")
	}
	s.redeemed = append(s.redeemed, cmd)
	return s.result, s.err
}

// memoryDeliveries keeps placed deliveries in a slice and records the call
// order shared with the coupon stub, so tests can assert that nothing touches
// coupon quota before the delivery row exists.
type memoryDeliveries struct {
	created   []*Delivery
	events    []*Event
	createErr error
	log       *[]string
}

func (m *memoryDeliveries) Create(_ context.Context, d *Delivery) error {
	if m.log != nil {
		*m.log = append(*m.log, "create")
	}
	if m.createErr != nil {
		return m.createErr
	}
	cp := *d
	m.created = append(m.created, &cp)
	return nil
}

func (m *memoryDeliveries) Get(_ context.Context, id types.ID) (*Delivery, error) {
	for _, d := range m.created {
		if d.ID == id {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memoryDeliveries) UpdateStatus(_ context.Context, id types.ID, from, to Status, version int, reason *string) (bool, error) {
	for _, d := range m.created {
		if d.ID == id && d.Status == from && d.StatusVersion == version {
			d.Status = to
			d.StatusVersion++
			if reason != nil {
				d.CancelReason = reason
			}
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryDeliveries) ApplyDiscount(_ context.Context, id types.ID, code string, discountCents, totalCents int64) error {
	if m.log != nil {
		*m.log = append(*m.log, "apply_discount")
	}
	for _, d := range m.created {
		if d.ID == id {
			d.CouponCode = &code
			d.DiscountCents = discountCents
			d.TotalCents = totalCents
			return nil
		}
	}
	return ErrNotFound
}

func (m *memoryDeliveries) AppendEvent(_ context.Context, e *Event) error {
	m.events = append(m.events, e)
	return nil
}

func testCard() *ratecard.RateCard {
	return &ratecard.RateCard{
		Version:         3,
		Currency:        "USD",
		BaseFareCents:   299,
		PerKmCents:      120,
		PerMinCents:     30,
		MinFareCents:    699,
		SizeMultipliers: map[string]float64{"M": 1.15},
		Bands: []ratecard.Band{
			{KmMax: 5, Multiplier: 1.00, Label: "short"},
			{KmMax: 999, Multiplier: 1.55, Label: "long"},
		},
	}
}

func TestQuote(t *testing.T) {
	svc := NewService(nil, stubRates{card: testCard()}, &stubCoupons{}, nil, fare.NewCalculator(nil))

	res, err := svc.Quote(context.Background(), QuoteCommand{
		UserID:          "u1",
		PackageSize:     "M",
		DistanceKm:      3,
		DurationMinutes: 10,
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Fare.TotalCents != 1103 {
		t.Fatalf("total = %d, want 1103", res.Fare.TotalCents)
	}
	if res.Fare.RateCardVersion != 3 {
		t.Fatalf("rate card version = %d, want 3", res.Fare.RateCardVersion)
	}
	if res.Coupon != nil {
		t.Fatalf("no coupon requested but preview returned")
	}
	if got := res.Fare.Total(); got != (types.Money{Amount: 1103, Currency: "USD"}) {
		t.Fatalf("total money = %+v", got)
	}
}

func TestQuoteWithCouponPreview(t *testing.T) {
	coupons := &stubCoupons{result: &coupon.Result{Valid: true, DiscountCents: 200, NewTotalCents: 903}}
	svc := NewService(nil, stubRates{card: testCard()}, coupons, nil, fare.NewCalculator(nil))

	res, err := svc.Quote(context.Background(), QuoteCommand{
		UserID:          "u1",
		PackageSize:     "M",
		DistanceKm:      3,
		DurationMinutes: 10,
		CouponCode:      "SAVE20",
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Coupon == nil || !res.Coupon.Valid {
		t.Fatalf("coupon preview missing: %+v", res.Coupon)
	}
	if len(coupons.redeemed) != 0 {
		t.Fatalf("quote must not redeem, saw %d redemptions", len(coupons.redeemed))
	}
	if len(coupons.validated) != 1 {
		t.Fatalf("validations = %d, want 1", len(coupons.validated))
	}
	if got := coupons.validated[0].OrderAmountCents; got != 1103 {
		t.Fatalf("coupon preview amount = %d, want the fare total 1103", got)
	}
}

func TestQuoteRejectsNegativeDistance(t *testing.T) {
	svc := NewService(nil, stubRates{card: testCard()}, &stubCoupons{}, nil, fare.NewCalculator(nil))

	_, err := svc.Quote(context.Background(), QuoteCommand{UserID: "u1", DistanceKm: -2})
	if err != ErrBadRequest {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestQuoteOfflineDistanceFallback(t *testing.T) {
	// Taipei Main Station to Taipei 101, roughly 4 km apart.
	svc := NewService(nil, stubRates{card: testCard()}, &stubCoupons{}, nil, fare.NewCalculator(nil))

	res, err := svc.Quote(context.Background(), QuoteCommand{
		UserID:      "u1",
		PackageSize: "M",
		Pickup:      types.Point{Lat: 25.0478, Lng: 121.5170},
		Dropoff:     types.Point{Lat: 25.0339, Lng: 121.5645},
	})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if res.Fare.DistanceKm <= 0 || res.Fare.DistanceKm > 10 {
		t.Fatalf("fallback distance = %v km, expected a few km", res.Fare.DistanceKm)
	}
	if res.Fare.DurationMinutes <= 0 {
		t.Fatalf("fallback duration = %v", res.Fare.DurationMinutes)
	}
}

func TestQuotePropagatesBadConfig(t *testing.T) {
	svc := NewService(nil, stubRates{err: ratecard.ErrBadConfig}, &stubCoupons{}, nil, fare.NewCalculator(nil))

	_, err := svc.Quote(context.Background(), QuoteCommand{UserID: "u1", DistanceKm: 3, DurationMinutes: 1})
	if err != ratecard.ErrBadConfig {
		t.Fatalf("err = %v, want ErrBadConfig", err)
	}
}

func TestPlaceAppliesDiscountAfterPersist(t *testing.T) {
	var calls []string
	store := &memoryDeliveries{log: &calls}
	coupons := &stubCoupons{
		result: &coupon.Result{Valid: true, DiscountCents: 200, NewTotalCents: 903},
		log:    &calls,
	}
	svc := NewService(store, stubRates{card: testCard()}, coupons, nil, fare.NewCalculator(nil))

	res, err := svc.Place(context.Background(), PlaceCommand{
		UserID:          "u1",
		PackageSize:     "M",
		DistanceKm:      3,
		DurationMinutes: 10,
		CouponCode:      "save20",
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("deliveries created = %d, want 1", len(store.created))
	}
	d := store.created[0]
	if d.DiscountCents != 200 || d.TotalCents != 903 || d.FareCents != 1103 {
		t.Fatalf("stored amounts: discount=%d total=%d fare=%d", d.DiscountCents, d.TotalCents, d.FareCents)
	}
	if d.CouponCode == nil || *d.CouponCode != "SAVE20" {
		t.Fatalf("stored coupon code = %v", d.CouponCode)
	}
	if res.Delivery.Total() != (types.Money{Amount: 903, Currency: "USD"}) {
		t.Fatalf("result total = %+v", res.Delivery.Total())
	}
	if len(coupons.redeemed) != 1 || coupons.redeemed[0].OrderID != d.ID {
		t.Fatalf("redeem keyed by %v, want delivery id %v", coupons.redeemed, d.ID)
	}
	want := []string{"create", "redeem", "apply_discount"}
	if len(calls) != len(want) {
		t.Fatalf("call order = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call order = %v, want %v", calls, want)
		}
	}
}

func TestPlaceCapRejectedKeepsFullPrice(t *testing.T) {
	store := &memoryDeliveries{}
	coupons := &stubCoupons{
		result: &coupon.Result{Valid: false, Reason: coupon.ReasonCapExceeded, NewTotalCents: 1103},
	}
	svc := NewService(store, stubRates{card: testCard()}, coupons, nil, fare.NewCalculator(nil))

	res, err := svc.Place(context.Background(), PlaceCommand{
		UserID:          "u1",
		PackageSize:     "M",
		DistanceKm:      3,
		DurationMinutes: 10,
		CouponCode:      "FLASH",
	})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	d := store.created[0]
	if d.DiscountCents != 0 || d.TotalCents != 1103 || d.CouponCode != nil {
		t.Fatalf("declined coupon changed the stored delivery: %+v", d)
	}
	if res.Coupon == nil || res.Coupon.Reason != coupon.ReasonCapExceeded {
		t.Fatalf("reason not carried back: %+v", res.Coupon)
	}
}

func TestPlaceReservationFailure(t *testing.T) {
	store := &memoryDeliveries{}
	coupons := &stubCoupons{err: coupon.ErrReservationFailed}
	svc := NewService(store, stubRates{card: testCard()}, coupons, nil, fare.NewCalculator(nil))

	_, err := svc.Place(context.Background(), PlaceCommand{
		UserID:          "u1",
		PackageSize:     "M",
		DistanceKm:      3,
		DurationMinutes: 10,
		CouponCode:      "FLASH",
	})
	if err != coupon.ErrReservationFailed {
		t.Fatalf("err = %v, want ErrReservationFailed", err)
	}
	// The delivery stays placed at full price, with no discount recorded.
	d := store.created[0]
	if d.DiscountCents != 0 || d.TotalCents != 1103 {
		t.Fatalf("stored amounts after failed reservation: %+v", d)
	}
}

func TestPlaceCreateFailureConsumesNoQuota(t *testing.T) {
	store := &memoryDeliveries{createErr: errors.New("db down")}
	coupons := &stubCoupons{
		result: &coupon.Result{Valid: true, DiscountCents: 200, NewTotalCents: 903},
	}
	svc := NewService(store, stubRates{card: testCard()}, coupons, nil, fare.NewCalculator(nil))

	_, err := svc.Place(context.Background(), PlaceCommand{
		UserID:          "u1",
		PackageSize:     "M",
		DistanceKm:      3,
		DurationMinutes: 10,
		CouponCode:      "save20",
	})
	if err == nil {
		t.Fatal("expected the create failure to surface")
	}
	if len(coupons.redeemed) != 0 {
		t.Fatalf("failed placement consumed coupon quota: %v", coupons.redeemed)
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPlaced, StatusPickedUp, true},
		{StatusPlaced, StatusCancelled, true},
		{StatusPickedUp, StatusDelivered, true},
		{StatusPickedUp, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPickedUp, false},
		{StatusPlaced, StatusDelivered, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

// README: Delivery aggregate and status definitions.
package delivery

import (
	"time"

	"courier/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPlaced    Status = "placed"
	StatusPickedUp  Status = "picked_up"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

type Delivery struct {
	ID              types.ID
	UserID          types.ID
	Status          Status
	StatusVersion   int
	Pickup          types.Point
	Dropoff         types.Point
	PackageSize     string
	DistanceKm      float64
	DurationMinutes float64
	RateCardVersion int
	Currency        string
	FareCents       int64
	CouponCode      *string
	DiscountCents   int64
	TotalCents      int64
	CreatedAt       time.Time
	PickedUpAt      *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	CancelReason    *string
}

// Total is the amount payable after any discount.
func (d *Delivery) Total() types.Money {
	return types.Money{Amount: d.TotalCents, Currency: d.Currency}
}

type Event struct {
	ID         int64
	DeliveryID types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

// AllowedTransitions represents the delivery state flow as code.
var AllowedTransitions = map[Status][]Status{
	StatusPlaced:   {StatusPickedUp, StatusCancelled},
	StatusPickedUp: {StatusDelivered},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// README: Fare computation input/output types.
package fare

import (
	"errors"

	"courier/internal/types"
)

var ErrInvalidInput = errors.New("invalid fare input")

type Input struct {
	DistanceKm      float64
	DurationMinutes float64
	PackageSize     string
}

// Breakdown is derived, never persisted here. All monetary fields are
// integer cents. The rate card version is carried so a support case can
// replay the exact computation.
type Breakdown struct {
	RateCardVersion   int     `json:"rate_card_version"`
	Currency          string  `json:"currency"`
	DistanceKm        float64 `json:"distance_km"`
	DurationMinutes   float64 `json:"duration_minutes"`
	BaseFareCents     int64   `json:"base_fare_cents"`
	DistanceFareCents int64   `json:"distance_fare_cents"`
	TimeFareCents     int64   `json:"time_fare_cents"`
	BandMultiplier    float64 `json:"band_multiplier"`
	BandLabel         string  `json:"band_label"`
	SizeMultiplier    float64 `json:"size_multiplier"`
	SubtotalCents     int64   `json:"subtotal_cents"`
	TaxCents          int64   `json:"tax_cents"`
	TotalCents        int64   `json:"total_cents"`
}

// Total is the payable amount as money.
func (b *Breakdown) Total() types.Money {
	return types.Money{Amount: b.TotalCents, Currency: b.Currency}
}

// README: Versioned rate card definitions used to price deliveries.
package ratecard

import (
	"errors"
	"time"
)

var (
	ErrBadConfig = errors.New("rate card config invalid")
	ErrNotFound  = errors.New("rate card not found")
)

// Band is a distance tier. A distance d falls into the first band whose
// KmMax >= d; the last band also absorbs anything beyond its KmMax.
type Band struct {
	KmMax      float64 `json:"km_max"`
	Multiplier float64 `json:"multiplier"`
	Label      string  `json:"label"`
}

// RateCard is immutable once published. Versions are monotonic; the active
// card at an instant is the highest version already effective.
type RateCard struct {
	Version         int                `json:"version"`
	EffectiveFrom   time.Time          `json:"effective_from"`
	Currency        string             `json:"currency"`
	BaseFareCents   int64              `json:"base_fare_cents"`
	PerKmCents      int64              `json:"per_km_cents"`
	PerMinCents     int64              `json:"per_min_cents"`
	MinFareCents    int64              `json:"min_fare_cents"`
	SizeMultipliers map[string]float64 `json:"size_multipliers"`
	Bands           []Band             `json:"bands"`
	TaxEnabled      bool               `json:"tax_enabled"`
	TaxRate         float64            `json:"tax_rate"`
	CreatedAt       time.Time          `json:"created_at"`
}

// DefaultSize is the multiplier entry used when a package size tag is not
// present on the card.
const DefaultSize = "M"

// Validate rejects cards the fare engine cannot price. A malformed card is a
// configuration fault, never something to paper over at request time.
func Validate(c *RateCard) error {
	if c == nil {
		return ErrBadConfig
	}
	if c.Currency == "" {
		return ErrBadConfig
	}
	if c.BaseFareCents < 0 || c.PerKmCents < 0 || c.PerMinCents < 0 || c.MinFareCents < 0 {
		return ErrBadConfig
	}
	if len(c.Bands) == 0 {
		return ErrBadConfig
	}
	prev := -1.0
	for _, b := range c.Bands {
		if b.KmMax <= prev || b.Multiplier <= 0 {
			return ErrBadConfig
		}
		prev = b.KmMax
	}
	if _, ok := c.SizeMultipliers[DefaultSize]; !ok {
		return ErrBadConfig
	}
	for _, m := range c.SizeMultipliers {
		if m <= 0 {
			return ErrBadConfig
		}
	}
	if c.TaxEnabled && (c.TaxRate < 0 || c.TaxRate > 1) {
		return ErrBadConfig
	}
	return nil
}

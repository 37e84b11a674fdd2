// README: Fare calculator; assembles a breakdown from trip inputs and a rate card.
package fare

import (
	"math"

	"github.com/sirupsen/logrus"

	"courier/internal/modules/ratecard"
)

// Calculator is stateless; identical inputs against the same rate card
// version always produce the identical breakdown.
type Calculator struct {
	log *logrus.Logger
}

func NewCalculator(log *logrus.Logger) *Calculator {
	return &Calculator{log: log}
}

func (c *Calculator) Calculate(in Input, card *ratecard.RateCard) (*Breakdown, error) {
	if in.DistanceKm < 0 || in.DurationMinutes < 0 {
		return nil, ErrInvalidInput
	}

	band, err := ClassifyBand(in.DistanceKm, card.Bands)
	if err != nil {
		return nil, err
	}

	sizeMult, ok := card.SizeMultipliers[in.PackageSize]
	if !ok {
		// Unknown sizes price as medium rather than failing the quote.
		sizeMult = card.SizeMultipliers[ratecard.DefaultSize]
		if c.log != nil {
			c.log.WithFields(logrus.Fields{
				"package_size":      in.PackageSize,
				"rate_card_version": card.Version,
			}).Warn("unknown package size, using default multiplier")
		}
	}

	distanceFare := roundHalfUp(in.DistanceKm * float64(card.PerKmCents))
	timeFare := roundHalfUp(in.DurationMinutes * float64(card.PerMinCents))
	subtotal := roundHalfUp(float64(card.BaseFareCents+distanceFare+timeFare) * band.Multiplier * sizeMult)

	var tax int64
	if card.TaxEnabled {
		tax = roundHalfUp(float64(subtotal) * card.TaxRate)
	}

	total := subtotal + tax
	if total < card.MinFareCents {
		total = card.MinFareCents
	}

	return &Breakdown{
		RateCardVersion:   card.Version,
		Currency:          card.Currency,
		DistanceKm:        in.DistanceKm,
		DurationMinutes:   in.DurationMinutes,
		BaseFareCents:     card.BaseFareCents,
		DistanceFareCents: distanceFare,
		TimeFareCents:     timeFare,
		BandMultiplier:    band.Multiplier,
		BandLabel:         band.Label,
		SizeMultiplier:    sizeMult,
		SubtotalCents:     subtotal,
		TaxCents:          tax,
		TotalCents:        total,
	}, nil
}

// roundHalfUp is applied exactly once per derived monetary term.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

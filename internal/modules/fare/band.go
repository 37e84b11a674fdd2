// README: Distance band classification over an ordered band table.
package fare

import "courier/internal/modules/ratecard"

// ClassifyBand returns the first band whose KmMax covers the distance. A
// distance beyond every KmMax falls into the last band, which acts as the
// unbounded tier. The table must be non-empty and strictly ascending.
func ClassifyBand(distanceKm float64, bands []ratecard.Band) (ratecard.Band, error) {
	if len(bands) == 0 {
		return ratecard.Band{}, ratecard.ErrBadConfig
	}
	prev := -1.0
	for _, b := range bands {
		if b.KmMax <= prev {
			return ratecard.Band{}, ratecard.ErrBadConfig
		}
		prev = b.KmMax
	}
	for _, b := range bands {
		if b.KmMax >= distanceKm {
			return b, nil
		}
	}
	return bands[len(bands)-1], nil
}

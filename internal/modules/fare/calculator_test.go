package fare

import (
	"testing"

	"courier/internal/modules/ratecard"
)

// cityCard is a literal fixture; these tests pin exact cent values so a
// support case can be replayed against a known card version.
func cityCard() *ratecard.RateCard {
	return &ratecard.RateCard{
		Version:       1,
		Currency:      "USD",
		BaseFareCents: 299,
		PerKmCents:    120,
		PerMinCents:   30,
		MinFareCents:  699,
		SizeMultipliers: map[string]float64{
			"S": 1.0,
			"M": 1.15,
			"L": 1.4,
		},
		Bands: []ratecard.Band{
			{KmMax: 5, Multiplier: 1.00, Label: "short"},
			{KmMax: 999, Multiplier: 1.55, Label: "long"},
		},
	}
}

func taxedCard() *ratecard.RateCard {
	return &ratecard.RateCard{
		Version:         2,
		Currency:        "USD",
		BaseFareCents:   500,
		PerKmCents:      100,
		PerMinCents:     0,
		MinFareCents:    0,
		SizeMultipliers: map[string]float64{"M": 1.0},
		Bands:           []ratecard.Band{{KmMax: 9999, Multiplier: 1.0, Label: "all"}},
		TaxEnabled:      true,
		TaxRate:         0.07,
	}
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		card *ratecard.RateCard
		want Breakdown
	}{
		{
			name: "short trip medium package",
			in:   Input{DistanceKm: 3, DurationMinutes: 10, PackageSize: "M"},
			card: cityCard(),
			want: Breakdown{
				DistanceFareCents: 360,
				TimeFareCents:     300,
				BandMultiplier:    1.00,
				BandLabel:         "short",
				SizeMultiplier:    1.15,
				// (299+360+300) * 1.00 * 1.15 = 1102.85 -> 1103
				SubtotalCents: 1103,
				TotalCents:    1103,
			},
		},
		{
			name: "long trip hits the 1.55 band",
			in:   Input{DistanceKm: 25, DurationMinutes: 10, PackageSize: "M"},
			card: cityCard(),
			want: Breakdown{
				DistanceFareCents: 3000,
				TimeFareCents:     300,
				BandMultiplier:    1.55,
				BandLabel:         "long",
				SizeMultiplier:    1.15,
				// (299+3000+300) * 1.55 * 1.15 = 6415.2175 -> 6415
				SubtotalCents: 6415,
				TotalCents:    6415,
			},
		},
		{
			name: "minimum fare floor",
			in:   Input{DistanceKm: 0, DurationMinutes: 0, PackageSize: "M"},
			card: cityCard(),
			want: Breakdown{
				DistanceFareCents: 0,
				TimeFareCents:     0,
				BandMultiplier:    1.00,
				BandLabel:         "short",
				SizeMultiplier:    1.15,
				// 299 * 1.15 = 343.85 -> 344, floored to min fare
				SubtotalCents: 344,
				TotalCents:    699,
			},
		},
		{
			name: "unknown size falls back to medium",
			in:   Input{DistanceKm: 3, DurationMinutes: 10, PackageSize: "XXL"},
			card: cityCard(),
			want: Breakdown{
				DistanceFareCents: 360,
				TimeFareCents:     300,
				BandMultiplier:    1.00,
				BandLabel:         "short",
				SizeMultiplier:    1.15,
				SubtotalCents:     1103,
				TotalCents:        1103,
			},
		},
		{
			name: "tax rounds half up",
			in:   Input{DistanceKm: 2.5, DurationMinutes: 0, PackageSize: "M"},
			card: taxedCard(),
			want: Breakdown{
				DistanceFareCents: 250,
				TimeFareCents:     0,
				BandMultiplier:    1.0,
				BandLabel:         "all",
				SizeMultiplier:    1.0,
				// subtotal 750, tax 750*0.07 = 52.5 -> 53
				SubtotalCents: 750,
				TaxCents:      53,
				TotalCents:    803,
			},
		},
	}

	calc := NewCalculator(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Calculate(tt.in, tt.card)
			if err != nil {
				t.Fatalf("Calculate() error = %v", err)
			}
			if got.DistanceFareCents != tt.want.DistanceFareCents {
				t.Errorf("distance fare = %d, want %d", got.DistanceFareCents, tt.want.DistanceFareCents)
			}
			if got.TimeFareCents != tt.want.TimeFareCents {
				t.Errorf("time fare = %d, want %d", got.TimeFareCents, tt.want.TimeFareCents)
			}
			if got.BandMultiplier != tt.want.BandMultiplier || got.BandLabel != tt.want.BandLabel {
				t.Errorf("band = %v %q, want %v %q", got.BandMultiplier, got.BandLabel, tt.want.BandMultiplier, tt.want.BandLabel)
			}
			if got.SizeMultiplier != tt.want.SizeMultiplier {
				t.Errorf("size multiplier = %v, want %v", got.SizeMultiplier, tt.want.SizeMultiplier)
			}
			if got.SubtotalCents != tt.want.SubtotalCents {
				t.Errorf("subtotal = %d, want %d", got.SubtotalCents, tt.want.SubtotalCents)
			}
			if got.TaxCents != tt.want.TaxCents {
				t.Errorf("tax = %d, want %d", got.TaxCents, tt.want.TaxCents)
			}
			if got.TotalCents != tt.want.TotalCents {
				t.Errorf("total = %d, want %d", got.TotalCents, tt.want.TotalCents)
			}
			if got.TotalCents < tt.card.MinFareCents {
				t.Errorf("total %d below minimum fare %d", got.TotalCents, tt.card.MinFareCents)
			}
		})
	}
}

func TestCalculateRejectsNegativeInput(t *testing.T) {
	calc := NewCalculator(nil)
	if _, err := calc.Calculate(Input{DistanceKm: -1, DurationMinutes: 5, PackageSize: "M"}, cityCard()); err != ErrInvalidInput {
		t.Fatalf("negative distance: err = %v, want ErrInvalidInput", err)
	}
	if _, err := calc.Calculate(Input{DistanceKm: 1, DurationMinutes: -5, PackageSize: "M"}, cityCard()); err != ErrInvalidInput {
		t.Fatalf("negative duration: err = %v, want ErrInvalidInput", err)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	calc := NewCalculator(nil)
	in := Input{DistanceKm: 7.3, DurationMinutes: 21.5, PackageSize: "L"}
	card := cityCard()

	first, err := calc.Calculate(in, card)
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := calc.Calculate(in, card)
		if err != nil {
			t.Fatalf("Calculate() error = %v", err)
		}
		if *got != *first {
			t.Fatalf("breakdown changed between calls: %+v vs %+v", got, first)
		}
	}
}

func TestBandMultiplierMonotonic(t *testing.T) {
	calc := NewCalculator(nil)
	card := cityCard()
	prev := 0.0
	for d := 0.0; d <= 50; d += 0.5 {
		got, err := calc.Calculate(Input{DistanceKm: d, DurationMinutes: 0, PackageSize: "M"}, card)
		if err != nil {
			t.Fatalf("Calculate(%v) error = %v", d, err)
		}
		if got.BandMultiplier < prev {
			t.Fatalf("band multiplier decreased at %v km: %v < %v", d, got.BandMultiplier, prev)
		}
		prev = got.BandMultiplier
	}
}

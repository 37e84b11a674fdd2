package maps

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"courier/internal/types"
)

// DistanceService resolves trip distance and duration through the Google
// Maps Directions API. It is a pure input provider: nothing downstream knows
// how the numbers were measured.
type DistanceService struct {
	client *maps.Client
}

func NewDistanceService(apiKey string) (*DistanceService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &DistanceService{client: client}, nil
}

// Estimate returns the driving distance in km and duration in minutes for
// the best route between two points.
func (s *DistanceService) Estimate(ctx context.Context, origin, dest types.Point) (float64, float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	return float64(leg.Distance.Meters) / 1000.0, leg.Duration.Minutes(), nil
}

package matching

import (
	"context"
	"fmt"
	"sort"

	"star-burger/internal/geo"
	"star-burger/internal/model"
)

// CoordinateSource resolves an address to coordinates.
type CoordinateSource interface {
	Resolve(ctx context.Context, address string) (model.Coordinates, bool, error)
}

// Resolved is a CoordinateSource over addresses resolved ahead of time.
type Resolved map[string]model.Coordinates

// Resolve looks the address up in the map.
func (r Resolved) Resolve(_ context.Context, address string) (model.Coordinates, bool, error) {
	c, ok := r[address]
	return c, ok, nil
}

// Ranked is a restaurant with its distance to the delivery address.
type Ranked = model.RankedRestaurant

// Rank orders candidates by distance from the order address. Candidates whose
// location is unknown are dropped; if the order location is unknown the result
// is empty.
func Rank(ctx context.Context, source CoordinateSource, orderAddress string, orderCoords *model.Coordinates, candidates []RestaurantKey) ([]Ranked, error) {
	ranked := make([]Ranked, 0, len(candidates))
	if len(candidates) == 0 {
		return ranked, nil
	}

	origin, ok, err := locate(ctx, source, orderAddress, orderCoords)
	if err != nil {
		return nil, fmt.Errorf("failed to locate order address: %w", err)
	}
	if !ok {
		return ranked, nil
	}

	for _, c := range candidates {
		point, ok, err := locate(ctx, source, c.Address, c.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("failed to locate restaurant %d: %w", c.ID, err)
		}
		if !ok {
			continue
		}

		ranked = append(ranked, Ranked{
			RestaurantID: c.ID,
			Name:         c.Name,
			DistanceKm:   geo.RoundKm(geo.DistanceKm(origin, point)),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked, nil
}

func locate(ctx context.Context, source CoordinateSource, address string, known *model.Coordinates) (model.Coordinates, bool, error) {
	if known != nil {
		return *known, true, nil
	}
	return source.Resolve(ctx, address)
}

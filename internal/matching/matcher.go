// Package matching finds restaurants that can cook an order and ranks them
// by distance to the delivery address.
package matching

import (
	"star-burger/internal/model"
)

// RestaurantKey carries what ranking needs about a restaurant.
type RestaurantKey struct {
	ID          int64
	Name        string
	Address     string
	Coordinates *model.Coordinates
}

// MenuIndex maps each restaurant to the products it can currently cook.
type MenuIndex struct {
	order    []int64
	keys     map[int64]RestaurantKey
	products map[int64]map[int64]struct{}
}

// BuildMenuIndex indexes available menu rows. Unavailable rows are skipped.
func BuildMenuIndex(rows []model.MenuRow) *MenuIndex {
	idx := &MenuIndex{
		keys:     make(map[int64]RestaurantKey),
		products: make(map[int64]map[int64]struct{}),
	}

	for _, row := range rows {
		if !row.Availability {
			continue
		}

		available, ok := idx.products[row.RestaurantID]
		if !ok {
			available = make(map[int64]struct{})
			idx.products[row.RestaurantID] = available
			idx.keys[row.RestaurantID] = RestaurantKey{
				ID:          row.RestaurantID,
				Name:        row.RestaurantName,
				Address:     row.RestaurantAddress,
				Coordinates: row.Coordinates,
			}
			idx.order = append(idx.order, row.RestaurantID)
		}
		available[row.ProductID] = struct{}{}
	}

	return idx
}

// Len reports the number of restaurants with at least one available product.
func (idx *MenuIndex) Len() int {
	return len(idx.order)
}

// CanCook reports whether restaurantID has every required product.
func (idx *MenuIndex) CanCook(restaurantID int64, required []int64) bool {
	available, ok := idx.products[restaurantID]
	if !ok {
		return false
	}
	for _, id := range required {
		if _, ok := available[id]; !ok {
			return false
		}
	}
	return true
}

// Match returns the restaurants able to cook every required product, in the
// order they first appeared in the index.
func Match(required []int64, idx *MenuIndex) []RestaurantKey {
	var matched []RestaurantKey
	for _, id := range idx.order {
		if idx.CanCook(id, required) {
			matched = append(matched, idx.keys[id])
		}
	}
	return matched
}

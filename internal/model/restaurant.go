package model

// Restaurant is reference data; its menu lives in MenuItem rows.
type Restaurant struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	Address      string `json:"address" db:"address"`
	ContactPhone string `json:"contactPhone" db:"contact_phone"`
}

// MenuItem marks a product as orderable (or not) at a restaurant.
type MenuItem struct {
	RestaurantID int64 `json:"restaurantId" db:"restaurant_id"`
	ProductID    int64 `json:"productId" db:"product_id"`
	Availability bool  `json:"availability" db:"availability"`
}

// MenuRow is a menu item joined with its restaurant and the cached
// coordinates of the restaurant address, if any.
type MenuRow struct {
	RestaurantID      int64
	RestaurantName    string
	RestaurantAddress string
	ProductID         int64
	Availability      bool
	Coordinates       *Coordinates
}

// AvailabilityRequest is the body of a menu availability toggle.
type AvailabilityRequest struct {
	Availability *bool `json:"availability"`
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a dish in the catalogue. Availability is kept per
// restaurant in MenuItem, not here.
type Product struct {
	ID            int64           `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	Category      *string         `json:"category,omitempty" db:"category"`
	Price         decimal.Decimal `json:"price" db:"price"`
	SpecialStatus bool            `json:"specialStatus" db:"special_status"`
	Description   string          `json:"description" db:"description"`
	ImageURL      string          `json:"imageUrl,omitempty" db:"image_url"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
}

// ProductAvailability is one row of the manager availability table: the
// product and whether each restaurant (in Restaurants order) offers it.
type ProductAvailability struct {
	Product      Product `json:"product"`
	Availability []bool  `json:"availability"`
}

// AvailabilityTable is the product × restaurant availability matrix.
type AvailabilityTable struct {
	Restaurants []Restaurant          `json:"restaurants"`
	Products    []ProductAvailability `json:"products"`
}

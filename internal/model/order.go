package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a customer order.
type Order struct {
	ID           uuid.UUID   `json:"id" db:"id"`
	FirstName    string      `json:"firstname" db:"firstname"`
	LastName     string      `json:"lastname" db:"lastname"`
	PhoneNumber  string      `json:"phonenumber" db:"phonenumber"`
	Address      string      `json:"address" db:"address"`
	Status       Status      `json:"status" db:"status"`
	PaymentType  PaymentType `json:"payment_type" db:"payment_type"`
	RestaurantID *int64      `json:"restaurant_id,omitempty" db:"restaurant_id"`
	Comment      string      `json:"comment" db:"comment"`
	RegisteredAt time.Time   `json:"registered_at" db:"registered_at"`
	CalledAt     *time.Time  `json:"called_at,omitempty" db:"called_at"`
	DeliveredAt  *time.Time  `json:"delivered_at,omitempty" db:"delivered_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem represents a line item in an order. Price is the product price
// captured when the order was placed.
type OrderItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID int64           `json:"product" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Price     decimal.Decimal `json:"price" db:"price"`
}

// Subtotal is quantity × captured price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums the subtotals of items.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// TransitionTo moves the order to next, stamping called_at on approval and
// delivered_at on completion.
func (o *Order) TransitionTo(next Status, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition
	}

	o.Status = next
	o.UpdatedAt = now

	switch next {
	case StatusApproved:
		if o.CalledAt == nil {
			o.CalledAt = &now
		}
	case StatusCompleted:
		if o.DeliveredAt == nil {
			o.DeliveredAt = &now
		}
	}

	return nil
}

// AssignRestaurant sets the cooking restaurant once. Orders still waiting in
// NEW or APPROVED move straight to COOKING.
func (o *Order) AssignRestaurant(restaurantID int64, now time.Time) error {
	if o.Status.Terminal() {
		return ErrInvalidStatusTransition
	}
	if o.RestaurantID != nil {
		return ErrRestaurantAlreadyAssigned
	}

	id := restaurantID
	o.RestaurantID = &id
	o.UpdatedAt = now

	if o.Status == StatusNew || o.Status == StatusApproved {
		o.Status = StatusCooking
	}

	return nil
}

// OrderRequest is the inbound order registration payload.
type OrderRequest struct {
	FirstName   string             `json:"firstname" validate:"required,max=100"`
	LastName    string             `json:"lastname" validate:"required,max=100"`
	PhoneNumber string             `json:"phonenumber" validate:"required,e164"`
	Address     string             `json:"address" validate:"required,max=300"`
	Products    []OrderItemRequest `json:"products" validate:"required,min=1,dive"`
	PaymentType PaymentType        `json:"payment_type,omitempty" validate:"omitempty,oneof=cash online"`
	Comment     string             `json:"comment,omitempty" validate:"max=500"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID int64 `json:"product" validate:"required"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	Order
	Items    []OrderItem     `json:"order_items"`
	Total    decimal.Decimal `json:"total"`
	Products []Product       `json:"products,omitempty"`
}

// AssignRestaurantRequest is the body of a restaurant assignment.
type AssignRestaurantRequest struct {
	RestaurantID int64 `json:"restaurant_id"`
}

// StatusChangeRequest is the body of a status transition.
type StatusChangeRequest struct {
	Status Status `json:"status"`
}

// OpenOrder is an order listed on the manager dashboard.
type OpenOrder struct {
	Order
	Total       decimal.Decimal    `json:"total"`
	ProductIDs  []int64            `json:"product_ids"`
	Coordinates *Coordinates       `json:"coordinates,omitempty"`
	Restaurants []RankedRestaurant `json:"restaurants"`
}

// RankedRestaurant is a capable restaurant with its distance to the order.
type RankedRestaurant struct {
	RestaurantID int64   `json:"restaurant_id"`
	Name         string  `json:"name"`
	DistanceKm   float64 `json:"distance_km"`
}

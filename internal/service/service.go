package service

import (
	"context"

	"star-burger/internal/model"
	"star-burger/internal/repository"

	"github.com/google/uuid"
)

// ProductService defines operations for the product catalogue.
type ProductService interface {
	// GetAll retrieves products with pagination.
	GetAll(ctx context.Context, filter repository.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)
}

// RestaurantService defines operations on restaurants and their menus.
type RestaurantService interface {
	GetAll(ctx context.Context) ([]model.Restaurant, error)
	GetByID(ctx context.Context, id int64) (*model.Restaurant, error)

	// SetAvailability toggles one product on a restaurant menu.
	SetAvailability(ctx context.Context, restaurantID, productID int64, available bool) error

	// AvailabilityTable lists every product with its availability per restaurant.
	AvailabilityTable(ctx context.Context) (*model.AvailabilityTable, error)
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder validates and stores a new order with captured prices.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order by its ID with all items and product details.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)

	// ListOpen returns the manager dashboard: open orders with their ranked
	// candidate restaurants.
	ListOpen(ctx context.Context) ([]model.OpenOrder, error)

	// RankedRestaurants lists restaurants able to cook the order, nearest first.
	RankedRestaurants(ctx context.Context, id uuid.UUID) ([]model.RankedRestaurant, error)

	// AssignRestaurant sets the cooking restaurant of an order.
	AssignRestaurant(ctx context.Context, id uuid.UUID, restaurantID int64) (*model.Order, error)

	// UpdateStatus moves an order to the given status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) (*model.Order, error)
}

package repository

import (
	"context"

	"star-burger/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductFilter narrows product listings.
type ProductFilter struct {
	Limit  int
	Offset int
	// AvailableOnly keeps products offered by at least one restaurant.
	AvailableOnly bool
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products with pagination support.
	GetAll(ctx context.Context, filter ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID.
	GetByID(ctx context.Context, id int64) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []int64) ([]model.Product, error)

	// ValidateProductsExist returns model.ErrProductNotFound unless every ID exists.
	ValidateProductsExist(ctx context.Context, ids []int64) error
}

// RestaurantRepository defines the interface for restaurants and their menus.
type RestaurantRepository interface {
	GetAll(ctx context.Context) ([]model.Restaurant, error)
	GetByID(ctx context.Context, id int64) (*model.Restaurant, error)

	// ListAvailableMenu returns available menu rows offering any of productIDs,
	// joined with restaurant details and cached restaurant coordinates.
	ListAvailableMenu(ctx context.Context, productIDs []int64) ([]model.MenuRow, error)

	// ListMenuItems returns every menu row of every restaurant.
	ListMenuItems(ctx context.Context) ([]model.MenuItem, error)

	// SetAvailability creates or updates one menu row.
	SetAvailability(ctx context.Context, item model.MenuItem) error

	// UpsertMenuItems writes many menu rows in one transaction.
	UpsertMenuItems(ctx context.Context, items []model.MenuItem) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error)

	// ListOpen returns orders that are neither completed nor cancelled,
	// sorted by status then registration time.
	ListOpen(ctx context.Context) ([]model.OpenOrder, error)

	// GetForUpdate locks the order row for the rest of tx.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error)

	// UpdateState persists status, restaurant and timestamps of an order.
	UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error
}

// AddressRepository is the durable store of geocoded addresses.
type AddressRepository interface {
	GetByAddresses(ctx context.Context, addresses []string) (map[string]model.Coordinates, error)
	Insert(ctx context.Context, address model.Address) error
	BulkInsert(ctx context.Context, addresses []model.Address) error
}

package service

import (
	"context"
	"fmt"

	"star-burger/internal/model"
	"star-burger/internal/repository"

	"github.com/rs/zerolog"
)

// cataloguePage is the page size used to read the whole catalogue.
const cataloguePage = 500

// restaurantService implements RestaurantService.
type restaurantService struct {
	restaurantRepo repository.RestaurantRepository
	productRepo    repository.ProductRepository
	logger         zerolog.Logger
}

// NewRestaurantService creates a new restaurant service.
func NewRestaurantService(
	restaurantRepo repository.RestaurantRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) RestaurantService {
	return &restaurantService{
		restaurantRepo: restaurantRepo,
		productRepo:    productRepo,
		logger:         logger.With().Str("service", "restaurant").Logger(),
	}
}

func (s *restaurantService) GetAll(ctx context.Context) ([]model.Restaurant, error) {
	restaurants, err := s.restaurantRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurants: %w", err)
	}
	return restaurants, nil
}

func (s *restaurantService) GetByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, model.ErrRestaurantNotFound
	}
	return restaurant, nil
}

// SetAvailability toggles one product on a restaurant menu.
func (s *restaurantService) SetAvailability(ctx context.Context, restaurantID, productID int64, available bool) error {
	if _, err := s.GetByID(ctx, restaurantID); err != nil {
		return err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return model.ErrProductNotFound
	}

	if err := s.restaurantRepo.SetAvailability(ctx, model.MenuItem{
		RestaurantID: restaurantID,
		ProductID:    productID,
		Availability: available,
	}); err != nil {
		return fmt.Errorf("failed to set availability: %w", err)
	}

	s.logger.Info().
		Int64("restaurant_id", restaurantID).
		Int64("product_id", productID).
		Bool("availability", available).
		Msg("menu availability changed")

	return nil
}

// AvailabilityTable lists every product with its availability per restaurant.
// A product missing from a menu counts as unavailable.
func (s *restaurantService) AvailabilityTable(ctx context.Context) (*model.AvailabilityTable, error) {
	restaurants, err := s.restaurantRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurants: %w", err)
	}

	products, err := s.allProducts(ctx)
	if err != nil {
		return nil, err
	}

	items, err := s.restaurantRepo.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get menu items: %w", err)
	}

	type key struct{ restaurant, product int64 }
	available := make(map[key]bool, len(items))
	for _, item := range items {
		available[key{item.RestaurantID, item.ProductID}] = item.Availability
	}

	table := &model.AvailabilityTable{
		Restaurants: restaurants,
		Products:    make([]model.ProductAvailability, 0, len(products)),
	}
	for _, p := range products {
		row := model.ProductAvailability{Product: p, Availability: make([]bool, len(restaurants))}
		for i, r := range restaurants {
			row.Availability[i] = available[key{r.ID, p.ID}]
		}
		table.Products = append(table.Products, row)
	}

	return table, nil
}

func (s *restaurantService) allProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	for offset := 0; ; offset += cataloguePage {
		page, err := s.productRepo.GetAll(ctx, repository.ProductFilter{Limit: cataloguePage, Offset: offset})
		if err != nil {
			return nil, fmt.Errorf("failed to get products: %w", err)
		}
		products = append(products, page...)
		if len(page) < cataloguePage {
			return products, nil
		}
	}
}

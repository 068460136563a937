package service

import (
	"context"
	"fmt"
	"time"

	"star-burger/internal/events"
	"star-burger/internal/geocache"
	"star-burger/internal/matching"
	"star-burger/internal/model"
	"star-burger/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo      repository.OrderRepository
	productRepo    repository.ProductRepository
	restaurantRepo repository.RestaurantRepository
	geo            geocache.Resolver
	publisher      events.Publisher
	validate       *validator.Validate
	now            func() time.Time
	logger         zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	restaurantRepo repository.RestaurantRepository,
	geo geocache.Resolver,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		productRepo:    productRepo,
		restaurantRepo: restaurantRepo,
		geo:            geo,
		publisher:      publisher,
		validate:       newValidator(),
		now:            time.Now,
		logger:         logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder validates and stores a new order with captured prices.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("order request is nil")
	}

	if verr := validateStruct(s.validate, req); verr.HasErrors() {
		s.logger.Warn().Interface("fields", verr.Fields).Msg("order rejected")
		return nil, verr
	}

	productIDs := make([]int64, len(req.Products))
	for i, item := range req.Products {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load order products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	catalogue := make(map[int64]model.Product, len(products))
	for _, p := range products {
		catalogue[p.ID] = p
	}

	verr := model.NewValidationError()
	for i, item := range req.Products {
		if _, ok := catalogue[item.ProductID]; !ok {
			verr.Add(fmt.Sprintf("products[%d].product", i), fmt.Sprintf("Invalid product id %d.", item.ProductID))
		}
	}
	if verr.HasErrors() {
		s.logger.Warn().Interface("fields", verr.Fields).Msg("order references unknown products")
		return nil, verr
	}

	now := s.now()
	order := &model.Order{
		ID:           uuid.New(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PhoneNumber:  req.PhoneNumber,
		Address:      req.Address,
		Status:       model.StatusNew,
		PaymentType:  req.PaymentType,
		Comment:      req.Comment,
		RegisteredAt: now,
		UpdatedAt:    now,
	}
	if order.PaymentType == "" {
		order.PaymentType = model.PaymentCash
	}

	items := make([]model.OrderItem, len(req.Products))
	for i, item := range req.Products {
		items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     catalogue[item.ProductID].Price,
		}
	}

	if err := s.persist(ctx, order, items); err != nil {
		return nil, err
	}

	total := model.OrderTotal(items)
	s.publish(ctx, events.OrderCreated(order, total))

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(items)).
		Str("total", total.String()).
		Msg("order created successfully")

	return &model.OrderResponse{
		Order:    *order,
		Items:    items,
		Total:    total,
		Products: products,
	}, nil
}

// persist writes the order header and its items in one transaction.
func (s *orderService) persist(ctx context.Context, order *model.Order, items []model.OrderItem) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Int("item_count", len(items)).
			Msg("failed to create order items")
		return fmt.Errorf("failed to create order items: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID with all items and product details.
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDsOf(items))
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to retrieve product details")
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}

	return &model.OrderResponse{
		Order:    *order,
		Items:    items,
		Total:    model.OrderTotal(items),
		Products: products,
	}, nil
}

// ListOpen returns open orders with their ranked candidate restaurants.
// Only orders with at least one candidate, and those candidates, are
// geocoded, all in one batch.
func (s *orderService) ListOpen(ctx context.Context) ([]model.OpenOrder, error) {
	orders, err := s.orderRepo.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open orders: %w", err)
	}
	if len(orders) == 0 {
		return orders, nil
	}

	var required []int64
	seen := make(map[int64]struct{})
	for _, o := range orders {
		for _, id := range o.ProductIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				required = append(required, id)
			}
		}
	}

	menu, err := s.restaurantRepo.ListAvailableMenu(ctx, required)
	if err != nil {
		return nil, fmt.Errorf("failed to load menus: %w", err)
	}
	idx := matching.BuildMenuIndex(menu)

	candidates := make([][]matching.RestaurantKey, len(orders))
	var pending []string
	for i, o := range orders {
		if len(o.ProductIDs) == 0 {
			continue
		}
		candidates[i] = matching.Match(o.ProductIDs, idx)
		if len(candidates[i]) == 0 {
			continue
		}
		if o.Coordinates == nil {
			pending = append(pending, o.Address)
		}
		for _, c := range candidates[i] {
			if c.Coordinates == nil {
				pending = append(pending, c.Address)
			}
		}
	}

	resolved := matching.Resolved{}
	if len(pending) > 0 {
		if resolved, err = s.geo.ResolveMany(ctx, pending); err != nil {
			return nil, fmt.Errorf("failed to resolve addresses: %w", err)
		}
	}

	for i := range orders {
		ranked, err := matching.Rank(ctx, resolved, orders[i].Address, orders[i].Coordinates, candidates[i])
		if err != nil {
			return nil, fmt.Errorf("failed to rank restaurants: %w", err)
		}
		orders[i].Restaurants = ranked
		if orders[i].Coordinates == nil {
			if c, ok := resolved[orders[i].Address]; ok {
				orders[i].Coordinates = &c
			}
		}
	}

	s.logger.Debug().
		Int("orders", len(orders)).
		Int("geocoded", len(pending)).
		Msg("open orders listed")

	return orders, nil
}

// RankedRestaurants lists restaurants able to cook the order, nearest first.
func (s *orderService) RankedRestaurants(ctx context.Context, id uuid.UUID) ([]model.RankedRestaurant, error) {
	order, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	required := productIDsOf(items)
	menu, err := s.restaurantRepo.ListAvailableMenu(ctx, required)
	if err != nil {
		return nil, fmt.Errorf("failed to load menus: %w", err)
	}

	candidates := matching.Match(required, matching.BuildMenuIndex(menu))

	ranked, err := matching.Rank(ctx, s.geo, order.Address, nil, candidates)
	if err != nil {
		return nil, fmt.Errorf("failed to rank restaurants: %w", err)
	}

	return ranked, nil
}

// AssignRestaurant sets the cooking restaurant of an order. The restaurant
// must be able to cook every product of the order.
func (s *orderService) AssignRestaurant(ctx context.Context, id uuid.UUID, restaurantID int64) (*model.Order, error) {
	restaurant, err := s.restaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, model.ErrRestaurantNotFound
	}

	current, items, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if current == nil {
		return nil, model.ErrOrderNotFound
	}

	required := productIDsOf(items)
	menu, err := s.restaurantRepo.ListAvailableMenu(ctx, required)
	if err != nil {
		return nil, fmt.Errorf("failed to load menus: %w", err)
	}
	if !matching.BuildMenuIndex(menu).CanCook(restaurantID, required) {
		s.logger.Warn().
			Str("order_id", id.String()).
			Int64("restaurant_id", restaurantID).
			Msg("restaurant cannot cook order")
		return nil, model.ErrRestaurantCannotCook
	}

	return s.mutate(ctx, id, func(o *model.Order) error {
		return o.AssignRestaurant(restaurantID, s.now())
	})
}

// UpdateStatus moves an order to the given status.
func (s *orderService) UpdateStatus(ctx context.Context, id uuid.UUID, status model.Status) (*model.Order, error) {
	if !status.Valid() {
		verr := model.NewValidationError()
		verr.Add("status", fmt.Sprintf("%q is not a valid choice.", status))
		return nil, verr
	}

	return s.mutate(ctx, id, func(o *model.Order) error {
		return o.TransitionTo(status, s.now())
	})
}

// mutate applies change to the order while holding its row lock, then
// publishes the new state.
func (s *orderService) mutate(ctx context.Context, id uuid.UUID, change func(*model.Order) error) (order *model.Order, err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	order, err = s.orderRepo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	previous := order.Status
	if err = change(order); err != nil {
		s.logger.Warn().
			Err(err).
			Str("order_id", id.String()).
			Str("status", string(order.Status)).
			Msg("order change rejected")
		return nil, err
	}

	if err = s.orderRepo.UpdateState(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit order update: %w", err)
	}

	s.publish(ctx, events.StatusChanged(order))

	s.logger.Info().
		Str("order_id", id.String()).
		Str("from", string(previous)).
		Str("to", string(order.Status)).
		Msg("order updated")

	return order, nil
}

func (s *orderService) publish(ctx context.Context, event events.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error().
			Err(err).
			Str("type", event.Type).
			Str("order_id", event.OrderID.String()).
			Msg("failed to publish event")
	}
}

func productIDsOf(items []model.OrderItem) []int64 {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

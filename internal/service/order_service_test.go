package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"star-burger/internal/events"
	"star-burger/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 5, 4, 18, 30, 0, 0, time.UTC)

type orderServiceDeps struct {
	orders      *MockOrderRepository
	products    *MockProductRepository
	restaurants *MockRestaurantRepository
	geo         *MockResolver
	publisher   *MockPublisher
	tx          *MockTx
}

func newOrderServiceUnderTest() (OrderService, *orderServiceDeps) {
	deps := &orderServiceDeps{
		orders:      new(MockOrderRepository),
		products:    new(MockProductRepository),
		restaurants: new(MockRestaurantRepository),
		geo:         new(MockResolver),
		publisher:   new(MockPublisher),
		tx:          new(MockTx),
	}
	svc := NewOrderService(deps.orders, deps.products, deps.restaurants, deps.geo, deps.publisher, zerolog.Nop())
	svc.(*orderService).now = func() time.Time { return fixedNow }
	return svc, deps
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func validOrderRequest() *model.OrderRequest {
	return &model.OrderRequest{
		FirstName:   "Ivan",
		LastName:    "Petrov",
		PhoneNumber: "+79991234567",
		Address:     "Red Square, 1",
		Products: []model.OrderItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

func TestOrderService_CreateOrder_Success(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	products := []model.Product{
		{ID: 1, Name: "Cheeseburger", Price: dec("350.00")},
		{ID: 2, Name: "Fries", Price: dec("120.50")},
	}

	deps.products.On("GetByIDs", ctx, []int64{1, 2}).Return(products, nil)
	deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
	deps.orders.On("CreateOrder", ctx, deps.tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Status == model.StatusNew &&
			o.PaymentType == model.PaymentCash &&
			o.FirstName == "Ivan" &&
			o.RegisteredAt.Equal(fixedNow)
	})).Return(nil)
	deps.orders.On("CreateOrderItems", ctx, deps.tx, mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 2 &&
			items[0].Price.Equal(dec("350.00")) &&
			items[1].Price.Equal(dec("120.50"))
	})).Return(nil)
	deps.tx.On("Commit", ctx).Return(nil)
	deps.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.TypeOrderCreated && e.Total != nil && e.Total.Equal(dec("820.50"))
	})).Return(nil)

	resp, err := svc.CreateOrder(ctx, validOrderRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEqual(t, uuid.Nil, resp.ID)
	assert.Equal(t, model.StatusNew, resp.Status)
	assert.Equal(t, "Red Square, 1", resp.Address)
	assert.True(t, dec("820.50").Equal(resp.Total))
	assert.Len(t, resp.Items, 2)
	for _, item := range resp.Items {
		assert.Equal(t, resp.ID, item.OrderID)
	}
	assert.True(t, deps.tx.committed)
	assert.False(t, deps.tx.rolledBack)

	deps.orders.AssertExpectations(t)
	deps.products.AssertExpectations(t)
	deps.publisher.AssertExpectations(t)
}

func TestOrderService_CreateOrder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *model.OrderRequest)
		field  string
	}{
		{name: "missing first name", mutate: func(r *model.OrderRequest) { r.FirstName = "" }, field: "firstname"},
		{name: "missing last name", mutate: func(r *model.OrderRequest) { r.LastName = "" }, field: "lastname"},
		{name: "missing address", mutate: func(r *model.OrderRequest) { r.Address = "" }, field: "address"},
		{name: "invalid phone", mutate: func(r *model.OrderRequest) { r.PhoneNumber = "8-999-ABC" }, field: "phonenumber"},
		{name: "missing products", mutate: func(r *model.OrderRequest) { r.Products = nil }, field: "products"},
		{name: "empty products", mutate: func(r *model.OrderRequest) { r.Products = []model.OrderItemRequest{} }, field: "products"},
		{name: "zero quantity", mutate: func(r *model.OrderRequest) { r.Products[1].Quantity = 0 }, field: "products[1].quantity"},
		{name: "missing product id", mutate: func(r *model.OrderRequest) { r.Products[0].ProductID = 0 }, field: "products[0].product"},
		{name: "unknown payment type", mutate: func(r *model.OrderRequest) { r.PaymentType = "bitcoin" }, field: "payment_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, deps := newOrderServiceUnderTest()
			req := validOrderRequest()
			tt.mutate(req)

			resp, err := svc.CreateOrder(context.Background(), req)

			require.Error(t, err)
			assert.Nil(t, resp)

			var verr *model.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)

			deps.products.AssertNotCalled(t, "GetByIDs", mock.Anything, mock.Anything)
			deps.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
		})
	}
}

func TestOrderService_CreateOrder_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	deps.products.On("GetByIDs", ctx, []int64{1, 2}).
		Return([]model.Product{{ID: 1, Price: dec("350.00")}}, nil)

	_, err := svc.CreateOrder(ctx, validOrderRequest())

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, map[string][]string{"products[1].product": {"Invalid product id 2."}}, verr.Fields)
	deps.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestOrderService_CreateOrder_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	deps.products.On("GetByIDs", ctx, []int64{1, 2}).Return([]model.Product{
		{ID: 1, Price: dec("350.00")},
		{ID: 2, Price: dec("120.50")},
	}, nil)
	deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
	deps.orders.On("CreateOrder", ctx, deps.tx, mock.AnythingOfType("*model.Order")).Return(nil)
	deps.orders.On("CreateOrderItems", ctx, deps.tx, mock.AnythingOfType("[]model.OrderItem")).
		Return(errors.New("constraint violation"))
	deps.tx.On("Rollback", ctx).Return(nil)

	resp, err := svc.CreateOrder(ctx, validOrderRequest())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, deps.tx.rolledBack)
	assert.False(t, deps.tx.committed)
	deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOrderService_CreateOrder_PublishFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	req := validOrderRequest()
	req.Products = req.Products[:1]
	req.PaymentType = model.PaymentOnline

	deps.products.On("GetByIDs", ctx, []int64{1}).Return([]model.Product{{ID: 1, Price: dec("350.00")}}, nil)
	deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
	deps.orders.On("CreateOrder", ctx, deps.tx, mock.AnythingOfType("*model.Order")).Return(nil)
	deps.orders.On("CreateOrderItems", ctx, deps.tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	deps.tx.On("Commit", ctx).Return(nil)
	deps.publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	resp, err := svc.CreateOrder(ctx, req)

	require.NoError(t, err)
	assert.Equal(t, model.PaymentOnline, resp.PaymentType)
}

func TestOrderService_GetByID_TotalUsesCapturedPrices(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	id := uuid.New()
	order := &model.Order{ID: id, Status: model.StatusNew}
	items := []model.OrderItem{
		{ProductID: 1, Quantity: 2, Price: dec("350.00")},
		{ProductID: 2, Quantity: 3, Price: dec("100.00")},
	}
	// The catalogue price has since changed.
	live := []model.Product{
		{ID: 1, Price: dec("999.00")},
		{ID: 2, Price: dec("1.00")},
	}

	deps.orders.On("GetByID", ctx, id).Return(order, items, nil)
	deps.products.On("GetByIDs", ctx, []int64{1, 2}).Return(live, nil)

	resp, err := svc.GetByID(ctx, id)

	require.NoError(t, err)
	assert.True(t, dec("1000.00").Equal(resp.Total))
	assert.Equal(t, live, resp.Products)
}

func TestOrderService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	id := uuid.New()
	deps.orders.On("GetByID", ctx, id).Return(nil, nil, nil)

	resp, err := svc.GetByID(ctx, id)

	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Nil(t, resp)
}

func TestOrderService_ListOpen(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	capable := model.OpenOrder{
		Order:       model.Order{ID: uuid.New(), Address: "Red Square, 1", Status: model.StatusNew},
		ProductIDs:  []int64{1, 2},
		Coordinates: &model.Coordinates{Lon: 37.61, Lat: 55.75},
	}
	impossible := model.OpenOrder{
		Order:      model.Order{ID: uuid.New(), Address: "Far Away St", Status: model.StatusNew},
		ProductIDs: []int64{1, 2, 3},
	}

	deps.orders.On("ListOpen", ctx).Return([]model.OpenOrder{capable, impossible}, nil)
	deps.restaurants.On("ListAvailableMenu", ctx, []int64{1, 2, 3}).Return([]model.MenuRow{
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 1, Availability: true},
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 2, Availability: true},
		{RestaurantID: 2, RestaurantName: "B", RestaurantAddress: "B street", ProductID: 1, Availability: true},
	}, nil)
	// Only the capable order's candidate needs geocoding; its own
	// coordinates are already known.
	deps.geo.On("ResolveMany", ctx, []string{"A street"}).Return(map[string]model.Coordinates{
		"A street": {Lon: 37.62, Lat: 55.76},
	}, nil)

	open, err := svc.ListOpen(ctx)

	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, []model.RankedRestaurant{{RestaurantID: 1, Name: "A", DistanceKm: 1.28}}, open[0].Restaurants)
	assert.NotNil(t, open[1].Restaurants)
	assert.Empty(t, open[1].Restaurants)
	assert.Nil(t, open[1].Coordinates)

	deps.geo.AssertExpectations(t)
	deps.geo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestOrderService_ListOpen_NoCandidatesNoGeocoding(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	order := model.OpenOrder{
		Order:      model.Order{ID: uuid.New(), Address: "Red Square, 1", Status: model.StatusApproved},
		ProductIDs: []int64{1, 2, 3},
	}

	deps.orders.On("ListOpen", ctx).Return([]model.OpenOrder{order}, nil)
	deps.restaurants.On("ListAvailableMenu", ctx, []int64{1, 2, 3}).Return([]model.MenuRow{
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 1, Availability: true},
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 2, Availability: true},
	}, nil)

	open, err := svc.ListOpen(ctx)

	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Empty(t, open[0].Restaurants)
	deps.geo.AssertNotCalled(t, "ResolveMany", mock.Anything, mock.Anything)
	deps.geo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestOrderService_ListOpen_ResolveError(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	order := model.OpenOrder{
		Order:      model.Order{ID: uuid.New(), Address: "Red Square, 1"},
		ProductIDs: []int64{1},
	}

	deps.orders.On("ListOpen", ctx).Return([]model.OpenOrder{order}, nil)
	deps.restaurants.On("ListAvailableMenu", ctx, []int64{1}).Return([]model.MenuRow{
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 1, Availability: true},
	}, nil)
	deps.geo.On("ResolveMany", ctx, []string{"Red Square, 1", "A street"}).Return(nil, errors.New("db down"))

	_, err := svc.ListOpen(ctx)

	assert.Error(t, err)
}

func TestOrderService_RankedRestaurants(t *testing.T) {
	ctx := context.Background()
	svc, deps := newOrderServiceUnderTest()

	id := uuid.New()
	deps.orders.On("GetByID", ctx, id).Return(&model.Order{ID: id, Address: "Red Square, 1"}, []model.OrderItem{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	}, nil)
	deps.restaurants.On("ListAvailableMenu", ctx, []int64{1, 2}).Return([]model.MenuRow{
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 1, Availability: true,
			Coordinates: &model.Coordinates{Lon: 37.62, Lat: 55.76}},
		{RestaurantID: 1, RestaurantName: "A", RestaurantAddress: "A street", ProductID: 2, Availability: true,
			Coordinates: &model.Coordinates{Lon: 37.62, Lat: 55.76}},
		{RestaurantID: 2, RestaurantName: "B", RestaurantAddress: "B street", ProductID: 1, Availability: true},
	}, nil)
	deps.geo.On("Resolve", ctx, "Red Square, 1").Return(model.Coordinates{Lon: 37.61, Lat: 55.75}, true, nil)

	ranked, err := svc.RankedRestaurants(ctx, id)

	require.NoError(t, err)
	assert.Equal(t, []model.RankedRestaurant{{RestaurantID: 1, Name: "A", DistanceKm: 1.28}}, ranked)
}

func TestOrderService_AssignRestaurant(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	items := []model.OrderItem{{ProductID: 1, Quantity: 1}}
	menu := []model.MenuRow{
		{RestaurantID: 5, RestaurantName: "A", ProductID: 1, Availability: true},
	}

	t.Run("assigns and advances to cooking", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		deps.restaurants.On("GetByID", ctx, int64(5)).Return(&model.Restaurant{ID: 5}, nil)
		deps.orders.On("GetByID", ctx, id).Return(&model.Order{ID: id, Status: model.StatusNew}, items, nil)
		deps.restaurants.On("ListAvailableMenu", ctx, []int64{1}).Return(menu, nil)
		deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
		deps.orders.On("GetForUpdate", ctx, deps.tx, id).Return(&model.Order{ID: id, Status: model.StatusNew}, nil)
		deps.orders.On("UpdateState", ctx, deps.tx, mock.MatchedBy(func(o *model.Order) bool {
			return o.Status == model.StatusCooking && o.RestaurantID != nil && *o.RestaurantID == 5
		})).Return(nil)
		deps.tx.On("Commit", ctx).Return(nil)
		deps.publisher.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.TypeOrderStatusChanged && e.Status == model.StatusCooking
		})).Return(nil)

		order, err := svc.AssignRestaurant(ctx, id, 5)

		require.NoError(t, err)
		assert.Equal(t, model.StatusCooking, order.Status)
		assert.Equal(t, fixedNow, order.UpdatedAt)
		deps.publisher.AssertExpectations(t)
	})

	t.Run("restaurant cannot cook", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		deps.restaurants.On("GetByID", ctx, int64(6)).Return(&model.Restaurant{ID: 6}, nil)
		deps.orders.On("GetByID", ctx, id).Return(&model.Order{ID: id, Status: model.StatusNew}, items, nil)
		deps.restaurants.On("ListAvailableMenu", ctx, []int64{1}).Return(menu, nil)

		_, err := svc.AssignRestaurant(ctx, id, 6)

		assert.ErrorIs(t, err, model.ErrRestaurantCannotCook)
		deps.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("unknown restaurant", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		deps.restaurants.On("GetByID", ctx, int64(7)).Return(nil, nil)

		_, err := svc.AssignRestaurant(ctx, id, 7)

		assert.ErrorIs(t, err, model.ErrRestaurantNotFound)
	})

	t.Run("already assigned rolls back", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()
		assigned := int64(4)

		deps.restaurants.On("GetByID", ctx, int64(5)).Return(&model.Restaurant{ID: 5}, nil)
		deps.orders.On("GetByID", ctx, id).Return(&model.Order{ID: id, Status: model.StatusCooking}, items, nil)
		deps.restaurants.On("ListAvailableMenu", ctx, []int64{1}).Return(menu, nil)
		deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
		deps.orders.On("GetForUpdate", ctx, deps.tx, id).
			Return(&model.Order{ID: id, Status: model.StatusCooking, RestaurantID: &assigned}, nil)
		deps.tx.On("Rollback", ctx).Return(nil)

		_, err := svc.AssignRestaurant(ctx, id, 5)

		assert.ErrorIs(t, err, model.ErrRestaurantAlreadyAssigned)
		assert.True(t, deps.tx.rolledBack)
		deps.orders.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything, mock.Anything)
		deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestOrderService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	t.Run("approves and stamps called_at", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
		deps.orders.On("GetForUpdate", ctx, deps.tx, id).Return(&model.Order{ID: id, Status: model.StatusNew}, nil)
		deps.orders.On("UpdateState", ctx, deps.tx, mock.AnythingOfType("*model.Order")).Return(nil)
		deps.tx.On("Commit", ctx).Return(nil)
		deps.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		order, err := svc.UpdateStatus(ctx, id, model.StatusApproved)

		require.NoError(t, err)
		assert.Equal(t, model.StatusApproved, order.Status)
		require.NotNil(t, order.CalledAt)
		assert.Equal(t, fixedNow, *order.CalledAt)
	})

	t.Run("unknown status", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		_, err := svc.UpdateStatus(ctx, id, model.Status("LOST"))

		var verr *model.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "status")
		deps.orders.AssertNotCalled(t, "BeginTx", mock.Anything)
	})

	t.Run("illegal transition", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
		deps.orders.On("GetForUpdate", ctx, deps.tx, id).Return(&model.Order{ID: id, Status: model.StatusCompleted}, nil)
		deps.tx.On("Rollback", ctx).Return(nil)

		_, err := svc.UpdateStatus(ctx, id, model.StatusCancelled)

		assert.ErrorIs(t, err, model.ErrInvalidStatusTransition)
		assert.True(t, deps.tx.rolledBack)
	})

	t.Run("missing order", func(t *testing.T) {
		svc, deps := newOrderServiceUnderTest()

		deps.orders.On("BeginTx", ctx).Return(deps.tx, nil)
		deps.orders.On("GetForUpdate", ctx, deps.tx, id).Return(nil, nil)
		deps.tx.On("Rollback", ctx).Return(nil)

		_, err := svc.UpdateStatus(ctx, id, model.StatusApproved)

		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

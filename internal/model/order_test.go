package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		allowed  bool
	}{
		{StatusNew, StatusApproved, true},
		{StatusApproved, StatusCooking, true},
		{StatusCooking, StatusDelivering, true},
		{StatusDelivering, StatusCompleted, true},
		{StatusNew, StatusCooking, false},
		{StatusCooking, StatusApproved, false},
		{StatusNew, StatusNew, false},
		{StatusNew, StatusCancelled, true},
		{StatusDelivering, StatusCancelled, true},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusNew, false},
		{StatusNew, Status("LOST"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	for _, s := range OpenStatuses {
		assert.False(t, s.Terminal(), s)
	}
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestOrder_TransitionTo_StampsTimes(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	order := &Order{Status: StatusNew}

	require.NoError(t, order.TransitionTo(StatusApproved, now))
	require.NotNil(t, order.CalledAt)
	assert.Equal(t, now, *order.CalledAt)

	require.NoError(t, order.TransitionTo(StatusCooking, now))
	require.NoError(t, order.TransitionTo(StatusDelivering, now))
	require.NoError(t, order.TransitionTo(StatusCompleted, now.Add(time.Hour)))
	require.NotNil(t, order.DeliveredAt)
	assert.Equal(t, now.Add(time.Hour), *order.DeliveredAt)

	err := order.TransitionTo(StatusCancelled, now)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	assert.Equal(t, StatusCompleted, order.Status)
}

func TestOrder_AssignRestaurant(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name           string
		order          Order
		expectedErr    error
		expectedStatus Status
	}{
		{
			name:           "new order advances to cooking",
			order:          Order{Status: StatusNew},
			expectedStatus: StatusCooking,
		},
		{
			name:           "approved order advances to cooking",
			order:          Order{Status: StatusApproved},
			expectedStatus: StatusCooking,
		},
		{
			name:           "delivering order keeps its status",
			order:          Order{Status: StatusDelivering},
			expectedStatus: StatusDelivering,
		},
		{
			name:           "cancelled order is rejected",
			order:          Order{Status: StatusCancelled},
			expectedErr:    ErrInvalidStatusTransition,
			expectedStatus: StatusCancelled,
		},
		{
			name: "second assignment is rejected",
			order: Order{Status: StatusCooking, RestaurantID: func() *int64 {
				id := int64(9)
				return &id
			}()},
			expectedErr:    ErrRestaurantAlreadyAssigned,
			expectedStatus: StatusCooking,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := tt.order
			err := order.AssignRestaurant(3, now)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				require.NotNil(t, order.RestaurantID)
				assert.Equal(t, int64(3), *order.RestaurantID)
			}
			assert.Equal(t, tt.expectedStatus, order.Status)
		})
	}
}

func TestOrderTotal_UsesCapturedPrices(t *testing.T) {
	items := []OrderItem{
		{ProductID: 1, Quantity: 2, Price: decimal.RequireFromString("350.00")},
		{ProductID: 2, Quantity: 1, Price: decimal.RequireFromString("99.90")},
	}

	assert.True(t, decimal.RequireFromString("799.90").Equal(OrderTotal(items)))
	assert.True(t, decimal.Zero.Equal(OrderTotal(nil)))
}

func TestParseCoordinates(t *testing.T) {
	c, err := ParseCoordinates("37.617698 55.755864")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lon: 37.617698, Lat: 55.755864}, c)
	assert.Equal(t, "37.617698 55.755864", c.String())

	_, err = ParseCoordinates("37.61")
	assert.Error(t, err)

	_, err = ParseCoordinates("east 55.7")
	assert.Error(t, err)
}

func TestCoordinatesFrom(t *testing.T) {
	lon, lat := 37.6, 55.7
	assert.Nil(t, CoordinatesFrom(nil, &lat))
	assert.Nil(t, CoordinatesFrom(&lon, nil))
	assert.Equal(t, &Coordinates{Lon: lon, Lat: lat}, CoordinatesFrom(&lon, &lat))
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	assert.NoError(t, verr.OrNil())

	verr.Add("products", "must not be empty")
	verr.Add("phonenumber", "invalid phone number")

	err := verr.OrNil()
	require.Error(t, err)
	assert.Equal(t, "validation failed: phonenumber: invalid phone number, products: must not be empty", err.Error())
}

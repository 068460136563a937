package handler

import (
	"net/http"

	"star-burger/internal/model"
	"star-burger/internal/service"

	"github.com/rs/zerolog"
)

// RestaurantHandler handles restaurant and menu requests.
type RestaurantHandler struct {
	service service.RestaurantService
	logger  zerolog.Logger
}

// NewRestaurantHandler creates a new restaurant handler.
func NewRestaurantHandler(service service.RestaurantService, logger zerolog.Logger) *RestaurantHandler {
	return &RestaurantHandler{
		service: service,
		logger:  logger.With().Str("handler", "restaurant").Logger(),
	}
}

// GetAll handles GET /api/restaurants.
func (h *RestaurantHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.service.GetAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, restaurants)
}

// GetByID handles GET /api/restaurants/{id}.
func (h *RestaurantHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid restaurant ID", h.logger)
		return
	}

	restaurant, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

type availabilityRequest struct {
	Availability *bool `json:"availability"`
}

// SetAvailability handles PUT /api/restaurants/{id}/menu/{productId}.
func (h *RestaurantHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := pathInt64(r, "id")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid restaurant ID", h.logger)
		return
	}
	productID, ok := pathInt64(r, "productId")
	if !ok {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidation, "invalid product ID", h.logger)
		return
	}

	var req availabilityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, r, err, h.logger)
		return
	}
	if req.Availability == nil {
		fields := model.NewValidationError()
		fields.Add("availability", "This field is required.")
		writeServiceError(w, r, fields, h.logger)
		return
	}

	if err := h.service.SetAvailability(r.Context(), restaurantID, productID, *req.Availability); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.MenuItem{
		RestaurantID: restaurantID,
		ProductID:    productID,
		Availability: *req.Availability,
	})
}

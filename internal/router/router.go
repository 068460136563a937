package router

import (
	"net/http"

	"star-burger/internal/handler"
	"star-burger/internal/middleware"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Products    *handler.ProductHandler
	Restaurants *handler.RestaurantHandler
	Orders      *handler.OrderHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// Catalogue reads and order creation are public; everything a manager uses
// requires the X-API-Key header.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	r := mux.NewRouter()

	// Health check endpoint (no authentication required)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/products", h.Products.GetAll).Methods(http.MethodGet)
	api.HandleFunc("/products/{id:[0-9]+}", h.Products.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/order", h.Orders.Create).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.Orders.Create).Methods(http.MethodPost)

	manager := api.NewRoute().Subrouter()
	manager.Use(middleware.APIKeyAuth(apiKey, logger))
	manager.HandleFunc("/products/availability", h.Products.Availability).Methods(http.MethodGet)
	manager.HandleFunc("/restaurants", h.Restaurants.GetAll).Methods(http.MethodGet)
	manager.HandleFunc("/restaurants/{id:[0-9]+}", h.Restaurants.GetByID).Methods(http.MethodGet)
	manager.HandleFunc("/restaurants/{id:[0-9]+}/menu/{productId:[0-9]+}", h.Restaurants.SetAvailability).Methods(http.MethodPut)
	manager.HandleFunc("/orders/open", h.Orders.ListOpen).Methods(http.MethodGet)
	manager.HandleFunc("/orders/{id}", h.Orders.GetByID).Methods(http.MethodGet)
	manager.HandleFunc("/orders/{id}/restaurants", h.Orders.Restaurants).Methods(http.MethodGet)
	manager.HandleFunc("/orders/{id}/restaurant", h.Orders.AssignRestaurant).Methods(http.MethodPost)
	manager.HandleFunc("/orders/{id}/status", h.Orders.UpdateStatus).Methods(http.MethodPost)

	// Apply middleware in order: Recovery -> RequestID -> Logging -> CORS
	var handler http.Handler = r
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

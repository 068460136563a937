package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"star-burger/internal/handler"
	"star-burger/internal/router"
	"star-burger/internal/service"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func serve(parent context.Context) error {
	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger
	logger.Info().Msg("starting star-burger API server")

	publisher := a.publisher()
	defer publisher.Close()

	// Initialize services
	productService := service.NewProductService(a.products, logger)
	restaurantService := service.NewRestaurantService(a.restaurants, a.products, logger)
	orderService := service.NewOrderService(a.orders, a.products, a.restaurants, a.geocache(), publisher, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Products:    handler.NewProductHandler(productService, restaurantService, logger),
		Restaurants: handler.NewRestaurantHandler(restaurantService, logger),
		Orders:      handler.NewOrderHandler(orderService, logger),
	}, a.cfg.Auth.APIKey, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         a.cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", a.cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

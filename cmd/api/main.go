package main

import (
	"context"
	"fmt"
	"os"

	"star-burger/internal/config"
	"star-burger/internal/database"
	"star-burger/internal/events"
	"star-burger/internal/geocache"
	"star-burger/internal/geocoder"
	"star-burger/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "star-burger",
		Short:         "Star Burger delivery back office",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCmd(),
		newGeocodeCmd(),
		newImportMenuCmd(),
		newInitDBCmd(),
	)

	return root
}

// app holds the dependencies shared by every command.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *pgxpool.Pool
	redis  *redis.Client

	products    repository.ProductRepository
	restaurants repository.RestaurantRepository
	orders      repository.OrderRepository
	addresses   repository.AddressRepository
}

func bootstrap(ctx context.Context) (*app, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &app{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		products:    repository.NewProductRepository(pool, logger),
		restaurants: repository.NewRestaurantRepository(pool, logger),
		orders:      repository.NewOrderRepository(pool, logger),
		addresses:   repository.NewAddressRepository(pool, logger),
	}

	if cfg.Redis.Enabled {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unavailable, coordinate hot cache disabled")
			a.redis.Close()
			a.redis = nil
		}
	}

	return a, nil
}

func (a *app) close() {
	if a.redis != nil {
		a.redis.Close()
	}
	a.pool.Close()
}

// geocache builds the coordinate cache over the address table and Yandex.
func (a *app) geocache() *geocache.Cache {
	provider := geocoder.NewYandex(geocoder.YandexConfig{
		BaseURL:   a.cfg.Geocoder.BaseURL,
		APIKey:    a.cfg.Geocoder.APIKey,
		Timeout:   a.cfg.Geocoder.Timeout,
		RetryWait: a.cfg.Geocoder.RetryWait,
	}, a.logger)

	opts := []geocache.Option{geocache.WithParallelism(a.cfg.Geocoder.Parallelism)}
	if a.redis != nil {
		opts = append(opts, geocache.WithHotStore(geocache.NewRedisStore(a.redis, a.cfg.Redis.TTL)))
	}

	return geocache.New(a.addresses, provider, a.logger, opts...)
}

// publisher returns the Kafka publisher, or a no-op one when Kafka is off.
func (a *app) publisher() events.Publisher {
	if !a.cfg.Kafka.Enabled {
		a.logger.Info().Msg("kafka disabled, order events are not published")
		return events.NoopPublisher{}
	}

	writer := events.NewKafkaWriter(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic)
	return events.NewKafkaPublisher(writer, a.logger)
}

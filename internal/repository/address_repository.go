package repository

import (
	"context"
	"fmt"
	"time"

	"star-burger/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Coordinates are written once; a later writer never replaces them.
const insertAddressesQuery = `
	INSERT INTO addresses (address, longitude, latitude, requested_at)
	SELECT * FROM unnest($1::text[], $2::float8[], $3::float8[], $4::timestamptz[])
	ON CONFLICT (address) DO UPDATE
	SET longitude = EXCLUDED.longitude,
	    latitude = EXCLUDED.latitude,
	    requested_at = EXCLUDED.requested_at
	WHERE addresses.longitude IS NULL OR addresses.latitude IS NULL
`

// addressRepository implements the AddressRepository interface using PostgreSQL.
type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

// GetByAddresses returns coordinates for the addresses that have them.
func (r *addressRepository) GetByAddresses(ctx context.Context, addresses []string) (map[string]model.Coordinates, error) {
	found := make(map[string]model.Coordinates, len(addresses))
	if len(addresses) == 0 {
		return found, nil
	}

	query := `
		SELECT address, longitude, latitude
		FROM addresses
		WHERE address = ANY($1)
		  AND longitude IS NOT NULL
		  AND latitude IS NOT NULL
	`

	rows, err := r.pool.Query(ctx, query, addresses)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(addresses)).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			address string
			coords  model.Coordinates
		)
		if err := rows.Scan(&address, &coords.Lon, &coords.Lat); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan address row")
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		found[address] = coords
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating address rows")
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return found, nil
}

// Insert stores one resolved address.
func (r *addressRepository) Insert(ctx context.Context, address model.Address) error {
	return r.BulkInsert(ctx, []model.Address{address})
}

// BulkInsert stores many resolved addresses in one statement.
func (r *addressRepository) BulkInsert(ctx context.Context, addresses []model.Address) error {
	if len(addresses) == 0 {
		return nil
	}

	var (
		keys = make([]string, len(addresses))
		lons = make([]float64, len(addresses))
		lats = make([]float64, len(addresses))
		at   = make([]time.Time, len(addresses))
	)
	for i, a := range addresses {
		keys[i] = a.Address
		lons[i] = a.Lon
		lats[i] = a.Lat
		at[i] = a.RequestedAt
	}

	if _, err := r.pool.Exec(ctx, insertAddressesQuery, keys, lons, lats, at); err != nil {
		r.logger.Error().Err(err).Int("count", len(addresses)).Msg("failed to store addresses")
		return fmt.Errorf("failed to store addresses: %w", err)
	}

	r.logger.Debug().Int("count", len(addresses)).Msg("addresses stored")

	return nil
}

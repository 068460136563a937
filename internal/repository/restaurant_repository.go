package repository

import (
	"context"
	"errors"
	"fmt"

	"star-burger/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const upsertMenuItemQuery = `
	INSERT INTO restaurant_menu_items (restaurant_id, product_id, availability)
	VALUES ($1, $2, $3)
	ON CONFLICT (restaurant_id, product_id)
	DO UPDATE SET availability = EXCLUDED.availability
`

// restaurantRepository implements the RestaurantRepository interface using PostgreSQL.
type restaurantRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRestaurantRepository creates a new PostgreSQL-backed restaurant repository.
func NewRestaurantRepository(pool *pgxpool.Pool, logger zerolog.Logger) RestaurantRepository {
	return &restaurantRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "restaurant").Logger(),
	}
}

// GetAll lists restaurants by name.
func (r *restaurantRepository) GetAll(ctx context.Context) ([]model.Restaurant, error) {
	query := `
		SELECT id, name, address, contact_phone
		FROM restaurants
		ORDER BY name, id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query restaurants")
		return nil, fmt.Errorf("failed to query restaurants: %w", err)
	}
	defer rows.Close()

	restaurants := []model.Restaurant{}
	for rows.Next() {
		var rest model.Restaurant
		if err := rows.Scan(&rest.ID, &rest.Name, &rest.Address, &rest.ContactPhone); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan restaurant row")
			return nil, fmt.Errorf("failed to scan restaurant: %w", err)
		}
		restaurants = append(restaurants, rest)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating restaurant rows")
		return nil, fmt.Errorf("error iterating restaurants: %w", err)
	}

	return restaurants, nil
}

// GetByID retrieves a single restaurant.
func (r *restaurantRepository) GetByID(ctx context.Context, id int64) (*model.Restaurant, error) {
	query := `
		SELECT id, name, address, contact_phone
		FROM restaurants
		WHERE id = $1
	`

	var rest model.Restaurant
	err := r.pool.QueryRow(ctx, query, id).Scan(&rest.ID, &rest.Name, &rest.Address, &rest.ContactPhone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Int64("restaurant_id", id).Msg("restaurant not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Int64("restaurant_id", id).Msg("failed to query restaurant")
		return nil, fmt.Errorf("failed to query restaurant: %w", err)
	}

	return &rest, nil
}

// ListAvailableMenu returns available menu rows offering any of productIDs.
func (r *restaurantRepository) ListAvailableMenu(ctx context.Context, productIDs []int64) ([]model.MenuRow, error) {
	if len(productIDs) == 0 {
		return []model.MenuRow{}, nil
	}

	query := `
		SELECT m.restaurant_id, r.name, r.address, m.product_id, m.availability,
		       a.longitude, a.latitude
		FROM restaurant_menu_items m
		JOIN restaurants r ON r.id = m.restaurant_id
		LEFT JOIN addresses a ON a.address = r.address
		WHERE m.availability AND m.product_id = ANY($1)
		ORDER BY m.restaurant_id, m.product_id
	`

	rows, err := r.pool.Query(ctx, query, productIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("products", len(productIDs)).Msg("failed to query menu")
		return nil, fmt.Errorf("failed to query menu: %w", err)
	}
	defer rows.Close()

	menu := []model.MenuRow{}
	for rows.Next() {
		var (
			row      model.MenuRow
			lon, lat *float64
		)
		if err := rows.Scan(&row.RestaurantID, &row.RestaurantName, &row.RestaurantAddress,
			&row.ProductID, &row.Availability, &lon, &lat); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan menu row")
			return nil, fmt.Errorf("failed to scan menu row: %w", err)
		}
		row.Coordinates = model.CoordinatesFrom(lon, lat)
		menu = append(menu, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating menu rows")
		return nil, fmt.Errorf("error iterating menu: %w", err)
	}

	return menu, nil
}

// ListMenuItems returns every menu row.
func (r *restaurantRepository) ListMenuItems(ctx context.Context) ([]model.MenuItem, error) {
	query := `
		SELECT restaurant_id, product_id, availability
		FROM restaurant_menu_items
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query menu items")
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	items := []model.MenuItem{}
	for rows.Next() {
		var item model.MenuItem
		if err := rows.Scan(&item.RestaurantID, &item.ProductID, &item.Availability); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan menu item row")
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating menu items: %w", err)
	}

	return items, nil
}

// SetAvailability creates or updates one menu row.
func (r *restaurantRepository) SetAvailability(ctx context.Context, item model.MenuItem) error {
	_, err := r.pool.Exec(ctx, upsertMenuItemQuery, item.RestaurantID, item.ProductID, item.Availability)
	if err != nil {
		r.logger.Error().
			Err(err).
			Int64("restaurant_id", item.RestaurantID).
			Int64("product_id", item.ProductID).
			Msg("failed to set availability")
		return fmt.Errorf("failed to set availability: %w", err)
	}
	return nil
}

// UpsertMenuItems writes many menu rows in one transaction.
func (r *restaurantRepository) UpsertMenuItems(ctx context.Context, items []model.MenuItem) (err error) {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				r.logger.Error().Err(rbErr).Msg("failed to rollback menu import")
			}
		}
	}()

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(upsertMenuItemQuery, item.RestaurantID, item.ProductID, item.Availability)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range items {
		if _, err = results.Exec(); err != nil {
			_ = results.Close()
			r.logger.Error().
				Err(err).
				Int64("restaurant_id", items[i].RestaurantID).
				Int64("product_id", items[i].ProductID).
				Msg("failed to upsert menu item")
			return fmt.Errorf("failed to upsert menu item: %w", err)
		}
	}
	if err = results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit menu import: %w", err)
	}

	r.logger.Info().Int("count", len(items)).Msg("menu items upserted")

	return nil
}

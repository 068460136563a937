package menuimport

import (
	"context"
	"fmt"

	"star-burger/internal/model"

	"github.com/rs/zerolog"
)

// ProductChecker verifies product IDs.
type ProductChecker interface {
	ValidateProductsExist(ctx context.Context, ids []int64) error
}

// MenuWriter stores menu rows atomically.
type MenuWriter interface {
	UpsertMenuItems(ctx context.Context, items []model.MenuItem) error
}

// Importer loads a menu file and applies it in a single transaction.
type Importer struct {
	loader   Loader
	products ProductChecker
	menus    MenuWriter
	logger   zerolog.Logger
}

// NewImporter creates an Importer.
func NewImporter(loader Loader, products ProductChecker, menus MenuWriter, logger zerolog.Logger) *Importer {
	return &Importer{
		loader:   loader,
		products: products,
		menus:    menus,
		logger:   logger.With().Str("component", "menu-importer").Logger(),
	}
}

// Import applies the file at path and returns the number of rows written.
// When a (restaurant, product) pair repeats, the last row wins.
func (im *Importer) Import(ctx context.Context, path string) (int, error) {
	items, err := im.loader.Load(ctx, path)
	if err != nil {
		return 0, err
	}

	type key struct{ restaurant, product int64 }
	position := make(map[key]int, len(items))
	var (
		merged     []model.MenuItem
		productIDs []int64
		seen       = make(map[int64]struct{})
	)
	for _, item := range items {
		k := key{item.RestaurantID, item.ProductID}
		if i, ok := position[k]; ok {
			merged[i] = item
			continue
		}
		position[k] = len(merged)
		merged = append(merged, item)

		if _, ok := seen[item.ProductID]; !ok {
			seen[item.ProductID] = struct{}{}
			productIDs = append(productIDs, item.ProductID)
		}
	}

	if err := im.products.ValidateProductsExist(ctx, productIDs); err != nil {
		return 0, fmt.Errorf("menu file %s: %w", path, err)
	}

	if err := im.menus.UpsertMenuItems(ctx, merged); err != nil {
		return 0, fmt.Errorf("failed to import menu file %s: %w", path, err)
	}

	im.logger.Info().
		Str("path", path).
		Int("rows", len(merged)).
		Int("products", len(productIDs)).
		Msg("menu imported")

	return len(merged), nil
}

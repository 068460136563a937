// Package geocoder turns postal addresses into coordinates through an
// external provider.
package geocoder

import (
	"context"

	"star-burger/internal/model"
)

// Provider resolves an address to the coordinates of its most relevant match.
// found is false when the provider knows no such place; err is reserved for
// transport or protocol failures.
type Provider interface {
	Fetch(ctx context.Context, address string) (coords model.Coordinates, found bool, err error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, address string) (model.Coordinates, bool, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, address string) (model.Coordinates, bool, error) {
	return f(ctx, address)
}

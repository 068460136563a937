// Package geocache memoises geocoding results so an address is sent to the
// provider at most once.
package geocache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"star-burger/internal/geocoder"
	"star-burger/internal/model"
)

// Store is the durable address table.
type Store interface {
	// GetByAddresses returns the coordinates of every address already stored.
	// Missing addresses are absent from the map.
	GetByAddresses(ctx context.Context, addresses []string) (map[string]model.Coordinates, error)

	// Insert stores one resolved address. An existing row wins.
	Insert(ctx context.Context, address model.Address) error

	// BulkInsert stores many resolved addresses in one statement.
	BulkInsert(ctx context.Context, addresses []model.Address) error
}

// HotStore is an optional in-memory tier in front of Store.
type HotStore interface {
	Get(ctx context.Context, address string) (model.Coordinates, bool, error)
	Set(ctx context.Context, address string, coords model.Coordinates) error
}

// Resolver is what callers of the cache depend on.
type Resolver interface {
	Resolve(ctx context.Context, address string) (model.Coordinates, bool, error)
	ResolveMany(ctx context.Context, addresses []string) (map[string]model.Coordinates, error)
}

// Cache resolves addresses through the hot tier, the store, then the provider.
type Cache struct {
	store       Store
	hot         HotStore
	provider    geocoder.Provider
	parallelism int
	group       singleflight.Group
	now         func() time.Time
	logger      zerolog.Logger
}

// Option customises a Cache.
type Option func(*Cache)

// WithHotStore puts hot in front of the durable store.
func WithHotStore(hot HotStore) Option {
	return func(c *Cache) { c.hot = hot }
}

// WithParallelism bounds concurrent provider calls in ResolveMany.
func WithParallelism(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.parallelism = n
		}
	}
}

// New creates a cache backed by store and provider.
func New(store Store, provider geocoder.Provider, logger zerolog.Logger, opts ...Option) *Cache {
	c := &Cache{
		store:       store,
		provider:    provider,
		parallelism: 4,
		now:         time.Now,
		logger:      logger.With().Str("component", "geocache").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type result struct {
	coords model.Coordinates
	found  bool
}

// Resolve returns the coordinates of address. found is false when the
// provider has no answer or is unavailable; err reports storage failures and
// the caller's own cancellation.
//
// Concurrent callers for one address share a single lookup. The shared lookup
// ignores caller cancellation and is bounded by the provider's timeout.
func (c *Cache) Resolve(ctx context.Context, address string) (model.Coordinates, bool, error) {
	if coords, ok := c.hotGet(ctx, address); ok {
		return coords, true, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(address, func() (interface{}, error) {
		return c.lookup(shared, address)
	})

	select {
	case <-ctx.Done():
		return model.Coordinates{}, false, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return model.Coordinates{}, false, r.Err
		}
		res := r.Val.(result)
		return res.coords, res.found, nil
	}
}

func (c *Cache) lookup(ctx context.Context, address string) (result, error) {
	stored, err := c.store.GetByAddresses(ctx, []string{address})
	if err != nil {
		return result{}, fmt.Errorf("failed to look up address: %w", err)
	}
	if coords, ok := stored[address]; ok {
		c.hotSet(ctx, address, coords)
		return result{coords: coords, found: true}, nil
	}

	coords, found := c.fetch(ctx, address)
	if !found {
		return result{}, nil
	}

	if err := c.store.Insert(ctx, model.Address{
		Address:     address,
		Coordinates: coords,
		RequestedAt: c.now(),
	}); err != nil {
		return result{}, fmt.Errorf("failed to store address: %w", err)
	}
	c.hotSet(ctx, address, coords)

	return result{coords: coords, found: true}, nil
}

// ResolveMany resolves a batch with one store read and one store write.
// Unresolvable addresses are absent from the result.
func (c *Cache) ResolveMany(ctx context.Context, addresses []string) (map[string]model.Coordinates, error) {
	resolved := make(map[string]model.Coordinates, len(addresses))

	var lookup []string
	seen := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		if _, dup := seen[address]; dup {
			continue
		}
		seen[address] = struct{}{}

		if coords, ok := c.hotGet(ctx, address); ok {
			resolved[address] = coords
			continue
		}
		lookup = append(lookup, address)
	}
	if len(lookup) == 0 {
		return resolved, nil
	}

	stored, err := c.store.GetByAddresses(ctx, lookup)
	if err != nil {
		return nil, fmt.Errorf("failed to look up addresses: %w", err)
	}

	var missing []string
	for _, address := range lookup {
		if coords, ok := stored[address]; ok {
			resolved[address] = coords
			c.hotSet(ctx, address, coords)
			continue
		}
		missing = append(missing, address)
	}
	if len(missing) == 0 {
		return resolved, nil
	}

	var (
		mu    sync.Mutex
		fresh []model.Address
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)
	for _, address := range missing {
		address := address
		g.Go(func() error {
			coords, found := c.fetch(gctx, address)
			if !found {
				return nil
			}
			mu.Lock()
			fresh = append(fresh, model.Address{Address: address, Coordinates: coords, RequestedAt: c.now()})
			mu.Unlock()
			return nil
		})
	}
	// Workers fold provider failures into "not found" and never return an
	// error; the group only bounds concurrency.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(fresh) == 0 {
		return resolved, nil
	}

	if err := c.store.BulkInsert(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to store addresses: %w", err)
	}

	for _, a := range fresh {
		resolved[a.Address] = a.Coordinates
		c.hotSet(ctx, a.Address, a.Coordinates)
	}

	c.logger.Debug().
		Int("requested", len(seen)).
		Int("geocoded", len(fresh)).
		Int("unresolved", len(missing)-len(fresh)).
		Msg("addresses resolved")

	return resolved, nil
}

// fetch asks the provider and folds every failure into "not found".
func (c *Cache) fetch(ctx context.Context, address string) (model.Coordinates, bool) {
	coords, found, err := c.provider.Fetch(ctx, address)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.logger.Debug().Str("address", address).Msg("geocoding cancelled")
		} else {
			c.logger.Warn().Err(err).Str("address", address).Msg("geocoding unavailable")
		}
		return model.Coordinates{}, false
	}
	if !found {
		c.logger.Info().Str("address", address).Msg("address not found by geocoder")
	}
	return coords, found
}

func (c *Cache) hotGet(ctx context.Context, address string) (model.Coordinates, bool) {
	if c.hot == nil {
		return model.Coordinates{}, false
	}
	coords, ok, err := c.hot.Get(ctx, address)
	if err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("hot cache read failed")
		return model.Coordinates{}, false
	}
	return coords, ok
}

func (c *Cache) hotSet(ctx context.Context, address string, coords model.Coordinates) {
	if c.hot == nil {
		return
	}
	if err := c.hot.Set(ctx, address, coords); err != nil {
		c.logger.Warn().Err(err).Str("address", address).Msg("hot cache write failed")
	}
}

package geocache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"star-burger/internal/model"
)

// RedisStore keeps recently used coordinates in Redis as "lon lat" strings.
type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisStore creates a Redis-backed hot tier.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{Client: client, TTL: ttl}
}

// Key is the Redis key of an address.
func (s *RedisStore) Key(address string) string {
	return "geo:addr:" + address
}

func (s *RedisStore) Get(ctx context.Context, address string) (model.Coordinates, bool, error) {
	val, err := s.Client.Get(ctx, s.Key(address)).Result()
	if errors.Is(err, redis.Nil) {
		return model.Coordinates{}, false, nil
	}
	if err != nil {
		return model.Coordinates{}, false, err
	}

	coords, err := model.ParseCoordinates(val)
	if err != nil {
		return model.Coordinates{}, false, err
	}
	return coords, true, nil
}

func (s *RedisStore) Set(ctx context.Context, address string, coords model.Coordinates) error {
	return s.Client.Set(ctx, s.Key(address), coords.String(), s.TTL).Err()
}

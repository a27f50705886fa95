package redis

// Package redis provides Redis-based adapters for the TBRD portal.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/tbrd-ui/internal/ports"
)

var _ ports.Storage = (*Storage)(nil)

const defaultProfileTTL = 30 * 24 * time.Hour

// Storage is a Redis-backed profile store for production use.
// Each key lives at <prefix><profile>:<key> with a sliding TTL that is
// refreshed on every read and write; only keys left untouched for a full TTL expire.
type Storage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// StorageOptions configures a Redis Storage.
type StorageOptions struct {
	Prefix string        // defaults to "tbrd:"
	TTL    time.Duration // defaults to 30 days
}

// NewStorage creates a new Redis-based profile store.
func NewStorage(client redis.UniversalClient, opts StorageOptions) *Storage {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "tbrd:"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultProfileTTL
	}
	return &Storage{client: client, prefix: prefix, ttl: ttl}
}

func (s *Storage) key(profile, key string) string {
	return s.prefix + profile + ":" + key
}

func (s *Storage) Get(ctx context.Context, profile, key string) (string, bool, error) {
	if profile == "" {
		return "", false, nil
	}
	data, err := s.client.GetEx(ctx, s.key(profile, key), s.ttl).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return data, true, nil
}

func (s *Storage) Set(ctx context.Context, profile, key, value string) error {
	if profile == "" {
		return errors.New("profile cannot be empty")
	}
	if err := s.client.Set(ctx, s.key(profile, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *Storage) Delete(ctx context.Context, profile, key string) error {
	if profile == "" {
		return nil // Nothing to delete
	}
	if err := s.client.Del(ctx, s.key(profile, key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

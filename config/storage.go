package config

import (
	"fmt"
	"strings"
	"time"
)

// StorageBackend selects where per-profile keys (guest session, identity cache) live.
type StorageBackend string

const (
	StorageBackendRedis    StorageBackend = "redis"
	StorageBackendPostgres StorageBackend = "postgres"
	StorageBackendMemory   StorageBackend = "memory"
)

// UnmarshalText implements encoding.TextUnmarshaler for StorageBackend.
func (b *StorageBackend) UnmarshalText(text []byte) error {
	v := StorageBackend(strings.ToLower(strings.TrimSpace(string(text))))
	switch v {
	case StorageBackendRedis, StorageBackendPostgres, StorageBackendMemory:
		*b = v
		return nil
	default:
		return fmt.Errorf("invalid StorageBackend: %q (valid options: redis, postgres, memory)", string(text))
	}
}

// StorageConfig contains profile storage configuration.
type StorageConfig struct {
	Backend StorageBackend `env:"STORAGE_BACKEND" envDefault:"redis"`

	// KeyPrefix namespaces Redis keys.
	KeyPrefix string `env:"STORAGE_KEY_PREFIX" envDefault:"tbrd:"`

	// ProfileTTL is how long an idle browser profile is kept. Refreshed on write.
	ProfileTTL time.Duration `env:"STORAGE_PROFILE_TTL" envDefault:"720h"`
}

// Sanitize applies defaults for empty values.
func (s *StorageConfig) Sanitize() {
	s.KeyPrefix = strings.TrimSpace(s.KeyPrefix)
	if s.ProfileTTL <= 0 {
		s.ProfileTTL = 720 * time.Hour
	}
}

// Validate rejects an empty backend.
func (s *StorageConfig) Validate() error {
	if s.Backend == "" {
		return fmt.Errorf("STORAGE_BACKEND is required")
	}
	return nil
}

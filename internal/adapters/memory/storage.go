package memory

// Package memory provides in-process adapters for development and tests.

import (
	"context"
	"sync"

	"github.com/target/tbrd-ui/internal/ports"
)

var _ ports.Storage = (*Storage)(nil)

// Storage keeps profile keys in a map. Contents are lost on restart.
// It is safe for concurrent use.
type Storage struct {
	mu    sync.RWMutex
	items map[string]map[string]string
}

// NewStorage creates an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{items: make(map[string]map[string]string)}
}

func (s *Storage) Get(_ context.Context, profile, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[profile][key]
	return v, ok, nil
}

func (s *Storage) Set(_ context.Context, profile, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.items[profile]
	if !ok {
		keys = make(map[string]string)
		s.items[profile] = keys
	}
	keys[key] = value
	return nil
}

func (s *Storage) Delete(_ context.Context, profile, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, ok := s.items[profile]
	if !ok {
		return nil
	}
	delete(keys, key)
	if len(keys) == 0 {
		delete(s.items, profile)
	}
	return nil
}

// Len returns the number of profiles holding at least one key.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

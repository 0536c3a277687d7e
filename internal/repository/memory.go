package repository

import (
	"context"
	"sync"
)

// MemoryTokenStore keeps the persisted slot for the life of the process.
type MemoryTokenStore struct {
	values sync.Map
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{}
}

// Get returns "" when nothing is stored under key.
func (s *MemoryTokenStore) Get(ctx context.Context, key string) (string, error) {
	val, ok := s.values.Load(key)
	if !ok {
		return "", nil
	}
	return val.(string), nil
}

func (s *MemoryTokenStore) Set(ctx context.Context, key, value string) error {
	s.values.Store(key, value)
	return nil
}

func (s *MemoryTokenStore) Clear(ctx context.Context, key string) error {
	s.values.Delete(key)
	return nil
}

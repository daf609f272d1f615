package tilestore

import (
	"context"
	"sync"

	"github.com/jaennil/guide_helper/backend/world/internal/geo"
)

type MemoryStore struct {
	m *typedSyncMap
}

type typedSyncMap struct {
	m sync.Map
}

func (c *typedSyncMap) Load(k geo.TileAddress) ([]byte, bool) {
	v, exists := c.m.Load(k)
	if !exists {
		return nil, false
	}
	return v.([]byte), true
}

func (c *typedSyncMap) Store(k geo.TileAddress, v []byte) {
	c.m.Store(k, v)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m: &typedSyncMap{},
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, addr geo.TileAddress) ([]byte, bool, error) {
	v, exists := s.m.Load(addr)
	return v, exists, nil
}

func (s *MemoryStore) Set(_ context.Context, addr geo.TileAddress, data []byte) error {
	s.m.Store(addr, data)
	return nil
}

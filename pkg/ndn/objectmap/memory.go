package objectmap

import (
	"context"
	"sort"
	"sync"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// MemoryStorage is an in-process backend: a Go map guarded by a
// mutex, whose List sorts by key on each call; suited to tests and
// small maps.
type MemoryStorage struct {
	mu   sync.RWMutex
	rows map[string]objid.ObjId
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{rows: make(map[string]objid.ObjId)}
}

func (s *MemoryStorage) Put(ctx context.Context, key string, value objid.ObjId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[key] = value
	return nil
}

func (s *MemoryStorage) Get(ctx context.Context, key string) (objid.ObjId, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.rows[key]
	return v, ok, nil
}

func (s *MemoryStorage) Remove(ctx context.Context, key string) (objid.ObjId, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.rows[key]
	if ok {
		delete(s.rows, key)
	}
	return v, ok, nil
}

func (s *MemoryStorage) IsExist(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[key]
	return ok, nil
}

func (s *MemoryStorage) List(ctx context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0, len(s.rows))
	for k, v := range s.rows {
		items = append(items, Item{Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

func (s *MemoryStorage) Save(ctx context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = make(map[string]objid.ObjId, len(items))
	for _, it := range items {
		s.rows[it.Key] = it.Value
	}
	return nil
}

func (s *MemoryStorage) Clone(ctx context.Context) (Storage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dup := NewMemoryStorage()
	for k, v := range s.rows {
		dup.rows[k] = v
	}
	return dup, nil
}

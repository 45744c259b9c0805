package trieobjectmap

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NodeStore persists trie nodes keyed by their content hash. Memory
// and SQL implementations satisfy it, mirroring the object-map
// backends.
type NodeStore interface {
	Get(ctx context.Context, hash []byte) ([]byte, bool, error)
	Put(ctx context.Context, hash []byte, encoded []byte) error
	Clone(ctx context.Context) (NodeStore, error)
}

// MemoryNodeStore is the in-process backend: a map keyed by the hex
// of the node hash, guarded by a mutex.
type MemoryNodeStore struct {
	mu    sync.RWMutex
	nodes map[string][]byte
}

func NewMemoryNodeStore() *MemoryNodeStore {
	return &MemoryNodeStore{nodes: make(map[string][]byte)}
}

func (s *MemoryNodeStore) Get(ctx context.Context, hash []byte) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.nodes[hex.EncodeToString(hash)]
	return b, ok, nil
}

func (s *MemoryNodeStore) Put(ctx context.Context, hash []byte, encoded []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[hex.EncodeToString(hash)] = append([]byte(nil), encoded...)
	return nil
}

func (s *MemoryNodeStore) Clone(ctx context.Context) (NodeStore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dup := NewMemoryNodeStore()
	for k, v := range s.nodes {
		dup.nodes[k] = append([]byte(nil), v...)
	}
	return dup, nil
}

// sqlNodeRow is the gorm model for one trie node in the embedded-SQL
// backend, mirroring objectmap.SQLStorage's shape.
type sqlNodeRow struct {
	Hash string `gorm:"primaryKey;column:hash"`
	Data []byte `gorm:"column:data"`
}

func (sqlNodeRow) TableName() string { return "trie_nodes" }

// SQLNodeStore is the ModeNormal backend: one gorm-backed sqlite file
// per trie.
type SQLNodeStore struct {
	db *gorm.DB
}

func OpenSQLNodeStore(path string) (*SQLNodeStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&sqlNodeRow{}); err != nil {
		return nil, err
	}
	return &SQLNodeStore{db: db}, nil
}

func (s *SQLNodeStore) Get(ctx context.Context, hash []byte) ([]byte, bool, error) {
	var row sqlNodeRow
	err := s.db.WithContext(ctx).Where("hash = ?", hex.EncodeToString(hash)).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return row.Data, true, nil
}

func (s *SQLNodeStore) Put(ctx context.Context, hash []byte, encoded []byte) error {
	row := sqlNodeRow{Hash: hex.EncodeToString(hash), Data: encoded}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *SQLNodeStore) Clone(ctx context.Context) (NodeStore, error) {
	var rows []sqlNodeRow
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	dup := NewMemoryNodeStore()
	for _, r := range rows {
		h, err := hex.DecodeString(r.Hash)
		if err != nil {
			return nil, err
		}
		if err := dup.Put(ctx, h, r.Data); err != nil {
			return nil, err
		}
	}
	return dup, nil
}

func (s *SQLNodeStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

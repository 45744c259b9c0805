package objectarray

import (
	"context"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// MemoryBackend keeps items in process memory only; used while a
// Builder is accumulating items before the first Build(), and in
// tests.
type MemoryBackend struct {
	items []objid.ObjId
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(ctx context.Context) ([]objid.ObjId, error) {
	return append([]objid.ObjId(nil), b.items...), nil
}

func (b *MemoryBackend) Save(ctx context.Context, items []objid.ObjId) error {
	b.items = append([]objid.ObjId(nil), items...)
	return nil
}

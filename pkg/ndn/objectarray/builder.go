package objectarray

import (
	"context"
	"fmt"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Builder accumulates items for an ObjectArray before Build() fixes
// the Merkle tree and storage mode.
type Builder struct {
	items  []objid.ObjId
	method objid.HashMethod
}

// NewBuilder starts a fresh builder hashing leaves under method.
func NewBuilder(method objid.HashMethod) *Builder {
	return &Builder{method: method}
}

// OpenBuilder continues editing an already-built array's item list.
func OpenBuilder(method objid.HashMethod, items []objid.ObjId) *Builder {
	return &Builder{method: method, items: append([]objid.ObjId(nil), items...)}
}

func (b *Builder) Append(id objid.ObjId) { b.items = append(b.items, id) }

func (b *Builder) Insert(index int, id objid.ObjId) error {
	if index < 0 || index > len(b.items) {
		return fmt.Errorf("%w: insert index %d out of range [0,%d]", errors.ErrInvalidData, index, len(b.items))
	}
	b.items = append(b.items, objid.ObjId{})
	copy(b.items[index+1:], b.items[index:])
	b.items[index] = id
	return nil
}

func (b *Builder) Remove(index int) error {
	if index < 0 || index >= len(b.items) {
		return fmt.Errorf("%w: remove index %d out of range", errors.ErrInvalidData, index)
	}
	b.items = append(b.items[:index], b.items[index+1:]...)
	return nil
}

func (b *Builder) Pop() (objid.ObjId, bool) {
	if len(b.items) == 0 {
		return objid.ObjId{}, false
	}
	last := b.items[len(b.items)-1]
	b.items = b.items[:len(b.items)-1]
	return last, true
}

func (b *Builder) Len() int { return len(b.items) }

// Build fixes the current item list into an ObjectArray: it computes
// the Merkle tree over the items, selects a storage mode via
// coll.SelectMode, persists through backend, and derives the array's
// ObjId from the canonical body.
func (b *Builder) Build(ctx context.Context, backend Backend) (*ObjectArray, error) {
	arr, err := build(b.method, b.items)
	if err != nil {
		return nil, err
	}
	if err := backend.Save(ctx, b.items); err != nil {
		return nil, err
	}
	arr.backend = backend
	return arr, nil
}

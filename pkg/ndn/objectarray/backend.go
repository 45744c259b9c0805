// Package objectarray implements the ordered ObjId-array container:
// a builder over an in-memory slice, a pluggable persistence
// backend chosen by coll.SelectMode, and a Merkle proof over the
// array's items so a reader can verify one element without fetching
// the whole array.
package objectarray

import (
	"context"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Backend persists the flat item list for one ObjectArray. Memory,
// JSONFile, and SQL implementations all satisfy it; ObjectArray itself
// only ever calls Load/Save, so the storage mode is invisible above
// this seam.
type Backend interface {
	Load(ctx context.Context) ([]objid.ObjId, error)
	Save(ctx context.Context, items []objid.ObjId) error
}

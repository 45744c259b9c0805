// Package pathobjectmap implements a simpler sibling of the Trie
// Object Map: a fast trie-backed {ObjId, optional meta} lookup by
// path, for callers that don't need inclusion/non-inclusion proof
// machinery exposed at their layer.
//
// It builds directly on trieobjectmap.Trie, trimming the surface to
// Put/Get/Remove/RootHash.
package pathobjectmap

import (
	"context"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/buckyos/ndnd/pkg/ndn/trieobjectmap"
)

// PathObjectMap is a thin facade over a Trie Object Map for callers
// that only need fast path -> ObjId lookups.
type PathObjectMap struct {
	trie *trieobjectmap.Trie
}

// New creates an empty path object map backed by store.
func New(method objid.HashMethod, store trieobjectmap.NodeStore) *PathObjectMap {
	return &PathObjectMap{trie: trieobjectmap.New(method, store)}
}

// Open reopens a path object map at a known root and count.
func Open(method objid.HashMethod, store trieobjectmap.NodeStore, root []byte, count uint64) *PathObjectMap {
	return &PathObjectMap{trie: trieobjectmap.Open(method, store, root, count)}
}

// Put inserts or overwrites path -> (id, meta).
func (m *PathObjectMap) Put(ctx context.Context, path string, id objid.ObjId, meta []byte) error {
	return m.trie.Put(ctx, []byte(path), id, meta)
}

// Get looks up path.
func (m *PathObjectMap) Get(ctx context.Context, path string) (objid.ObjId, []byte, bool, error) {
	return m.trie.Get(ctx, []byte(path))
}

// Remove deletes path, returning its prior (id, meta).
func (m *PathObjectMap) Remove(ctx context.Context, path string) (objid.ObjId, []byte, bool, error) {
	return m.trie.Remove(ctx, []byte(path))
}

// RootHash returns the underlying trie's current root hash.
func (m *PathObjectMap) RootHash() []byte { return m.trie.RootHash() }

// Count returns the number of paths currently stored.
func (m *PathObjectMap) Count() uint64 { return m.trie.Count() }

// Body returns the persisted-shape body (same wire shape as a Trie
// Object Map) and the path object map's own ObjId, tagged
// objid.ObjTypePathObjectMap.
func (m *PathObjectMap) Body() (trieobjectmap.Body, objid.ObjId, error) {
	body, _, err := m.trie.Body()
	if err != nil {
		return trieobjectmap.Body{}, objid.ObjId{}, err
	}
	method := objid.HashMethod(body.HashMethod)
	id, _, err := objid.CanonicalizeAndID(objid.ObjTypePathObjectMap, method, body)
	if err != nil {
		return trieobjectmap.Body{}, objid.ObjId{}, err
	}
	return body, id, nil
}

// Package objectmap implements the Object Map container: a sorted
// key -> ObjId map with a Merkle root over its items, pluggable
// storage backends, and per-key inclusion proofs. Flush recomputes
// the Merkle tree over items sorted by key and records each item's
// position as mtree_index.
package objectmap

import (
	"context"
	"fmt"
	"sort"

	"github.com/buckyos/ndnd/pkg/ndn/coll"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/mtree"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Item is the logical (key, value) pair stored in an Object Map. Its
// canonical JSON form ({"key":...,"value":...}) is what gets hashed
// into a Merkle leaf.
type Item struct {
	Key   string      `json:"key"`
	Value objid.ObjId `json:"value"`
}

type itemJSON struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func (it Item) marshalJSON() itemJSON {
	return itemJSON{Key: it.Key, Value: it.Value.String()}
}

// Storage is the narrow capability set an Object Map backend exposes:
// get/put/remove/iterate over raw rows, independent of Merkle-tree
// bookkeeping (that lives in ObjectMap itself, above this seam).
// Memory, JSONFile, and SQL implementations all satisfy it.
type Storage interface {
	Put(ctx context.Context, key string, value objid.ObjId) error
	Get(ctx context.Context, key string) (objid.ObjId, bool, error)
	Remove(ctx context.Context, key string) (objid.ObjId, bool, error)
	IsExist(ctx context.Context, key string) (bool, error)
	List(ctx context.Context) ([]Item, error) // sorted ascending by key
	Save(ctx context.Context, items []Item) error
	Clone(ctx context.Context) (Storage, error)
}

// Body is the small JSON header persisted under the Object Map's
// ObjId: {"hash_method":"sha256","root_hash":"b32","total_count":N}.
type Body struct {
	HashMethod string `json:"hash_method"`
	RootHash   string `json:"root_hash"`
	TotalCount uint64 `json:"total_count"`
}

// ObjectMap is the built, addressable form. Mutations go through
// Put/Remove directly against storage; Flush recomputes the Merkle
// tree and ObjId from the current sorted item set.
type ObjectMap struct {
	method   objid.HashMethod
	mode     coll.StorageMode
	storage  Storage
	readOnly bool

	objID objid.ObjId
	body  Body
	tree  *mtree.Tree
	items []Item // sorted by key, mirrors storage after Flush
}

// New creates an empty, writable Object Map over storage.
func New(method objid.HashMethod, storage Storage) *ObjectMap {
	return &ObjectMap{method: method, storage: storage}
}

// Open reconstructs an ObjectMap's in-memory view from storage and
// its persisted body, without recomputing the tree (callers that only
// need get/put do not pay the flush cost until they mutate and flush
// again).
func Open(ctx context.Context, method objid.HashMethod, storage Storage, body Body, readOnly bool) (*ObjectMap, error) {
	items, err := storage.List(ctx)
	if err != nil {
		return nil, err
	}
	m := &ObjectMap{method: method, storage: storage, body: body, items: items, readOnly: readOnly}
	objID, _, err := objid.CanonicalizeAndID(objid.ObjTypeObjectMap, method, body)
	if err != nil {
		return nil, err
	}
	m.objID = objID
	return m, nil
}

// ObjID returns the map's content id (valid after at least one Flush).
func (m *ObjectMap) ObjID() objid.ObjId { return m.objID }

// Body returns the current persisted-shape body.
func (m *ObjectMap) Body() Body { return m.body }

func itemLeaf(method objid.HashMethod, it Item) ([]byte, error) {
	canon, err := objid.Canonicalize(it.marshalJSON())
	if err != nil {
		return nil, err
	}
	return objid.CalcHash(method, []byte(canon))
}

// Put inserts or overwrites key -> value. Does not recompute the
// Merkle root; call Flush to persist a new root.
func (m *ObjectMap) Put(ctx context.Context, key string, value objid.ObjId) error {
	if m.readOnly {
		return fmt.Errorf("%w: object map is read-only", errors.ErrReadOnly)
	}
	return m.storage.Put(ctx, key, value)
}

// Get returns the value for key, or (zero, false) if absent.
func (m *ObjectMap) Get(ctx context.Context, key string) (objid.ObjId, bool, error) {
	return m.storage.Get(ctx, key)
}

// Remove deletes key, returning its prior value.
func (m *ObjectMap) Remove(ctx context.Context, key string) (objid.ObjId, bool, error) {
	if m.readOnly {
		return objid.ObjId{}, false, fmt.Errorf("%w: object map is read-only", errors.ErrReadOnly)
	}
	return m.storage.Remove(ctx, key)
}

// IsExist reports whether key is present.
func (m *ObjectMap) IsExist(ctx context.Context, key string) (bool, error) {
	return m.storage.IsExist(ctx, key)
}

// Iter returns all items in ascending key order.
func (m *ObjectMap) Iter(ctx context.Context) ([]Item, error) {
	return m.storage.List(ctx)
}

// Flush recomputes the Merkle tree over the storage's current items
// (sorted by key), updates the body's root_hash/total_count, persists
// the sorted item list back to storage, and refreshes ObjId. After
// Flush, the tree's root equals body.RootHash and every stored key
// has a valid position in that tree.
func (m *ObjectMap) Flush(ctx context.Context) error {
	if m.readOnly {
		return fmt.Errorf("%w: object map is read-only", errors.ErrReadOnly)
	}
	items, err := m.storage.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })

	n := uint64(len(items))
	mode := coll.SelectMode(&n)

	if len(items) == 0 {
		m.items = nil
		m.tree = nil
		m.body = Body{HashMethod: string(m.method), TotalCount: 0}
		m.mode = mode
		objID, _, err := objid.CanonicalizeAndID(objid.ObjTypeObjectMap, m.method, m.body)
		if err != nil {
			return err
		}
		m.objID = objID
		return m.storage.Save(ctx, items)
	}

	leaves := make([][]byte, len(items))
	for i, it := range items {
		h, err := itemLeaf(m.method, it)
		if err != nil {
			return err
		}
		leaves[i] = h
	}
	tree, err := mtree.Build(m.method, leaves)
	if err != nil {
		return err
	}

	m.items = items
	m.tree = tree
	m.mode = mode
	m.body = Body{
		HashMethod: string(m.method),
		RootHash:   objid.EncodeBase32(tree.RootHash()),
		TotalCount: n,
	}

	objID, _, err := objid.CanonicalizeAndID(objid.ObjTypeObjectMap, m.method, m.body)
	if err != nil {
		return err
	}
	m.objID = objID

	return m.storage.Save(ctx, items)
}

// RebuildTree reconstructs the Merkle tree from the current stored
// items without persisting anything, so an Open'd (possibly read-only)
// map can serve proofs. Fails with ErrVerifyFailed when the map has
// been flushed before and the rebuilt root does not match the body's
// recorded root_hash.
func (m *ObjectMap) RebuildTree(ctx context.Context) error {
	items, err := m.storage.List(ctx)
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	if len(items) == 0 {
		m.items = nil
		m.tree = nil
		return nil
	}

	leaves := make([][]byte, len(items))
	for i, it := range items {
		h, err := itemLeaf(m.method, it)
		if err != nil {
			return err
		}
		leaves[i] = h
	}
	tree, err := mtree.Build(m.method, leaves)
	if err != nil {
		return err
	}
	if m.body.RootHash != "" && m.body.RootHash != objid.EncodeBase32(tree.RootHash()) {
		return fmt.Errorf("%w: stored items do not match recorded root_hash", errors.ErrVerifyFailed)
	}
	m.items = items
	m.tree = tree
	return nil
}

// ItemProof is an inclusion proof for one Object Map item: the item
// itself plus the standard Merkle path from its leaf to the root.
type ItemProof struct {
	Item  Item
	Proof []mtree.ProofEntry
}

// GetProofPath returns the inclusion proof for key, or (nil, false)
// if key is absent. Requires a prior Flush or RebuildTree (the tree
// is not rebuilt on demand).
func (m *ObjectMap) GetProofPath(key string) (*ItemProof, bool, error) {
	idx := sort.Search(len(m.items), func(i int) bool { return m.items[i].Key >= key })
	if idx >= len(m.items) || m.items[idx].Key != key {
		return nil, false, nil
	}
	if m.tree == nil {
		return nil, false, fmt.Errorf("%w: object map has not been flushed", errors.ErrInvalidData)
	}
	proof, err := m.tree.GetProofPath(uint64(idx))
	if err != nil {
		return nil, false, err
	}
	return &ItemProof{Item: m.items[idx], Proof: proof}, true, nil
}

// VerifyProof checks an ItemProof against a known root hash, without
// requiring the full map in hand.
func VerifyProof(method objid.HashMethod, proof *ItemProof, rootHash []byte) bool {
	leaf, err := itemLeaf(method, proof.Item)
	if err != nil {
		return false
	}
	return mtree.VerifyProofPath(method, leaf, proof.Proof, rootHash)
}

// Clone duplicates the underlying storage (copy-on-clone), returning
// a new ObjectMap sharing no storage state with m. readOnly marks the
// clone as a derived, non-mutable view.
func (m *ObjectMap) Clone(ctx context.Context, readOnly bool) (*ObjectMap, error) {
	dup, err := m.storage.Clone(ctx)
	if err != nil {
		return nil, err
	}
	clone := &ObjectMap{
		method:   m.method,
		mode:     m.mode,
		storage:  dup,
		readOnly: readOnly,
		objID:    m.objID,
		body:     m.body,
		tree:     m.tree,
		items:    append([]Item(nil), m.items...),
	}
	return clone, nil
}

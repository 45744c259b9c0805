package objectarray

import (
	"context"
	"fmt"

	"github.com/buckyos/ndnd/pkg/ndn/coll"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/mtree"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// ObjectArray is the built, addressable form: a fixed item list with
// a Merkle tree over it and a content id derived from its canonical
// body.
type ObjectArray struct {
	ObjID  objid.ObjId
	Method objid.HashMethod
	Mode   coll.StorageMode
	Items  []objid.ObjId
	Tree   *mtree.Tree

	backend Backend
}

type arrayBody struct {
	Items       []string `json:"items"`
	HashMethod  string   `json:"hash_method"`
	StorageMode string   `json:"storage_mode"`
}

func leafFor(method objid.HashMethod, id objid.ObjId) ([]byte, error) {
	return objid.CalcHash(method, []byte(id.String()))
}

func build(method objid.HashMethod, items []objid.ObjId) (*ObjectArray, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: object array must have at least one item", errors.ErrInvalidData)
	}

	leaves := make([][]byte, len(items))
	strs := make([]string, len(items))
	for i, id := range items {
		h, err := leafFor(method, id)
		if err != nil {
			return nil, err
		}
		leaves[i] = h
		strs[i] = id.String()
	}

	tree, err := mtree.Build(method, leaves)
	if err != nil {
		return nil, err
	}

	n := uint64(len(items))
	mode := coll.SelectMode(&n)

	body := arrayBody{Items: strs, HashMethod: string(method), StorageMode: mode.String()}
	objID, _, err := objid.CanonicalizeAndID(objid.ObjTypeObjectArray, method, body)
	if err != nil {
		return nil, err
	}

	return &ObjectArray{
		ObjID:  objID,
		Method: method,
		Mode:   mode,
		Items:  append([]objid.ObjId(nil), items...),
		Tree:   tree,
	}, nil
}

// Load reconstructs an ObjectArray by loading its item list from
// backend and rebuilding the Merkle tree over it (the tree is never
// itself persisted; it is cheap to recompute from the items).
func Load(ctx context.Context, method objid.HashMethod, backend Backend) (*ObjectArray, error) {
	items, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}
	arr, err := build(method, items)
	if err != nil {
		return nil, err
	}
	arr.backend = backend
	return arr, nil
}

// Get returns the item at index.
func (a *ObjectArray) Get(index int) (objid.ObjId, error) {
	if index < 0 || index >= len(a.Items) {
		return objid.ObjId{}, fmt.Errorf("%w: index %d out of range", errors.ErrInvalidData, index)
	}
	return a.Items[index], nil
}

// Len returns the number of items.
func (a *ObjectArray) Len() int { return len(a.Items) }

// GetWithProof returns the item at index together with its Merkle
// proof against a.Tree.RootHash().
func (a *ObjectArray) GetWithProof(index int) (objid.ObjId, []mtree.ProofEntry, error) {
	id, err := a.Get(index)
	if err != nil {
		return objid.ObjId{}, nil, err
	}
	proof, err := a.Tree.GetProofPath(uint64(index))
	if err != nil {
		return objid.ObjId{}, nil, err
	}
	return id, proof, nil
}

// VerifyProof checks a (item, proof) pair against a known root hash,
// without needing the full array in hand.
func VerifyProof(method objid.HashMethod, item objid.ObjId, proof []mtree.ProofEntry, rootHash []byte) bool {
	leaf, err := leafFor(method, item)
	if err != nil {
		return false
	}
	return mtree.VerifyProofPath(method, leaf, proof, rootHash)
}

// ToBuilder reopens the array for editing.
func (a *ObjectArray) ToBuilder() *Builder {
	return OpenBuilder(a.Method, a.Items)
}

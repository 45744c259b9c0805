package trieobjectmap

import (
	"bytes"
	"context"
	"fmt"

	"github.com/buckyos/ndnd/pkg/ndn/coll"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Body is the small JSON header persisted under the Trie Object Map's
// ObjId. Shape identical to objectmap.Body.
type Body struct {
	HashMethod string `json:"hash_method"`
	RootHash   string `json:"root_hash"`
	TotalCount uint64 `json:"total_count"`
}

// Trie is a Merkle-Patricia trie mapping byte-string paths to
// (ObjId, optional meta) pairs. The structure is purely
// content-determined (no per-operation history), so the root hash is
// insensitive to insertion order.
type Trie struct {
	method objid.HashMethod
	store  NodeStore
	root   []byte // nil for an empty trie
	count  uint64
}

// New creates an empty trie backed by store.
func New(method objid.HashMethod, store NodeStore) *Trie {
	return &Trie{method: method, store: store}
}

// Open reopens a trie at a known root hash and item count (both
// normally recovered from a persisted Body).
func Open(method objid.HashMethod, store NodeStore, root []byte, count uint64) *Trie {
	return &Trie{method: method, store: store, root: root, count: count}
}

// RootHash returns the current root hash, or nil for an empty trie.
func (t *Trie) RootHash() []byte { return t.root }

// Count returns the number of keys currently stored.
func (t *Trie) Count() uint64 { return t.count }

// Body returns the current persisted-shape body and the Trie Object
// Map's ObjId derived from it.
func (t *Trie) Body() (Body, objid.ObjId, error) {
	b := Body{HashMethod: string(t.method), TotalCount: t.count}
	if t.root != nil {
		b.RootHash = objid.EncodeBase32(t.root)
	}
	n := t.count
	_ = coll.SelectMode(&n) // storage-mode selection recorded by the caller alongside Body, as in objectmap
	id, _, err := objid.CanonicalizeAndID(objid.ObjTypeTrieObjectMap, t.method, b)
	return b, id, err
}

func (t *Trie) load(ctx context.Context, hash []byte) (node, error) {
	raw, ok, err := t.store.Get(ctx, hash)
	if err != nil {
		return node{}, err
	}
	if !ok {
		return node{}, fmt.Errorf("%w: trie node %x missing from store", errors.ErrInvalidData, hash)
	}
	return decodeNode(raw)
}

func (t *Trie) persist(ctx context.Context, n node) ([]byte, error) {
	h, err := hashNode(t.method, n)
	if err != nil {
		return nil, err
	}
	enc, err := n.encode()
	if err != nil {
		return nil, err
	}
	if err := t.store.Put(ctx, h, enc); err != nil {
		return nil, err
	}
	return h, nil
}

// Put inserts or overwrites path -> (id, meta).
func (t *Trie) Put(ctx context.Context, path []byte, id objid.ObjId, meta []byte) error {
	value, err := encodeLeafValue(id, meta)
	if err != nil {
		return err
	}
	existed, err := t.has(ctx, path)
	if err != nil {
		return err
	}
	newRoot, err := t.insert(ctx, t.root, toNibbles(path), value)
	if err != nil {
		return err
	}
	t.root = newRoot
	if !existed {
		t.count++
	}
	return nil
}

func (t *Trie) has(ctx context.Context, path []byte) (bool, error) {
	_, _, ok, err := t.Get(ctx, path)
	return ok, err
}

func (t *Trie) insert(ctx context.Context, cur []byte, nibbles []byte, value []byte) ([]byte, error) {
	if cur == nil {
		return t.persist(ctx, node{Kind: kindLeaf, KeyPart: nibbles, Value: value})
	}
	n, err := t.load(ctx, cur)
	if err != nil {
		return nil, err
	}
	switch n.Kind {
	case kindLeaf:
		cp := commonPrefixLen(n.KeyPart, nibbles)
		if cp == len(n.KeyPart) && cp == len(nibbles) {
			return t.persist(ctx, node{Kind: kindLeaf, KeyPart: n.KeyPart, Value: value})
		}
		var branch node
		branch.Kind = kindBranch
		if cp == len(n.KeyPart) {
			branch.Value = n.Value
		} else {
			idx := n.KeyPart[cp]
			childHash, err := t.persist(ctx, node{Kind: kindLeaf, KeyPart: n.KeyPart[cp+1:], Value: n.Value})
			if err != nil {
				return nil, err
			}
			branch.Children[idx] = childHash
		}
		if cp == len(nibbles) {
			branch.Value = value
		} else {
			idx := nibbles[cp]
			childHash, err := t.persist(ctx, node{Kind: kindLeaf, KeyPart: nibbles[cp+1:], Value: value})
			if err != nil {
				return nil, err
			}
			branch.Children[idx] = childHash
		}
		branchHash, err := t.persist(ctx, branch)
		if err != nil {
			return nil, err
		}
		if cp > 0 {
			return t.persist(ctx, node{Kind: kindExtension, KeyPart: append([]byte(nil), n.KeyPart[:cp]...), Child: branchHash})
		}
		return branchHash, nil

	case kindExtension:
		cp := commonPrefixLen(n.KeyPart, nibbles)
		if cp == len(n.KeyPart) {
			newChild, err := t.insert(ctx, n.Child, nibbles[cp:], value)
			if err != nil {
				return nil, err
			}
			return t.persist(ctx, node{Kind: kindExtension, KeyPart: n.KeyPart, Child: newChild})
		}
		var branch node
		branch.Kind = kindBranch
		idx1 := n.KeyPart[cp]
		rem := n.KeyPart[cp+1:]
		var childHash1 []byte
		if len(rem) == 0 {
			childHash1 = n.Child
		} else {
			var err error
			childHash1, err = t.persist(ctx, node{Kind: kindExtension, KeyPart: append([]byte(nil), rem...), Child: n.Child})
			if err != nil {
				return nil, err
			}
		}
		branch.Children[idx1] = childHash1
		if cp == len(nibbles) {
			branch.Value = value
		} else {
			idx2 := nibbles[cp]
			leafHash, err := t.persist(ctx, node{Kind: kindLeaf, KeyPart: nibbles[cp+1:], Value: value})
			if err != nil {
				return nil, err
			}
			branch.Children[idx2] = leafHash
		}
		branchHash, err := t.persist(ctx, branch)
		if err != nil {
			return nil, err
		}
		if cp > 0 {
			return t.persist(ctx, node{Kind: kindExtension, KeyPart: append([]byte(nil), n.KeyPart[:cp]...), Child: branchHash})
		}
		return branchHash, nil

	case kindBranch:
		if len(nibbles) == 0 {
			n.Value = value
			return t.persist(ctx, n)
		}
		idx := nibbles[0]
		newChild, err := t.insert(ctx, n.Children[idx], nibbles[1:], value)
		if err != nil {
			return nil, err
		}
		n.Children[idx] = newChild
		return t.persist(ctx, n)

	default:
		return nil, fmt.Errorf("%w: unknown trie node kind %d", errors.ErrInvalidData, n.Kind)
	}
}

// Get looks up path, returning (ObjId, meta, found).
func (t *Trie) Get(ctx context.Context, path []byte) (objid.ObjId, []byte, bool, error) {
	cur := t.root
	remaining := toNibbles(path)
	for {
		if cur == nil {
			return objid.ObjId{}, nil, false, nil
		}
		n, err := t.load(ctx, cur)
		if err != nil {
			return objid.ObjId{}, nil, false, err
		}
		switch n.Kind {
		case kindLeaf:
			if bytes.Equal(n.KeyPart, remaining) {
				id, meta, err := decodeLeafValue(n.Value)
				return id, meta, err == nil, err
			}
			return objid.ObjId{}, nil, false, nil
		case kindExtension:
			if len(remaining) < len(n.KeyPart) || !bytes.Equal(remaining[:len(n.KeyPart)], n.KeyPart) {
				return objid.ObjId{}, nil, false, nil
			}
			remaining = remaining[len(n.KeyPart):]
			cur = n.Child
		case kindBranch:
			if len(remaining) == 0 {
				if n.Value == nil {
					return objid.ObjId{}, nil, false, nil
				}
				id, meta, err := decodeLeafValue(n.Value)
				return id, meta, err == nil, err
			}
			cur = n.Children[remaining[0]]
			remaining = remaining[1:]
		default:
			return objid.ObjId{}, nil, false, fmt.Errorf("%w: unknown trie node kind %d", errors.ErrInvalidData, n.Kind)
		}
	}
}

// Remove deletes path, returning its prior (ObjId, meta, found). The
// trie re-collapses merged extensions/branches so the resulting
// structure is identical to one that never held path, preserving
// order-insensitivity of the root hash.
func (t *Trie) Remove(ctx context.Context, path []byte) (objid.ObjId, []byte, bool, error) {
	id, meta, found, err := t.Get(ctx, path)
	if err != nil || !found {
		return id, meta, found, err
	}
	newRoot, _, err := t.remove(ctx, t.root, toNibbles(path))
	if err != nil {
		return objid.ObjId{}, nil, false, err
	}
	t.root = newRoot
	t.count--
	return id, meta, true, nil
}

func (t *Trie) remove(ctx context.Context, cur []byte, nibbles []byte) ([]byte, bool, error) {
	if cur == nil {
		return nil, false, nil
	}
	n, err := t.load(ctx, cur)
	if err != nil {
		return nil, false, err
	}
	switch n.Kind {
	case kindLeaf:
		if bytes.Equal(n.KeyPart, nibbles) {
			return nil, true, nil
		}
		return cur, false, nil

	case kindExtension:
		if len(nibbles) < len(n.KeyPart) || !bytes.Equal(nibbles[:len(n.KeyPart)], n.KeyPart) {
			return cur, false, nil
		}
		newChild, removed, err := t.remove(ctx, n.Child, nibbles[len(n.KeyPart):])
		if err != nil || !removed {
			return cur, removed, err
		}
		if newChild == nil {
			return nil, true, nil
		}
		child, err := t.load(ctx, newChild)
		if err != nil {
			return nil, false, err
		}
		merged, err := t.mergeIntoPrefix(ctx, n.KeyPart, child, newChild)
		if err != nil {
			return nil, false, err
		}
		return merged, true, nil

	case kindBranch:
		if len(nibbles) == 0 {
			if n.Value == nil {
				return cur, false, nil
			}
			n.Value = nil
		} else {
			idx := nibbles[0]
			newChild, removed, err := t.remove(ctx, n.Children[idx], nibbles[1:])
			if err != nil || !removed {
				return cur, removed, err
			}
			n.Children[idx] = newChild
		}
		return t.collapseBranch(ctx, n)

	default:
		return nil, false, fmt.Errorf("%w: unknown trie node kind %d", errors.ErrInvalidData, n.Kind)
	}
}

// mergeIntoPrefix merges an extension's shared prefix with its (new)
// child, collapsing into a single leaf/extension when possible so the
// shape stays canonical.
func (t *Trie) mergeIntoPrefix(ctx context.Context, prefix []byte, child node, childHash []byte) ([]byte, error) {
	switch child.Kind {
	case kindLeaf:
		return t.persist(ctx, node{Kind: kindLeaf, KeyPart: append(append([]byte(nil), prefix...), child.KeyPart...), Value: child.Value})
	case kindExtension:
		return t.persist(ctx, node{Kind: kindExtension, KeyPart: append(append([]byte(nil), prefix...), child.KeyPart...), Child: child.Child})
	default: // branch: keep the extension, now pointing at the collapsed branch
		return t.persist(ctx, node{Kind: kindExtension, KeyPart: prefix, Child: childHash})
	}
}

// collapseBranch re-canonicalizes a branch after a child/value was
// removed: a branch with no children and a value becomes a
// zero-length-prefix leaf; a branch with exactly one child and no
// value is merged with that child (prefixed by the child's nibble);
// a fully-empty branch disappears.
func (t *Trie) collapseBranch(ctx context.Context, n node) ([]byte, bool, error) {
	count := 0
	lastIdx := -1
	for i, c := range n.Children {
		if c != nil {
			count++
			lastIdx = i
		}
	}
	switch {
	case count == 0 && n.Value == nil:
		return nil, true, nil
	case count == 0 && n.Value != nil:
		h, err := t.persist(ctx, node{Kind: kindLeaf, KeyPart: nil, Value: n.Value})
		return h, true, err
	case count == 1 && n.Value == nil:
		childHash := n.Children[lastIdx]
		child, err := t.load(ctx, childHash)
		if err != nil {
			return nil, false, err
		}
		merged, err := t.mergeIntoPrefix(ctx, []byte{byte(lastIdx)}, child, childHash)
		return merged, true, err
	default:
		h, err := t.persist(ctx, n)
		return h, true, err
	}
}


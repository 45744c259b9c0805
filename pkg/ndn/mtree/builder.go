package mtree

import (
	"fmt"
	"io"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Tree is a fully-materialized Merkle tree: one []byte slice of node
// hashes per depth, leaves first.
type Tree struct {
	Method  objid.HashMethod
	Locator *HashNodeLocator
	Levels  [][][]byte // Levels[depth][index]
}

// Build constructs a Tree from leaf hashes (already-hashed leaf
// digests, not raw leaf data).
func Build(method objid.HashMethod, leaves [][]byte) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, fmt.Errorf("%w: no leaves", errors.ErrInvalidData)
	}
	loc, err := NewHashNodeLocator(uint64(len(leaves)))
	if err != nil {
		return nil, err
	}

	levels := make([][][]byte, loc.TotalDepth()+1)
	levels[0] = leaves

	cur := leaves
	for d := uint32(1); d <= loc.TotalDepth(); d++ {
		next := make([][]byte, 0, (len(cur)+1)/2)
		for i := 0; i < len(cur); i += 2 {
			left := cur[i]
			var right []byte
			if i+1 < len(cur) {
				right = cur[i+1]
			} else {
				right = cur[i] // odd-count padding: duplicate last hash
			}
			h, err := hashPair(method, left, right)
			if err != nil {
				return nil, err
			}
			next = append(next, h)
		}
		levels[d] = next
		cur = next
	}

	return &Tree{Method: method, Locator: loc, Levels: levels}, nil
}

// RootHash returns the single hash at the top level.
func (t *Tree) RootHash() []byte {
	top := t.Levels[len(t.Levels)-1]
	return top[0]
}

// GetProofPath returns the proof for leafIndex as a slice of
// (absoluteStreamIndex, hash) pairs: index 0 is the leaf, the last
// entry is the root.
func (t *Tree) GetProofPath(leafIndex uint64) ([]ProofEntry, error) {
	nodes, err := t.Locator.ProofPath(leafIndex)
	if err != nil {
		return nil, err
	}
	proof := make([]ProofEntry, 0, len(nodes))
	for _, n := range nodes {
		streamIdx, err := t.Locator.IndexInStream(n.Depth, n.Index)
		if err != nil {
			return nil, err
		}
		proof = append(proof, ProofEntry{StreamIndex: streamIdx, LevelIndex: n.Index, Hash: t.Levels[n.Depth][n.Index]})
	}
	return proof, nil
}

// ProofEntry is one element of a Merkle proof path: its absolute
// position in the flattened leaves-to-root stream, its index within
// its own level (used to determine left/right ordering when
// recombining with the running hash), and the node's digest.
type ProofEntry struct {
	StreamIndex uint64
	LevelIndex  uint64
	Hash        []byte
}

// hashPair computes H(left||right) under method.
func hashPair(method objid.HashMethod, left, right []byte) ([]byte, error) {
	buf := make([]byte, 0, len(left)+len(right))
	buf = append(buf, left...)
	buf = append(buf, right...)
	return objid.CalcHash(method, buf)
}

// WriteLayout serializes the tree as: u32 meta_len || meta || level0
// leaves (concatenated fixed-size digests) || level1 || ... || root.
func (t *Tree) WriteLayout(w io.Writer, dataSize uint64, leafSize uint32) error {
	meta := MetaData{DataSize: dataSize, LeafSize: leafSize, HashMethod: t.Method}
	if err := WriteMeta(w, meta); err != nil {
		return err
	}
	for _, level := range t.Levels {
		for _, h := range level {
			if _, err := w.Write(h); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadLayout parses a serialized layout back into a Tree, given the
// leaf count it was built for (needed to reconstruct per-level
// counts; the file itself carries no count).
func ReadLayout(r io.Reader, leafCount uint64) (*Tree, MetaData, error) {
	meta, err := ReadMeta(r)
	if err != nil {
		return nil, MetaData{}, err
	}
	size, err := meta.HashMethod.Size()
	if err != nil {
		return nil, MetaData{}, err
	}
	loc, err := NewHashNodeLocator(leafCount)
	if err != nil {
		return nil, MetaData{}, err
	}
	levels := make([][][]byte, loc.TotalDepth()+1)
	for d := uint32(0); d <= loc.TotalDepth(); d++ {
		count := loc.CountAtDepth(d)
		level := make([][]byte, count)
		for i := range level {
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, MetaData{}, err
			}
			level[i] = buf
		}
		levels[d] = level
	}
	return &Tree{Method: meta.HashMethod, Locator: loc, Levels: levels}, meta, nil
}

// EstimateOutputBytes returns the expected serialized size in bytes
// for a tree with the given leaf count and hash size, not counting the
// meta header.
func EstimateOutputBytes(leafCount uint64, hashSize int) (uint64, error) {
	loc, err := NewHashNodeLocator(leafCount)
	if err != nil {
		return 0, err
	}
	return loc.TotalNodeCount() * uint64(hashSize), nil
}

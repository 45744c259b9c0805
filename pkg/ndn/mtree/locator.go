// Package mtree implements a generic, digest-pluggable binary Merkle
// tree: node-count/index bookkeeping (HashNodeLocator), a streamable
// on-disk layout, a builder that streams leaves into a root, and a
// proof-path verifier.
//
// Depth is ceil(log2(leafCount)); each non-root level of odd count is
// padded by duplicating its last hash; prevCountPerDepth gives the
// absolute index of a node within the flattened leaves-to-root
// stream; the proof path for a leaf is [leaf, sibling@level0,
// sibling@level1, ..., root].
package mtree

import (
	"fmt"
	"math/bits"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// HashNode identifies one node in the tree by its depth (0 = leaves)
// and its index within that level.
type HashNode struct {
	Depth uint32
	Index uint64
}

// HashNodeLocator computes the shape of a Merkle tree with a known
// leaf count: per-level node counts (with odd-level padding) and the
// prefix sums needed to place any node at an absolute stream index.
type HashNodeLocator struct {
	leafCount        uint64
	totalDepth       uint32
	countPerDepth    []uint64
	prevCountPerDepth []uint64
}

// NewHashNodeLocator builds a locator for a tree with leafCount > 0
// leaves.
func NewHashNodeLocator(leafCount uint64) (*HashNodeLocator, error) {
	if leafCount == 0 {
		return nil, fmt.Errorf("%w: leaf count must be positive", errors.ErrInvalidData)
	}
	depth := calcDepth(leafCount)
	countPerDepth, err := calcCountPerDepth(leafCount, depth)
	if err != nil {
		return nil, err
	}
	prev := calcPrevCountPerDepth(countPerDepth)
	return &HashNodeLocator{
		leafCount:         leafCount,
		totalDepth:        depth,
		countPerDepth:     countPerDepth,
		prevCountPerDepth: prev,
	}, nil
}

// LeafCount returns the number of leaves.
func (l *HashNodeLocator) LeafCount() uint64 { return l.leafCount }

// TotalDepth returns the tree depth (0 for a single-leaf tree).
func (l *HashNodeLocator) TotalDepth() uint32 { return l.totalDepth }

// CountAtDepth returns the (padded) node count at the given depth.
func (l *HashNodeLocator) CountAtDepth(depth uint32) uint64 {
	if int(depth) >= len(l.countPerDepth) {
		return 0
	}
	return l.countPerDepth[depth]
}

// calcDepth returns ceil(log2(leafCount)), 0 for leafCount == 1.
func calcDepth(leafCount uint64) uint32 {
	if leafCount <= 1 {
		return 0
	}
	// bits.Len64(n-1) == ceil(log2(n)) for n > 1.
	return uint32(bits.Len64(leafCount - 1))
}

// calcCountPerDepth computes, for each depth from 0 (leaves) to
// totalDepth (root), the number of nodes after odd-count padding.
// Padding duplicates the last hash at a level so it can be paired with
// itself; the root level always has exactly one node.
func calcCountPerDepth(leafCount uint64, depth uint32) ([]uint64, error) {
	counts := make([]uint64, depth+1)
	counts[0] = leafCount
	cur := leafCount
	for d := uint32(1); d <= depth; d++ {
		if cur%2 != 0 && cur != 1 {
			cur++ // pad: duplicate last hash of the level below
		}
		cur = cur / 2
		if cur == 0 {
			cur = 1
		}
		counts[d] = cur
	}
	if counts[depth] != 1 {
		return nil, fmt.Errorf("%w: merkle tree root count must be 1, got %d", errors.ErrInvalidData, counts[depth])
	}
	return counts, nil
}

// calcPrevCountPerDepth returns, for each depth, the sum of node
// counts at all shallower depths — i.e. the absolute stream index of
// that depth's first node.
func calcPrevCountPerDepth(countPerDepth []uint64) []uint64 {
	prev := make([]uint64, len(countPerDepth))
	var sum uint64
	for d, c := range countPerDepth {
		prev[d] = sum
		sum += c
	}
	return prev
}

// TotalNodeCount returns the total number of nodes (leaves through
// root) in the flattened stream.
func (l *HashNodeLocator) TotalNodeCount() uint64 {
	var sum uint64
	for _, c := range l.countPerDepth {
		sum += c
	}
	return sum
}

// IndexInStream returns the absolute index of node (depth, index)
// within the flattened leaves-to-root stream.
func (l *HashNodeLocator) IndexInStream(depth uint32, index uint64) (uint64, error) {
	if int(depth) >= len(l.prevCountPerDepth) {
		return 0, fmt.Errorf("%w: depth %d out of range", errors.ErrInvalidData, depth)
	}
	if index >= l.countPerDepth[depth] {
		return 0, fmt.Errorf("%w: index %d out of range at depth %d", errors.ErrInvalidData, index, depth)
	}
	return l.prevCountPerDepth[depth] + index, nil
}

// ProofPath returns, for a given leaf index, the sequence of
// (depth, nodeIndex) nodes describing the proof path:
// the leaf itself, then each level's sibling, then the root.
func (l *HashNodeLocator) ProofPath(leafIndex uint64) ([]HashNode, error) {
	if leafIndex >= l.leafCount {
		return nil, fmt.Errorf("%w: leaf index %d out of range", errors.ErrInvalidData, leafIndex)
	}
	path := make([]HashNode, 0, l.totalDepth+2)
	path = append(path, HashNode{Depth: 0, Index: leafIndex})

	index := leafIndex
	for depth := uint32(0); depth < l.totalDepth; depth++ {
		levelCount := l.countPerDepth[depth]
		var sibling uint64
		if index%2 == 0 {
			sibling = index + 1
		} else {
			sibling = index - 1
		}
		if sibling >= levelCount {
			// Odd-count padding: the last node is its own sibling.
			sibling = levelCount - 1
		}
		path = append(path, HashNode{Depth: depth, Index: sibling})
		index = index / 2
	}
	path = append(path, HashNode{Depth: l.totalDepth, Index: 0})
	return path, nil
}

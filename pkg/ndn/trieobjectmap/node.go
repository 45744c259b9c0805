// Package trieobjectmap implements the Trie Object Map container:
// an unsorted-key path-addressable map over a radix/Patricia trie,
// keyed by raw bytes (typically path strings), with a cryptographic
// root and inclusion/non-inclusion proofs. Node encoding reuses the
// same CBOR codec as mtree.
package trieobjectmap

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// nodeKind tags the three Merkle-Patricia node shapes.
type nodeKind uint8

const (
	kindLeaf nodeKind = iota
	kindExtension
	kindBranch
)

// node is the on-disk/on-wire shape of one trie node. Only the fields
// relevant to Kind are populated; CBOR omits zero-valued fields so
// encodings stay compact.
type node struct {
	Kind     nodeKind `cbor:"kind"`
	KeyPart  []byte   `cbor:"key_part,omitempty"`  // nibbles, leaf suffix or extension shared prefix
	Value    []byte   `cbor:"value,omitempty"`     // leaf value, or a branch's value-at-this-path
	Children [16][]byte `cbor:"children,omitempty"` // branch: child node hash per nibble, nil if absent
	Child    []byte   `cbor:"child,omitempty"`      // extension: single child node hash
}

// encode returns the node's CBOR encoding, the bytes that get hashed
// to produce its node id.
func (n node) encode() ([]byte, error) {
	b, err := cbor.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	return b, nil
}

func decodeNode(b []byte) (node, error) {
	var n node
	if err := cbor.Unmarshal(b, &n); err != nil {
		return node{}, fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	return n, nil
}

// hashNode computes the node's content hash under method: H(encode(n)).
func hashNode(method objid.HashMethod, n node) ([]byte, error) {
	enc, err := n.encode()
	if err != nil {
		return nil, err
	}
	return objid.CalcHash(method, enc)
}

// toNibbles expands key bytes into a nibble sequence, high nibble
// first per byte.
func toNibbles(key []byte) []byte {
	nibbles := make([]byte, len(key)*2)
	for i, b := range key {
		nibbles[i*2] = b >> 4
		nibbles[i*2+1] = b & 0x0f
	}
	return nibbles
}

// commonPrefixLen returns the length of the shared prefix of a and b.
func commonPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// leafValue is the encoded (ObjId, optional meta) pair stored at a
// trie leaf or at a branch's value slot.
type leafValue struct {
	ObjID string `cbor:"obj_id"`
	Meta  []byte `cbor:"meta,omitempty"`
}

func encodeLeafValue(id objid.ObjId, meta []byte) ([]byte, error) {
	lv := leafValue{ObjID: id.String(), Meta: meta}
	b, err := cbor.Marshal(lv)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	return b, nil
}

func decodeLeafValue(b []byte) (objid.ObjId, []byte, error) {
	var lv leafValue
	if err := cbor.Unmarshal(b, &lv); err != nil {
		return objid.ObjId{}, nil, fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	id, err := objid.Parse(lv.ObjID)
	if err != nil {
		return objid.ObjId{}, nil, err
	}
	return id, lv.Meta, nil
}

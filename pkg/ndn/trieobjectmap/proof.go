package trieobjectmap

import (
	"bytes"
	"context"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// ProofEntry is one visited node along a trie proof path: its content
// hash and its CBOR encoding (so a verifier can recompute the hash and
// interpret the node without access to the node store).
type ProofEntry struct {
	Hash    []byte
	Encoded []byte
}

// Proof is a root-to-leaf (or root-to-divergence-point) sequence of
// visited trie nodes.
type Proof struct {
	Entries []ProofEntry
}

// GetProofPath walks the trie for path, recording every node visited.
// It always succeeds (even when path is absent): the caller
// distinguishes inclusion from non-inclusion by verifying the
// returned proof with Verify.
func (t *Trie) GetProofPath(ctx context.Context, path []byte) (*Proof, error) {
	var proof Proof
	cur := t.root
	remaining := toNibbles(path)
	for cur != nil {
		raw, ok, err := t.store.Get(ctx, cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		proof.Entries = append(proof.Entries, ProofEntry{Hash: append([]byte(nil), cur...), Encoded: raw})
		n, err := decodeNode(raw)
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case kindLeaf:
			return &proof, nil
		case kindExtension:
			if len(remaining) < len(n.KeyPart) || !bytes.Equal(remaining[:len(n.KeyPart)], n.KeyPart) {
				return &proof, nil // divergence: extension prefix doesn't match
			}
			remaining = remaining[len(n.KeyPart):]
			cur = n.Child
		case kindBranch:
			if len(remaining) == 0 {
				return &proof, nil
			}
			cur = n.Children[remaining[0]]
			remaining = remaining[1:]
		default:
			return &proof, nil
		}
	}
	return &proof, nil
}

// VerifyOutcome classifies the result of verifying a trie proof.
type VerifyOutcome int

const (
	// Inclusion: the proof demonstrates path maps to the expected value.
	Inclusion VerifyOutcome = iota
	// NonInclusion: the proof demonstrates path is absent from the trie
	// with this root.
	NonInclusion
	// RootMismatch: the proof's first node hash does not equal the
	// expected root.
	RootMismatch
	// InvalidChildReference: some node's encoded bytes don't hash to
	// its claimed position, or a referenced child hash doesn't match
	// the next proof entry.
	InvalidChildReference
)

// PathObjectMapProofVerifier verifies a Proof against a root hash and,
// for inclusion checks, an expected value.
type PathObjectMapProofVerifier struct {
	Method objid.HashMethod
}

// Verify checks proof for path against rootHash. If expected is
// non-nil, an Inclusion verdict additionally requires the leaf value
// to equal *expected.
func (v PathObjectMapProofVerifier) Verify(path []byte, expected *objid.ObjId, proof *Proof, rootHash []byte) VerifyOutcome {
	if len(proof.Entries) == 0 {
		if rootHash == nil {
			return NonInclusion
		}
		return RootMismatch
	}
	if !bytes.Equal(proof.Entries[0].Hash, rootHash) {
		return RootMismatch
	}

	remaining := toNibbles(path)
	for i, entry := range proof.Entries {
		n, err := decodeNode(entry.Encoded)
		if err != nil {
			return InvalidChildReference
		}
		h, err := hashNode(v.Method, n)
		if err != nil || !bytes.Equal(h, entry.Hash) {
			return InvalidChildReference
		}

		last := i == len(proof.Entries)-1

		switch n.Kind {
		case kindLeaf:
			if !bytes.Equal(n.KeyPart, remaining) {
				return NonInclusion
			}
			if !last {
				return InvalidChildReference
			}
			return v.checkLeafValue(n.Value, expected)

		case kindExtension:
			if len(remaining) < len(n.KeyPart) || !bytes.Equal(remaining[:len(n.KeyPart)], n.KeyPart) {
				return NonInclusion
			}
			remaining = remaining[len(n.KeyPart):]
			if last {
				return NonInclusion // proof ends at an extension with no further node to confirm
			}
			if !bytes.Equal(n.Child, proof.Entries[i+1].Hash) {
				return InvalidChildReference
			}

		case kindBranch:
			if len(remaining) == 0 {
				if n.Value == nil {
					return NonInclusion
				}
				if !last {
					return InvalidChildReference
				}
				return v.checkLeafValue(n.Value, expected)
			}
			child := n.Children[remaining[0]]
			remaining = remaining[1:]
			if child == nil {
				return NonInclusion
			}
			if last {
				return NonInclusion
			}
			if !bytes.Equal(child, proof.Entries[i+1].Hash) {
				return InvalidChildReference
			}

		default:
			return InvalidChildReference
		}
	}
	return NonInclusion
}

func (v PathObjectMapProofVerifier) checkLeafValue(raw []byte, expected *objid.ObjId) VerifyOutcome {
	if expected == nil {
		return Inclusion
	}
	id, _, err := decodeLeafValue(raw)
	if err != nil || !id.Equal(*expected) {
		return NonInclusion
	}
	return Inclusion
}

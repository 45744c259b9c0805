package mtree

import (
	"bytes"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// VerifyProofPath verifies a proof vector [(index, hash), ...] against
// an expected leaf hash and root hash. proof[0] must be the leaf;
// proof[len-1] must be the root. At each step the running hash is
// recombined with the next proof entry (the sibling at that level):
// the sibling's parity (even LevelIndex => sibling is the left child)
// decides ordering before hashing H(left||right). Never panics on
// malformed input; returns false instead.
func VerifyProofPath(method objid.HashMethod, leafHash []byte, proof []ProofEntry, rootHash []byte) bool {
	if len(proof) < 1 {
		return false
	}
	if !bytes.Equal(proof[0].Hash, leafHash) {
		return false
	}
	if !bytes.Equal(proof[len(proof)-1].Hash, rootHash) {
		return false
	}
	if len(proof) == 1 {
		// Single-leaf tree: the leaf is the root.
		return bytes.Equal(leafHash, rootHash)
	}

	cur := proof[0].Hash
	for i := 1; i < len(proof)-1; i++ {
		sib := proof[i]
		var left, right []byte
		if sib.LevelIndex%2 == 0 {
			left, right = sib.Hash, cur
		} else {
			left, right = cur, sib.Hash
		}
		h, err := hashPair(method, left, right)
		if err != nil {
			return false
		}
		cur = h
	}

	return bytes.Equal(cur, rootHash)
}

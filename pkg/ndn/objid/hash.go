// Package objid implements the content-identifier layer: hash methods,
// ObjId/ChunkId encoding, and canonical-JSON-based object hashing.
package objid

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
	"lukechampine.com/blake3"
)

// HashMethod names a supported digest algorithm.
type HashMethod string

const (
	HashSHA256     HashMethod = "sha256"
	HashSHA512     HashMethod = "sha512"
	HashKeccak256  HashMethod = "keccak256"
	HashBlake2s256 HashMethod = "blake2s256"
	HashBlake3     HashMethod = "blake3"
)

// Size returns the digest length in bytes for the hash method.
func (m HashMethod) Size() (int, error) {
	switch m {
	case HashSHA256, HashKeccak256, HashBlake2s256, HashBlake3:
		return 32, nil
	case HashSHA512:
		return 64, nil
	default:
		return 0, fmt.Errorf("%w: %s", errors.ErrUnknownHashMethod, m)
	}
}

// New returns a fresh streaming hash.Hash for the method.
func (m HashMethod) New() (hash.Hash, error) {
	switch m {
	case HashSHA256:
		return sha256.New(), nil
	case HashSHA512:
		return sha512.New(), nil
	case HashKeccak256:
		return sha3.NewLegacyKeccak256(), nil
	case HashBlake2s256:
		h, err := blake2s.New256(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errors.ErrUnknownHashMethod, err)
		}
		return h, nil
	case HashBlake3:
		return blake3.New(32, nil), nil
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnknownHashMethod, m)
	}
}

// CalcHash computes the digest of b under method m.
func CalcHash(m HashMethod, b []byte) ([]byte, error) {
	h, err := m.New()
	if err != nil {
		return nil, err
	}
	h.Write(b)
	return h.Sum(nil), nil
}

// Valid reports whether m is one of the supported hash methods.
func (m HashMethod) Valid() bool {
	_, err := m.Size()
	return err == nil
}

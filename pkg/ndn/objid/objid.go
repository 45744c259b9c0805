package objid

import (
	"fmt"
	"strings"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// ObjId is an immutable content identifier: a short ASCII type tag
// plus the raw digest bytes. Canonical textual form is
// "type:base32(hash)".
type ObjId struct {
	ObjType string
	Hash    []byte
}

// New constructs an ObjId and validates the hash length against
// ObjType when ObjType names a known hash method (mix chunk ids and
// container type tags like "objmap" are not hash-method-named, so no
// length check applies to them).
func New(objType string, hash []byte) (ObjId, error) {
	if objType == "" {
		return ObjId{}, fmt.Errorf("%w: empty obj_type", errors.ErrInvalidID)
	}
	if len(hash) == 0 {
		return ObjId{}, fmt.Errorf("%w: empty hash", errors.ErrInvalidID)
	}
	if size, err := HashMethod(objType).Size(); err == nil && len(hash) != size {
		return ObjId{}, fmt.Errorf("%w: expected %d bytes for %s, got %d", errors.ErrInvalidID, size, objType, len(hash))
	}
	return ObjId{ObjType: objType, Hash: append([]byte(nil), hash...)}, nil
}

// String returns the canonical textual form "type:base32hash".
func (id ObjId) String() string {
	return id.ObjType + ":" + EncodeBase32(id.Hash)
}

// IsZero reports whether id is the zero value.
func (id ObjId) IsZero() bool {
	return id.ObjType == "" && len(id.Hash) == 0
}

// Equal reports whether id and other identify the same object.
func (id ObjId) Equal(other ObjId) bool {
	if id.ObjType != other.ObjType {
		return false
	}
	if len(id.Hash) != len(other.Hash) {
		return false
	}
	for i := range id.Hash {
		if id.Hash[i] != other.Hash[i] {
			return false
		}
	}
	return true
}

// Parse decodes a canonical "type:base32hash" string into an ObjId.
func Parse(s string) (ObjId, error) {
	idx := strings.IndexByte(s, ':')
	if idx <= 0 || idx == len(s)-1 {
		return ObjId{}, fmt.Errorf("%w: malformed obj id %q", errors.ErrInvalidID, s)
	}
	objType := s[:idx]
	hash, err := DecodeBase32(s[idx+1:])
	if err != nil {
		return ObjId{}, fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	return ObjId{ObjType: objType, Hash: hash}, nil
}

// CanonicalizeAndID serializes v (any JSON-marshalable value) in
// canonical sorted-key form, hashes it under method, and assembles an
// ObjId tagged objType. Returns the ObjId and the canonical string
// that was hashed (callers typically persist the canonical string as
// the object's body).
func CanonicalizeAndID(objType string, method HashMethod, v any) (ObjId, string, error) {
	canon, err := Canonicalize(v)
	if err != nil {
		return ObjId{}, "", err
	}
	h, err := CalcHash(method, []byte(canon))
	if err != nil {
		return ObjId{}, "", err
	}
	id, err := New(objType, h)
	if err != nil {
		return ObjId{}, "", err
	}
	return id, canon, nil
}

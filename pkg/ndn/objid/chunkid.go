package objid

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// mixPrefix tags a ChunkId's ObjType when it is a "mix" chunk id: one
// that embeds the chunk's byte length as a varint ahead of the hash
// bytes, so a reader can recover the declared size without a lookup.
const mixPrefix = "mix-"

// ChunkId is an ObjId whose ObjType names a hash method (optionally
// prefixed "mix-" for the length-embedding variant).
type ChunkId ObjId

// NewChunkID builds a plain ChunkId: ObjType is the hash method name,
// Hash is the raw digest.
func NewChunkID(method HashMethod, hash []byte) (ChunkId, error) {
	size, err := method.Size()
	if err != nil {
		return ChunkId{}, err
	}
	if len(hash) != size {
		return ChunkId{}, fmt.Errorf("%w: expected %d bytes for %s, got %d", errors.ErrInvalidID, size, method, len(hash))
	}
	return ChunkId{ObjType: string(method), Hash: append([]byte(nil), hash...)}, nil
}

// NewMixChunkID builds a mix ChunkId embedding length ahead of the
// digest bytes.
func NewMixChunkID(method HashMethod, length uint64, hash []byte) (ChunkId, error) {
	size, err := method.Size()
	if err != nil {
		return ChunkId{}, err
	}
	if len(hash) != size {
		return ChunkId{}, fmt.Errorf("%w: expected %d bytes for %s, got %d", errors.ErrInvalidID, size, method, len(hash))
	}
	buf := make([]byte, binary.MaxVarintLen64, binary.MaxVarintLen64+len(hash))
	n := binary.PutUvarint(buf, length)
	buf = append(buf[:n], hash...)
	return ChunkId{ObjType: mixPrefix + string(method), Hash: buf}, nil
}

// CalcChunkIDFromBytes hashes data under method and returns a plain
// ChunkId.
func CalcChunkIDFromBytes(method HashMethod, data []byte) (ChunkId, error) {
	h, err := CalcHash(method, data)
	if err != nil {
		return ChunkId{}, err
	}
	return NewChunkID(method, h)
}

// CalcMixChunkIDFromBytes hashes data under method and returns a
// length-tagged ChunkId.
func CalcMixChunkIDFromBytes(method HashMethod, data []byte) (ChunkId, error) {
	h, err := CalcHash(method, data)
	if err != nil {
		return ChunkId{}, err
	}
	return NewMixChunkID(method, uint64(len(data)), h)
}

// IsMix reports whether id embeds a length prefix.
func (id ChunkId) IsMix() bool {
	return strings.HasPrefix(id.ObjType, mixPrefix)
}

// HashMethod returns the hash method the ChunkId was computed under.
func (id ChunkId) HashMethod() HashMethod {
	return HashMethod(strings.TrimPrefix(id.ObjType, mixPrefix))
}

// ObjHash returns the pure digest bytes (length prefix stripped, if
// present).
func (id ChunkId) ObjHash() ([]byte, error) {
	if !id.IsMix() {
		return id.Hash, nil
	}
	_, n := binary.Uvarint(id.Hash)
	if n <= 0 {
		return nil, fmt.Errorf("%w: malformed mix chunk id length prefix", errors.ErrDecode)
	}
	return id.Hash[n:], nil
}

// EmbeddedLength returns the length embedded in a mix ChunkId. ok is
// false for plain ChunkIds.
func (id ChunkId) EmbeddedLength() (length uint64, ok bool, err error) {
	if !id.IsMix() {
		return 0, false, nil
	}
	length, n := binary.Uvarint(id.Hash)
	if n <= 0 {
		return 0, false, fmt.Errorf("%w: malformed mix chunk id length prefix", errors.ErrDecode)
	}
	return length, true, nil
}

// ToObjId views the ChunkId as a generic ObjId.
func (id ChunkId) ToObjId() ObjId {
	return ObjId(id)
}

// String returns the canonical textual form.
func (id ChunkId) String() string {
	return ObjId(id).String()
}

// Equal reports whether id and other identify the same chunk.
func (id ChunkId) Equal(other ChunkId) bool {
	return ObjId(id).Equal(ObjId(other))
}

// ParseChunkID parses a canonical ChunkId string, validating the
// ObjType names a supported (optionally mix-) hash method.
func ParseChunkID(s string) (ChunkId, error) {
	id, err := Parse(s)
	if err != nil {
		return ChunkId{}, err
	}
	cid := ChunkId(id)
	if !cid.HashMethod().Valid() {
		return ChunkId{}, fmt.Errorf("%w: unknown chunk id hash method in %q", errors.ErrUnknownObjType, s)
	}
	return cid, nil
}

package mtree

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// MetaData is the small header prefacing a serialized Merkle layout,
// written as CBOR behind a u32 length prefix.
type MetaData struct {
	DataSize   uint64           `cbor:"data_size"`
	LeafSize   uint32           `cbor:"leaf_size"`
	HashMethod objid.HashMethod `cbor:"hash_method"`
}

// LeafCount returns ceil(DataSize / LeafSize).
func (m MetaData) LeafCount() uint64 {
	if m.LeafSize == 0 {
		return 0
	}
	return (m.DataSize + uint64(m.LeafSize) - 1) / uint64(m.LeafSize)
}

// WriteMeta writes a u32 little-endian length prefix followed by the
// CBOR-encoded meta.
func WriteMeta(w io.Writer, m MetaData) error {
	enc, err := cbor.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(enc)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(enc)
	return err
}

// ReadMeta reads the u32 length-prefixed CBOR meta header.
func ReadMeta(r io.Reader) (MetaData, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return MetaData{}, err
	}
	metaLen := binary.LittleEndian.Uint32(lenBuf[:])
	buf := make([]byte, metaLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return MetaData{}, err
	}
	var m MetaData
	if err := cbor.Unmarshal(buf, &m); err != nil {
		return MetaData{}, fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	return m, nil
}

package objid

import (
	"bytes"
	"fmt"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// Container type tags used as ObjId.ObjType for the collection
// containers built on top of the chunk store.
const (
	ObjTypeFile          = "file"
	ObjTypeObjectArray   = "objarr"
	ObjTypeObjectMap     = "objmap"
	ObjTypeChunkList     = "chunklist"
	ObjTypeTrieObjectMap = "trieobjmap"
	ObjTypePathObjectMap = "pathobjmap"
)

// VerifyBytes recomputes the digest of data under the method encoded
// in id.ObjType (or, for ChunkId-shaped ids, the chunk's hash method)
// and compares it against id.Hash/id.ObjHash.
func VerifyBytes(id ObjId, data []byte) error {
	method := HashMethod(id.ObjType)
	expected := id.Hash
	if !method.Valid() {
		cid := ChunkId(id)
		if cid.HashMethod().Valid() {
			method = cid.HashMethod()
			h, err := cid.ObjHash()
			if err != nil {
				return err
			}
			expected = h
		} else {
			return fmt.Errorf("%w: cannot verify bytes for obj_type %q", errors.ErrUnknownHashMethod, id.ObjType)
		}
	}
	got, err := CalcHash(method, data)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, expected) {
		return fmt.Errorf("%w: hash mismatch", errors.ErrVerifyFailed)
	}
	return nil
}

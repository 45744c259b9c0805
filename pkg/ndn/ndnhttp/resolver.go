package ndnhttp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/buckyos/ndnd/pkg/ndn/chunkstore"
	"github.com/buckyos/ndnd/pkg/ndn/coll"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objectmap"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// SubObject is the result of resolving a sub-path inside a container:
// the inner object's id, the Merkle path tying it to the container's
// root, and (when small enough) the inner object's body for embedding
// into response headers.
type SubObject struct {
	ID        objid.ObjId
	MtreePath []byte // CBOR-encoded []mtree.ProofEntry
	Body      []byte // nil when the inner body is absent or too large to embed
}

// ObjectResolver resolves a sub-path inside a container object, e.g.
// "users/alice" inside an Object Map, so the server can answer
// GET /ndn/{container_id}/{path} with the inner object plus a
// verifiable Merkle path. A nil resolver makes sub-path requests fall
// back to serving the container body itself.
type ObjectResolver interface {
	ResolveSub(ctx context.Context, root objid.ObjId, subPath string) (*SubObject, error)
}

// DefaultEmbedLimit is the largest inner-object body, in bytes, that
// MapResolver ships inline in a cyfs-{emb_obj_id} header.
const DefaultEmbedLimit = 4096

// MapResolver resolves sub-paths through Object Map containers whose
// storage files live in a collections directory next to the chunk
// store. The container's body names its hash method and count; the
// count picks the storage mode and therefore the file extension to
// open.
type MapResolver struct {
	store      *chunkstore.Store
	dir        string
	embedLimit int
}

// NewMapResolver builds a MapResolver over store with collection files
// rooted at dir.
func NewMapResolver(store *chunkstore.Store, dir string) *MapResolver {
	return &MapResolver{store: store, dir: dir, embedLimit: DefaultEmbedLimit}
}

func (r *MapResolver) ResolveSub(ctx context.Context, root objid.ObjId, subPath string) (*SubObject, error) {
	if root.ObjType != objid.ObjTypeObjectMap {
		return nil, fmt.Errorf("%w: cannot resolve sub-path inside %q objects", errors.ErrInvalidData, root.ObjType)
	}

	raw, err := r.store.GetObject(ctx, root)
	if err != nil {
		return nil, err
	}
	var body objectmap.Body
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, fmt.Errorf("%w: object map body: %s", errors.ErrDecode, err)
	}
	method := objid.HashMethod(body.HashMethod)
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", errors.ErrUnknownHashMethod, body.HashMethod)
	}

	storage, err := r.openStorage(root, body.TotalCount)
	if err != nil {
		return nil, err
	}
	m, err := objectmap.Open(ctx, method, storage, body, true)
	if err != nil {
		return nil, err
	}
	if err := m.RebuildTree(ctx); err != nil {
		return nil, err
	}

	key := strings.Trim(subPath, "/")
	proof, ok, err := m.GetProofPath(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: key %q in %s", errors.ErrNotFound, key, root.String())
	}

	enc, err := cbor.Marshal(proof.Proof)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	sub := &SubObject{ID: proof.Item.Value, MtreePath: enc}
	if inner, err := r.store.GetObject(ctx, proof.Item.Value); err == nil && len(inner) <= r.embedLimit {
		sub.Body = inner
	}
	return sub, nil
}

func (r *MapResolver) openStorage(root objid.ObjId, count uint64) (objectmap.Storage, error) {
	name := strings.ReplaceAll(root.String(), ":", "_")
	if coll.SelectMode(&count) == coll.ModeNormal {
		return objectmap.OpenSQLStorage(filepath.Join(r.dir, name+".sqlite"))
	}
	return objectmap.NewJSONFileStorage(filepath.Join(r.dir, name+".json")), nil
}

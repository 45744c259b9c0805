package ndnhttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Response header names, per spec's cyfs-* convention.
const (
	HeaderObjID      = "cyfs-obj-id"
	HeaderDataSize   = "cyfs-data-size"
	HeaderObjPath    = "cyfs-obj-path"
	HeaderRootObjID  = "cyfs-root-obj-id"
	HeaderMtreePath  = "cyfs-mtree-path"
	embeddedObjPrefx = "cyfs-" // followed by the embedded obj id itself
)

// embHeaderName flattens an ObjId into a legal header name: ':' is not
// a header-name character, so the id rides as "cyfs-{type}-{b32hash}".
func embHeaderName(id objid.ObjId) string {
	return embeddedObjPrefx + id.ObjType + "-" + objid.EncodeBase32(id.Hash)
}

// parseEmbHeaderName reverses embHeaderName; ok is false for any
// cyfs-* header that is not an embedded object.
func parseEmbHeaderName(lower string) (objid.ObjId, bool) {
	rest := strings.TrimPrefix(lower, embeddedObjPrefx)
	idx := strings.IndexByte(rest, '-')
	if idx <= 0 || idx == len(rest)-1 {
		return objid.ObjId{}, false
	}
	hash, err := objid.DecodeBase32(rest[idx+1:])
	if err != nil {
		return objid.ObjId{}, false
	}
	id, err := objid.New(rest[:idx], hash)
	if err != nil {
		return objid.ObjId{}, false
	}
	return id, true
}

// EmbeddedObject is a small inner object shipped alongside a
// container response so the client can skip a follow-up fetch.
type EmbeddedObject struct {
	ID   objid.ObjId
	Body json.RawMessage
}

// RespHeaders is the decoded set of cyfs-* response headers for one
// NDN response.
type RespHeaders struct {
	ObjID     objid.ObjId
	DataSize  uint64
	ObjPath   string
	RootObjID *objid.ObjId
	MtreePath []byte // CBOR-encoded mtree.ProofEntry slice
	Embedded  []EmbeddedObject
}

// WriteRespHeaders sets the cyfs-* headers on w from h. Must be called
// before the first Write to w.
func WriteRespHeaders(w http.ResponseWriter, h RespHeaders) {
	hdr := w.Header()
	hdr.Set(HeaderObjID, h.ObjID.String())
	hdr.Set(HeaderDataSize, strconv.FormatUint(h.DataSize, 10))
	if h.ObjPath != "" {
		hdr.Set(HeaderObjPath, h.ObjPath)
	}
	if h.RootObjID != nil {
		hdr.Set(HeaderRootObjID, h.RootObjID.String())
	}
	if len(h.MtreePath) > 0 {
		hdr.Set(HeaderMtreePath, encodeHeaderBytes(h.MtreePath))
	}
	for _, emb := range h.Embedded {
		hdr.Set(embHeaderName(emb.ID), string(emb.Body))
	}
}

// ParseRespHeaders decodes the cyfs-* headers of resp into a
// RespHeaders, extracting any embedded-object headers found among the
// reserved names.
func ParseRespHeaders(header http.Header) (RespHeaders, error) {
	var h RespHeaders
	idStr := header.Get(HeaderObjID)
	if idStr == "" {
		return h, fmt.Errorf("%w: missing %s header", errors.ErrInvalidData, HeaderObjID)
	}
	id, err := objid.Parse(idStr)
	if err != nil {
		return h, err
	}
	h.ObjID = id

	if sz := header.Get(HeaderDataSize); sz != "" {
		n, err := strconv.ParseUint(sz, 10, 64)
		if err != nil {
			return h, fmt.Errorf("%w: bad %s header", errors.ErrInvalidData, HeaderDataSize)
		}
		h.DataSize = n
	}
	h.ObjPath = header.Get(HeaderObjPath)

	if root := header.Get(HeaderRootObjID); root != "" {
		rid, err := objid.Parse(root)
		if err != nil {
			return h, err
		}
		h.RootObjID = &rid
	}
	if mt := header.Get(HeaderMtreePath); mt != "" {
		raw, err := decodeHeaderBytes(mt)
		if err != nil {
			return h, err
		}
		h.MtreePath = raw
	}

	for name, vals := range header {
		lower := strings.ToLower(name)
		if lower == HeaderObjID || lower == HeaderDataSize || lower == HeaderObjPath ||
			lower == HeaderRootObjID || lower == HeaderMtreePath {
			continue
		}
		if !strings.HasPrefix(lower, embeddedObjPrefx) {
			continue
		}
		embID, ok := parseEmbHeaderName(lower)
		if !ok {
			continue // not an embedded-object header, some other cyfs- extension
		}
		if len(vals) == 0 {
			continue
		}
		h.Embedded = append(h.Embedded, EmbeddedObject{ID: embID, Body: json.RawMessage(vals[0])})
	}
	return h, nil
}

func encodeHeaderBytes(b []byte) string {
	return objid.EncodeBase32(b)
}

func decodeHeaderBytes(s string) ([]byte, error) {
	return objid.DecodeBase32(s)
}

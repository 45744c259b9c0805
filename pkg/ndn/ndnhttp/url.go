// Package ndnhttp implements the HTTP/1.1 wire convention for pulling
// and pushing NDN chunks and objects between stacks: URL parsing,
// cyfs-* response headers, and a chi-based server/client pair.
package ndnhttp

import (
	"fmt"
	"strings"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// ndnPrefix is the fixed path segment introducing an NDN URL:
// {scheme}://{host}/ndn/{encoded_obj_id}[{path}].
const ndnPrefix = "/ndn/"

// BuildURL assembles the canonical path for id, optionally followed by
// a sub-path into a container (e.g. "/users/alice").
func BuildURL(id objid.ObjId, subPath string) string {
	p := ndnPrefix + id.String()
	if subPath == "" {
		return p
	}
	if !strings.HasPrefix(subPath, "/") {
		subPath = "/" + subPath
	}
	return p + subPath
}

// ObjIDFromURL extracts the ObjId and trailing sub-path from an NDN
// URL path, e.g. "/ndn/objmap:ABC.../users/alice" ->
// (objmap:ABC..., "/users/alice").
func ObjIDFromURL(urlPath string) (objid.ObjId, string, error) {
	if !strings.HasPrefix(urlPath, ndnPrefix) {
		return objid.ObjId{}, "", fmt.Errorf("%w: path %q missing /ndn/ prefix", errors.ErrInvalidData, urlPath)
	}
	rest := urlPath[len(ndnPrefix):]
	idStr := rest
	subPath := ""
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		idStr = rest[:idx]
		subPath = rest[idx:]
	}
	id, err := objid.Parse(idStr)
	if err != nil {
		return objid.ObjId{}, "", err
	}
	return id, subPath, nil
}

// HostFromObjID turns an ObjId into a DNS-label-safe subdomain form
// ("type-b32hash", lower-case),
// for deployments that key routing off the hostname rather than the
// URL path.
func HostFromObjID(id objid.ObjId) string {
	return strings.ToLower(strings.ReplaceAll(id.String(), ":", "-"))
}

// Package zone is a minimal name-service client: it resolves a device
// id (hostname or DID form) to the address and public key an RTCP
// tunnel needs to dial and authenticate a peer.
package zone

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// Record is a resolved device's reachability and authentication info.
type Record struct {
	DeviceID  string `json:"device_id"`
	Addr      string `json:"addr"` // host:port
	PublicKey []byte `json:"public_key"`
}

// Resolver looks up a device id's Record.
type Resolver interface {
	Resolve(ctx context.Context, deviceID string) (Record, error)
}

// StaticResolver resolves against an in-memory table, loaded once
// from a JSON zone file; suitable for a single stack or a test
// fixture in place of a full name service.
type StaticResolver struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStaticResolver builds an empty StaticResolver.
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{records: make(map[string]Record)}
}

// LoadFile reads a JSON array of Record from path and indexes it by
// DeviceID.
func LoadFile(path string) (*StaticResolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: parsing zone file %s: %s", errors.ErrDecode, path, err)
	}
	r := NewStaticResolver()
	for _, rec := range records {
		r.Put(rec)
	}
	return r, nil
}

// Put registers or replaces rec.
func (r *StaticResolver) Put(rec Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[normalizeID(rec.DeviceID)] = rec
}

// Resolve looks up deviceID (hostname or did:{method}:{id} form).
func (r *StaticResolver) Resolve(_ context.Context, deviceID string) (Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[normalizeID(deviceID)]
	if !ok {
		return Record{}, fmt.Errorf("%w: zone record for %q", errors.ErrNotFound, deviceID)
	}
	return rec, nil
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSuffix(id, "."))
}

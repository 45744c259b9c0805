package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for content-layer and tunnel spans, following
// OpenTelemetry semantic conventions where applicable.
const (
	// ========================================================================
	// Object / chunk identity
	// ========================================================================
	AttrObjID      = "ndn.obj_id"
	AttrObjType    = "ndn.obj_type"
	AttrChunkID    = "ndn.chunk_id"
	AttrHashMethod = "ndn.hash_method"
	AttrRootHash   = "ndn.root_hash"
	AttrLeafIndex  = "ndn.leaf_index"

	// ========================================================================
	// I/O
	// ========================================================================
	AttrOffset       = "ndn.offset"
	AttrLength       = "ndn.length"
	AttrSize         = "ndn.size"
	AttrBytesRead    = "ndn.bytes_read"
	AttrBytesWritten = "ndn.bytes_written"

	// ========================================================================
	// Client / peer
	// ========================================================================
	AttrClientIP   = "client.ip"
	AttrClientAddr = "client.address"

	// ========================================================================
	// RTCP tunnel
	// ========================================================================
	AttrTunnelID  = "rtcp.tunnel_id"
	AttrDeviceID  = "rtcp.device_id"
	AttrStackPort = "rtcp.stack_port"
	AttrCmd       = "rtcp.cmd"
	AttrSeq       = "rtcp.seq"

	// ========================================================================
	// Storage backend
	// ========================================================================
	AttrStoreName    = "store.name"
	AttrStoreType    = "store.type"
	AttrStorageMode  = "store.mode" // Simple or Normal
	AttrBucket       = "storage.bucket"
	AttrStorageKey   = "storage.key"
	AttrStorageRegion = "storage.region"
)

// Span names. Format: <component>.<operation>.
const (
	SpanChunkPull  = "chunkstore.pull"
	SpanChunkPush  = "chunkstore.push"
	SpanChunkWrite = "chunkstore.write"
	SpanChunkRead  = "chunkstore.read"
	SpanChunkLink  = "chunkstore.link"

	SpanObjectGet = "ndnhttp.get_object"
	SpanObjectPut = "ndnhttp.put_object"

	SpanCollectionBuild  = "collection.build"
	SpanCollectionOpen   = "collection.open"
	SpanCollectionProof  = "collection.proof"
	SpanCollectionVerify = "collection.verify"

	SpanTunnelDial    = "rtcp.dial"
	SpanTunnelAccept  = "rtcp.accept"
	SpanTunnelRopen   = "rtcp.ropen"
	SpanTunnelPing    = "rtcp.ping"
	SpanTunnelStream  = "rtcp.stream"
	SpanTunnelHandoff = "rtcp.datagram_forward"
)

func ClientIP(ip string) attribute.KeyValue     { return attribute.String(AttrClientIP, ip) }
func ClientAddr(addr string) attribute.KeyValue { return attribute.String(AttrClientAddr, addr) }

// ObjID returns an attribute for an ObjId textual form.
func ObjID(id string) attribute.KeyValue { return attribute.String(AttrObjID, id) }

// ObjType returns an attribute for an ObjId type tag.
func ObjType(t string) attribute.KeyValue { return attribute.String(AttrObjType, t) }

// ChunkID returns an attribute for a ChunkId textual form.
func ChunkID(id string) attribute.KeyValue { return attribute.String(AttrChunkID, id) }

// HashMethod returns an attribute for a digest algorithm name.
func HashMethod(m string) attribute.KeyValue { return attribute.String(AttrHashMethod, m) }

// RootHash returns an attribute for a Merkle root (base32).
func RootHash(h string) attribute.KeyValue { return attribute.String(AttrRootHash, h) }

// LeafIndex returns an attribute for a proof leaf index.
func LeafIndex(i uint64) attribute.KeyValue { return attribute.Int64(AttrLeafIndex, int64(i)) }

// Offset returns an attribute for a byte offset.
func Offset(off uint64) attribute.KeyValue { return attribute.Int64(AttrOffset, int64(off)) }

// Length returns an attribute for a byte length.
func Length(n uint64) attribute.KeyValue { return attribute.Int64(AttrLength, int64(n)) }

// Size returns an attribute for an object/chunk size.
func Size(n uint64) attribute.KeyValue { return attribute.Int64(AttrSize, int64(n)) }

// BytesRead returns an attribute for actual bytes read.
func BytesRead(n int64) attribute.KeyValue { return attribute.Int64(AttrBytesRead, n) }

// BytesWritten returns an attribute for actual bytes written.
func BytesWritten(n int64) attribute.KeyValue { return attribute.Int64(AttrBytesWritten, n) }

// TunnelID returns an attribute for an RTCP tunnel identifier.
func TunnelID(id string) attribute.KeyValue { return attribute.String(AttrTunnelID, id) }

// DeviceID returns an attribute for an RTcpTargetStackId hostname or DID.
func DeviceID(id string) attribute.KeyValue { return attribute.String(AttrDeviceID, id) }

// StackPort returns an attribute for an RTCP stack port.
func StackPort(port uint16) attribute.KeyValue { return attribute.Int64(AttrStackPort, int64(port)) }

// Cmd returns an attribute for a tunnel control packet command.
func Cmd(cmd string) attribute.KeyValue { return attribute.String(AttrCmd, cmd) }

// Seq returns an attribute for a tunnel control packet sequence number.
func Seq(seq uint32) attribute.KeyValue { return attribute.Int64(AttrSeq, int64(seq)) }

// StoreName returns an attribute for a store instance name.
func StoreName(name string) attribute.KeyValue { return attribute.String(AttrStoreName, name) }

// StoreType returns an attribute for a store backend type.
func StoreType(t string) attribute.KeyValue { return attribute.String(AttrStoreType, t) }

// StorageMode returns an attribute for the collection storage mode.
func StorageMode(mode string) attribute.KeyValue { return attribute.String(AttrStorageMode, mode) }

// Bucket returns an attribute for an S3 bucket name (remote chunk tier).
func Bucket(name string) attribute.KeyValue { return attribute.String(AttrBucket, name) }

// StorageKey returns an attribute for an S3 object key.
func StorageKey(key string) attribute.KeyValue { return attribute.String(AttrStorageKey, key) }

// Region returns an attribute for a cloud region.
func Region(region string) attribute.KeyValue { return attribute.String(AttrStorageRegion, region) }

// StartChunkSpan starts a span for a chunk store operation.
func StartChunkSpan(ctx context.Context, spanName string, chunkID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ChunkID(chunkID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartObjectSpan starts a span for an NDN client/server object operation.
func StartObjectSpan(ctx context.Context, spanName string, objID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ObjID(objID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartCollectionSpan starts a span for a container build/open/proof operation.
func StartCollectionSpan(ctx context.Context, spanName string, objID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{ObjID(objID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

// StartTunnelSpan starts a span for an RTCP tunnel operation.
func StartTunnelSpan(ctx context.Context, spanName string, deviceID string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := append([]attribute.KeyValue{DeviceID(deviceID)}, attrs...)
	return StartSpan(ctx, spanName, trace.WithAttributes(allAttrs...))
}

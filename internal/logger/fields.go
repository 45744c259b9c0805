package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are protocol-agnostic across the content store, the
// collection builders, and the RTCP tunnel stack.
// Use these keys consistently across all log statements for log aggregation and querying.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Object / Chunk Identity
	// ========================================================================
	KeyObjID     = "obj_id"     // ObjId textual form: type:base32hash
	KeyChunkID   = "chunk_id"   // ChunkId textual form
	KeyObjType   = "obj_type"   // ObjId type tag (file, objmap, objarr, ...)
	KeyHashMeth  = "hash_method" // sha256, sha512, keccak256, blake2s256, blake3
	KeyRootHash  = "root_hash"   // Merkle root, base32
	KeyLeafIndex = "leaf_index"  // leaf index within a collection/proof

	// ========================================================================
	// Operation & Status
	// ========================================================================
	KeyOp        = "op"         // operation name: pull_chunk, put_object, ropen, ...
	KeyStatus    = "status"     // operation status code
	KeyStatusMsg = "status_msg" // human-readable status message
	KeyZone      = "zone"       // zone/device identifier

	// ========================================================================
	// I/O Operations
	// ========================================================================
	KeyOffset       = "offset"        // byte offset for read/write operations
	KeyLength       = "length"        // byte length requested
	KeyBytesRead    = "bytes_read"    // actual bytes read
	KeyBytesWritten = "bytes_written" // actual bytes written
	KeySize         = "size"          // chunk or object size in bytes

	// ========================================================================
	// Peer / Tunnel Identification
	// ========================================================================
	KeyClientIP   = "client_ip"   // peer IP address
	KeyClientPort = "client_port" // peer source port
	KeyTunnelID   = "tunnel_id"   // RTCP tunnel identifier
	KeyDeviceID   = "device_id"   // RTcpTargetStackId hostname or DID
	KeyStackPort  = "stack_port"  // RTCP stack port
	KeySeq        = "seq"         // tunnel control packet sequence number
	KeyCmd        = "cmd"         // tunnel control packet command

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // numeric error code
	KeySource     = "source"      // chunk store, cache, remote pull
	KeyAttempt    = "attempt"     // retry attempt number

	// ========================================================================
	// Storage Backend
	// ========================================================================
	KeyStoreName = "store_name" // chunk store / collection store instance name
	KeyStoreType = "store_type" // memory, badger, sqlite, jsonfile, arrow, s3
	KeyBucket    = "bucket"     // S3 bucket name (remote byte tier)
	KeyKey       = "key"        // object map / trie key

	// ========================================================================
	// Chunk State Machine
	// ========================================================================
	KeyChunkState = "chunk_state" // New, Incompleted, Completed, Disabled, NotExist, Link
	KeyLinkTarget = "link_target" // alias target ObjId

	// ========================================================================
	// Collections (C4-C7)
	// ========================================================================
	KeyCount        = "count"         // item/leaf count
	KeyStorageMode  = "storage_mode"  // Simple or Normal
	KeyMtreeIndex   = "mtree_index"   // sidecar index for an object map item
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// ObjID returns a slog.Attr for an ObjId textual form
func ObjID(id string) slog.Attr {
	return slog.String(KeyObjID, id)
}

// ChunkID returns a slog.Attr for a ChunkId textual form
func ChunkID(id string) slog.Attr {
	return slog.String(KeyChunkID, id)
}

// HashMethod returns a slog.Attr for the digest algorithm name
func HashMethod(m string) slog.Attr {
	return slog.String(KeyHashMeth, m)
}

// RootHash returns a slog.Attr for a Merkle root (base32)
func RootHash(h string) slog.Attr {
	return slog.String(KeyRootHash, h)
}

// Op returns a slog.Attr for the operation name
func Op(name string) slog.Attr {
	return slog.String(KeyOp, name)
}

// Status returns a slog.Attr for operation status code
func Status(code int) slog.Attr {
	return slog.Int(KeyStatus, code)
}

// StatusMsg returns a slog.Attr for a human-readable status message
func StatusMsg(msg string) slog.Attr {
	return slog.String(KeyStatusMsg, msg)
}

// Zone returns a slog.Attr for a zone/device identifier
func Zone(name string) slog.Attr {
	return slog.String(KeyZone, name)
}

// Offset returns a slog.Attr for a byte offset
func Offset(off uint64) slog.Attr {
	return slog.Uint64(KeyOffset, off)
}

// Length returns a slog.Attr for a byte length
func Length(n uint64) slog.Attr {
	return slog.Uint64(KeyLength, n)
}

// BytesRead returns a slog.Attr for actual bytes read
func BytesRead(n int64) slog.Attr {
	return slog.Int64(KeyBytesRead, n)
}

// BytesWritten returns a slog.Attr for actual bytes written
func BytesWritten(n int64) slog.Attr {
	return slog.Int64(KeyBytesWritten, n)
}

// Size returns a slog.Attr for an object/chunk size
func Size(s uint64) slog.Attr {
	return slog.Uint64(KeySize, s)
}

// ClientIP returns a slog.Attr for peer IP address
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// ClientPort returns a slog.Attr for peer source port
func ClientPort(port int) slog.Attr {
	return slog.Int(KeyClientPort, port)
}

// TunnelID returns a slog.Attr for an RTCP tunnel identifier
func TunnelID(id string) slog.Attr {
	return slog.String(KeyTunnelID, id)
}

// DeviceID returns a slog.Attr for an RTcpTargetStackId hostname or DID
func DeviceID(id string) slog.Attr {
	return slog.String(KeyDeviceID, id)
}

// StackPort returns a slog.Attr for an RTCP stack port
func StackPort(port uint16) slog.Attr {
	return slog.Int(KeyStackPort, int(port))
}

// Seq returns a slog.Attr for a tunnel control packet sequence number
func Seq(seq uint32) slog.Attr {
	return slog.Uint64(KeySeq, uint64(seq))
}

// Cmd returns a slog.Attr for a tunnel control packet command
func Cmd(cmd string) slog.Attr {
	return slog.String(KeyCmd, cmd)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}

// Source returns a slog.Attr for a data source
func Source(src string) slog.Attr {
	return slog.String(KeySource, src)
}

// Attempt returns a slog.Attr for a retry attempt number
func Attempt(n int) slog.Attr {
	return slog.Int(KeyAttempt, n)
}

// StoreName returns a slog.Attr for a store instance name
func StoreName(name string) slog.Attr {
	return slog.String(KeyStoreName, name)
}

// StoreType returns a slog.Attr for a store backend type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for an S3 bucket name
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// Key returns a slog.Attr for an object map / trie key
func Key(k string) slog.Attr {
	return slog.String(KeyKey, k)
}

// ChunkState returns a slog.Attr for a chunk state machine value
func ChunkState(state string) slog.Attr {
	return slog.String(KeyChunkState, state)
}

// LinkTarget returns a slog.Attr for an alias target ObjId
func LinkTarget(target string) slog.Attr {
	return slog.String(KeyLinkTarget, target)
}

// Count returns a slog.Attr for an item/leaf count
func Count(n uint64) slog.Attr {
	return slog.Uint64(KeyCount, n)
}

// StorageMode returns a slog.Attr for the collection storage mode
func StorageMode(mode string) slog.Attr {
	return slog.String(KeyStorageMode, mode)
}

// MtreeIndex returns a slog.Attr for an object map item's sidecar index
func MtreeIndex(idx uint64) slog.Attr {
	return slog.Uint64(KeyMtreeIndex, idx)
}

// Package chunklist implements the Chunk List container: an ordered
// sequence of ChunkIds layered on top of an Object Array, with
// total/fixed-size metadata so offset-to-chunk lookups can avoid a
// full index scan when every chunk but the last shares one size.
package chunklist

import (
	"context"
	"fmt"
	"sort"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objectarray"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Body is the small JSON header persisted under the ChunkList's ObjId:
// {"total_size":N,"fix_size":N?,"object_array":{...}}.
type Body struct {
	TotalSize   uint64 `json:"total_size"`
	FixSize     uint64 `json:"fix_size,omitempty"`
	ObjectArray struct {
		RootHash   string `json:"root_hash"`
		HashMethod string `json:"hash_method"`
		TotalCount uint64 `json:"total_count"`
	} `json:"object_array"`
}

// ChunkList is the built, addressable form.
type ChunkList struct {
	ObjID     objid.ObjId
	Body      Body
	Array     *objectarray.ObjectArray
	sizes     []uint64 // per-chunk size, only populated in variable mode
	prefixSum []uint64 // prefix sums of sizes, for O(log n) offset lookup in variable mode
}

// TotalSize returns the declared total byte length of the list.
func (c *ChunkList) TotalSize() uint64 { return c.Body.TotalSize }

// FixedSize returns the fixed chunk size and true, or (0, false) in
// variable-size mode.
func (c *ChunkList) FixedSize() (uint64, bool) {
	if c.Body.FixSize == 0 {
		return 0, false
	}
	return c.Body.FixSize, true
}

// Len returns the number of chunks.
func (c *ChunkList) Len() int { return c.Array.Len() }

// ChunkAt returns the ChunkId at index.
func (c *ChunkList) ChunkAt(index int) (objid.ObjId, error) {
	return c.Array.Get(index)
}

// Locate resolves an absolute byte offset into (chunk index,
// intra-chunk offset). In fixed-size mode this is O(1); in variable
// mode it binary-searches the prefix-sum sidecar, O(log n).
func (c *ChunkList) Locate(offset uint64) (index int, intraOffset uint64, err error) {
	if offset >= c.Body.TotalSize {
		return 0, 0, fmt.Errorf("%w: offset %d out of range (total %d)", errors.ErrInvalidData, offset, c.Body.TotalSize)
	}
	if fixSize, ok := c.FixedSize(); ok {
		idx := offset / fixSize
		return int(idx), offset % fixSize, nil
	}
	// Variable mode: prefixSum[i] is the offset where chunk i starts.
	i := sort.Search(len(c.prefixSum), func(i int) bool { return c.prefixSum[i] > offset }) - 1
	if i < 0 {
		i = 0
	}
	return i, offset - c.prefixSum[i], nil
}

// Builder accumulates ChunkIds before Build() fixes the underlying
// Object Array and ChunkList body.
type Builder struct {
	array     *objectarray.Builder
	method    objid.HashMethod
	fixSize   uint64
	totalSize uint64
	sizes     []uint64
}

// WithFixedSize starts a builder where every chunk but the last is
// exactly sz bytes; offsets are then computable without a sizes
// sidecar.
func WithFixedSize(method objid.HashMethod, sz uint64) *Builder {
	return &Builder{array: objectarray.NewBuilder(method), method: method, fixSize: sz}
}

// WithVarSize starts a builder where chunk sizes vary and must be
// tracked explicitly via AppendWithSize.
func WithVarSize(method objid.HashMethod) *Builder {
	return &Builder{array: objectarray.NewBuilder(method), method: method}
}

// Append adds a chunk id without touching total_size. Valid only in
// fixed-size mode, where size accounting is implicit.
func (b *Builder) Append(id objid.ObjId) error {
	if b.fixSize == 0 {
		return fmt.Errorf("%w: Append requires a fixed chunk size; use AppendWithSize in variable mode", errors.ErrInvalidData)
	}
	b.array.Append(id)
	return nil
}

// AppendWithSize adds a chunk id and accumulates its size into
// total_size. Required in variable-size mode; optional (but harmless)
// in fixed-size mode.
func (b *Builder) AppendWithSize(id objid.ObjId, sz uint64) {
	b.array.Append(id)
	b.sizes = append(b.sizes, sz)
	b.totalSize += sz
}

// Insert adds a chunk id at index, shifting later chunks up one slot.
// sz is required in variable-size mode.
func (b *Builder) Insert(index int, id objid.ObjId, sz uint64) error {
	if err := b.array.Insert(index, id); err != nil {
		return err
	}
	if b.fixSize == 0 {
		b.sizes = append(b.sizes, 0)
		copy(b.sizes[index+1:], b.sizes[index:])
		b.sizes[index] = sz
		b.totalSize += sz
	}
	return nil
}

// Remove deletes the chunk id at index.
func (b *Builder) Remove(index int) error {
	if err := b.array.Remove(index); err != nil {
		return err
	}
	if b.fixSize == 0 && index < len(b.sizes) {
		b.totalSize -= b.sizes[index]
		b.sizes = append(b.sizes[:index], b.sizes[index+1:]...)
	}
	return nil
}

// Build flushes the underlying Object Array and persists the
// ChunkList body under its own ObjId.
func (b *Builder) Build(ctx context.Context, backend objectarray.Backend) (*ChunkList, error) {
	arr, err := b.array.Build(ctx, backend)
	if err != nil {
		return nil, err
	}

	body := Body{TotalSize: b.totalSize}
	if b.fixSize > 0 {
		body.FixSize = b.fixSize
	}
	body.ObjectArray.RootHash = objid.EncodeBase32(arr.Tree.RootHash())
	body.ObjectArray.HashMethod = string(b.method)
	body.ObjectArray.TotalCount = uint64(arr.Len())

	objID, _, err := objid.CanonicalizeAndID(objid.ObjTypeChunkList, b.method, body)
	if err != nil {
		return nil, err
	}

	cl := &ChunkList{ObjID: objID, Body: body, Array: arr}
	if b.fixSize == 0 {
		cl.sizes = append([]uint64(nil), b.sizes...)
		cl.prefixSum = make([]uint64, len(cl.sizes))
		var sum uint64
		for i, sz := range cl.sizes {
			cl.prefixSum[i] = sum
			sum += sz
		}
	}
	return cl, nil
}

// Open reconstructs a ChunkList from its persisted body and the
// backing Object Array's backend. sizes (required in variable mode)
// must be supplied by the caller since the body does not persist them
// directly; callers typically keep a parallel sizes sidecar file.
func Open(ctx context.Context, body Body, backend objectarray.Backend, sizes []uint64) (*ChunkList, error) {
	method := objid.HashMethod(body.ObjectArray.HashMethod)
	arr, err := objectarray.Load(ctx, method, backend)
	if err != nil {
		return nil, err
	}
	cl := &ChunkList{ObjID: objid.ObjId{}, Body: body, Array: arr}
	if body.FixSize == 0 {
		if len(sizes) != arr.Len() {
			return nil, fmt.Errorf("%w: sizes sidecar length %d does not match chunk count %d", errors.ErrInvalidData, len(sizes), arr.Len())
		}
		cl.sizes = append([]uint64(nil), sizes...)
		cl.prefixSum = make([]uint64, len(cl.sizes))
		var sum uint64
		for i, sz := range cl.sizes {
			cl.prefixSum[i] = sum
			sum += sz
		}
	}
	objID, _, err := objid.CanonicalizeAndID(objid.ObjTypeChunkList, method, body)
	if err != nil {
		return nil, err
	}
	cl.ObjID = objID
	return cl, nil
}

package chunklist

import (
	"context"
	"testing"

	"github.com/buckyos/ndnd/pkg/ndn/objectarray"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/stretchr/testify/require"
)

func chunkID(t *testing.T, n byte) objid.ObjId {
	t.Helper()
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte{n})
	require.NoError(t, err)
	return id.ToObjId()
}

func TestFixedSizeChunkListOffsets(t *testing.T) {
	ctx := context.Background()
	const chunkSize = 4096
	const fileSize = 16*1024*1024 + 100

	b := WithFixedSize(objid.HashSHA256, chunkSize)
	count := (fileSize + chunkSize - 1) / chunkSize
	for i := 0; i < count; i++ {
		require.NoError(t, b.Append(chunkID(t, byte(i))))
	}
	b.totalSize = fileSize // fixed mode: total_size is supplied directly by the caller

	cl, err := b.Build(ctx, objectarray.NewMemoryBackend())
	require.NoError(t, err)

	require.Equal(t, uint64(fileSize), cl.TotalSize())
	require.Equal(t, count, cl.Len())

	idx, off, err := cl.Locate(0)
	require.NoError(t, err)
	require.Equal(t, 0, idx)
	require.Equal(t, uint64(0), off)

	idx, off, err = cl.Locate(fileSize - 1)
	require.NoError(t, err)
	require.Equal(t, count-1, idx)
	require.Equal(t, uint64(99), off)
}

func TestVariableSizeChunkListOffsets(t *testing.T) {
	ctx := context.Background()
	b := WithVarSize(objid.HashSHA256)
	sizes := []uint64{100, 200, 50}
	for i, sz := range sizes {
		b.AppendWithSize(chunkID(t, byte(i)), sz)
	}

	cl, err := b.Build(ctx, objectarray.NewMemoryBackend())
	require.NoError(t, err)
	require.Equal(t, uint64(350), cl.TotalSize())

	idx, off, err := cl.Locate(150)
	require.NoError(t, err)
	require.Equal(t, 1, idx)
	require.Equal(t, uint64(50), off)

	idx, off, err = cl.Locate(349)
	require.NoError(t, err)
	require.Equal(t, 2, idx)
	require.Equal(t, uint64(49), off)
}

func TestChunkListInsertRemove(t *testing.T) {
	ctx := context.Background()
	b := WithVarSize(objid.HashSHA256)
	b.AppendWithSize(chunkID(t, 0), 10)
	b.AppendWithSize(chunkID(t, 1), 20)
	require.NoError(t, b.Insert(1, chunkID(t, 2), 5))
	require.Equal(t, uint64(35), b.totalSize)
	require.NoError(t, b.Remove(1))
	require.Equal(t, uint64(30), b.totalSize)

	cl, err := b.Build(ctx, objectarray.NewMemoryBackend())
	require.NoError(t, err)
	require.Equal(t, 2, cl.Len())
}

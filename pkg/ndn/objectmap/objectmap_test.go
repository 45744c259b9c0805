package objectmap

import (
	"context"
	"fmt"
	"testing"

	ndnerrors "github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func valueFor(t *testing.T, n int) objid.ObjId {
	t.Helper()
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, fmt.Appendf(nil, "value-%d", n))
	require.NoError(t, err)
	return id.ToObjId()
}

func TestObjectMapPutGetRemove(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, NewMemoryStorage())

	require.NoError(t, m.Put(ctx, "alice", valueFor(t, 0)))
	v, ok, err := m.Get(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, valueFor(t, 0), v)

	_, ok, err = m.Remove(ctx, "alice")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = m.Get(ctx, "alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestObjectMapIterAscending(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, NewMemoryStorage())
	keys := []string{"zebra", "apple", "mango", "banana"}
	for i, k := range keys {
		require.NoError(t, m.Put(ctx, k, valueFor(t, i)))
	}
	items, err := m.Iter(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)
	for i := 1; i < len(items); i++ {
		assert.Less(t, items[i-1].Key, items[i].Key)
	}
}

func TestObjectMapFlushProof(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, NewMemoryStorage())
	for i := 0; i < 20; i++ {
		require.NoError(t, m.Put(ctx, fmt.Sprintf("key%02d", i), valueFor(t, i)))
	}
	require.NoError(t, m.Flush(ctx))

	root, err := objid.DecodeBase32(m.Body().RootHash)
	require.NoError(t, err)

	proof, ok, err := m.GetProofPath("key05")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, VerifyProof(objid.HashSHA256, proof, root))

	_, ok, err = m.GetProofPath("missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestRemoveThenReinsertRestoresRoot: insert 100 keys, remove
// even-indexed ones, flush (root changes),
// reinsert one (root changes again), reinsert the rest (root returns
// to the original).
func TestRemoveThenReinsertRestoresRoot(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, NewMemoryStorage())
	for i := 0; i < 100; i++ {
		require.NoError(t, m.Put(ctx, fmt.Sprintf("key%d", i), valueFor(t, i)))
	}
	require.NoError(t, m.Flush(ctx))
	originalRoot := m.Body().RootHash

	var removed []int
	for i := 0; i < 100; i += 2 {
		_, ok, err := m.Remove(ctx, fmt.Sprintf("key%d", i))
		require.NoError(t, err)
		require.True(t, ok)
		removed = append(removed, i)
	}
	require.NoError(t, m.Flush(ctx))
	afterRemoveRoot := m.Body().RootHash
	assert.NotEqual(t, originalRoot, afterRemoveRoot)

	require.NoError(t, m.Put(ctx, fmt.Sprintf("key%d", removed[0]), valueFor(t, removed[0])))
	require.NoError(t, m.Flush(ctx))
	afterOneReinsertRoot := m.Body().RootHash
	assert.NotEqual(t, originalRoot, afterOneReinsertRoot)
	assert.NotEqual(t, afterRemoveRoot, afterOneReinsertRoot)

	for _, i := range removed[1:] {
		require.NoError(t, m.Put(ctx, fmt.Sprintf("key%d", i), valueFor(t, i)))
	}
	require.NoError(t, m.Flush(ctx))
	assert.Equal(t, originalRoot, m.Body().RootHash)
}

func TestObjectMapClone(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, NewMemoryStorage())
	require.NoError(t, m.Put(ctx, "a", valueFor(t, 1)))
	require.NoError(t, m.Flush(ctx))

	clone, err := m.Clone(ctx, true)
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, "b", valueFor(t, 2)))

	_, ok, err := clone.Get(ctx, "b")
	require.NoError(t, err)
	assert.False(t, ok, "clone must not observe mutations made after cloning")

	err = clone.Put(ctx, "c", valueFor(t, 3))
	assert.ErrorIs(t, err, ndnerrors.ErrReadOnly)
}

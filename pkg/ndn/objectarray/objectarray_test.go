package objectarray

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testID(t *testing.T, seed string) objid.ObjId {
	t.Helper()
	h, err := objid.CalcHash(objid.HashSHA256, []byte(seed))
	require.NoError(t, err)
	id, err := objid.New(objid.ObjTypeFile, h)
	require.NoError(t, err)
	return id
}

func buildTestArray(t *testing.T, n int) *ObjectArray {
	t.Helper()
	b := NewBuilder(objid.HashSHA256)
	for i := 0; i < n; i++ {
		b.Append(testID(t, fmt.Sprintf("item-%d", i)))
	}
	arr, err := b.Build(context.Background(), NewMemoryBackend())
	require.NoError(t, err)
	return arr
}

func TestBuildRoundTrip(t *testing.T) {
	backend := NewMemoryBackend()
	b := NewBuilder(objid.HashSHA256)
	for i := 0; i < 10; i++ {
		b.Append(testID(t, fmt.Sprintf("item-%d", i)))
	}
	arr, err := b.Build(context.Background(), backend)
	require.NoError(t, err)

	loaded, err := Load(context.Background(), objid.HashSHA256, backend)
	require.NoError(t, err)
	assert.Equal(t, arr.ObjID, loaded.ObjID)
	assert.Equal(t, arr.Items, loaded.Items)
	assert.Equal(t, arr.Tree.RootHash(), loaded.Tree.RootHash())
}

func TestAppendGrowsAndGetsBack(t *testing.T) {
	arr := buildTestArray(t, 5)
	extra := testID(t, "appended")

	b := arr.ToBuilder()
	b.Append(extra)
	rebuilt, err := b.Build(context.Background(), NewMemoryBackend())
	require.NoError(t, err)

	assert.Equal(t, arr.Len()+1, rebuilt.Len())
	got, err := rebuilt.Get(rebuilt.Len() - 1)
	require.NoError(t, err)
	assert.Equal(t, extra, got)
	assert.NotEqual(t, arr.ObjID, rebuilt.ObjID)
}

func TestInsertThenRemoveRestoresArray(t *testing.T) {
	arr := buildTestArray(t, 8)

	b := arr.ToBuilder()
	require.NoError(t, b.Insert(3, testID(t, "interloper")))
	require.NoError(t, b.Remove(3))
	rebuilt, err := b.Build(context.Background(), NewMemoryBackend())
	require.NoError(t, err)

	assert.Equal(t, arr.Items, rebuilt.Items)
	assert.Equal(t, arr.ObjID, rebuilt.ObjID)
	assert.Equal(t, arr.Tree.RootHash(), rebuilt.Tree.RootHash())
}

func TestReorderChangesRoot(t *testing.T) {
	arr := buildTestArray(t, 6)

	b := arr.ToBuilder()
	first, ok := b.Pop()
	require.True(t, ok)
	require.NoError(t, b.Insert(0, first))
	rebuilt, err := b.Build(context.Background(), NewMemoryBackend())
	require.NoError(t, err)

	assert.NotEqual(t, arr.Tree.RootHash(), rebuilt.Tree.RootHash())
}

func TestProofVerifiesAndCrossProofFails(t *testing.T) {
	arr := buildTestArray(t, 100)
	root := arr.Tree.RootHash()

	id0, proof0, err := arr.GetWithProof(0)
	require.NoError(t, err)
	assert.True(t, VerifyProof(arr.Method, id0, proof0, root))

	id1, proof1, err := arr.GetWithProof(1)
	require.NoError(t, err)
	assert.True(t, VerifyProof(arr.Method, id1, proof1, root))

	// swapping proofs between two indexes must not verify
	assert.False(t, VerifyProof(arr.Method, id0, proof1, root))
	assert.False(t, VerifyProof(arr.Method, id1, proof0, root))
}

func TestProofFailsAgainstWrongRoot(t *testing.T) {
	arr := buildTestArray(t, 7)
	other := buildTestArray(t, 9)

	id, proof, err := arr.GetWithProof(4)
	require.NoError(t, err)
	assert.False(t, VerifyProof(arr.Method, id, proof, other.Tree.RootHash()))
}

func TestJSONFileBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arr.json")
	backend := NewJSONFileBackend(path)

	b := NewBuilder(objid.HashSHA256)
	for i := 0; i < 12; i++ {
		b.Append(testID(t, fmt.Sprintf("persisted-%d", i)))
	}
	arr, err := b.Build(context.Background(), backend)
	require.NoError(t, err)

	reloaded, err := Load(context.Background(), objid.HashSHA256, NewJSONFileBackend(path))
	require.NoError(t, err)
	assert.Equal(t, arr.ObjID, reloaded.ObjID)
	assert.Equal(t, arr.Items, reloaded.Items)
}

func TestSQLBackendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arr.sqlite")
	backend, err := OpenSQLBackend(path)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	b := NewBuilder(objid.HashSHA256)
	for i := 0; i < 300; i++ {
		b.Append(testID(t, fmt.Sprintf("row-%d", i)))
	}
	arr, err := b.Build(context.Background(), backend)
	require.NoError(t, err)

	reopened, err := OpenSQLBackend(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })
	reloaded, err := Load(context.Background(), objid.HashSHA256, reopened)
	require.NoError(t, err)
	assert.Equal(t, arr.ObjID, reloaded.ObjID)
	require.Equal(t, 300, reloaded.Len())
}

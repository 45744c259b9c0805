package pathobjectmap

import (
	"context"
	"testing"

	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/buckyos/ndnd/pkg/ndn/trieobjectmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathObjectMapPutGetRemove(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, trieobjectmap.NewMemoryNodeStore())

	fileID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("contents"))
	require.NoError(t, err)

	require.NoError(t, m.Put(ctx, "/etc/hosts", fileID.ToObjId(), nil))
	got, _, ok, err := m.Get(ctx, "/etc/hosts")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fileID.ToObjId(), got)
	assert.Equal(t, uint64(1), m.Count())

	_, _, ok, err = m.Remove(ctx, "/etc/hosts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), m.Count())
}

func TestPathObjectMapBodyObjType(t *testing.T) {
	ctx := context.Background()
	m := New(objid.HashSHA256, trieobjectmap.NewMemoryNodeStore())
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("x"))
	require.NoError(t, err)
	require.NoError(t, m.Put(ctx, "/x", id.ToObjId(), nil))

	_, objID, err := m.Body()
	require.NoError(t, err)
	assert.Equal(t, objid.ObjTypePathObjectMap, objID.ObjType)
}

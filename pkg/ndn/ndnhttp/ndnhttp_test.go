package ndnhttp

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/buckyos/ndnd/pkg/ndn/chunkstore"
	ndnerrors "github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/mtree"
	"github.com/buckyos/ndnd/pkg/ndn/objectmap"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *chunkstore.Store {
	t.Helper()
	s, err := chunkstore.Open(chunkstore.Config{Root: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestServer(t *testing.T, store *chunkstore.Store) (*httptest.Server, *Client) {
	t.Helper()
	srv := NewServer(Config{}, store)
	ts := httptest.NewServer(srv.router())
	t.Cleanup(ts.Close)
	return ts, NewClient(ts.URL)
}

func TestURLRoundTrip(t *testing.T) {
	cid, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("payload"))
	require.NoError(t, err)

	u := BuildURL(cid.ToObjId(), "")
	got, subPath, err := ObjIDFromURL(u)
	require.NoError(t, err)
	assert.Equal(t, cid.ToObjId(), got)
	assert.Equal(t, "", subPath)

	u2 := BuildURL(cid.ToObjId(), "/users/alice")
	got2, subPath2, err := ObjIDFromURL(u2)
	require.NoError(t, err)
	assert.Equal(t, cid.ToObjId(), got2)
	assert.Equal(t, "/users/alice", subPath2)
}

func TestPushThenPullChunk(t *testing.T) {
	store := openTestStore(t)
	_, client := newTestServer(t, store)

	data := []byte("cross-zone payload bytes")
	chunkID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)

	require.NoError(t, client.PushChunk(context.Background(), chunkID, data))

	got, err := client.PullChunk(context.Background(), chunkID)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPullChunkMissingIsNotFound(t *testing.T) {
	store := openTestStore(t)
	_, client := newTestServer(t, store)

	chunkID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("never pushed"))
	require.NoError(t, err)

	_, err = client.PullChunk(context.Background(), chunkID)
	assert.Error(t, err)
}

func TestPutThenGetObject(t *testing.T) {
	store := openTestStore(t)
	_, client := newTestServer(t, store)

	body := []byte(`{"hash_method":"sha256","root_hash":"xyz","total_count":3}`)
	id, _, err := objid.CanonicalizeAndID(objid.ObjTypeObjectArray, objid.HashSHA256, struct {
		HashMethod string `json:"hash_method"`
		RootHash   string `json:"root_hash"`
		TotalCount int    `json:"total_count"`
	}{"sha256", "xyz", 3})
	require.NoError(t, err)

	require.NoError(t, client.PutObject(context.Background(), id, body))

	got, headers, err := client.GetObject(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, id, headers.ObjID)
	assert.Equal(t, uint64(len(body)), headers.DataSize)
	assert.NotEmpty(t, got)
}

func TestPullChunkRange(t *testing.T) {
	store := openTestStore(t)
	_, client := newTestServer(t, store)

	data := []byte("0123456789abcdef")
	chunkID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)
	require.NoError(t, client.PushChunk(context.Background(), chunkID, data))

	got, err := client.PullChunkRange(context.Background(), chunkID, 4, 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("4567"), got)
}

func TestGetSubObjectWithProof(t *testing.T) {
	store := openTestStore(t)
	collDir := t.TempDir()
	ctx := context.Background()
	method := objid.HashSHA256

	valueFor := func(name string) objid.ObjId {
		h, err := objid.CalcHash(method, []byte(name))
		require.NoError(t, err)
		id, err := objid.New(objid.ObjTypeFile, h)
		require.NoError(t, err)
		return id
	}

	m := objectmap.New(method, objectmap.NewMemoryStorage())
	for _, key := range []string{"users/alice", "users/bob", "users/carol"} {
		require.NoError(t, m.Put(ctx, key, valueFor(key)))
	}
	require.NoError(t, m.Flush(ctx))

	// materialize the map where the resolver expects it: one JSON file
	// named after the map's obj id in the collections directory
	items, err := m.Iter(ctx)
	require.NoError(t, err)
	fileName := strings.ReplaceAll(m.ObjID().String(), ":", "_") + ".json"
	fileStorage := objectmap.NewJSONFileStorage(filepath.Join(collDir, fileName))
	require.NoError(t, fileStorage.Save(ctx, items))

	mapID, canon, err := objid.CanonicalizeAndID(objid.ObjTypeObjectMap, method, m.Body())
	require.NoError(t, err)
	require.Equal(t, m.ObjID(), mapID)
	require.NoError(t, store.PutObject(ctx, mapID, []byte(canon)))

	aliceID := valueFor("users/alice")
	innerBody := []byte(`{"name":"alice"}`)
	require.NoError(t, store.PutObject(ctx, aliceID, innerBody))

	srv := NewServer(Config{Resolver: NewMapResolver(store, collDir)}, store)
	ts := httptest.NewServer(srv.router())
	t.Cleanup(ts.Close)
	client := NewClient(ts.URL)

	body, headers, err := client.GetObject(ctx, mapID, "/users/alice")
	require.NoError(t, err)

	assert.Equal(t, aliceID, headers.ObjID)
	require.NotNil(t, headers.RootObjID)
	assert.Equal(t, mapID, *headers.RootObjID)
	assert.Equal(t, innerBody, body)
	require.Len(t, headers.Embedded, 1)
	assert.Equal(t, aliceID, headers.Embedded[0].ID)

	var proof []mtree.ProofEntry
	require.NoError(t, cbor.Unmarshal(headers.MtreePath, &proof))
	rootHash, err := objid.DecodeBase32(m.Body().RootHash)
	require.NoError(t, err)
	itemProof := &objectmap.ItemProof{
		Item:  objectmap.Item{Key: "users/alice", Value: aliceID},
		Proof: proof,
	}
	assert.True(t, objectmap.VerifyProof(method, itemProof, rootHash))

	_, _, err = client.GetObject(ctx, mapID, "/users/nobody")
	assert.Error(t, err)
}

func TestPullChunkToStoreCrossZone(t *testing.T) {
	zoneA := openTestStore(t)
	_, clientA := newTestServer(t, zoneA)

	data := bytes.Repeat([]byte("zone a payload "), 4096)
	chunkID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)
	require.NoError(t, zoneA.PutChunk(context.Background(), chunkID, data, false))

	zoneB := openTestStore(t)
	require.NoError(t, clientA.PullChunkToStore(context.Background(), chunkID, zoneB))

	ok, size, err := zoneB.IsChunkExist(context.Background(), chunkID, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(len(data)), size)

	r, err := zoneB.OpenRead(context.Background(), chunkID)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// second pull is a no-op against the completed local copy
	require.NoError(t, clientA.PullChunkToStore(context.Background(), chunkID, zoneB))
}

func TestPullChunkToStoreRejectsTamperedBytes(t *testing.T) {
	data := []byte("advertised chunk content, before tampering")
	chunkID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)

	tampered := append([]byte(nil), data...)
	for i := 0; i < 10; i++ {
		tampered[i] ^= 0xff
	}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(tampered)
	}))
	t.Cleanup(ts.Close)

	local := openTestStore(t)
	err = NewClient(ts.URL).PullChunkToStore(context.Background(), chunkID, local)
	require.ErrorIs(t, err, ndnerrors.ErrVerifyFailed)

	state, err := local.QueryState(context.Background(), chunkID)
	require.NoError(t, err)
	assert.Equal(t, chunkstore.ChunkStateNotExist, state)
}

func TestPullThroughForwarderOnLocalMiss(t *testing.T) {
	upstream := openTestStore(t)
	_, upstreamClient := newTestServer(t, upstream)

	data := []byte("upstream-only bytes")
	chunkID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)
	require.NoError(t, upstream.PutChunk(context.Background(), chunkID, data, false))

	edge := openTestStore(t)
	srv := NewServer(Config{Forwarder: &StoreForwarder{Client: upstreamClient, Store: edge}}, edge)
	ts := httptest.NewServer(srv.router())
	t.Cleanup(ts.Close)

	got, err := NewClient(ts.URL).PullChunk(context.Background(), chunkID)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	ok, _, err := edge.IsChunkExist(context.Background(), chunkID, false)
	require.NoError(t, err)
	assert.True(t, ok, "pull-through completes the chunk at the edge store")
}

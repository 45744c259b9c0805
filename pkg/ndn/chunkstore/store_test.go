package chunkstore

import (
	"context"
	"io"
	"testing"

	ndnerrors "github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Config{Root: dir})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func writeChunk(t *testing.T, s *Store, data []byte) objid.ChunkId {
	t.Helper()
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)

	w, err := s.BeginWrite(context.Background(), id, uint64(len(data)))
	require.NoError(t, err)
	require.NotNil(t, w)
	_, err = w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Complete(context.Background()))
	return id
}

func TestWriteThenRead(t *testing.T) {
	s := openTestStore(t)
	data := []byte("hello chunk store")
	id := writeChunk(t, s, data)

	state, err := s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateCompleted, state)

	r, err := s.OpenRead(context.Background(), id)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUnknownChunkIsNotExist(t *testing.T) {
	s := openTestStore(t)
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("never written"))
	require.NoError(t, err)
	state, err := s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateNotExist, state)
}

func TestTamperedBytesFailVerification(t *testing.T) {
	s := openTestStore(t)
	data := []byte("tamper me")
	realID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)

	tampered := []byte("not the same bytes at all")
	w, err := s.BeginWrite(context.Background(), realID, uint64(len(tampered)))
	require.NoError(t, err)
	_, err = w.Write(tampered)
	require.NoError(t, err)
	err = w.Complete(context.Background())
	require.ErrorIs(t, err, ndnerrors.ErrVerifyFailed)

	state, err := s.QueryState(context.Background(), realID)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateNotExist, state)
}

func TestDoubleWriteIsExclusive(t *testing.T) {
	s := openTestStore(t)
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("exclusive"))
	require.NoError(t, err)

	w1, err := s.BeginWrite(context.Background(), id, 9)
	require.NoError(t, err)
	require.NotNil(t, w1)

	_, err = s.BeginWrite(context.Background(), id, 9)
	assert.Error(t, err)

	require.NoError(t, w1.Abort())

	w2, err := s.BeginWrite(context.Background(), id, 9)
	require.NoError(t, err)
	require.NotNil(t, w2)
	require.NoError(t, w2.Abort())
}

func TestReopenCompletedChunkIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	data := []byte("idempotent reopen")
	id := writeChunk(t, s, data)

	w, err := s.BeginWrite(context.Background(), id, uint64(len(data)))
	require.ErrorIs(t, err, ndnerrors.ErrAlreadyExists)
	assert.Nil(t, w)
}

func TestLinkSameAsResolvesToTarget(t *testing.T) {
	s := openTestStore(t)
	data := []byte("link target bytes")
	target := writeChunk(t, s, data)

	aliasID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("alias id, never written"))
	require.NoError(t, err)
	aliasObjID := aliasID.String()
	require.NoError(t, s.PutLink(context.Background(), aliasObjID, LinkData{Kind: LinkSameAs, SameAs: target.String()}))

	r, err := s.OpenRead(context.Background(), mustParseChunkID(t, aliasObjID))
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestPutLinkRejectsConflictAndMissingTarget(t *testing.T) {
	s := openTestStore(t)
	target := writeChunk(t, s, []byte("link target bytes"))
	aliasObjID := "file:aliasplaceholder0000000000000000000000000000000000000000"

	require.NoError(t, s.PutLink(context.Background(), aliasObjID, LinkData{Kind: LinkSameAs, SameAs: target.String()}))

	err := s.PutLink(context.Background(), aliasObjID, LinkData{Kind: LinkSameAs, SameAs: target.String()})
	require.ErrorIs(t, err, ndnerrors.ErrAlreadyExists)

	missingID, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("never written"))
	require.NoError(t, err)
	err = s.PutLink(context.Background(), "file:otheralias00000000000000000000000000000000000000000000", LinkData{Kind: LinkSameAs, SameAs: missingID.String()})
	require.ErrorIs(t, err, ndnerrors.ErrNotFound)
}

func TestQueryLinkRefsReturnsSources(t *testing.T) {
	s := openTestStore(t)
	target := writeChunk(t, s, []byte("link target bytes"))
	alias1 := "file:alias1placeholder0000000000000000000000000000000000000"
	alias2 := "file:alias2placeholder0000000000000000000000000000000000000"

	require.NoError(t, s.PutLink(context.Background(), alias1, LinkData{Kind: LinkSameAs, SameAs: target.String()}))
	require.NoError(t, s.PutLink(context.Background(), alias2, LinkData{Kind: LinkSameAs, SameAs: target.String()}))

	refs, err := s.QueryLinkRefs(context.Background(), target.String())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{alias1, alias2}, refs)
}

func TestLinkDataRoundTrip(t *testing.T) {
	cases := []LinkData{
		{Kind: LinkSameAs, SameAs: "file:abc123"},
		{Kind: LinkPartOf, PartOfID: "sha256:deadbeef", RangeStart: 10, RangeEnd: 20},
	}
	for _, c := range cases {
		s := c.String()
		parsed, err := ParseLinkData(s)
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
}

func TestListChunksReturnsAllRows(t *testing.T) {
	s := openTestStore(t)
	id1 := writeChunk(t, s, []byte("first"))
	id2 := writeChunk(t, s, []byte("second, a bit longer"))

	items, err := s.ListChunks(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	seen := map[string]*ChunkItem{}
	for _, it := range items {
		seen[it.ChunkID] = it
	}
	require.Contains(t, seen, id1.String())
	require.Contains(t, seen, id2.String())
	assert.Equal(t, ChunkStateCompleted, seen[id1.String()].State)
}

func TestDisableBlocksReadsButKeepsRow(t *testing.T) {
	s := openTestStore(t)
	data := []byte("disable me")
	id := writeChunk(t, s, data)

	require.NoError(t, s.Disable(context.Background(), id))

	state, err := s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateDisabled, state)

	_, err = s.OpenRead(context.Background(), id)
	assert.Error(t, err)

	items, err := s.ListChunks(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, s.Disable(context.Background(), id))
}

func mustParseChunkID(t *testing.T, s string) objid.ChunkId {
	t.Helper()
	id, err := objid.ParseChunkID(s)
	require.NoError(t, err)
	return id
}

func TestIsChunkExistReportsSize(t *testing.T) {
	s := openTestStore(t)
	data := []byte("exists with size")
	id := writeChunk(t, s, data)

	ok, size, err := s.IsChunkExist(context.Background(), id, false)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(len(data)), size)

	missing, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("never written"))
	require.NoError(t, err)
	ok, size, err = s.IsChunkExist(context.Background(), missing, false)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, size)
}

func TestIsChunkExistIncludesIncomplete(t *testing.T) {
	s := openTestStore(t)
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("partial"))
	require.NoError(t, err)

	w, err := s.BeginWrite(context.Background(), id, 7)
	require.NoError(t, err)
	t.Cleanup(func() { w.Abort() })

	ok, _, err := s.IsChunkExist(context.Background(), id, false)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, size, err := s.IsChunkExist(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), size)
}

func TestPutChunkVerifiesBeforeWriting(t *testing.T) {
	s := openTestStore(t)
	data := []byte("put chunk convenience")
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)

	err = s.PutChunk(context.Background(), id, []byte("wrong bytes"), false)
	require.ErrorIs(t, err, ndnerrors.ErrVerifyFailed)
	state, err := s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateNotExist, state)

	require.NoError(t, s.PutChunk(context.Background(), id, data, true))
	state, err = s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateNotExist, state, "verify-only must not write")

	require.NoError(t, s.PutChunk(context.Background(), id, data, false))
	r, err := s.OpenRead(context.Background(), id)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	require.NoError(t, s.PutChunk(context.Background(), id, data, false), "re-put of a completed chunk is a no-op")
}

func TestOpenReadAtSeeksAndVerifies(t *testing.T) {
	s := openTestStore(t)
	data := []byte("0123456789abcdef")
	id := writeChunk(t, s, data)

	r, size, err := s.OpenReadAt(context.Background(), id, 10, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), size)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	assert.Equal(t, data[10:], got)

	r, size, err = s.OpenReadAt(context.Background(), id, 0, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(len(data)), size)
	got, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	require.NoError(t, r.Close())

	_, _, err = s.OpenReadAt(context.Background(), id, 5, true)
	require.ErrorIs(t, err, ndnerrors.ErrInvalidData)

	_, _, err = s.OpenReadAt(context.Background(), id, uint64(len(data))+1, false)
	require.ErrorIs(t, err, ndnerrors.ErrInvalidData)
}

func TestInstanceIDSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Root: dir})
	require.NoError(t, err)
	first := s.InstanceID()
	require.NotEmpty(t, first)
	require.NoError(t, s.Close())

	s, err = Open(Config{Root: dir})
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, first, s.InstanceID())
}

func TestDiscardIncompleteOnReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Root: dir})
	require.NoError(t, err)

	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, []byte("dropped writer"))
	require.NoError(t, err)
	_, err = s.BeginWrite(context.Background(), id, 14)
	require.NoError(t, err)
	// drop the writer without Complete or Abort
	require.NoError(t, s.Close())

	s, err = Open(Config{Root: dir})
	require.NoError(t, err)
	state, err := s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateIncompleted, state, "default policy retains incomplete rows")
	require.NoError(t, s.Close())

	s, err = Open(Config{Root: dir, DiscardIncomplete: true})
	require.NoError(t, err)
	defer s.Close()
	state, err = s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateNotExist, state)
}

func TestSuspendThenResumeWrite(t *testing.T) {
	s := openTestStore(t)
	data := []byte("first half and then the second half")
	id, err := objid.CalcChunkIDFromBytes(objid.HashSHA256, data)
	require.NoError(t, err)

	w, err := s.BeginWrite(context.Background(), id, uint64(len(data)))
	require.NoError(t, err)
	assert.Zero(t, w.Offset())
	_, err = w.Write(data[:15])
	require.NoError(t, err)
	require.NoError(t, w.Suspend())

	state, err := s.QueryState(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, ChunkStateIncompleted, state)

	w, err = s.BeginWrite(context.Background(), id, uint64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, uint64(15), w.Offset())
	_, err = w.Write(data[15:])
	require.NoError(t, err)
	require.NoError(t, w.Complete(context.Background()))

	r, err := s.OpenRead(context.Background(), id)
	require.NoError(t, err)
	defer r.Close()
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

package chunkstore

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/buckyos/ndnd/internal/logger"
	"github.com/buckyos/ndnd/pkg/metrics"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// maxLinkDepth bounds forward-walks through the link table, preventing
// an accidental or adversarial cycle from hanging a resolve.
const maxLinkDepth = 8

// Store is the single-process chunk store: a badger index tracking
// each chunk's lifecycle state plus a sharded filesystem byte tier.
type Store struct {
	root       string
	instanceID string
	db         *badger.DB

	writeMu sync.Mutex
	writers map[string]struct{} // chunk ids with an open writer, enforces exclusivity

	remote          RemoteTier
	remoteThreshold uint64 // Completed chunks at or above this size are pushed to remote
	metrics         *metrics.ChunkStoreMetrics
}

// Config configures a Store.
type Config struct {
	// Root is the directory holding the badger index and chunk bytes.
	Root string

	// Remote is an optional byte tier (e.g. S3) for large Completed
	// chunks. When nil, every chunk lives only on the local filesystem.
	Remote RemoteTier

	// RemoteThreshold is the chunk size at or above which Complete
	// pushes bytes to Remote in addition to the local copy. Ignored
	// when Remote is nil. Zero means "push everything".
	RemoteThreshold uint64

	// Metrics is an optional nil-safe metrics sink (see pkg/metrics).
	Metrics *metrics.ChunkStoreMetrics

	// DiscardIncomplete drops Incompleted rows (and their stray tmp
	// files) when the store is opened. The default is to retain them so
	// a later pull can resume from the recorded progress.
	DiscardIncomplete bool
}

// Open opens or creates a Store rooted at cfg.Root.
func Open(cfg Config) (*Store, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: root is required", errors.ErrInvalidData)
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(cfg.Root, "chunks"), 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(cfg.Root, "objs"), 0o755); err != nil {
		return nil, err
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Root, "index.db")).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open chunk index: %w", err)
	}

	s := &Store{
		root:            cfg.Root,
		db:              db,
		writers:         make(map[string]struct{}),
		remote:          cfg.Remote,
		remoteThreshold: cfg.RemoteThreshold,
		metrics:         cfg.Metrics,
	}
	if err := s.loadInstanceID(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.scanIncomplete(cfg.DiscardIncomplete); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InstanceID returns the store's persistent manager id, generated on
// first open.
func (s *Store) InstanceID() string {
	return s.instanceID
}

func (s *Store) loadInstanceID() error {
	return s.db.Update(func(txn *badger.Txn) error {
		it, err := txn.Get([]byte(keyInstanceID))
		if err == badger.ErrKeyNotFound {
			id := uuid.NewString()
			if err := txn.Set([]byte(keyInstanceID), []byte(id)); err != nil {
				return err
			}
			s.instanceID = id
			return nil
		}
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			s.instanceID = string(val)
			return nil
		})
	})
}

// scanIncomplete walks the index for rows left in New/Incompleted by
// writers that were dropped before Complete. With discard set the rows
// are removed; otherwise they are retained for a later resumed pull.
func (s *Store) scanIncomplete(discard bool) error {
	var stale []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixChunk)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				item, err := decodeChunkItem(val)
				if err != nil {
					return err
				}
				if item.State == ChunkStateNew || item.State == ChunkStateIncompleted {
					stale = append(stale, item.ChunkID)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(stale) == 0 {
		return nil
	}

	if !discard {
		logger.Info("chunk store has incomplete chunks, retaining for resume", "count", len(stale))
		return nil
	}
	for _, id := range stale {
		if err := s.deleteItem(id); err != nil {
			return err
		}
		matches, _ := filepath.Glob(chunkPath(s.root, id) + ".tmp.*")
		for _, m := range matches {
			os.Remove(m)
		}
	}
	logger.Info("chunk store discarded incomplete chunks", "count", len(stale))
	return nil
}

// Close releases the badger index.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) getItem(chunkID string) (*ChunkItem, error) {
	var item *ChunkItem
	err := s.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(keyChunk(chunkID))
		if err == badger.ErrKeyNotFound {
			return errors.ErrNotFound
		}
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			decoded, err := decodeChunkItem(val)
			if err != nil {
				return err
			}
			item = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Store) putItem(item *ChunkItem) error {
	enc, err := item.encode()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyChunk(item.ChunkID), enc)
	})
}

// deleteItem drops a chunk's index row entirely, after which
// QueryState reports it as ChunkStateNotExist (the "unknown id"
// fallback), matching complete_chunk_writer's verify-failure contract.
func (s *Store) deleteItem(chunkID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyChunk(chunkID))
	})
}

// QueryState returns the lifecycle state of a chunk id. Unknown chunk
// ids report ChunkStateNotExist rather than an error, matching the
// state machine's orthogonal NotExist state.
func (s *Store) QueryState(ctx context.Context, chunkID objid.ChunkId) (ChunkState, error) {
	item, err := s.getItem(chunkID.String())
	if err == errors.ErrNotFound {
		return ChunkStateNotExist, nil
	}
	if err != nil {
		return "", err
	}
	return item.State, nil
}

// BeginWrite opens a new chunk for writing, returning a ChunkWriter.
// Only one writer may be open per chunk id at a time; re-opening a
// chunk that already has a Completed row fails with ErrAlreadyExists,
// the idempotence rule a caller uses to tell "already have it" apart
// from "needs writing". declaredSize is recorded on the index row
// immediately, since chunk_size is known at New time rather than only
// once the bytes land.
func (s *Store) BeginWrite(ctx context.Context, chunkID objid.ChunkId, declaredSize uint64) (*ChunkWriter, error) {
	id := chunkID.String()
	logOp(ctx, "chunkstore.BeginWrite", id)

	existing, err := s.getItem(id)
	if err != nil && err != errors.ErrNotFound {
		return nil, err
	}
	if existing != nil && existing.State == ChunkStateCompleted {
		return nil, fmt.Errorf("%w: chunk %s already completed", errors.ErrAlreadyExists, id)
	}

	s.writeMu.Lock()
	if _, busy := s.writers[id]; busy {
		s.writeMu.Unlock()
		return nil, fmt.Errorf("%w: chunk %s has an open writer", errors.ErrBusy, id)
	}
	s.writers[id] = struct{}{}
	s.writeMu.Unlock()
	s.metrics.WriterOpened()

	if existing != nil && existing.State == ChunkStateIncompleted {
		if w, ok := s.resumeWriter(chunkID, existing); ok {
			return w, nil
		}
	}

	now := time.Now().UnixMilli()
	item := &ChunkItem{ChunkID: id, ChunkSize: declaredSize, State: ChunkStateNew, CreateTime: now, UpdateTime: now}
	if err := s.putItem(item); err != nil {
		s.releaseWriter(id)
		return nil, err
	}

	path := chunkPath(s.root, id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		s.releaseWriter(id)
		return nil, err
	}
	tmpPath := tmpChunkPath(s.root, id, uuid.NewString())
	f, err := os.Create(tmpPath)
	if err != nil {
		s.releaseWriter(id)
		return nil, err
	}

	item.State = ChunkStateIncompleted
	item.UpdateTime = time.Now().UnixMilli()
	if err := s.putItem(item); err != nil {
		f.Close()
		s.releaseWriter(id)
		return nil, err
	}

	return &ChunkWriter{store: s, chunkID: chunkID, f: f, tmpPath: tmpPath}, nil
}

// resumeWriter reopens a suspended partial write recorded on item's
// progress cursor. ok is false when the cursor is absent or its tmp
// file no longer matches the recorded byte count, in which case the
// caller restarts from zero. The caller already holds the write latch.
func (s *Store) resumeWriter(chunkID objid.ChunkId, item *ChunkItem) (*ChunkWriter, bool) {
	written, tmpPath, ok := parseProgress(item.Progress)
	if !ok {
		return nil, false
	}
	st, err := os.Stat(tmpPath)
	if err != nil || uint64(st.Size()) != written {
		os.Remove(tmpPath)
		return nil, false
	}
	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, false
	}
	return &ChunkWriter{store: s, chunkID: chunkID, f: f, tmpPath: tmpPath, size: written}, true
}

func (s *Store) releaseWriter(chunkID string) {
	s.writeMu.Lock()
	delete(s.writers, chunkID)
	s.writeMu.Unlock()
	s.metrics.WriterClosed()
}

// OpenRead opens a reader for a completed chunk, resolving through the
// link table when the chunk id is an alias.
func (s *Store) OpenRead(ctx context.Context, chunkID objid.ChunkId) (io.ReadCloser, error) {
	rc, _, err := s.OpenReadAt(ctx, chunkID, 0, false)
	return rc, err
}

// OpenReadAt opens a bounded reader positioned seekFrom bytes into a
// completed chunk, returning the chunk's full byte size alongside the
// reader. With verify set, the reader tees through a running hasher
// and Close reports ErrVerifyFailed when the fully-consumed stream
// does not hash back to the served chunk id; verify requires
// seekFrom == 0, since a partial read can never prove the digest.
func (s *Store) OpenReadAt(ctx context.Context, chunkID objid.ChunkId, seekFrom uint64, verify bool) (io.ReadCloser, uint64, error) {
	logOp(ctx, "chunkstore.OpenReadAt", chunkID.String())
	resolved, rangeStart, rangeEnd, hasRange, err := s.resolveLink(ctx, chunkID.String(), 0)
	if err != nil {
		return nil, 0, err
	}

	item, err := s.getItem(resolved)
	if err != nil {
		if err == errors.ErrNotFound {
			return nil, 0, fmt.Errorf("%w: chunk %s", errors.ErrNotFound, chunkID.String())
		}
		return nil, 0, err
	}
	if item.State != ChunkStateCompleted {
		return nil, 0, fmt.Errorf("%w: chunk %s is not complete (state=%s)", errors.ErrNotFound, chunkID.String(), item.State)
	}

	size := item.ChunkSize
	if hasRange {
		size = rangeEnd - rangeStart
	}
	if seekFrom > size {
		return nil, 0, fmt.Errorf("%w: seek %d beyond chunk size %d", errors.ErrInvalidData, seekFrom, size)
	}
	if verify && (seekFrom != 0 || hasRange) {
		return nil, 0, fmt.Errorf("%w: cannot verify a partial chunk read", errors.ErrInvalidData)
	}

	rc, err := s.openResolved(ctx, resolved, rangeStart+seekFrom, size-seekFrom, hasRange || seekFrom > 0)
	if err != nil {
		return nil, 0, err
	}
	if !verify {
		return rc, size, nil
	}

	vrc, err := newVerifyingReadCloser(rc, resolved, size)
	if err != nil {
		rc.Close()
		return nil, 0, err
	}
	return vrc, size, nil
}

// openResolved opens the bytes of a resolved (non-alias) chunk id,
// local-first with remote fallback. start is the absolute byte offset
// within the stored chunk, length the bytes to expose; bounded is false
// when the caller wants the whole chunk as-is.
func (s *Store) openResolved(ctx context.Context, resolved string, start, length uint64, bounded bool) (io.ReadCloser, error) {
	opened := time.Now()
	f, err := os.Open(chunkPath(s.root, resolved))
	if err != nil {
		if os.IsNotExist(err) && s.remote != nil {
			return s.openRemote(ctx, resolved, start, length, bounded)
		}
		return nil, err
	}
	if !bounded {
		s.metrics.ObserveRead("local", time.Since(opened))
		return f, nil
	}
	if _, err := f.Seek(int64(start), io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	s.metrics.ObserveRead("local", time.Since(opened))
	return &boundedReadCloser{r: io.LimitReader(f, int64(length)), c: f}, nil
}

// openRemote fetches bytes through the optional remote tier when the
// local copy of a Completed chunk has been evicted from disk.
func (s *Store) openRemote(ctx context.Context, resolved string, start, length uint64, bounded bool) (io.ReadCloser, error) {
	opened := time.Now()
	if bounded {
		rc, err := s.remote.GetRange(ctx, resolved, start, start+length)
		if err != nil {
			return nil, err
		}
		s.metrics.ObserveRead("remote", time.Since(opened))
		return rc, nil
	}
	rc, err := s.remote.Get(ctx, resolved)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveRead("remote", time.Since(opened))
	return rc, nil
}

type boundedReadCloser struct {
	r io.Reader
	c io.Closer
}

func (b *boundedReadCloser) Read(p []byte) (int, error) { return b.r.Read(p) }
func (b *boundedReadCloser) Close() error { return b.c.Close() }

// verifyingReadCloser tees every read through a running hasher; Close
// fails with ErrVerifyFailed when the stream was fully consumed and
// the digest does not match the served chunk id.
type verifyingReadCloser struct {
	rc        io.ReadCloser
	h         hash.Hash
	want      []byte
	remaining uint64
	chunkID   string
}

func newVerifyingReadCloser(rc io.ReadCloser, resolved string, size uint64) (*verifyingReadCloser, error) {
	cid, err := objid.ParseChunkID(resolved)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot verify reads of non-chunk id %s", errors.ErrInvalidData, resolved)
	}
	h, err := cid.HashMethod().New()
	if err != nil {
		return nil, err
	}
	want, err := cid.ObjHash()
	if err != nil {
		return nil, err
	}
	return &verifyingReadCloser{rc: rc, h: h, want: want, remaining: size, chunkID: resolved}, nil
}

func (v *verifyingReadCloser) Read(p []byte) (int, error) {
	n, err := v.rc.Read(p)
	if n > 0 {
		v.h.Write(p[:n])
		v.remaining -= uint64(n)
	}
	return n, err
}

func (v *verifyingReadCloser) Close() error {
	if err := v.rc.Close(); err != nil {
		return err
	}
	if v.remaining != 0 {
		return nil // stream not fully consumed, nothing to prove
	}
	if !bytes.Equal(v.h.Sum(nil), v.want) {
		return fmt.Errorf("%w: chunk %s read digest mismatch", errors.ErrVerifyFailed, v.chunkID)
	}
	return nil
}

// IsChunkExist reports whether chunkID's bytes are readable (state
// Completed, possibly through an alias) and the byte size they would
// expose. With includeIncomplete set, New/Incompleted rows count too,
// reporting their declared size.
func (s *Store) IsChunkExist(ctx context.Context, chunkID objid.ChunkId, includeIncomplete bool) (bool, uint64, error) {
	resolved, rangeStart, rangeEnd, hasRange, err := s.resolveLink(ctx, chunkID.String(), 0)
	if err != nil {
		return false, 0, err
	}
	item, err := s.getItem(resolved)
	if err == errors.ErrNotFound {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	size := item.ChunkSize
	if hasRange {
		size = rangeEnd - rangeStart
	}
	switch item.State {
	case ChunkStateCompleted:
		return true, size, nil
	case ChunkStateNew, ChunkStateIncompleted:
		if includeIncomplete {
			return true, size, nil
		}
		return false, 0, nil
	default:
		return false, 0, nil
	}
}

// PutChunk writes a whole chunk in one call, verifying data against
// chunkID before any byte lands. With verifyOnly set nothing is
// written; the call just reports whether data matches chunkID.
// Putting a chunk that is already Completed is a no-op.
func (s *Store) PutChunk(ctx context.Context, chunkID objid.ChunkId, data []byte, verifyOnly bool) error {
	logOp(ctx, "chunkstore.PutChunk", chunkID.String())
	want, err := chunkID.ObjHash()
	if err != nil {
		return err
	}
	got, err := objid.CalcHash(chunkID.HashMethod(), data)
	if err != nil {
		return err
	}
	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w: chunk %s bytes do not match id", errors.ErrVerifyFailed, chunkID.String())
	}
	if verifyOnly {
		return nil
	}

	w, err := s.BeginWrite(ctx, chunkID, uint64(len(data)))
	if err != nil {
		if stderrors.Is(err, errors.ErrAlreadyExists) {
			return nil
		}
		return err
	}
	if w.Offset() > 0 {
		// whole-chunk put, never an append onto a resumed partial
		if err := w.Abort(); err != nil {
			return err
		}
		if w, err = s.BeginWrite(ctx, chunkID, uint64(len(data))); err != nil {
			return err
		}
	}
	if _, err := w.Write(data); err != nil {
		w.Abort()
		return err
	}
	return w.Complete(ctx)
}

// resolveLink forward-walks the link table until it finds a non-link
// chunk id, capped at maxLinkDepth to rule out cycles.
func (s *Store) resolveLink(ctx context.Context, chunkID string, depth int) (resolved string, rangeStart, rangeEnd uint64, hasRange bool, err error) {
	if depth > maxLinkDepth {
		return "", 0, 0, false, fmt.Errorf("%w: link depth exceeded for %s", errors.ErrLinkCycle, chunkID)
	}

	var raw []byte
	getErr := s.db.View(func(txn *badger.Txn) error {
		it, err := txn.Get(keyLink(chunkID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return it.Value(func(val []byte) error {
			raw = append([]byte(nil), val...)
			return nil
		})
	})
	if getErr != nil {
		return "", 0, 0, false, getErr
	}
	if raw == nil {
		return chunkID, 0, 0, false, nil
	}

	link, err := ParseLinkData(string(raw))
	if err != nil {
		return "", 0, 0, false, err
	}
	switch link.Kind {
	case LinkSameAs:
		return s.resolveLink(ctx, link.SameAs, depth+1)
	case LinkPartOf:
		return link.PartOfID, link.RangeStart, link.RangeEnd, true, nil
	default:
		return "", 0, 0, false, fmt.Errorf("%w: unknown link kind for %s", errors.ErrInvalidLink, chunkID)
	}
}

// linkTarget returns the chunk/object id a LinkData points at, the id
// checked for existence and indexed for QueryLinkRefs.
func linkTarget(link LinkData) string {
	if link.Kind == LinkPartOf {
		return link.PartOfID
	}
	return link.SameAs
}

// PutLink records a link from srcObjID onto link. Fails with
// ErrAlreadyExists if srcObjID already has a link row (aliases are
// write-once, not overwritable) and with ErrNotFound if link's target
// has no row of its own to alias.
func (s *Store) PutLink(ctx context.Context, srcObjID string, link LinkData) error {
	logOp(ctx, "chunkstore.PutLink", srcObjID)
	target := linkTarget(link)
	if _, err := s.getItem(target); err != nil {
		if err == errors.ErrNotFound {
			return fmt.Errorf("%w: link target %s", errors.ErrNotFound, target)
		}
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(keyLink(srcObjID)); err == nil {
			return fmt.Errorf("%w: link already set for %s", errors.ErrAlreadyExists, srcObjID)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(keyLink(srcObjID), []byte(link.String()))
	})
}

// QueryLinkRefs returns every source object id that links onto target,
// the reverse of resolveLink's forward walk. The link table has no
// secondary index by target, so this does a full prefix scan; fine for
// operator/debug use, not meant for hot-path lookups.
func (s *Store) QueryLinkRefs(ctx context.Context, target string) ([]string, error) {
	var srcs []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixLink)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			src := string(key[len(prefixLink):])
			err := it.Item().Value(func(val []byte) error {
				link, err := ParseLinkData(string(val))
				if err != nil {
					return err
				}
				if linkTarget(link) == target {
					srcs = append(srcs, src)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return srcs, nil
}

// PutObject writes a small canonical object body (not chunk bytes) by
// its object id, used for container bodies (object array/map/trie
// headers etc.).
func (s *Store) PutObject(ctx context.Context, id objid.ObjId, body []byte) error {
	path := objPath(s.root, id.String())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// GetObject reads back a small object body by id. Container bodies
// (object array/map/trie) carry their own hash method in their meta,
// so hash verification happens in the container layer, which knows
// which method to recompute under; a bare ObjId's ObjType here is a
// container type tag, not a hash method name.
func (s *Store) GetObject(ctx context.Context, id objid.ObjId) ([]byte, error) {
	path := objPath(s.root, id.String())
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: object %s", errors.ErrNotFound, id.String())
		}
		return nil, err
	}
	return data, nil
}

// Disable transitions a chunk to ChunkStateDisabled, an orthogonal
// state that keeps the index row and bytes on disk but refuses further
// reads; used by operator tooling to retire a chunk without deleting
// its audit trail. Re-disabling an already-disabled chunk is a no-op.
func (s *Store) Disable(ctx context.Context, chunkID objid.ChunkId) error {
	logOp(ctx, "chunkstore.Disable", chunkID.String())
	item, err := s.getItem(chunkID.String())
	if err != nil {
		return err
	}
	if item.State == ChunkStateDisabled {
		return nil
	}
	item.State = ChunkStateDisabled
	item.UpdateTime = time.Now().UnixMilli()
	return s.putItem(item)
}

// ListChunks returns every chunk row in the index, for operator
// inspection (ndnctl store list); not meant for hot-path use.
func (s *Store) ListChunks(ctx context.Context) ([]*ChunkItem, error) {
	var items []*ChunkItem
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixChunk)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				decoded, err := decodeChunkItem(val)
				if err != nil {
					return err
				}
				items = append(items, decoded)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func logOp(ctx context.Context, op, chunkID string) {
	logger.DebugCtx(ctx, "chunkstore op", logger.Op(op), logger.ChunkID(chunkID))
}

package chunkstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// ChunkWriter is the exclusive handle returned by Store.BeginWrite. It
// must be completed with Complete (hash verified against chunkID) or
// abandoned with Abort; either releases the per-chunk write lock.
type ChunkWriter struct {
	store   *Store
	chunkID objid.ChunkId
	f       *os.File
	tmpPath string
	size    uint64
	done    bool
}

// Offset returns the number of bytes already written, nonzero when
// BeginWrite resumed a suspended partial write. A puller uses it to
// issue a range request for the remaining bytes.
func (w *ChunkWriter) Offset() uint64 {
	return w.size
}

// Write appends bytes to the chunk under construction.
func (w *ChunkWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, fmt.Errorf("%w: writer already closed", errors.ErrInvalidData)
	}
	n, err := w.f.Write(p)
	w.size += uint64(n)
	return n, err
}

// Complete finalizes the chunk: flushes to disk, recomputes its hash,
// and compares against chunkID. On mismatch the partial bytes are
// discarded, the index row is dropped back to NotExist, and
// ErrVerifyFailed is returned.
func (w *ChunkWriter) Complete(ctx context.Context) error {
	if w.done {
		return fmt.Errorf("%w: writer already closed", errors.ErrInvalidData)
	}
	defer w.release()

	start := time.Now()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}
	if _, err := w.f.Seek(0, 0); err != nil {
		w.f.Close()
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}

	method := w.chunkID.HashMethod()
	h, err := method.New()
	if err != nil {
		w.f.Close()
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}
	if _, err := io.Copy(h, w.f); err != nil {
		w.f.Close()
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}
	w.f.Close()

	wantHash, err := w.chunkID.ObjHash()
	if err != nil {
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}
	gotHash := h.Sum(nil)
	if !bytes.Equal(gotHash, wantHash) {
		os.Remove(w.tmpPath)
		if delErr := w.store.deleteItem(w.chunkID.String()); delErr != nil {
			w.store.metrics.ObserveWrite("io_error", time.Since(start))
			return delErr
		}
		w.store.metrics.IncVerifyFailed()
		w.store.metrics.ObserveWrite("verify_failed", time.Since(start))
		return fmt.Errorf("%w: chunk %s hash mismatch", errors.ErrVerifyFailed, w.chunkID.String())
	}

	finalPath := chunkPath(w.store.root, w.chunkID.String())
	if err := os.Rename(w.tmpPath, finalPath); err != nil {
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}

	id := w.chunkID.String()
	item, err := w.store.getItem(id)
	if err != nil {
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}
	item.State = ChunkStateCompleted
	item.ChunkSize = w.size
	item.Progress = ""
	item.UpdateTime = time.Now().UnixMilli()
	if err := w.store.putItem(item); err != nil {
		w.store.metrics.ObserveWrite("io_error", time.Since(start))
		return err
	}

	w.store.metrics.ObserveWrite("completed", time.Since(start))
	w.store.metrics.AddBytesWritten(int64(w.size))

	if w.store.remote != nil && w.size >= w.store.remoteThreshold {
		if f, openErr := os.Open(finalPath); openErr == nil {
			defer f.Close()
			if pushErr := w.store.remote.Put(ctx, id, f, int64(w.size)); pushErr != nil {
				return nil // remote push is best-effort; local copy already durable
			}
		}
	}

	return nil
}

// Suspend closes the writer, records the bytes written so far on the
// index row's progress cursor, and keeps the partial tmp file so a
// later BeginWrite can resume appending instead of restarting.
func (w *ChunkWriter) Suspend() error {
	if w.done {
		return nil
	}
	defer w.release()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return err
	}
	if err := w.f.Close(); err != nil {
		return err
	}
	item, err := w.store.getItem(w.chunkID.String())
	if err != nil {
		return err
	}
	item.Progress = encodeProgress(w.size, w.tmpPath)
	item.UpdateTime = time.Now().UnixMilli()
	return w.store.putItem(item)
}

// Abort discards the partial chunk and releases the write lock without
// touching the index state (it stays Incompleted for a future retry).
func (w *ChunkWriter) Abort() error {
	if w.done {
		return nil
	}
	defer w.release()
	w.f.Close()
	return os.Remove(w.tmpPath)
}

func (w *ChunkWriter) release() {
	w.done = true
	w.store.releaseWriter(w.chunkID.String())
}


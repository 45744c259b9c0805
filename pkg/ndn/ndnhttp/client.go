package ndnhttp

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/buckyos/ndnd/pkg/ndn/chunkstore"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// Client speaks the NDN HTTP wire convention against a remote stack.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a Client targeting baseURL (e.g.
// "http://peer.example:8765").
func NewClient(baseURL string) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: 0}}
}

// NewClientWithTimeout builds a Client with a bounded per-request
// timeout, useful for pull_chunk calls against unreliable peers.
func NewClientWithTimeout(baseURL string, timeout time.Duration) *Client {
	return &Client{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// PullChunk fetches chunkID's bytes from the peer, verifying the
// returned digest against chunkID before returning.
func (c *Client) PullChunk(ctx context.Context, chunkID objid.ChunkId) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BuildURL(chunkID.ToObjId(), ""), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pull_chunk %s: status %d", errors.ErrNotFound, chunkID.String(), resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	hash, err := chunkID.ObjHash()
	if err != nil {
		return nil, err
	}
	method := chunkID.HashMethod()
	got, err := objid.CalcHash(method, body)
	if err != nil {
		return nil, err
	}
	if string(got) != string(hash) {
		return nil, fmt.Errorf("%w: pull_chunk %s digest mismatch", errors.ErrVerifyFailed, chunkID.String())
	}
	return body, nil
}

// PullChunkRange fetches a byte range of chunkID's bytes via the
// standard Range header; the caller is responsible for verifying the
// range against whatever larger digest it is a part of.
func (c *Client) PullChunkRange(ctx context.Context, chunkID objid.ChunkId, start, end int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BuildURL(chunkID.ToObjId(), ""), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", start, end))
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: pull_chunk range %s: status %d", errors.ErrNotFound, chunkID.String(), resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// PushChunk uploads data under its own content-addressed chunkID.
func (c *Client) PushChunk(ctx context.Context, chunkID objid.ChunkId, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+BuildURL(chunkID.ToObjId(), ""), bytes.NewReader(data))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: push_chunk %s: status %d: %s", errors.ErrInvalidData, chunkID.String(), resp.StatusCode, body)
	}
	return nil
}

// GetObject fetches a container body by ObjId, returning the decoded
// response headers alongside the raw bytes.
func (c *Client) GetObject(ctx context.Context, id objid.ObjId, subPath string) ([]byte, RespHeaders, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BuildURL(id, subPath), nil)
	if err != nil {
		return nil, RespHeaders{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, RespHeaders{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, RespHeaders{}, fmt.Errorf("%w: get_object %s: status %d", errors.ErrNotFound, id.String(), resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, RespHeaders{}, err
	}
	headers, err := ParseRespHeaders(resp.Header)
	if err != nil {
		return nil, RespHeaders{}, err
	}
	return body, headers, nil
}

// PutObject uploads a canonical object body under id.
func (c *Client) PutObject(ctx context.Context, id objid.ObjId, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+BuildURL(id, ""), bytes.NewReader(body))
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		out, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: put_object %s: status %d: %s", errors.ErrInvalidData, id.String(), resp.StatusCode, out)
	}
	return nil
}

// PullChunkToStore streams chunkID's bytes from the peer directly into
// store: the writer's Complete verifies the digest, so a tampered
// transfer fails with ErrVerifyFailed and leaves nothing behind. A
// previous partial pull is resumed with a range request from the
// suspended writer's offset; on a transport error the writer is
// suspended again so the next call picks up where this one stopped.
func (c *Client) PullChunkToStore(ctx context.Context, chunkID objid.ChunkId, store *chunkstore.Store) error {
	declaredSize := uint64(0)
	if n, ok, err := chunkID.EmbeddedLength(); err == nil && ok {
		declaredSize = n
	}

	w, err := store.BeginWrite(ctx, chunkID, declaredSize)
	if err != nil {
		if stderrors.Is(err, errors.ErrAlreadyExists) {
			return nil // already completed locally
		}
		return err
	}
	offset := w.Offset()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+BuildURL(chunkID.ToObjId(), ""), nil)
	if err != nil {
		w.Suspend()
		return err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}
	resp, err := c.http.Do(req)
	if err != nil {
		w.Suspend()
		return err
	}
	defer resp.Body.Close()

	switch {
	case offset > 0 && resp.StatusCode == http.StatusOK:
		// peer ignored the range; restart the transfer from zero
		if err := w.Abort(); err != nil {
			return err
		}
		if w, err = store.BeginWrite(ctx, chunkID, declaredSize); err != nil {
			return err
		}
	case offset > 0 && resp.StatusCode != http.StatusPartialContent,
		offset == 0 && resp.StatusCode != http.StatusOK:
		w.Suspend()
		return fmt.Errorf("%w: pull_chunk %s: status %d", errors.ErrNotFound, chunkID.String(), resp.StatusCode)
	}

	if _, err := io.Copy(w, resp.Body); err != nil {
		w.Suspend()
		return err
	}
	return w.Complete(ctx)
}

// StoreForwarder answers local chunk misses by pulling through a fixed
// upstream NDN endpoint into the local store.
type StoreForwarder struct {
	Client *Client
	Store  *chunkstore.Store
}

func (f *StoreForwarder) PullThrough(ctx context.Context, chunkID objid.ChunkId) error {
	return f.Client.PullChunkToStore(ctx, chunkID, f.Store)
}

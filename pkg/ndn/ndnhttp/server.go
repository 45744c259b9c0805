package ndnhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/buckyos/ndnd/internal/logger"
	"github.com/buckyos/ndnd/internal/telemetry"
	"github.com/buckyos/ndnd/pkg/bufpool"
	"github.com/buckyos/ndnd/pkg/ndn/chunkstore"
	ndnerrors "github.com/buckyos/ndnd/pkg/ndn/errors"
	"github.com/buckyos/ndnd/pkg/ndn/objid"
)

// copyPooled copies with a pooled large-tier buffer instead of the
// io.Copy default 32KB allocation, since chunk bodies routinely run
// into the MiB range.
func copyPooled(dst io.Writer, src io.Reader) (int64, error) {
	buf := bufpool.Get(bufpool.DefaultLargeSize)
	defer bufpool.Put(buf)
	return io.CopyBuffer(dst, src, buf)
}

func copyPooledN(dst io.Writer, src io.Reader, n int64) (int64, error) {
	buf := bufpool.Get(bufpool.DefaultLargeSize)
	defer bufpool.Put(buf)
	return io.CopyBuffer(dst, io.LimitReader(src, n), buf)
}

// Forwarder resolves a chunk the local store doesn't have by
// upstream-pulling it from a remote NDN endpoint, one-shot fetch-through
// per spec. A nil Forwarder disables pull-through; every miss is a 404.
type Forwarder interface {
	// PullThrough fetches chunkID's bytes from whatever remote the
	// forwarding policy names and writes them into store, returning once
	// the chunk is Completed locally.
	PullThrough(ctx context.Context, chunkID objid.ChunkId) error
}

// Server exposes a chunk store over the NDN HTTP wire convention.
type Server struct {
	store     *chunkstore.Store
	forwarder Forwarder
	resolver  ObjectResolver

	httpServer   *http.Server
	shutdownOnce sync.Once
}

// Config configures a Server.
type Config struct {
	Addr string
	// Forwarder is consulted on a local miss; may be nil.
	Forwarder Forwarder
	// Resolver answers sub-path requests inside container objects; a
	// nil Resolver serves the container body itself instead.
	Resolver ObjectResolver
}

// NewServer builds a Server backed by store.
func NewServer(cfg Config, store *chunkstore.Store) *Server {
	s := &Server{store: store, forwarder: cfg.Forwarder, resolver: cfg.Resolver}
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // chunk downloads can be large and slow
		IdleTimeout:  90 * time.Second,
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ndn/*", s.handleGet)
	r.Put("/ndn/*", s.handlePut)

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoCtx(ctx, "ndn http server listening", logger.Source(s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errCh <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("ndn http server failed: %w", err)
	}
}

// Stop gracefully shuts the server down; safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("ndn http server shutdown: %w", err)
		}
	})
	return shutdownErr
}

// requestLogger installs the request's LogContext (client IP, plus
// trace ids when a span is recording) so every *Ctx log call further
// down the handler chain, chunk store operations included, carries
// the same request fields, then logs one line per request on the way
// out.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		lc := logger.NewLogContext(host)
		if tid := telemetry.TraceID(r.Context()); tid != "" {
			lc = lc.WithTrace(tid, telemetry.SpanID(r.Context()))
		}
		ctx := logger.WithContext(r.Context(), lc)
		r = r.WithContext(ctx)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.InfoCtx(ctx, "ndn http request",
			logger.Op(r.Method+" "+r.URL.Path),
			logger.Status(ww.Status()),
			logger.BytesWritten(int64(ww.BytesWritten())),
			logger.DurationMs(lc.DurationMs()),
		)
	})
}

// withOp tags the request context's log fields with the NDN operation
// name, so chunk store logs attribute their work to it.
func withOp(ctx context.Context, op string) context.Context {
	if lc := logger.FromContext(ctx); lc != nil {
		return logger.WithContext(ctx, lc.WithOp(op))
	}
	return ctx
}

// handleGet serves pull_chunk and get_object: GET /ndn/{id}[/subpath].
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, subPath, err := ObjIDFromURL(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if subPath != "" {
		s.handleGetObject(w, r, id, subPath)
		return
	}

	chunkID, err := objid.ParseChunkID(id.String())
	if err != nil {
		s.handleGetObject(w, r, id, "")
		return
	}
	s.handlePullChunk(w, r, chunkID)
}

func (s *Server) handlePullChunk(w http.ResponseWriter, r *http.Request, chunkID objid.ChunkId) {
	ctx := withOp(r.Context(), "pull_chunk")

	state, err := s.store.QueryState(ctx, chunkID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if state != chunkstore.ChunkStateCompleted {
		if s.forwarder == nil {
			http.Error(w, ndnerrors.ErrNotFound.Error(), http.StatusNotFound)
			return
		}
		if err := s.forwarder.PullThrough(ctx, chunkID); err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
	}

	rc, size, err := s.store.OpenReadAt(ctx, chunkID, 0, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	defer rc.Close()

	WriteRespHeaders(w, RespHeaders{ObjID: chunkID.ToObjId(), DataSize: size})
	w.Header().Set("Accept-Ranges", "bytes")

	if rng := r.Header.Get("Range"); rng != "" {
		serveRange(w, rc, rng)
		return
	}

	w.WriteHeader(http.StatusOK)
	copyPooled(w, rc)
}

// serveRange implements a single "bytes=start-end" range against a
// reader that has no Seek (OpenRead already positioned itself for
// simple full reads); range semantics for chunk pulls are expressed
// instead by requesting a PartOf-linked sub-chunk id, so here we only
// need to honor a byte-offset skip within the stream already opened.
func serveRange(w http.ResponseWriter, rc io.Reader, spec string) {
	spec = strings.TrimPrefix(spec, "bytes=")
	parts := strings.SplitN(spec, "-", 2)
	if len(parts) != 2 {
		http.Error(w, "malformed Range header", http.StatusRequestedRangeNotSatisfiable)
		return
	}
	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "malformed Range header", http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if start > 0 {
		if _, err := copyPooledN(io.Discard, rc, start); err != nil && err != io.EOF {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	w.WriteHeader(http.StatusPartialContent)
	if parts[1] == "" {
		copyPooled(w, rc)
		return
	}
	end, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		copyPooled(w, rc)
		return
	}
	copyPooledN(w, rc, end-start+1)
}

func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request, id objid.ObjId, subPath string) {
	ctx := withOp(r.Context(), "get_object")

	if subPath != "" && s.resolver != nil {
		s.handleGetSubObject(w, r, id, subPath)
		return
	}

	body, err := s.store.GetObject(ctx, id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	WriteRespHeaders(w, RespHeaders{ObjID: id, DataSize: uint64(len(body)), ObjPath: subPath})
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleGetSubObject answers GET /ndn/{container_id}/{path}: the
// response names the inner object, the enclosing container
// (cyfs-root-obj-id), and the Merkle path (cyfs-mtree-path) so the
// client can verify membership without fetching the whole container.
// Small inner bodies ride both as the response body and as an embedded
// cyfs-{emb_obj_id} header.
func (s *Server) handleGetSubObject(w http.ResponseWriter, r *http.Request, id objid.ObjId, subPath string) {
	sub, err := s.resolver.ResolveSub(withOp(r.Context(), "get_object"), id, subPath)
	if err != nil {
		if errors.Is(err, ndnerrors.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h := RespHeaders{
		ObjID:     sub.ID,
		DataSize:  uint64(len(sub.Body)),
		ObjPath:   subPath,
		RootObjID: &id,
		MtreePath: sub.MtreePath,
	}
	if sub.Body != nil {
		h.Embedded = []EmbeddedObject{{ID: sub.ID, Body: json.RawMessage(sub.Body)}}
	}
	WriteRespHeaders(w, h)
	w.WriteHeader(http.StatusOK)
	if sub.Body != nil {
		w.Write(sub.Body)
	}
}

// handlePut serves push_chunk and put_object: PUT /ndn/{id}.
func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	id, _, err := ObjIDFromURL(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx := withOp(r.Context(), "put_object")

	chunkID, err := objid.ParseChunkID(id.String())
	if err != nil {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		// container ids carry a type tag, not a hash method; their
		// self-describing body names the method the id was hashed under
		verifyID := id
		if !objid.HashMethod(id.ObjType).Valid() {
			var meta struct {
				HashMethod string `json:"hash_method"`
			}
			if json.Unmarshal(body, &meta) == nil && objid.HashMethod(meta.HashMethod).Valid() {
				verifyID = objid.ObjId{ObjType: meta.HashMethod, Hash: id.Hash}
			}
		}
		if err := objid.VerifyBytes(verifyID, body); err != nil {
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		if err := s.store.PutObject(ctx, id, body); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusCreated)
		return
	}
	s.handlePushChunk(w, r, chunkID)
}

func (s *Server) handlePushChunk(w http.ResponseWriter, r *http.Request, chunkID objid.ChunkId) {
	ctx := withOp(r.Context(), "push_chunk")
	declaredSize := uint64(0)
	if r.ContentLength > 0 {
		declaredSize = uint64(r.ContentLength)
	}
	writer, err := s.store.BeginWrite(ctx, chunkID, declaredSize)
	if err != nil {
		if errors.Is(err, ndnerrors.ErrAlreadyExists) {
			w.WriteHeader(http.StatusOK) // already have it, idempotent push
			return
		}
		if errors.Is(err, ndnerrors.ErrBusy) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if writer.Offset() > 0 {
		// a push always carries the whole chunk, never a resume
		writer.Abort()
		if writer, err = s.store.BeginWrite(ctx, chunkID, declaredSize); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	if _, err := copyPooled(writer, r.Body); err != nil {
		writer.Abort()
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := writer.Complete(ctx); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

package rtcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// ropenWaitTimeout bounds how long a caller waits for the peer to
// complete a requested reverse connection.
const ropenWaitTimeout = 30 * time.Second

// StreamBuildHelper matches an in-flight Ropen request (keyed by its
// session key) to the reverse connection the peer eventually opens
// back to this stack, without the two having to share any state beyond
// the key.
//
// Each waiter gets its own one-shot channel keyed by session key, so
// delivery never re-checks a shared map under a condition variable.
type StreamBuildHelper struct {
	mu    sync.Mutex
	slots map[string]chan net.Conn
}

// NewStreamBuildHelper builds an empty StreamBuildHelper.
func NewStreamBuildHelper() *StreamBuildHelper {
	return &StreamBuildHelper{slots: make(map[string]chan net.Conn)}
}

// NewWaitSlot registers a wait slot for key before the Ropen request
// that will eventually be satisfied by it is sent, avoiding a race
// against a peer that reconnects unusually fast.
func (h *StreamBuildHelper) NewWaitSlot(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.slots[key]; !ok {
		h.slots[key] = make(chan net.Conn, 1)
	}
}

// Wait blocks until a connection is delivered for key via Deliver, the
// context is canceled, or ropenWaitTimeout elapses.
func (h *StreamBuildHelper) Wait(ctx context.Context, key string) (net.Conn, error) {
	h.mu.Lock()
	slot, ok := h.slots[key]
	if !ok {
		slot = make(chan net.Conn, 1)
		h.slots[key] = slot
	}
	h.mu.Unlock()

	timer := time.NewTimer(ropenWaitTimeout)
	defer timer.Stop()

	select {
	case conn := <-slot:
		h.cancel(key)
		return conn, nil
	case <-ctx.Done():
		h.cancel(key)
		return nil, ctx.Err()
	case <-timer.C:
		h.cancel(key)
		return nil, fmt.Errorf("%w: waiting for reverse connection %q", errors.ErrTimeout, key)
	}
}

// Deliver hands a freshly accepted reverse connection to whichever
// caller is waiting on key, or holds it in the slot registered by
// NewWaitSlot until Wait collects it. It returns false if no slot is
// registered for key or one already holds a pending connection, in
// which case the caller should close conn itself.
func (h *StreamBuildHelper) Deliver(key string, conn net.Conn) bool {
	h.mu.Lock()
	slot, ok := h.slots[key]
	h.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case slot <- conn:
		return true
	default:
		return false
	}
}

func (h *StreamBuildHelper) cancel(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.slots, key)
}

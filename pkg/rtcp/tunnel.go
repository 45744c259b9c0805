package rtcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/buckyos/ndnd/internal/logger"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// pingInterval is how often an active tunnel sends a keepalive ping.
const pingInterval = 60 * time.Second

// passiveTimeout is how long a tunnel tolerates silence from its peer
// (no ping, ping_resp, or other control traffic) before declaring the
// peer gone.
const passiveTimeout = 5 * time.Minute

// handshakeTimeout bounds the hello/hello_ack exchange. The caller's
// ctx can only tighten it, never extend it.
const handshakeTimeout = 30 * time.Second

// State is a tunnel's position in its control-plane lifecycle.
type State int

const (
	StateInit State = iota
	StateAuthenticated
	StateActive
	StateClosed
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailReason records why a tunnel transitioned to StateFailed.
type FailReason int

const (
	FailNone FailReason = iota
	FailTimedOut
	FailInvalidAuth
	FailPeerGone
)

func (r FailReason) String() string {
	switch r {
	case FailTimedOut:
		return "timed_out"
	case FailInvalidAuth:
		return "invalid_auth"
	case FailPeerGone:
		return "peer_gone"
	default:
		return "none"
	}
}

// Tunnel is one RTCP control connection to a peer stack: a single
// long-lived TCP connection carrying length-prefixed JSON control
// packets, over which both sides can request reverse streams (ropen)
// and, once Noise-authenticated, exchange datagrams.
type Tunnel struct {
	mu         sync.Mutex
	conn       net.Conn
	id         string // remote address, used as the tunnel's log identity
	localID    string
	peerID     string
	state      State
	failReason FailReason
	isClient   bool

	auth      *Authenticator
	handshake *NoiseHandshake

	streams *StreamBuildHelper

	lastRecv time.Time

	closeOnce sync.Once
	closed    chan struct{}
}

// DialTunnel opens a TCP connection to addr and performs the RTCP
// hello handshake as the initiating side.
func DialTunnel(ctx context.Context, addr string, localID, peerID string, auth *Authenticator, noiseKey NoiseKeypair, peerNoiseKey []byte) (*Tunnel, error) {
	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dialing rtcp tunnel to %s: %w", addr, err)
	}
	t := newTunnel(conn, localID, peerID, auth, true)

	handshake, err := NewInitiatorHandshake(noiseKey, peerNoiseKey)
	if err != nil {
		conn.Close()
		return nil, err
	}
	t.handshake = handshake

	if err := t.clientHandshake(ctx); err != nil {
		t.fail(FailInvalidAuth)
		conn.Close()
		return nil, err
	}
	return t, nil
}

// AcceptTunnel performs the RTCP hello handshake as the accepting side
// over an already-accepted connection.
func AcceptTunnel(ctx context.Context, conn net.Conn, localID string, auth *Authenticator, noiseKey NoiseKeypair) (*Tunnel, error) {
	t := newTunnel(conn, localID, "", auth, false)

	handshake, err := NewResponderHandshake(noiseKey)
	if err != nil {
		conn.Close()
		return nil, err
	}
	t.handshake = handshake

	if err := t.serverHandshake(ctx); err != nil {
		t.fail(FailInvalidAuth)
		conn.Close()
		return nil, err
	}
	return t, nil
}

func newTunnel(conn net.Conn, localID, peerID string, auth *Authenticator, isClient bool) *Tunnel {
	return &Tunnel{
		conn:     conn,
		id:       conn.RemoteAddr().String(),
		localID:  localID,
		peerID:   peerID,
		state:    StateInit,
		isClient: isClient,
		auth:     auth,
		streams:  NewStreamBuildHelper(),
		lastRecv: time.Now(),
		closed:   make(chan struct{}),
	}
}

// logCtx enriches ctx with this tunnel's logging fields (tunnel id,
// peer zone), preserving whatever request-scoped context the caller
// already carries.
func (t *Tunnel) logCtx(ctx context.Context) context.Context {
	lc := logger.FromContext(ctx)
	if lc == nil {
		lc = logger.NewLogContext("")
	}
	return logger.WithContext(ctx, lc.WithTunnel(t.id).WithZone(t.PeerID()))
}

// applyHandshakeDeadline arms the connection's read/write deadline for
// the hello exchange: handshakeTimeout from now, or the ctx deadline
// when that is sooner. The returned func clears the deadline again so
// the long-lived control loop is not cut short by it.
func (t *Tunnel) applyHandshakeDeadline(ctx context.Context) func() {
	deadline := time.Now().Add(handshakeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	t.conn.SetDeadline(deadline)
	return func() { t.conn.SetDeadline(time.Time{}) }
}

// clientHandshake sends hello and processes hello_ack.
func (t *Tunnel) clientHandshake(ctx context.Context) error {
	defer t.applyHandshakeDeadline(ctx)()

	noiseMsg, err := t.handshake.WriteMessage(nil)
	if err != nil {
		return err
	}
	token, err := t.auth.SignHello(t.localID, t.peerID, 0, noiseMsg)
	if err != nil {
		return err
	}
	if err := SendPacket(t.conn, Hello{Cmd: CmdHello, FromID: t.localID, ToID: t.peerID, SessionKey: token}); err != nil {
		return err
	}

	cmd, payload, err := RecvPacket(t.conn)
	if err != nil {
		return err
	}
	if cmd != CmdHelloAck {
		return fmt.Errorf("%w: expected hello_ack, got %q", errors.ErrInvalidData, cmd)
	}
	var ack HelloAck
	if err := decodeJSON(payload, &ack); err != nil {
		return err
	}
	if !ack.TestResult {
		return fmt.Errorf("%w: peer rejected hello", errors.ErrPermissionDenied)
	}
	if _, err := t.handshake.ReadMessage(ack.NoiseResponse); err != nil {
		return err
	}
	if !t.handshake.Complete() {
		return fmt.Errorf("%w: noise handshake did not complete", errors.ErrVerifyFailed)
	}

	t.setState(StateAuthenticated)
	logger.InfoCtx(t.logCtx(ctx), "rtcp tunnel authenticated", "role", "client")
	t.setState(StateActive)
	return nil
}

// serverHandshake reads hello, verifies it, and answers with hello_ack.
func (t *Tunnel) serverHandshake(ctx context.Context) error {
	defer t.applyHandshakeDeadline(ctx)()

	cmd, payload, err := RecvPacket(t.conn)
	if err != nil {
		return err
	}
	if cmd != CmdHello {
		return fmt.Errorf("%w: expected hello, got %q", errors.ErrInvalidData, cmd)
	}
	var hello Hello
	if err := decodeJSON(payload, &hello); err != nil {
		return err
	}

	claims, err := t.auth.VerifyHello(hello.SessionKey, t.localID)
	if err != nil {
		_ = SendPacket(t.conn, HelloAck{Cmd: CmdHelloAck, TestResult: false})
		return err
	}
	t.peerID = hello.FromID

	if _, err := t.handshake.ReadMessage(claims.NoiseMessage); err != nil {
		_ = SendPacket(t.conn, HelloAck{Cmd: CmdHelloAck, TestResult: false})
		return err
	}
	noiseResponse, err := t.handshake.WriteMessage(nil)
	if err != nil {
		_ = SendPacket(t.conn, HelloAck{Cmd: CmdHelloAck, TestResult: false})
		return err
	}
	if !t.handshake.Complete() {
		return fmt.Errorf("%w: noise handshake did not complete", errors.ErrVerifyFailed)
	}

	if err := SendPacket(t.conn, HelloAck{Cmd: CmdHelloAck, TestResult: true, NoiseResponse: noiseResponse}); err != nil {
		return err
	}

	t.setState(StateAuthenticated)
	logger.InfoCtx(t.logCtx(ctx), "rtcp tunnel authenticated", "role", "server")
	t.setState(StateActive)
	return nil
}

// State returns the tunnel's current state.
func (t *Tunnel) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// FailReason returns why the tunnel failed, if it has.
func (t *Tunnel) FailReason() FailReason {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failReason
}

func (t *Tunnel) setState(s State) {
	t.mu.Lock()
	t.state = s
	t.mu.Unlock()
}

func (t *Tunnel) fail(reason FailReason) {
	t.mu.Lock()
	t.state = StateFailed
	t.failReason = reason
	t.mu.Unlock()
}

func (t *Tunnel) touch() {
	t.mu.Lock()
	t.lastRecv = time.Now()
	t.mu.Unlock()
}

func (t *Tunnel) sinceLastRecv() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastRecv)
}

// Ropen asks the peer to open a reverse connection back to this
// stack's target and blocks until it arrives (or ropenWaitTimeout
// elapses). key identifies the requested connection to the peer; the
// resulting connection reaches this waiter only when it is handed to
// DeliverRopenStream under the same key.
func (t *Tunnel) Ropen(ctx context.Context, key, target string) (net.Conn, error) {
	t.streams.NewWaitSlot(key)
	if err := SendPacket(t.conn, Ropen{Cmd: CmdRopen, SessionKey: key, Target: target}); err != nil {
		return nil, err
	}
	return t.streams.Wait(ctx, key)
}

// DeliverRopenStream hands a reverse connection accepted elsewhere
// (typically on a separate listener dedicated to reverse streams) to
// whichever local Ropen call is waiting on key.
func (t *Tunnel) DeliverRopenStream(key string, conn net.Conn) bool {
	return t.streams.Deliver(key, conn)
}

// ServeControl runs the tunnel's control loop: reads framed packets
// off the connection, answers pings, hands ropen requests to onRopen
// and logs ropen_resp packets, until the connection closes, ctx is canceled, or the peer
// goes silent past passiveTimeout. It also drives the 60s keepalive
// ping on a separate goroutine.
func (t *Tunnel) ServeControl(ctx context.Context, onRopen func(key, target string) (net.Conn, error)) error {
	ctx, cancel := context.WithCancel(t.logCtx(ctx))
	defer cancel()

	// RecvPacket blocks on the underlying conn with no awareness of
	// ctx; unblock it on cancellation by forcing a read deadline, the
	// same trick net/http's server uses to interrupt idle conns.
	go func() {
		<-ctx.Done()
		t.conn.SetReadDeadline(time.Now())
	}()

	pingErrCh := make(chan error, 1)
	go func() { pingErrCh <- t.runPingLoop(ctx) }()

	readErrCh := make(chan error, 1)
	go func() { readErrCh <- t.runReadLoop(ctx, onRopen) }()

	select {
	case err := <-readErrCh:
		cancel()
		<-pingErrCh
		if err != nil {
			t.fail(FailPeerGone)
		}
		return err
	case err := <-pingErrCh:
		cancel()
		<-readErrCh
		if err != nil {
			t.fail(FailTimedOut)
		}
		return err
	case <-ctx.Done():
		<-pingErrCh
		<-readErrCh
		return ctx.Err()
	}
}

func (t *Tunnel) runPingLoop(ctx context.Context) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if t.sinceLastRecv() > passiveTimeout {
				return fmt.Errorf("%w: no control traffic from peer %q in %s", errors.ErrTimeout, t.peerID, passiveTimeout)
			}
			if err := SendPacket(t.conn, Ping{Cmd: CmdPing}); err != nil {
				return err
			}
		}
	}
}

func (t *Tunnel) runReadLoop(ctx context.Context, onRopen func(key, target string) (net.Conn, error)) error {
	for {
		cmd, payload, err := RecvPacket(t.conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		t.touch()

		switch cmd {
		case CmdPing:
			if err := SendPacket(t.conn, PingResp{Cmd: CmdPingResp}); err != nil {
				return err
			}
		case CmdPingResp:
			// keepalive round trip acknowledged; touch() above covers it
		case CmdRopen:
			var req Ropen
			if err := decodeJSON(payload, &req); err != nil {
				return err
			}
			go t.handleRopenRequest(ctx, req, onRopen)
		case CmdRopenResp:
			var resp RopenResp
			if err := decodeJSON(payload, &resp); err != nil {
				return err
			}
			logger.DebugCtx(ctx, "rtcp ropen_resp received", "result", resp.Result)
		default:
			logger.WarnCtx(ctx, "rtcp tunnel: unknown control packet", "cmd", cmd)
		}
	}
}

// handleRopenRequest answers a peer's request to build a reverse
// stream. onRopen owns the resulting net.Conn's lifecycle (typically
// handing it off to a bridging goroutine); this method only reports
// success or failure back to the peer.
func (t *Tunnel) handleRopenRequest(ctx context.Context, req Ropen, onRopen func(key, target string) (net.Conn, error)) {
	result := RopenResultOK
	switch {
	case onRopen == nil:
		result = RopenResultNoHandler
	default:
		if _, err := onRopen(req.SessionKey, req.Target); err != nil {
			logger.WarnCtx(ctx, "rtcp ropen handler failed", "target", req.Target, "error", err)
			result = RopenResultDialFailed
		}
	}
	if err := SendPacket(t.conn, RopenResp{Cmd: CmdRopenResp, SessionKey: req.SessionKey, Result: result}); err != nil {
		logger.WarnCtx(ctx, "rtcp ropen_resp send failed", "error", err)
	}
}

// Close shuts down the tunnel's connection.
func (t *Tunnel) Close() error {
	var err error
	t.closeOnce.Do(func() {
		t.setState(StateClosed)
		err = t.conn.Close()
		close(t.closed)
	})
	return err
}

// Done returns a channel closed once the tunnel has been closed.
func (t *Tunnel) Done() <-chan struct{} {
	return t.closed
}

// PeerID returns the authenticated peer's device id.
func (t *Tunnel) PeerID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.peerID
}

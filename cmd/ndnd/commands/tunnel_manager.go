package commands

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/buckyos/ndnd/internal/logger"
	"github.com/buckyos/ndnd/pkg/metrics"
	"github.com/buckyos/ndnd/pkg/rtcp"
	"github.com/buckyos/ndnd/pkg/zone"
)

// tunnelManager accepts inbound RTCP tunnels and answers ropen requests
// by bridging the reverse stream to this stack's own NDN HTTP server,
// so a peer that only has a rendezvous connection to this stack can
// still reach its chunk store.
type tunnelManager struct {
	localID     string
	auth        *rtcp.Authenticator
	noiseKey    rtcp.NoiseKeypair
	zone        zone.Resolver
	httpAddr    string
	handshakeTO time.Duration
	metrics     *metrics.TunnelMetrics
}

// acceptLoop accepts connections off ln, authenticates each as an RTCP
// tunnel, and serves its control loop until ctx is canceled.
func (m *tunnelManager) acceptLoop(ctx context.Context, ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		go m.handleConn(ctx, conn)
	}
}

func (m *tunnelManager) handleConn(ctx context.Context, conn net.Conn) {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		host = conn.RemoteAddr().String()
	}
	ctx = logger.WithContext(ctx, logger.NewLogContext(host))

	handshakeCtx, cancel := context.WithTimeout(ctx, m.handshakeTO)
	start := time.Now()
	tunnel, err := rtcp.AcceptTunnel(handshakeCtx, conn, m.localID, m.auth, m.noiseKey)
	cancel()
	if err != nil {
		m.metrics.ObserveHandshake("accept_failed", time.Since(start))
		logger.WarnCtx(ctx, "rtcp tunnel handshake failed", "error", err)
		return
	}
	m.metrics.ObserveHandshake("accept", time.Since(start))
	m.metrics.TunnelActive()
	defer m.metrics.TunnelClosed()

	logger.InfoCtx(ctx, "rtcp tunnel accepted", "peer", tunnel.PeerID())
	if err := tunnel.ServeControl(ctx, m.onRopen); err != nil {
		m.metrics.IncFailure(tunnel.FailReason().String())
		logger.WarnCtx(ctx, "rtcp tunnel control loop ended", "peer", tunnel.PeerID(), "error", err, "reason", tunnel.FailReason())
	}
	tunnel.Close()
}

// onRopen answers a peer's request to build a reverse stream: it
// dials target (the peer's rendezvous listener), writes the key as a
// u32-BE length-prefixed preamble (nothing in this repository reads
// it back or calls Tunnel.DeliverRopenStream), and
// bridges the resulting stream to this stack's own NDN HTTP server.
func (m *tunnelManager) onRopen(key, target string) (net.Conn, error) {
	conn, err := net.DialTimeout("tcp", target, m.handshakeTO)
	if err != nil {
		return nil, fmt.Errorf("dial reverse target %s: %w", target, err)
	}

	keyBytes := []byte(key)
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(keyBytes)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write ropen key preamble: %w", err)
	}
	if _, err := conn.Write(keyBytes); err != nil {
		conn.Close()
		return nil, fmt.Errorf("write ropen key preamble: %w", err)
	}

	local, err := net.DialTimeout("tcp", m.httpAddr, m.handshakeTO)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("dial local ndn http %s: %w", m.httpAddr, err)
	}

	go bridge(conn, local)
	return conn, nil
}

// bridge copies bytes in both directions between a and b until either
// side closes, then closes both.
func bridge(a, b net.Conn) {
	defer a.Close()
	defer b.Close()

	done := make(chan struct{}, 2)
	go func() { io.Copy(a, b); done <- struct{}{} }()
	go func() { io.Copy(b, a); done <- struct{}{} }()
	<-done
}

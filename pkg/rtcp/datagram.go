package rtcp

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// datagramBufSize is the per-read UDP buffer size of a
// DatagramForwarder's UDP->stream leg; the stream->UDP leg allocates
// each framed datagram at its own length.
const datagramBufSize = 5 * 1024

// maxDatagramLen bounds a single framed datagram read from a stream.
const maxDatagramLen = 64 * 1024

// StreamWithDatagram layers u32-BE length-prefixed datagram framing
// on top of an ordinary byte stream, letting a single RTCP tunnel
// stream carry UDP-shaped messages.
type StreamWithDatagram struct {
	stream io.ReadWriteCloser
}

// NewStreamWithDatagram wraps stream for datagram framing.
func NewStreamWithDatagram(stream io.ReadWriteCloser) *StreamWithDatagram {
	return &StreamWithDatagram{stream: stream}
}

// SendDatagram writes one length-prefixed datagram.
func (s *StreamWithDatagram) SendDatagram(payload []byte) error {
	if len(payload) > maxDatagramLen {
		return fmt.Errorf("%w: datagram too large (%d bytes)", errors.ErrInvalidData, len(payload))
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := s.stream.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := s.stream.Write(payload)
	return err
}

// RecvDatagram reads one length-prefixed datagram.
func (s *StreamWithDatagram) RecvDatagram() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(s.stream, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxDatagramLen {
		return nil, fmt.Errorf("%w: datagram too large (%d bytes)", errors.ErrInvalidData, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(s.stream, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the underlying stream.
func (s *StreamWithDatagram) Close() error {
	return s.stream.Close()
}

// DatagramForwarder bridges a local UDP socket to a tunnel stream's
// datagram framing, letting UDP traffic ride the RTCP tunnel. One
// goroutine pumps UDP->stream, another pumps stream->UDP.
type DatagramForwarder struct {
	targetAddr *net.UDPAddr
	conn       *net.UDPConn
	stream     *StreamWithDatagram
}

// NewDatagramForwarder builds a forwarder that relays datagrams
// between targetAddr (a local UDP peer, typically the application that
// asked for the tunnel) and stream (an RTCP tunnel stream wrapped for
// datagram framing).
func NewDatagramForwarder(targetAddr *net.UDPAddr, bind *net.UDPAddr, stream *StreamWithDatagram) (*DatagramForwarder, error) {
	conn, err := net.ListenUDP("udp", bind)
	if err != nil {
		return nil, fmt.Errorf("binding datagram forwarder socket: %w", err)
	}
	return &DatagramForwarder{targetAddr: targetAddr, conn: conn, stream: stream}, nil
}

// Run pumps datagrams in both directions until ctx is canceled or
// either leg fails, then closes both the UDP socket and the stream.
func (f *DatagramForwarder) Run(ctx context.Context) error {
	errCh := make(chan error, 2)
	go func() { errCh <- f.runRecv(ctx) }()
	go func() { errCh <- f.runSend(ctx) }()

	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	f.conn.Close()
	f.stream.Close()
	return firstErr
}

// runRecv reads UDP datagrams from the local socket and forwards each
// one into the tunnel stream.
func (f *DatagramForwarder) runRecv(ctx context.Context) error {
	buf := make([]byte, datagramBufSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, _, err := f.conn.ReadFromUDP(buf)
		if err != nil {
			return err
		}
		if err := f.stream.SendDatagram(buf[:n]); err != nil {
			return err
		}
	}
}

// runSend reads framed datagrams from the tunnel stream and writes
// each one to the local UDP target.
func (f *DatagramForwarder) runSend(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		payload, err := f.stream.RecvDatagram()
		if err != nil {
			return err
		}
		if _, err := f.conn.WriteToUDP(payload, f.targetAddr); err != nil {
			slog.Warn("datagram forwarder: writing to udp target failed", "target", f.targetAddr, "err", err)
		}
	}
}

package rtcp

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// Cmd names a control packet's type, carried in the JSON payload's
// "cmd" field.
type Cmd string

const (
	CmdHello       Cmd = "hello"
	CmdHelloAck    Cmd = "hello_ack"
	CmdPing        Cmd = "ping"
	CmdPingResp    Cmd = "ping_resp"
	CmdRopen       Cmd = "ropen"
	CmdRopenResp   Cmd = "ropen_resp"
)

// maxPacketLen bounds a single control packet, ruling out a hostile
// peer claiming a multi-gigabyte length prefix.
const maxPacketLen = 1 << 20

// Hello is the initial handshake packet. SessionKey carries the
// JWT-encoded hello envelope (see auth.go).
type Hello struct {
	Cmd        Cmd    `json:"cmd"`
	FromID     string `json:"from_id"`
	ToID       string `json:"to_id"`
	TestPort   uint16 `json:"test_port"`
	SessionKey string `json:"session_key,omitempty"`
}

// HelloAck acknowledges a Hello. NoiseResponse carries the responder's
// second Noise IK handshake message, completing the handshake the
// initiator started with Hello.SessionKey's embedded first message.
type HelloAck struct {
	Cmd           Cmd    `json:"cmd"`
	TestResult    bool   `json:"test_result"`
	NoiseResponse []byte `json:"noise_response,omitempty"`
}

// Ping is a keepalive packet; PingResp acknowledges it.
type Ping struct {
	Cmd Cmd `json:"cmd"`
}

type PingResp struct {
	Cmd Cmd `json:"cmd"`
}

// Ropen asks the peer to build a reverse connection back to the
// requester's stack.
type Ropen struct {
	Cmd        Cmd    `json:"cmd"`
	SessionKey string `json:"session_key"`
	Target     string `json:"target"` // e.g. tcp://_:123
}

// RopenResp acknowledges a Ropen, identifying the session key it
// answers since a tunnel may have more than one Ropen in flight.
// Result is 0 on success, non-zero on failure (see RopenResult*).
type RopenResp struct {
	Cmd        Cmd    `json:"cmd"`
	SessionKey string `json:"session_key"`
	Result     uint32 `json:"result"`
}

// RopenResp.Result codes.
const (
	RopenResultOK         uint32 = 0
	RopenResultNoHandler  uint32 = 1
	RopenResultDialFailed uint32 = 2
)

// cmdEnvelope is used only to sniff the "cmd" field before decoding
// into the concrete packet type.
type cmdEnvelope struct {
	Cmd Cmd `json:"cmd"`
}

// WritePacket frames payload (already JSON-marshaled) as u32-BE length
// plus bytes and writes it to w.
func WritePacket(w io.Writer, payload []byte) error {
	if len(payload) > maxPacketLen {
		return fmt.Errorf("%w: control packet too large (%d bytes)", errors.ErrInvalidData, len(payload))
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadPacket reads one length-prefixed control packet from r.
func ReadPacket(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxPacketLen {
		return nil, fmt.Errorf("%w: control packet too large (%d bytes)", errors.ErrInvalidData, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// SendPacket marshals v to JSON and writes it as a framed packet.
func SendPacket(w io.Writer, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrEncode, err)
	}
	return WritePacket(w, payload)
}

// decodeJSON unmarshals a raw control packet payload into v, wrapping
// decode failures with errors.ErrDecode.
func decodeJSON(payload []byte, v any) error {
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	return nil
}

// RecvPacket reads one framed packet and decodes its cmd field,
// returning the cmd and the raw payload for the caller to unmarshal
// into the concrete type.
func RecvPacket(r io.Reader) (Cmd, []byte, error) {
	payload, err := ReadPacket(r)
	if err != nil {
		return "", nil, err
	}
	var env cmdEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return "", nil, fmt.Errorf("%w: %s", errors.ErrDecode, err)
	}
	return env.Cmd, payload, nil
}

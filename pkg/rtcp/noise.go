package rtcp

import (
	"crypto/rand"
	"fmt"

	"github.com/flynn/noise"
	"github.com/buckyos/ndnd/pkg/ndn/errors"
)

// cipherSuite is the Noise IK ciphersuite this tunnel's data plane uses
// once the control-plane handshake has authenticated both sides.
var cipherSuite = noise.NewCipherSuite(noise.DH25519, noise.CipherChaChaPoly, noise.HashBLAKE2b)

// NoiseKeypair is an X25519 static keypair used as a tunnel endpoint's
// long-term Noise identity.
type NoiseKeypair = noise.DHKey

// GenerateNoiseKeypair creates a fresh X25519 keypair.
func GenerateNoiseKeypair() (NoiseKeypair, error) {
	kp, err := cipherSuite.GenerateKeypair(rand.Reader)
	if err != nil {
		return NoiseKeypair{}, fmt.Errorf("%w: generating noise keypair: %s", errors.ErrInvalidData, err)
	}
	return kp, nil
}

// NoiseHandshake wraps a noise.HandshakeState for the IK pattern, where
// the initiator already knows the responder's static public key (here,
// supplied out of the zone resolver or the JWT hello envelope).
type NoiseHandshake struct {
	state       *noise.HandshakeState
	isInitiator bool
	complete    bool
	cs1, cs2    *noise.CipherState
}

// NewInitiatorHandshake builds the initiator side of a Noise IK
// handshake: local is this side's static keypair, remoteStatic is the
// responder's known public key.
func NewInitiatorHandshake(local NoiseKeypair, remoteStatic []byte) (*NoiseHandshake, error) {
	return newHandshake(local, remoteStatic, true)
}

// NewResponderHandshake builds the responder side. The responder does
// not know the initiator's static key ahead of time; IK conveys it
// during the handshake.
func NewResponderHandshake(local NoiseKeypair) (*NoiseHandshake, error) {
	return newHandshake(local, nil, false)
}

func newHandshake(local NoiseKeypair, remoteStatic []byte, isInitiator bool) (*NoiseHandshake, error) {
	cfg := noise.Config{
		CipherSuite:   cipherSuite,
		Random:        rand.Reader,
		Pattern:       noise.HandshakeIK,
		Initiator:     isInitiator,
		StaticKeypair: local,
	}
	if len(remoteStatic) > 0 {
		cfg.PeerStatic = remoteStatic
	}
	state, err := noise.NewHandshakeState(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: building noise handshake state: %s", errors.ErrInvalidData, err)
	}
	return &NoiseHandshake{state: state, isInitiator: isInitiator}, nil
}

// WriteMessage produces the next handshake message to send to the
// peer, appending an encrypted payload if one is supplied.
func (h *NoiseHandshake) WriteMessage(payload []byte) ([]byte, error) {
	out, cs1, cs2, err := h.state.WriteMessage(nil, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: noise handshake write: %s", errors.ErrInvalidData, err)
	}
	h.maybeComplete(cs1, cs2)
	return out, nil
}

// ReadMessage consumes a handshake message from the peer, returning
// any decrypted payload it carried.
func (h *NoiseHandshake) ReadMessage(message []byte) ([]byte, error) {
	payload, cs1, cs2, err := h.state.ReadMessage(nil, message)
	if err != nil {
		return nil, fmt.Errorf("%w: noise handshake read: %s", errors.ErrVerifyFailed, err)
	}
	h.maybeComplete(cs1, cs2)
	return payload, nil
}

func (h *NoiseHandshake) maybeComplete(cs1, cs2 *noise.CipherState) {
	if cs1 != nil && cs2 != nil {
		h.complete = true
		h.cs1, h.cs2 = cs1, cs2
	}
}

// Complete reports whether the handshake has finished and transport
// cipher states are available.
func (h *NoiseHandshake) Complete() bool {
	return h.complete
}

// PeerStatic returns the peer's static public key, available once IK
// has conveyed it (immediately for a responder after the first
// message, or always for an initiator who supplied it up front).
func (h *NoiseHandshake) PeerStatic() []byte {
	return h.state.PeerStatic()
}

// Session returns the pair of transport cipher states: send is used to
// encrypt outbound traffic, recv to decrypt inbound traffic. The
// initiator's send/recv are swapped relative to the responder's.
func (h *NoiseHandshake) Session() (send, recv *noise.CipherState, err error) {
	if !h.complete {
		return nil, nil, fmt.Errorf("%w: noise handshake not complete", errors.ErrInvalidData)
	}
	if h.isInitiator {
		return h.cs1, h.cs2, nil
	}
	return h.cs2, h.cs1, nil
}

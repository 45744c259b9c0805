package rtcp

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	ndnerrors "github.com/buckyos/ndnd/pkg/ndn/errors"
)

// HelloClaims is the JWT envelope carried in Hello.SessionKey. An
// HS256 HMAC over the shared secret authenticates FromID; asymmetric
// signing methods (such as one keyed off a zone-resolved public key)
// are not supported, and VerifyHello rejects them. NoiseMessage
// carries the handshake message the responder needs to complete the
// Noise IK exchange started by the same Hello packet.
type HelloClaims struct {
	jwt.RegisteredClaims
	FromID   string `json:"from_id"`
	ToID     string `json:"to_id"`
	TestPort uint16 `json:"test_port"`
	NoiseMessage []byte `json:"noise_message"`
}

// Authenticator signs and verifies HelloClaims.
type Authenticator struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewAuthenticator builds an Authenticator keyed by secret (an HMAC
// key shared out-of-band, or per-zone in a full deployment).
func NewAuthenticator(secret []byte, issuer string, ttl time.Duration) (*Authenticator, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("%w: rtcp auth secret must be at least 32 bytes", ndnerrors.ErrInvalidData)
	}
	if issuer == "" {
		issuer = "rtcp"
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Authenticator{secret: secret, issuer: issuer, ttl: ttl}, nil
}

// SignHello builds a signed session-key token for a Hello packet from
// fromID to toID, embedding the initiator's first Noise IK handshake
// message.
func (a *Authenticator) SignHello(fromID, toID string, testPort uint16, noiseMessage []byte) (string, error) {
	now := time.Now()
	claims := &HelloClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   fromID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		FromID:       fromID,
		ToID:         toID,
		TestPort:     testPort,
		NoiseMessage: noiseMessage,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// VerifyHello validates a Hello session-key token and returns its
// claims, rejecting expired tokens or tokens not addressed to
// expectToID (when non-empty).
func (a *Authenticator) VerifyHello(tokenString, expectToID string) (*HelloClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &HelloClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: rtcp hello token expired", ndnerrors.ErrTimeout)
		}
		return nil, fmt.Errorf("%w: %s", ndnerrors.ErrPermissionDenied, err)
	}
	claims, ok := token.Claims.(*HelloClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid rtcp hello token", ndnerrors.ErrPermissionDenied)
	}
	if expectToID != "" && claims.ToID != expectToID {
		return nil, fmt.Errorf("%w: hello token addressed to %q, expected %q", ndnerrors.ErrPermissionDenied, claims.ToID, expectToID)
	}
	return claims, nil
}

package rtcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecret() []byte {
	return []byte("0123456789abcdef0123456789abcdef")
}

func TestAuthenticatorSignVerify(t *testing.T) {
	auth, err := NewAuthenticator(testSecret(), "rtcp-test", time.Minute)
	require.NoError(t, err)

	token, err := auth.SignHello("device-a", "device-b", 8080, []byte("noisekey"))
	require.NoError(t, err)

	claims, err := auth.VerifyHello(token, "device-b")
	require.NoError(t, err)
	assert.Equal(t, "device-a", claims.FromID)
	assert.Equal(t, "device-b", claims.ToID)
	assert.Equal(t, uint16(8080), claims.TestPort)
	assert.Equal(t, []byte("noisekey"), claims.NoiseMessage)
}

func TestAuthenticatorRejectsWrongAudience(t *testing.T) {
	auth, err := NewAuthenticator(testSecret(), "rtcp-test", time.Minute)
	require.NoError(t, err)

	token, err := auth.SignHello("device-a", "device-b", 0, nil)
	require.NoError(t, err)

	_, err = auth.VerifyHello(token, "device-c")
	assert.Error(t, err)
}

func TestAuthenticatorRejectsTamperedSecret(t *testing.T) {
	auth, err := NewAuthenticator(testSecret(), "rtcp-test", time.Minute)
	require.NoError(t, err)
	token, err := auth.SignHello("device-a", "device-b", 0, nil)
	require.NoError(t, err)

	other, err := NewAuthenticator([]byte("ffffffffffffffffffffffffffffffff"), "rtcp-test", time.Minute)
	require.NoError(t, err)
	_, err = other.VerifyHello(token, "device-b")
	assert.Error(t, err)
}

func TestAuthenticatorRejectsExpired(t *testing.T) {
	auth, err := NewAuthenticator(testSecret(), "rtcp-test", time.Millisecond)
	require.NoError(t, err)
	token, err := auth.SignHello("device-a", "device-b", 0, nil)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = auth.VerifyHello(token, "device-b")
	assert.Error(t, err)
}

func TestNewAuthenticatorRejectsShortSecret(t *testing.T) {
	_, err := NewAuthenticator([]byte("short"), "rtcp-test", time.Minute)
	assert.Error(t, err)
}

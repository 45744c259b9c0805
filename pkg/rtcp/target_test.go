package rtcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetIDHostname(t *testing.T) {
	id, err := ParseTargetID("ood1.example.com")
	require.NoError(t, err)
	assert.Equal(t, TargetIDDeviceName, id.Kind)
	assert.Equal(t, "ood1.example.com", id.String())
}

func TestParseTargetIDDID(t *testing.T) {
	id, err := ParseTargetID("did:ndn:abc123")
	require.NoError(t, err)
	assert.Equal(t, TargetIDDeviceDID, id.Kind)
	assert.Equal(t, "did:ndn:abc123", id.String())
}

func TestParseTargetIDDotDIDSuffix(t *testing.T) {
	id, err := ParseTargetID("abc123.did")
	require.NoError(t, err)
	assert.Equal(t, TargetIDDeviceDID, id.Kind)
}

func TestParseTargetIDEmpty(t *testing.T) {
	_, err := ParseTargetID("")
	assert.Error(t, err)
}

func TestParseTargetStackIDWithPort(t *testing.T) {
	tsid, err := ParseTargetStackID("ood1.example.com:3000")
	require.NoError(t, err)
	assert.Equal(t, "ood1.example.com", tsid.ID.Name)
	assert.Equal(t, uint16(3000), tsid.StackPort)
}

func TestParseTargetStackIDDefaultPort(t *testing.T) {
	tsid, err := ParseTargetStackID("ood1.example.com")
	require.NoError(t, err)
	assert.Equal(t, DefaultStackPort, tsid.StackPort)
}

func TestParseTargetStackIDDIDWithPort(t *testing.T) {
	tsid, err := ParseTargetStackID("did:ndn:abc123:4000")
	require.NoError(t, err)
	assert.Equal(t, TargetIDDeviceDID, tsid.ID.Kind)
	assert.Equal(t, "did:ndn:abc123", tsid.ID.DID)
	assert.Equal(t, uint16(4000), tsid.StackPort)
}

func TestParseTargetStackIDDIDNoPort(t *testing.T) {
	tsid, err := ParseTargetStackID("did:ndn:abc123")
	require.NoError(t, err)
	assert.Equal(t, "did:ndn:abc123", tsid.ID.DID)
	assert.Equal(t, DefaultStackPort, tsid.StackPort)
}

func TestTargetStackIDString(t *testing.T) {
	tsid := TargetStackID{ID: TargetID{Kind: TargetIDDeviceName, Name: "ood1"}, StackPort: 2980}
	assert.Equal(t, "ood1:2980", tsid.String())
}

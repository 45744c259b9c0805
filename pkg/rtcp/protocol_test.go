package rtcp

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRecvPacket(t *testing.T) {
	var buf bytes.Buffer
	err := SendPacket(&buf, Hello{Cmd: CmdHello, FromID: "a", ToID: "b", TestPort: 123})
	require.NoError(t, err)

	cmd, payload, err := RecvPacket(&buf)
	require.NoError(t, err)
	assert.Equal(t, CmdHello, cmd)

	var hello Hello
	require.NoError(t, decodeJSON(payload, &hello))
	assert.Equal(t, "a", hello.FromID)
	assert.Equal(t, "b", hello.ToID)
	assert.Equal(t, uint16(123), hello.TestPort)
}

func TestReadPacketTooLarge(t *testing.T) {
	var buf bytes.Buffer
	lenBuf := make([]byte, 4)
	lenBuf[0] = 0xFF
	lenBuf[1] = 0xFF
	lenBuf[2] = 0xFF
	lenBuf[3] = 0xFF
	buf.Write(lenBuf)

	_, err := ReadPacket(&buf)
	assert.Error(t, err)
}

func TestRecvPacketShortRead(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("ab")
	_, _, err := RecvPacket(&buf)
	assert.Error(t, err)
}

func TestWritePacketFraming(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePacket(&buf, []byte("hi")))
	require.Equal(t, []byte{0, 0, 0, 2, 'h', 'i'}, buf.Bytes())
}

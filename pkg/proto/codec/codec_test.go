package codec

import (
	"bytes"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.craftchat.dev/craftchat/pkg/proto"
	"go.craftchat.dev/craftchat/pkg/proto/packet"
	"go.craftchat.dev/craftchat/pkg/proto/state"
	"go.craftchat.dev/craftchat/pkg/proto/util"
	"go.craftchat.dev/craftchat/pkg/proto/version"
	"go.craftchat.dev/craftchat/pkg/util/errs"
)

func newPair(buf *bytes.Buffer) (*Encoder, *Decoder) {
	enc := NewEncoder(buf, proto.ClientBound, logr.Discard())
	dec := NewDecoder(buf, proto.ClientBound, logr.Discard())
	return enc, dec
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, v := range version.Versions {
		t.Run(v.String(), func(t *testing.T) {
			var buf bytes.Buffer
			enc, dec := newPair(&buf)
			enc.SetState(state.Status)
			enc.SetProtocol(v.Protocol)
			dec.SetState(state.Status)
			dec.SetProtocol(v.Protocol)

			status := `{"description":{"text":"hello"}}`
			_, err := enc.WritePacket(&packet.StatusResponse{Status: status})
			require.NoError(t, err)

			ctx, err := dec.Decode()
			require.NoError(t, err)
			require.True(t, ctx.KnownPacket())
			res, ok := ctx.Packet.(*packet.StatusResponse)
			require.True(t, ok, "expected *packet.StatusResponse, got %T", ctx.Packet)
			assert.Equal(t, status, res.Status)
		})
	}
}

func TestEncodeDecode_Compressed(t *testing.T) {
	const threshold = 64

	t.Run("below threshold stays uncompressed", func(t *testing.T) {
		var buf bytes.Buffer
		enc, dec := newPair(&buf)
		enc.SetState(state.Status)
		dec.SetState(state.Status)
		require.NoError(t, enc.SetCompression(threshold, -1))
		dec.SetCompressionThreshold(threshold)

		status := `{"short":true}`
		_, err := enc.WritePacket(&packet.StatusResponse{Status: status})
		require.NoError(t, err)

		// Frame is: length + 0x00 (uncompressed marker) + payload.
		frame := buf.Bytes()
		length, n, err := util.ReadVarIntReturnN(bytes.NewReader(frame))
		require.NoError(t, err)
		require.Equal(t, length, len(frame)-n)
		assert.Equal(t, byte(0), frame[n], "expected uncompressed data-length marker")

		ctx, err := dec.Decode()
		require.NoError(t, err)
		res := ctx.Packet.(*packet.StatusResponse)
		assert.Equal(t, status, res.Status)
	})

	t.Run("above threshold round trips", func(t *testing.T) {
		var buf bytes.Buffer
		enc, dec := newPair(&buf)
		enc.SetState(state.Status)
		dec.SetState(state.Status)
		require.NoError(t, enc.SetCompression(threshold, -1))
		dec.SetCompressionThreshold(threshold)

		status := `{"description":{"text":"` + strings.Repeat("craft", 100) + `"}}`
		_, err := enc.WritePacket(&packet.StatusResponse{Status: status})
		require.NoError(t, err)

		ctx, err := dec.Decode()
		require.NoError(t, err)
		res := ctx.Packet.(*packet.StatusResponse)
		assert.Equal(t, status, res.Status)
	})
}

func TestDecoder_UnknownPacketKeepsPayload(t *testing.T) {
	var payload bytes.Buffer
	_ = util.WriteVarInt(&payload, 0x7A) // not registered in status state
	payload.WriteString("data")
	var buf bytes.Buffer
	_ = util.WriteVarInt(&buf, payload.Len())
	buf.Write(payload.Bytes())

	dec := NewDecoder(&buf, proto.ClientBound, logr.Discard())
	dec.SetState(state.Status)

	ctx, err := dec.Decode()
	require.NoError(t, err)
	assert.False(t, ctx.KnownPacket())
	assert.Equal(t, payload.Len(), len(ctx.Payload))
}

// Frame-level read errors come back silent so the read loop can retry
// or close without logging every short read.
func TestDecoder_FrameErrorIsSilent(t *testing.T) {
	// Length prefix claims 5 bytes, only 1 follows.
	dec := NewDecoder(bytes.NewReader([]byte{0x05, 0x01}), proto.ClientBound, logr.Discard())
	dec.SetState(state.Status)

	_, err := dec.Decode()
	require.Error(t, err)
	assert.True(t, errs.Silent(err))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestParseFrame_Incremental(t *testing.T) {
	var payload bytes.Buffer
	_ = util.WriteVarInt(&payload, 0x00)
	_ = util.WriteString(&payload, "ping")
	var frame bytes.Buffer
	_ = util.WriteVarInt(&frame, payload.Len())
	frame.Write(payload.Bytes())
	raw := frame.Bytes()

	// Every prefix short of the full frame yields no frame and no error.
	for i := 0; i < len(raw); i++ {
		got, n, err := ParseFrame(raw[:i])
		require.NoError(t, err, "prefix length %d", i)
		assert.Nil(t, got, "prefix length %d", i)
		assert.Zero(t, n, "prefix length %d", i)
	}

	got, n, err := ParseFrame(raw)
	require.NoError(t, err)
	assert.Equal(t, payload.Bytes(), got)
	assert.Equal(t, len(raw), n)

	// Trailing bytes of the next frame are not consumed.
	withNext := append(append([]byte{}, raw...), 0x05, 0x01)
	got, n, err = ParseFrame(withNext)
	require.NoError(t, err)
	assert.Equal(t, payload.Bytes(), got)
	assert.Equal(t, len(raw), n)
}

func TestParseFrame_InvalidLength(t *testing.T) {
	var buf bytes.Buffer
	_ = util.WriteVarInt(&buf, MaxFrameLength+1)
	_, _, err := ParseFrame(buf.Bytes())
	require.Error(t, err)
}

func TestParseCompressedFrame(t *testing.T) {
	const threshold = 16
	var buf bytes.Buffer
	enc := NewEncoder(&buf, proto.ClientBound, logr.Discard())
	enc.SetState(state.Status)
	require.NoError(t, enc.SetCompression(threshold, -1))

	status := `{"description":{"text":"` + strings.Repeat("x", 64) + `"}}`
	_, err := enc.WritePacket(&packet.StatusResponse{Status: status})
	require.NoError(t, err)

	payload, n, err := ParseCompressedFrame(buf.Bytes(), threshold)
	require.NoError(t, err)
	assert.Equal(t, buf.Len(), n)

	// payload is packet id + data
	rd := bytes.NewReader(payload)
	id, err := util.ReadVarInt(rd)
	require.NoError(t, err)
	assert.Equal(t, 0x00, id)
	s, err := util.ReadString(rd)
	require.NoError(t, err)
	assert.Equal(t, status, s)
}

func TestCipher_RoundTrip(t *testing.T) {
	secret := make([]byte, 16)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	var wire bytes.Buffer
	w, err := NewEncryptWriter(&wire, secret)
	require.NoError(t, err)

	plain := []byte("the quick brown fox jumps over the lazy dog")
	_, err = w.Write(plain)
	require.NoError(t, err)
	require.NotEqual(t, plain, wire.Bytes())

	r, err := NewDecryptReader(&wire, secret)
	require.NoError(t, err)
	got := make([]byte, len(plain))
	_, err = io.ReadFull(r, got)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

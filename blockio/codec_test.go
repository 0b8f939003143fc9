package blockio

import (
	"testing"

	"github.com/emaildb/emaildb/block"
	"github.com/emaildb/emaildb/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBlock() block.Block {
	return block.Block{
		Version:   block.CurrentVersion,
		Type:      block.TypeEmailBatch,
		Flags:     block.NewFlags(block.CompressionZstd, block.EncryptionNone),
		Encoding:  block.EncodingRawBytes,
		Timestamp: 1700000000,
		BlockID:   42,
		Payload:   []byte("hello, emaildb"),
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	b := sampleBlock()
	frame := Encode(b)

	decoded, err := Decode(frame)
	require.NoError(t, err)
	assert.Equal(t, b.Version, decoded.Block.Version)
	assert.Equal(t, b.Type, decoded.Block.Type)
	assert.Equal(t, b.Flags, decoded.Block.Flags)
	assert.Equal(t, b.Encoding, decoded.Block.Encoding)
	assert.Equal(t, b.Timestamp, decoded.Block.Timestamp)
	assert.Equal(t, b.BlockID, decoded.Block.BlockID)
	assert.Equal(t, b.Payload, decoded.Block.Payload)
}

func TestEncodeDecode_EmptyPayload(t *testing.T) {
	b := sampleBlock()
	b.Payload = nil

	frame := Encode(b)
	decoded, err := Decode(frame)
	require.NoError(t, err)
	assert.Empty(t, decoded.Block.Payload)
}

func TestEncodeInto_BufferTooSmall(t *testing.T) {
	b := sampleBlock()
	dst := make([]byte, 4)

	_, err := EncodeInto(dst, b)
	assert.ErrorIs(t, err, errs.ErrTruncatedBlock)
}

func TestEncodeInto_ReusesBuffer(t *testing.T) {
	b := sampleBlock()
	dst := make([]byte, FrameLen(len(b.Payload))+64)

	n, err := EncodeInto(dst, b)
	require.NoError(t, err)
	assert.Equal(t, FrameLen(len(b.Payload)), n)

	decoded, err := Decode(dst[:n])
	require.NoError(t, err)
	assert.Equal(t, b.Payload, decoded.Block.Payload)
}

func TestDecode_TruncatedFrame(t *testing.T) {
	frame := Encode(sampleBlock())

	_, err := Decode(frame[:len(frame)-5])
	assert.ErrorIs(t, err, errs.ErrTruncatedBlock)
}

func TestDecode_HeaderMagicMismatch(t *testing.T) {
	frame := Encode(sampleBlock())
	frame[0] ^= 0xFF

	_, err := Decode(frame)
	assert.ErrorIs(t, err, errs.ErrHeaderMagicMismatch)
}

func TestDecode_HeaderCrcMismatch(t *testing.T) {
	frame := Encode(sampleBlock())
	frame[offTimestamp] ^= 0xFF

	_, err := Decode(frame)
	assert.ErrorIs(t, err, errs.ErrHeaderCrcMismatch)
}

func TestDecode_PayloadCrcMismatch(t *testing.T) {
	frame := Encode(sampleBlock())
	payloadStart := offPayloadCrc + 4
	frame[payloadStart] ^= 0xFF

	_, err := Decode(frame)
	assert.ErrorIs(t, err, errs.ErrPayloadCrcMismatch)
}

func TestDecode_TotalCrcMismatch(t *testing.T) {
	frame := Encode(sampleBlock())
	footerStart := len(frame) - footerFixedLen
	frame[footerStart] ^= 0xFF

	_, err := Decode(frame)
	assert.ErrorIs(t, err, errs.ErrTotalCrcMismatch)
}

func TestDecode_FooterMagicMismatch(t *testing.T) {
	frame := Encode(sampleBlock())
	frame[len(frame)-1] ^= 0xFF

	_, err := Decode(frame)
	assert.ErrorIs(t, err, errs.ErrFooterMagicMismatch)
}

func TestDecode_PayloadLengthMismatch(t *testing.T) {
	frame := Encode(sampleBlock())
	footerStart := len(frame) - footerFixedLen
	le.PutUint32(frame[footerStart+4:], 999)

	_, err := Decode(frame)
	assert.ErrorIs(t, err, errs.ErrPayloadLengthMismatch)
}

func TestFrameLen_MatchesEncodedLength(t *testing.T) {
	b := sampleBlock()
	assert.Equal(t, FrameLen(len(b.Payload)), len(Encode(b)))
}

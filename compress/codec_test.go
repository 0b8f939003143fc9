package compress

import (
	"testing"

	"github.com/emaildb/emaildb/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allCodecs() map[string]Codec {
	return map[string]Codec{
		"noop": NewNoOpCompressor(),
		"zstd": NewZstdCompressor(),
		"s2":   NewS2Compressor(),
		"lz4":  NewLZ4Compressor(),
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated.")

	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Equal(t, payload, decompressed)
		})
	}
}

func TestCodecs_EmptyInput(t *testing.T) {
	for name, codec := range allCodecs() {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(nil)
			require.NoError(t, err)

			decompressed, err := codec.Decompress(compressed)
			require.NoError(t, err)
			assert.Empty(t, decompressed)
		})
	}
}

func TestCreateCodec_UnknownAlgo(t *testing.T) {
	_, err := CreateCodec(block.CompressionAlgo(200), "test block")
	assert.Error(t, err)
}

func TestCreateCodec_KnownAlgos(t *testing.T) {
	for _, algo := range []block.CompressionAlgo{
		block.CompressionNone, block.CompressionZstd, block.CompressionS2, block.CompressionLZ4,
	} {
		codec, err := CreateCodec(algo, "test block")
		require.NoError(t, err)
		assert.NotNil(t, codec)
	}
}

func TestGetCodec_UnknownAlgo(t *testing.T) {
	_, err := GetCodec(block.CompressionAlgo(200))
	assert.Error(t, err)
}

func TestNoOpCompressor_ReturnsInputUnchanged(t *testing.T) {
	data := []byte("passthrough")
	c := NewNoOpCompressor()

	compressed, err := c.Compress(data)
	require.NoError(t, err)
	assert.Equal(t, data, compressed)

	decompressed, err := c.Decompress(compressed)
	require.NoError(t, err)
	assert.Equal(t, data, decompressed)
}

package compress

import (
	"fmt"

	"github.com/emaildb/emaildb/block"
)

// Compressor compresses a single payload. EmailDB applies compression after
// a block's payload (or, for an EmailBatch, the TOC-indexed batch body) has
// already been built, so the interface operates on opaque bytes rather than
// any particular wire format.
type Compressor interface {
	// Compress compresses data and returns the compressed result.
	//
	// The input slice is never modified. NoOpCompressor returns the input
	// slice itself; the other codecs return a newly allocated slice owned
	// by the caller.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses Compressor. A Decompressor must be able to decode
// anything its matching Compressor produced.
type Decompressor interface {
	// Decompress decompresses data and returns the original bytes.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions for a single algorithm.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec builds a Codec for the given algorithm. target names the
// caller for error messages (e.g. "email batch", "metadata block").
func CreateCodec(algo block.CompressionAlgo, target string) (Codec, error) {
	switch algo {
	case block.CompressionNone:
		return NewNoOpCompressor(), nil
	case block.CompressionZstd:
		return NewZstdCompressor(), nil
	case block.CompressionS2:
		return NewS2Compressor(), nil
	case block.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression: %s", target, algo)
	}
}

var builtinCodecs = map[block.CompressionAlgo]Codec{
	block.CompressionNone: NewNoOpCompressor(),
	block.CompressionZstd: NewZstdCompressor(),
	block.CompressionS2:   NewS2Compressor(),
	block.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for algo without allocating a new one
// per call.
func GetCodec(algo block.CompressionAlgo) (Codec, error) {
	if codec, ok := builtinCodecs[algo]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression algorithm: %s", algo)
}

// Package compress provides compression codecs for EmailDB block payloads.
//
// # Overview
//
// Any block's payload, and an EmailBatch's serialized TOC+body in
// particular, may optionally be compressed before it is framed by package
// blockio. The algorithm used is recorded in block.Flags so a reader never
// has to guess:
//
//   - None: no compression, fastest, largest on disk
//   - Zstd: best ratio, moderate speed — good for cold batches
//   - S2: balanced ratio and speed
//   - LZ4: fastest decompression, moderate ratio
//
// # Architecture
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Choosing an algorithm
//
// CreateCodec and GetCodec both take a block.CompressionAlgo, the same
// value stored in a block's Flags:
//
//	codec, err := compress.GetCodec(block.CompressionZstd)
//	compressed, err := codec.Compress(batchBytes)
//	...
//	original, err := codec.Decompress(compressed)
//
// | Workload                | Recommended | Reason                         |
// |-------------------------|-------------|---------------------------------|
// | Cold, rarely-read batch | Zstd        | Best ratio                      |
// | Active mailbox writes   | S2 or LZ4   | Low latency                     |
// | Already-compressed data | None        | Avoid wasted CPU                |
//
// # Thread safety
//
// All codec implementations are safe for concurrent use; the Zstd codec
// pools its encoders/decoders internally via sync.Pool.
//
// # Error handling
//
// Compress errors are rare (only on pathological input sizes).
// Decompress errors indicate the payload's Flags disagree with its actual
// bytes — corruption or a bug upstream — and are wrapped with context.
package compress

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/emaildb/emaildb/errs"
)

// zstdDecoderMaxMemory bounds how much memory a single Decompress call may
// allocate while inflating a frame. It must comfortably cover the largest
// legitimate EmailBatch payload (AdaptiveSizer's 1 GiB top step,
// blockfile/sizer.go) while still rejecting a corrupted frame whose header
// claims an unreasonable size before that size is ever allocated.
const zstdDecoderMaxMemory = 2 << 30 // 2 GiB

// ZstdCompressor provides Zstandard compression, the best ratio of the
// four codecs at the cost of the most CPU. Good for email batches destined
// for cold storage or for a metadata block that is written once and read
// rarely.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}

// zstdDecoderPool pools zstd decoders for reuse. klauspost/compress/zstd is
// explicitly designed for this: the decoder is meant to be kept around and
// reused rather than recreated per call.
var zstdDecoderPool = sync.Pool{
	New: func() any {
		decoder, err := zstd.NewReader(nil,
			zstd.WithDecoderConcurrency(1),
			zstd.WithDecoderLowmem(false),
			zstd.WithDecoderMaxMemory(zstdDecoderMaxMemory),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd decoder for pool: %v", err))
		}

		return decoder
	},
}

// zstdEncoderPool pools zstd encoders for reuse.
var zstdEncoderPool = sync.Pool{
	New: func() any {
		encoder, err := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedDefault),
			zstd.WithEncoderCRC(false),
		)
		if err != nil {
			panic(fmt.Sprintf("failed to create zstd encoder for pool: %v", err))
		}

		return encoder
	},
}

// Compress compresses data using Zstandard, via a pooled encoder.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	encoder := zstdEncoderPool.Get().(*zstd.Encoder)
	defer zstdEncoderPool.Put(encoder)

	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses Zstd-compressed data using a pooled decoder. The
// decoder remains reusable even after a failed call. A frame whose header
// claims more than zstdDecoderMaxMemory bytes of output, or whose bytes
// otherwise fail to inflate, is treated as a corrupt EmailBatch payload
// rather than a memory-exhaustion hazard.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	decoder := zstdDecoderPool.Get().(*zstd.Decoder)
	defer zstdDecoderPool.Put(decoder)

	decompressed, err := decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decompress: %v", errs.ErrCorruptBlock, err)
	}

	return decompressed, nil
}

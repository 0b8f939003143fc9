package compress

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/emaildb/emaildb/errs"
)

// lz4MaxDecompressBytes bounds how large a buffer Decompress will grow to
// before giving up. It must cover the largest EmailBatch payload an
// AdaptiveSizer can ever target (1 GiB, blockfile's top step) plus the
// batch's TOC overhead, with headroom — unlike mebo's columnar blobs,
// EmailDB's batch payloads can legitimately approach that ceiling.
const lz4MaxDecompressBytes = 2 << 30 // 2 GiB

// lz4CompressorPool pools lz4.Compressor instances for reuse.
// The lz4.Compressor maintains internal state that benefits from reuse.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor trades compression ratio for decompression speed, the
// right tradeoff for a mailbox that's actively being read rather than one
// parked in cold storage.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses data using a pooled lz4.Compressor.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dstSize := lz4.CompressBlockBound(len(data))
	dst := make([]byte, dstSize)

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: lz4 compress: %v", errs.ErrIO, err)
	}

	return dst[:n], nil
}

// Decompress reverses Compress. LZ4's block format carries no
// uncompressed-size hint of its own, so this grows its destination buffer
// starting at 4x the input size and doubling on
// lz4.ErrInvalidSourceShortBuffer until it succeeds or exceeds
// lz4MaxDecompressBytes, at which point the payload is treated as
// corrupt rather than retried indefinitely.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	bufSize := len(data) * 4

	for bufSize <= lz4MaxDecompressBytes {
		buf := make([]byte, bufSize)
		n, err := lz4.UncompressBlock(data, buf)
		if err != nil {
			if errors.Is(err, lz4.ErrInvalidSourceShortBuffer) && bufSize < lz4MaxDecompressBytes {
				bufSize *= 2
				continue
			}

			return nil, fmt.Errorf("%w: lz4 decompress: %v", errs.ErrCorruptBlock, err)
		}

		return buf[:n], nil
	}

	return nil, fmt.Errorf("%w: lz4 decompressed size exceeds %d bytes", errs.ErrCorruptBlock, lz4MaxDecompressBytes)
}

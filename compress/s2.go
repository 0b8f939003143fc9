package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/emaildb/emaildb/errs"
)

// S2Compressor balances ratio and speed, the default choice for a batch
// being written by an active mailbox rather than flushed to cold storage.
// Unlike LZ4, S2's block format carries its own uncompressed-length
// varint, so Decompress needs no batch-size-aware buffer growth loop.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses data using S2's block format.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress reverses Compress. A malformed or truncated EmailBatch
// payload surfaces as errs.ErrCorruptBlock, the same sentinel
// BlockFile.Read uses for a damaged frame, so callers can treat "the
// batch's bytes don't match its Flags" uniformly regardless of which
// layer detected it.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: s2 decompress: %v", errs.ErrCorruptBlock, err)
	}

	return out, nil
}

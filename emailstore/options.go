package emailstore

import (
	"github.com/emaildb/emaildb/block"
	"github.com/emaildb/emaildb/compress"
	"github.com/emaildb/emaildb/internal/options"
)

// Config holds EmailStore's configurable behavior.
type Config struct {
	compression block.CompressionAlgo
}

func newDefaultConfig() *Config {
	return &Config{compression: block.CompressionNone}
}

// Option configures an EmailStore at construction time.
type Option = options.Option[*Config]

// WithBatchCompression selects the compression algorithm applied to a
// batch's serialized payload before it is framed as an EmailBatch block.
// The default is block.CompressionNone; decode is transparent to callers
// of Get regardless of which algorithm was in effect when a given batch
// was flushed, since the algorithm travels with the block's Flags. algo
// must name a codec compress.GetCodec recognizes.
func WithBatchCompression(algo block.CompressionAlgo) Option {
	return options.New(func(c *Config) error {
		if _, err := compress.GetCodec(algo); err != nil {
			return err
		}
		c.compression = algo

		return nil
	})
}

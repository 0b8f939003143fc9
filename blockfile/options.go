package blockfile

import (
	"fmt"

	"github.com/emaildb/emaildb/internal/options"
)

// Config holds BlockFile's configurable knobs. Most callers never
// construct one directly; Open builds it from defaults plus the Options
// passed in.
type Config struct {
	createIfMissing bool
	sizer           Sizer
	lockTimeoutMS   int
}

func newDefaultConfig() *Config {
	return &Config{
		createIfMissing: false,
		sizer:           NewAdaptiveSizer(),
		lockTimeoutMS:   0, // fail fast by default: FileLocked rather than block
	}
}

// Sizer maps a file size to a target batch payload size. AdaptiveSizer is
// the only production implementation; the interface exists so tests can
// substitute a fixed target.
type Sizer interface {
	TargetBatchSize(fileSizeBytes int64) int64
}

// Option configures a BlockFile at Open time.
type Option = options.Option[*Config]

// WithCreateIfMissing makes Open create the file when it doesn't already
// exist, instead of failing.
func WithCreateIfMissing(create bool) Option {
	return options.NoError(func(c *Config) {
		c.createIfMissing = create
	})
}

// WithSizer overrides the AdaptiveSizer used to size future batches. Tests
// use this to pin a target without synthesizing a multi-gigabyte file.
func WithSizer(s Sizer) Option {
	return options.NoError(func(c *Config) {
		c.sizer = s
	})
}

// WithLockTimeout sets how long Open waits to acquire the exclusive
// advisory lock before giving up, in milliseconds. 0 means try once and
// fail immediately with FileLocked. A negative value is rejected: it has
// no sensible meaning for a wait duration and almost always indicates a
// caller passed a subtraction or unit-conversion result that underflowed.
func WithLockTimeout(ms int) Option {
	return options.New(func(c *Config) error {
		if ms < 0 {
			return fmt.Errorf("lock timeout must be >= 0ms, got %d", ms)
		}
		c.lockTimeoutMS = ms

		return nil
	})
}

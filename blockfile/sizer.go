package blockfile

const (
	mib = 1 << 20
	gib = 1 << 30
)

// sizeStep pairs an upper file-size bound with the target batch payload
// size to use below it.
type sizeStep struct {
	belowBytes int64 // exclusive upper bound; 0 means "no upper bound"
	target     int64
}

// sizeTable is a monotone non-decreasing step function: for any two file
// sizes a <= b, TargetBatchSize(a) <= TargetBatchSize(b). Entries must stay
// ordered by belowBytes ascending with the final entry's belowBytes == 0.
var sizeTable = []sizeStep{
	{belowBytes: 5 * gib, target: 50 * mib},
	{belowBytes: 25 * gib, target: 100 * mib},
	{belowBytes: 100 * gib, target: 250 * mib},
	{belowBytes: 500 * gib, target: 500 * mib},
	{belowBytes: 0, target: 1 * gib},
}

// AdaptiveSizer maps the current file size to a target batch payload size.
// Larger files get larger batches: fewer, bigger blocks amortize per-block
// framing and TOC overhead as a corpus grows.
type AdaptiveSizer struct{}

// NewAdaptiveSizer returns a sizer using the standard step table.
func NewAdaptiveSizer() AdaptiveSizer {
	return AdaptiveSizer{}
}

// TargetBatchSize returns the target payload size in bytes for a file
// currently fileSizeBytes long.
func (AdaptiveSizer) TargetBatchSize(fileSizeBytes int64) int64 {
	for _, step := range sizeTable {
		if step.belowBytes == 0 || fileSizeBytes < step.belowBytes {
			return step.target
		}
	}

	// unreachable: sizeTable's final entry always has belowBytes == 0
	return sizeTable[len(sizeTable)-1].target
}

package blockfile

import (
	"sync"

	"github.com/emaildb/emaildb/errs"
)

// BlockIndex is the in-memory map BlockId -> BlockLocation rebuilt by
// scanning at open and kept current on every append. Lookups never touch
// disk; BlockFile.Read does that once a caller has a location.
//
// Latest-write-wins: whichever location was recorded last for a given id,
// whether during the initial scan (by offset order) or by a subsequent
// append, is the one returned by Lookup.
type BlockIndex struct {
	mu   sync.RWMutex
	locs map[int64]BlockLocation

	liveBlockCount  int
	supersededBytes int64
}

// NewBlockIndex returns an empty index, ready to be populated by Record.
func NewBlockIndex() *BlockIndex {
	return &BlockIndex{locs: make(map[int64]BlockLocation)}
}

// Record unconditionally replaces the location for loc.BlockID. If a prior
// location existed, its length is added to supersededBytes bookkeeping;
// otherwise liveBlockCount increases.
func (idx *BlockIndex) Record(loc BlockLocation) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if prev, ok := idx.locs[loc.BlockID]; ok {
		idx.supersededBytes += prev.Length
	} else {
		idx.liveBlockCount++
	}
	idx.locs[loc.BlockID] = loc
}

// RecordScanned applies the same latest-write-wins rule as Record, but is
// named separately so callers rebuilding from a Scan can distinguish
// "replayed history" from "new write" in logs if they choose to.
func (idx *BlockIndex) RecordScanned(loc BlockLocation) {
	idx.Record(loc)
}

// Lookup returns the current location for id, or ErrBlockNotFound.
func (idx *BlockIndex) Lookup(id int64) (BlockLocation, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	loc, ok := idx.locs[id]
	if !ok {
		return BlockLocation{}, errs.ErrBlockNotFound
	}

	return loc, nil
}

// Delete removes id from the index entirely, lowering the live count if
// id was present.
func (idx *BlockIndex) Delete(id int64) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, ok := idx.locs[id]; ok {
		idx.liveBlockCount--
	}
	delete(idx.locs, id)
}

// Reset clears the index back to empty. BlockFile calls it before
// re-recording every block found by a scan of the file.
func (idx *BlockIndex) Reset() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.locs = make(map[int64]BlockLocation)
	idx.liveBlockCount = 0
	idx.supersededBytes = 0
}

// Live returns every currently-live (BlockID, BlockLocation) pair. The
// order is unspecified.
func (idx *BlockIndex) Live() []BlockLocation {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]BlockLocation, 0, len(idx.locs))
	for _, loc := range idx.locs {
		out = append(out, loc)
	}

	return out
}

// LiveBlockCount returns the number of distinct ids currently indexed.
// Bookkeeping only; it has no bearing on correctness.
func (idx *BlockIndex) LiveBlockCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.liveBlockCount
}

// SupersededBytes returns the accumulated length of all locations that
// have since been replaced by a newer write for the same id. This is the
// figure a caller watches to decide when compaction is worthwhile.
func (idx *BlockIndex) SupersededBytes() int64 {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.supersededBytes
}

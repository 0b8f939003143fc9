package blockfile

import (
	"fmt"
	"os"
	"sort"

	"github.com/emaildb/emaildb/errs"
)

// Compactor rewrites a BlockFile offline, keeping only the latest version
// of each BlockId and dropping superseded versions and inter-record
// garbage. It must not run concurrently with any reader or writer of the
// target file.
type Compactor struct {
	bf *BlockFile
}

// NewCompactor returns a Compactor targeting bf.
func NewCompactor(bf *BlockFile) *Compactor {
	return &Compactor{bf: bf}
}

// CompactionEstimate is the result of a dry run: what compaction would
// reclaim without actually rewriting anything.
type CompactionEstimate struct {
	CurrentSize    int64
	ProjectedSize  int64
	ReclaimedBytes int64
}

// Estimate reports what Compact would reclaim, using the index's current
// view of the live set, without touching disk.
func (c *Compactor) Estimate() CompactionEstimate {
	var liveTotal int64
	for _, loc := range c.bf.index.Live() {
		liveTotal += loc.Length
	}

	current := c.bf.Size()

	return CompactionEstimate{
		CurrentSize:    current,
		ProjectedSize:  liveTotal,
		ReclaimedBytes: current - liveTotal,
	}
}

// Compact performs the rewrite: live frames are copied byte-for-byte (no
// re-encoding, so their checksums remain valid) into a sibling ".tmp"
// file, which is fsynced and then swapped into place via the original ->
// ".bak", tmp -> original rename sequence. If any step before the first
// rename fails, the original file is untouched. If the rename to ".bak"
// succeeds but the rename from ".tmp" fails, the original bytes are still
// recoverable from ".bak".
func (c *Compactor) Compact() error {
	path := c.bf.path
	tmpPath := path + ".tmp"
	bakPath := path + ".bak"

	tmp, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", errs.ErrIO, tmpPath, err)
	}

	live := c.bf.index.Live()
	sort.Slice(live, func(i, j int) bool {
		// the header record, if live, must land first so a reopen can find
		// it at offset 0
		if live[i].BlockID == HeaderBlockID {
			return true
		}
		if live[j].BlockID == HeaderBlockID {
			return false
		}

		return live[i].Position < live[j].Position
	})

	var offset int64
	for _, loc := range live {
		buf := make([]byte, loc.Length)
		if _, err := c.bf.file.ReadAt(buf, loc.Position); err != nil {
			tmp.Close()
			os.Remove(tmpPath)

			return fmt.Errorf("%w: reading live block %d: %v", errs.ErrIO, loc.BlockID, err)
		}

		if _, err := tmp.WriteAt(buf, offset); err != nil {
			tmp.Close()
			os.Remove(tmpPath)

			return fmt.Errorf("%w: writing compacted block %d: %v", errs.ErrIO, loc.BlockID, err)
		}

		offset += loc.Length
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)

		return fmt.Errorf("%w: fsync %s: %v", errs.ErrIO, tmpPath, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)

		return fmt.Errorf("%w: closing %s: %v", errs.ErrIO, tmpPath, err)
	}

	if err := os.Rename(path, bakPath); err != nil {
		return fmt.Errorf("%w: renaming %s to backup: %v", errs.ErrCompactionAborted, path, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("%w: renaming compacted file into place, original preserved at %s: %v", errs.ErrCompactionAborted, bakPath, err)
	}

	return nil
}

// FinalizeBackup removes the ".bak" file left behind by a successful
// Compact, once the caller has reopened and verified the new file.
func (c *Compactor) FinalizeBackup() error {
	return os.Remove(c.bf.path + ".bak")
}

// RecoverFromBackup is used when a crash is discovered between the two
// renames in Compact: ".bak" holds the pre-compaction file and the
// original path is either missing or holds an unfinished ".tmp" rename.
// It restores ".bak" back to the original path.
func RecoverFromBackup(path string) error {
	bakPath := path + ".bak"
	if _, err := os.Stat(bakPath); err != nil {
		return fmt.Errorf("%w: no backup at %s: %v", errs.ErrIO, bakPath, err)
	}

	return os.Rename(bakPath, path)
}

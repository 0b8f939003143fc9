package blockfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/emaildb/emaildb/block"
	"github.com/emaildb/emaildb/blockio"
	"github.com/emaildb/emaildb/errs"
	"github.com/emaildb/emaildb/internal/options"
	"github.com/emaildb/emaildb/internal/pool"
)

// BlockFile is the append-only, checksummed container backing a single
// EmailDB file. One writer appends blocks to the end; readers use
// Read(BlockLocation) to fetch an already-indexed block independently of
// the writer's position.
type BlockFile struct {
	path string
	file *os.File
	lock *flock.Flock

	cfg   *Config
	index *BlockIndex

	writeMu sync.Mutex
	size    int64

	warnings []blockio.ScanWarning
}

// Open acquires an exclusive advisory lock (held on the sibling file
// path+".lock") for path, then scans
// the file (if any) to rebuild its BlockIndex. A failure to acquire the
// lock returns errs.ErrFileLocked. A damaged file never prevents Open from
// succeeding: whatever blocks survive the scan are indexed, and the
// warnings describing what didn't are available via Warnings().
func Open(path string, opts ...Option) (*BlockFile, error) {
	cfg := newDefaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path + ".bak"); err == nil {
		if err := RecoverFromBackup(path); err != nil {
			return nil, fmt.Errorf("%w: rolling back incomplete compaction: %v", errs.ErrIO, err)
		}
	}

	flags := os.O_RDWR
	if cfg.createIfMissing {
		flags |= os.O_CREATE
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errs.ErrIO, path, err)
	}

	fileLock := flock.New(path + ".lock")
	locked, err := acquireLock(fileLock, cfg.lockTimeoutMS)
	if err != nil || !locked {
		f.Close()

		return nil, fmt.Errorf("%w: %s", errs.ErrFileLocked, path)
	}

	bf := &BlockFile{
		path:  path,
		file:  f,
		lock:  fileLock,
		cfg:   cfg,
		index: NewBlockIndex(),
	}

	info, err := f.Stat()
	if err != nil {
		bf.Close()

		return nil, fmt.Errorf("%w: stat %s: %v", errs.ErrIO, path, err)
	}
	bf.size = info.Size()

	if bf.size > 0 {
		if err := bf.rebuildIndex(); err != nil {
			bf.Close()

			return nil, err
		}
	}

	return bf, nil
}

func acquireLock(fl *flock.Flock, timeoutMS int) (bool, error) {
	if timeoutMS <= 0 {
		return fl.TryLock()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()

	return fl.TryLockContext(ctx, 20*time.Millisecond)
}

func (bf *BlockFile) rebuildIndex() error {
	buf := make([]byte, bf.size)
	if _, err := bf.file.ReadAt(buf, 0); err != nil && err != io.EOF {
		return fmt.Errorf("%w: reading %s for scan: %v", errs.ErrIO, bf.path, err)
	}

	result := blockio.Scan(buf)
	bf.index.Reset()
	for _, found := range result.Blocks {
		bf.index.Record(BlockLocation{
			Position: found.Offset,
			Length:   found.Length,
			BlockID:  found.Block.BlockID,
		})
	}
	bf.warnings = result.Warnings

	return nil
}

// Warnings returns whatever ScanWarnings were produced the last time the
// file was scanned (at Open, or by an explicit Scan call).
func (bf *BlockFile) Warnings() []blockio.ScanWarning {
	return bf.warnings
}

// Size returns the file's current length in bytes.
func (bf *BlockFile) Size() int64 {
	bf.writeMu.Lock()
	defer bf.writeMu.Unlock()

	return bf.size
}

// TargetBatchSize reports the batch payload size callers should aim for
// given the file's current size.
func (bf *BlockFile) TargetBatchSize() int64 {
	return bf.cfg.sizer.TargetBatchSize(bf.Size())
}

// Index returns the file's BlockIndex.
func (bf *BlockFile) Index() *BlockIndex {
	return bf.index
}

// Append frames b and writes it to the end of the file, updating the
// index. A short write rolls the file back to its pre-append length
// before returning errs.ErrIO, so a failed append never leaves a partial
// frame for the next scan to trip over.
func (bf *BlockFile) Append(b block.Block) (BlockLocation, error) {
	bf.writeMu.Lock()
	defer bf.writeMu.Unlock()

	fb := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(fb)

	frameLen := blockio.FrameLen(len(b.Payload))
	fb.Grow(frameLen)
	fb.SetLength(frameLen)

	n, err := blockio.EncodeInto(fb.Bytes(), b)
	if err != nil {
		return BlockLocation{}, err
	}
	frame := fb.Bytes()[:n]

	pos := bf.size

	written, err := bf.file.WriteAt(frame, pos)
	if err != nil || written != len(frame) {
		if truncErr := bf.file.Truncate(pos); truncErr != nil {
			return BlockLocation{}, fmt.Errorf("%w: append failed and rollback failed: %v / %v", errs.ErrIO, err, truncErr)
		}

		return BlockLocation{}, fmt.Errorf("%w: short append to %s: %v", errs.ErrIO, bf.path, err)
	}

	if err := bf.file.Sync(); err != nil {
		return BlockLocation{}, fmt.Errorf("%w: fsync %s: %v", errs.ErrIO, bf.path, err)
	}

	bf.size = pos + int64(len(frame))
	loc := BlockLocation{Position: pos, Length: int64(len(frame)), BlockID: b.BlockID}
	bf.index.Record(loc)

	return loc, nil
}

// OverwriteAt rewrites the block at offset, which must be 0 (the header
// record). Any other offset returns errs.ErrIllegalOverwrite.
func (bf *BlockFile) OverwriteAt(b block.Block, offset int64) (BlockLocation, error) {
	if offset != 0 {
		return BlockLocation{}, errs.ErrIllegalOverwrite
	}

	bf.writeMu.Lock()
	defer bf.writeMu.Unlock()

	frame := blockio.Encode(b)

	n, err := bf.file.WriteAt(frame, offset)
	if err != nil || n != len(frame) {
		return BlockLocation{}, fmt.Errorf("%w: header rewrite to %s: %v", errs.ErrIO, bf.path, err)
	}

	if err := bf.file.Sync(); err != nil {
		return BlockLocation{}, fmt.Errorf("%w: fsync %s: %v", errs.ErrIO, bf.path, err)
	}

	if offset+int64(len(frame)) > bf.size {
		bf.size = offset + int64(len(frame))
	}

	loc := BlockLocation{Position: offset, Length: int64(len(frame)), BlockID: b.BlockID}
	bf.index.Record(loc)

	return loc, nil
}

// Read fetches and validates the block at loc. It performs the same checks
// as a scan (header and footer magic, payload length equality, header,
// payload and total CRCs); a short read or any failed check returns
// errs.ErrCorruptBlock wrapping the specific cause, without otherwise
// disturbing the file or index.
func (bf *BlockFile) Read(loc BlockLocation) (block.Block, error) {
	buf := make([]byte, loc.Length)

	n, err := bf.file.ReadAt(buf, loc.Position)
	if err != nil && err != io.EOF {
		return block.Block{}, fmt.Errorf("%w: reading %s at %d: %v", errs.ErrIO, bf.path, loc.Position, err)
	}
	if int64(n) != loc.Length {
		return block.Block{}, fmt.Errorf("%w: short read at %d", errs.ErrCorruptBlock, loc.Position)
	}

	decoded, err := blockio.Decode(buf)
	if err != nil {
		return block.Block{}, fmt.Errorf("%w: %v", errs.ErrCorruptBlock, err)
	}

	return decoded.Block, nil
}

// Scan rescans the entire file from scratch, rebuilding the index and
// replacing Warnings(). It reads through the descriptor opened by Open, so
// it picks up changes written to that same file; after a Compactor swap
// the descriptor still refers to the pre-compaction file (now at ".bak"),
// and Scan does not load the compacted file.
func (bf *BlockFile) Scan() error {
	bf.writeMu.Lock()
	defer bf.writeMu.Unlock()

	info, err := bf.file.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", errs.ErrIO, bf.path, err)
	}
	bf.size = info.Size()

	return bf.rebuildIndex()
}

// Close releases the advisory lock and closes the underlying file
// descriptor.
func (bf *BlockFile) Close() error {
	var errLock, errFile error
	if bf.lock != nil {
		errLock = bf.lock.Unlock()
	}
	if bf.file != nil {
		errFile = bf.file.Close()
	}

	if errLock != nil {
		return errLock
	}

	return errFile
}

package emailstore

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/emaildb/emaildb/errs"
)

// PendingBlockID marks a CompoundID whose enclosing batch hasn't been
// flushed yet. Its BlockID is not yet meaningful outside this process and
// must not be persisted to an external index.
const PendingBlockID int64 = -1

// CompoundID identifies a single email across the store: the BlockId of
// its enclosing EmailBatch plus its dense LocalId within that batch's TOC.
//
// A CompoundID returned by Store while its batch is still buffered is a
// delayed-binding handle: every copy of it shares one idCell, and
// flushLocked resolves the cell of each pending id in the batch in place
// the moment the batch is durably appended. Every copy of a CompoundID value
// observes the same resolution, so a caller may hold onto a pending id
// across a later Flush() and have it become valid without calling Store
// or Get again. The zero CompoundID has a nil cell and is never Pending();
// it exists only as an error-path return value.
type CompoundID struct {
	cell    *idCell
	localID uint32
}

// idCell is the mutable, shared backing store a CompoundID's handle
// resolves through. Copies of a CompoundID share one idCell, so resolving
// it once resolves every outstanding copy.
type idCell struct {
	mu      sync.Mutex
	blockID int64
}

// NewCompoundID returns an already-resolved id, BlockID blockID and
// LocalID localID.
func NewCompoundID(blockID int64, localID uint32) CompoundID {
	return CompoundID{cell: &idCell{blockID: blockID}, localID: localID}
}

// newPendingID returns a handle for an entry still sitting in an unflushed
// batch. Its BlockID reads as PendingBlockID until resolve is called.
func newPendingID(localID uint32) CompoundID {
	return CompoundID{cell: &idCell{blockID: PendingBlockID}, localID: localID}
}

// resolve binds id's shared cell to blockID. flushLocked calls this once
// per pending entry, after the batch carrying it has been durably
// appended; every CompoundID copy sharing that cell observes the change.
func (id CompoundID) resolve(blockID int64) {
	id.cell.mu.Lock()
	defer id.cell.mu.Unlock()
	id.cell.blockID = blockID
}

// BlockID returns the id's current BlockId. It reads PendingBlockID until
// the enclosing batch has been flushed.
func (id CompoundID) BlockID() int64 {
	if id.cell == nil {
		return 0
	}

	id.cell.mu.Lock()
	defer id.cell.mu.Unlock()

	return id.cell.blockID
}

// LocalID returns the id's dense position within its batch's TOC. Unlike
// BlockID, it is fixed at creation: a batch's entry ordering never changes
// between Store and flush.
func (id CompoundID) LocalID() uint32 {
	return id.localID
}

// Pending reports whether id still awaits its batch being flushed.
func (id CompoundID) Pending() bool {
	return id.BlockID() == PendingBlockID
}

// String renders the compound id's textual form, "<BlockId>:<LocalId>".
// Calling it on a pending id is a programming error; use Pending() first.
func (id CompoundID) String() string {
	return fmt.Sprintf("%d:%d", id.BlockID(), id.localID)
}

// ParseCompoundID parses s, which must be exactly "<decimal BlockId>:<decimal LocalId>"
// with no leading zeros, no sign on either part, and no surrounding whitespace.
func ParseCompoundID(s string) (CompoundID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return CompoundID{}, fmt.Errorf("%w: %q", errs.ErrMalformedCompoundID, s)
	}

	blockPart, localPart := parts[0], parts[1]
	if !isStrictDecimal(blockPart) || !isStrictDecimal(localPart) {
		return CompoundID{}, fmt.Errorf("%w: %q", errs.ErrMalformedCompoundID, s)
	}

	blockID, err := strconv.ParseInt(blockPart, 10, 64)
	if err != nil {
		return CompoundID{}, fmt.Errorf("%w: %q: %v", errs.ErrMalformedCompoundID, s, err)
	}

	localID, err := strconv.ParseUint(localPart, 10, 32)
	if err != nil {
		return CompoundID{}, fmt.Errorf("%w: %q: %v", errs.ErrMalformedCompoundID, s, err)
	}

	return NewCompoundID(blockID, uint32(localID)), nil
}

// isStrictDecimal reports whether s is a sequence of ASCII digits with no
// leading zero (unless s is exactly "0") and no sign. PendingBlockID is
// never valid in textual form, so ParseCompoundID never needs to accept
// a '-'.
func isStrictDecimal(s string) bool {
	if s == "" {
		return false
	}

	if s[0] == '0' && len(s) != 1 {
		return false
	}

	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}

	return true
}

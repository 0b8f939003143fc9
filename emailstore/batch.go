package emailstore

import (
	"encoding/binary"

	"github.com/emaildb/emaildb/internal/fingerprint"
)

// Entry is a single email packed into a BatchBuilder. LocalID is dense and
// assigned at Add time; it never changes once assigned, even if later
// entries are added to the same builder.
type Entry struct {
	LocalID      uint32
	EnvelopeHash [32]byte
	ContentHash  [32]byte
	Data         []byte

	// ContentFingerprint is a cheap xxHash64 of Data, computed alongside
	// the SHA-256 content hash. EmailStore uses it to flag likely
	// duplicate bodies within a still-open batch without the cost of a
	// full hash comparison; it plays no role in the on-disk TOC or in
	// dedup correctness, which always rests on EnvelopeHash.
	ContentFingerprint uint64
}

// BatchBuilder accumulates emails into a single EmailBatch payload. It
// tracks a target size pulled from the AdaptiveSizer so EmailStore knows
// when to flush; the builder itself has no idea what a block id or offset
// is, it only produces bytes.
type BatchBuilder struct {
	target  int64
	pending []Entry
	rawSize int64
}

// NewBatchBuilder returns an empty builder aimed at target bytes of raw
// payload before ShouldFlush reports true.
func NewBatchBuilder(target int64) *BatchBuilder {
	return &BatchBuilder{target: target}
}

// Target returns the builder's current flush threshold.
func (b *BatchBuilder) Target() int64 {
	return b.target
}

// SetTarget updates the flush threshold. ShouldFlush compares the bytes
// already accumulated against the new threshold from its next call on.
func (b *BatchBuilder) SetTarget(target int64) {
	b.target = target
}

// Len reports how many entries are pending.
func (b *BatchBuilder) Len() int {
	return len(b.pending)
}

// Entries returns the pending entries in insertion order. The slice is
// owned by the builder; callers must not mutate it.
func (b *BatchBuilder) Entries() []Entry {
	return b.pending
}

// RawSize returns the accumulated raw byte count of all pending entries.
func (b *BatchBuilder) RawSize() int64 {
	return b.rawSize
}

// Add computes msg's envelope and content hashes, appends an Entry with a
// dense LocalID, and returns it.
func (b *BatchBuilder) Add(msg Message, data []byte) Entry {
	entry := Entry{
		LocalID:            uint32(len(b.pending)),
		EnvelopeHash:       EnvelopeHash(msg, data),
		ContentHash:        ContentHash(data),
		ContentFingerprint: fingerprint.Sum64(data),
		Data:               data,
	}

	b.pending = append(b.pending, entry)
	b.rawSize += int64(len(data))

	return entry
}

// ShouldFlush reports whether the accumulated raw byte count has reached
// the builder's target.
func (b *BatchBuilder) ShouldFlush() bool {
	return b.rawSize >= b.target
}

// Serialize emits the EmailBatch payload: a u32 entry count, that many TOC
// entries of {u32 data_len, 32B envelope_hash, 32B content_hash} in
// insertion order, followed by the concatenated entry data in the same
// order. It does not clear the builder; call Clear explicitly once the
// caller has framed and written the result.
func (b *BatchBuilder) Serialize() []byte {
	tocSize := 4 + len(b.pending)*(4+32+32)

	var dataSize int
	for _, e := range b.pending {
		dataSize += len(e.Data)
	}

	buf := make([]byte, tocSize+dataSize)

	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(b.pending)))

	pos := 4
	for _, e := range b.pending {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], uint32(len(e.Data)))
		pos += 4
		copy(buf[pos:pos+32], e.EnvelopeHash[:])
		pos += 32
		copy(buf[pos:pos+32], e.ContentHash[:])
		pos += 32
	}

	for _, e := range b.pending {
		copy(buf[pos:pos+len(e.Data)], e.Data)
		pos += len(e.Data)
	}

	return buf
}

// Clear empties the builder and resets its raw byte accumulator, without
// touching its target.
func (b *BatchBuilder) Clear() {
	b.pending = nil
	b.rawSize = 0
}

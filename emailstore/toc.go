package emailstore

import (
	"encoding/binary"
	"fmt"

	"github.com/emaildb/emaildb/errs"
)

// tocEntry mirrors the on-disk TOC record: everything but the data bytes
// themselves, plus where those bytes start in the payload.
type tocEntry struct {
	dataLen      uint32
	envelopeHash [32]byte
	contentHash  [32]byte
	dataOffset   int
}

// parseTOC reads the count and TOC entries from the head of an EmailBatch
// payload, validating that the declared data lengths don't run past the
// buffer. It does not copy entry data; callers slice payload directly.
func parseTOC(payload []byte) ([]tocEntry, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: batch payload shorter than count field", errs.ErrCorruptBlock)
	}

	count := binary.LittleEndian.Uint32(payload[0:4])
	const entrySize = 4 + 32 + 32

	pos := 4
	entries := make([]tocEntry, count)

	for i := uint32(0); i < count; i++ {
		if pos+entrySize > len(payload) {
			return nil, fmt.Errorf("%w: batch TOC truncated at entry %d", errs.ErrCorruptBlock, i)
		}

		e := tocEntry{}
		e.dataLen = binary.LittleEndian.Uint32(payload[pos : pos+4])
		pos += 4
		copy(e.envelopeHash[:], payload[pos:pos+32])
		pos += 32
		copy(e.contentHash[:], payload[pos:pos+32])
		pos += 32

		entries[i] = e
	}

	dataStart := pos
	for i := range entries {
		entries[i].dataOffset = dataStart
		dataStart += int(entries[i].dataLen)
	}

	if dataStart > len(payload) {
		return nil, fmt.Errorf("%w: batch data section shorter than TOC declares", errs.ErrCorruptBlock)
	}

	return entries, nil
}

// sliceEntry returns the raw data bytes for localID within an already
// parsed TOC, or errs.ErrEmailNotFound if localID is out of range.
func sliceEntry(payload []byte, entries []tocEntry, localID uint32) ([]byte, error) {
	if localID >= uint32(len(entries)) {
		return nil, fmt.Errorf("%w: local id %d out of range (count %d)", errs.ErrEmailNotFound, localID, len(entries))
	}

	e := entries[localID]

	return payload[e.dataOffset : e.dataOffset+int(e.dataLen)], nil
}

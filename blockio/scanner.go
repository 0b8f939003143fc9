package blockio

import (
	"bytes"

	"github.com/emaildb/emaildb/block"
	"github.com/sirupsen/logrus"
)

// ScanWarning records a single point of damage the Scanner stepped over. A
// scan never aborts on damage; it collects one warning per skipped region
// and keeps looking for the next valid header.
type ScanWarning struct {
	// Offset is the byte offset within the file where the damaged region
	// begins.
	Offset int64

	// Reason classifies the failure (one of the errs.Err* sentinels
	// returned by Decode).
	Reason error

	// SkippedBytes is how far the scanner advanced past Offset before it
	// found the next candidate header, or resynced to end-of-buffer.
	SkippedBytes int64
}

// Found is one successfully decoded block and the byte range it occupied,
// as produced by Scan.
type Found struct {
	Block  block.Block
	Offset int64
	Length int64
}

// ScanResult is the outcome of scanning an entire buffer: every block that
// decoded cleanly, in file order, plus every region that didn't.
type ScanResult struct {
	Blocks   []Found
	Warnings []ScanWarning
}

// Scan walks buf from front to back, decoding one block frame at a time.
// When a frame fails to decode, Scan does not trust that frame's length
// field (it may itself be corrupt) — instead it searches forward for the
// next occurrence of HeaderMagic and resumes there, recording a
// ScanWarning for the skipped span. This makes Scan tolerant of both
// torn writes (a frame cut off mid-write) and arbitrary byte corruption
// in the middle of the file.
//
// Scan never returns an error; a file that is garbage from start to end
// simply yields an empty Blocks slice and one or more warnings.
func Scan(buf []byte) ScanResult {
	var result ScanResult

	pos := int64(0)
	n := int64(len(buf))

	for pos < n {
		remaining := buf[pos:]

		decoded, err := Decode(remaining)
		if err == nil {
			frameLen := int64(decoded.PayloadEnd-decoded.PayloadStart) + int64(headerFixedLen+4+footerFixedLen)
			result.Blocks = append(result.Blocks, Found{
				Block:  decoded.Block,
				Offset: pos,
				Length: frameLen,
			})
			pos += frameLen

			continue
		}

		next := findNextMagic(remaining, 1)
		var skipped int64
		if next < 0 {
			skipped = int64(len(remaining))
			pos = n
		} else {
			skipped = int64(next)
			pos += int64(next)
		}

		logrus.WithFields(logrus.Fields{
			"offset":  pos - skipped,
			"reason":  err,
			"skipped": skipped,
		}).Warn("emaildb: skipped corrupt region while scanning block file")

		result.Warnings = append(result.Warnings, ScanWarning{
			Offset:       pos - skipped,
			Reason:       err,
			SkippedBytes: skipped,
		})
	}

	return result
}

// findNextMagic returns the offset, relative to buf, of the first
// occurrence of HeaderMagic at or after startAt. It returns -1 if none is
// found.
func findNextMagic(buf []byte, startAt int) int {
	if startAt >= len(buf) {
		return -1
	}

	idx := bytes.Index(buf[startAt:], HeaderMagic[:])
	if idx < 0 {
		return -1
	}

	return startAt + idx
}

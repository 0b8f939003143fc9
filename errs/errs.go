// Package errs collects the sentinel errors returned by every EmailDB
// component. Call sites wrap these with fmt.Errorf("%w: ...", errs.ErrXxx, ...)
// to attach context; callers use errors.Is against the sentinel to classify
// failures without parsing strings.
package errs

import "errors"

// I/O errors.
var (
	ErrIO        = errors.New("i/o error")
	ErrFileLocked = errors.New("file is locked by another process")
	ErrTruncated  = errors.New("truncated read")
)

// Framing errors (BlockCodec).
var (
	ErrHeaderMagicMismatch       = errors.New("header magic mismatch")
	ErrFooterMagicMismatch       = errors.New("footer magic mismatch")
	ErrPayloadLengthMismatch     = errors.New("payload length mismatch between header and footer")
	ErrExtendedHeaderUnsupported = errors.New("extended header version unsupported")
	ErrTruncatedBlock            = errors.New("truncated block")
)

// Integrity errors (BlockCodec).
var (
	ErrHeaderCrcMismatch  = errors.New("header crc mismatch")
	ErrPayloadCrcMismatch = errors.New("payload crc mismatch")
	ErrTotalCrcMismatch   = errors.New("total crc mismatch")
)

// Logical errors.
var (
	ErrBlockNotFound            = errors.New("block not found")
	ErrIllegalOverwrite          = errors.New("in-place overwrite only permitted at offset 0")
	ErrEmailNotFound             = errors.New("email not found")
	ErrMalformedCompoundID       = errors.New("malformed compound id")
	ErrPendingCompoundIDUnresolved = errors.New("compound id not yet resolved: batch not flushed")
)

// Operational errors.
var (
	ErrCompactionAborted = errors.New("compaction aborted")
)

// Configuration errors.
var (
	ErrInvalidOption = errors.New("invalid option")
)

// CorruptBlock is returned by BlockFile.Read when a targeted read fails any
// of the three validations (header magic, length equality, payload CRC).
// It is distinct from the framing/integrity sentinels above because a caller
// doing a targeted read only needs to know "this block is unreadable", while
// the Scanner needs the more specific reason to build a ScanWarning.
var ErrCorruptBlock = errors.New("corrupt block")

// Package blockio implements BlockCodec: framing a block.Block into its
// on-disk byte layout (header, payload, footer, three CRC32 checksums) and
// parsing it back. It also implements the crash-tolerant Scanner used to
// rebuild a block index from a possibly-damaged file.
//
// Framing uses a fixed-size header followed by a CRC-guarded payload and
// footer, the same shape as a columnar segment header: fixed fields up
// front, a coverage CRC over them, then a length-prefixed variable body.
package blockio

import (
	"hash/crc32"

	"github.com/emaildb/emaildb/block"
	"github.com/emaildb/emaildb/endian"
	"github.com/emaildb/emaildb/errs"
)

// On-disk layout, all little-endian:
//
//	HEADER (40 bytes):
//	  header_magic : 8
//	  version      : 2
//	  type         : 1
//	  flags        : 4
//	  encoding     : 1
//	  timestamp    : 8
//	  block_id     : 8
//	  payload_len  : 4
//	  header_crc   : 4   // CRC32 over bytes [0:32), i.e. magic..block_id
//	PAYLOAD:
//	  payload_crc  : 4   // CRC32 over payload bytes
//	  payload      : payload_len
//	FOOTER (12 bytes):
//	  total_crc    : 4   // CRC32 over bytes [0 : headerLen+4+payload_len)
//	  payload_len  : 4   // must equal header's payload_len
//	  footer_magic : 4
const (
	headerMagicLen    = 8
	headerFixedLen    = 40 // header_magic..header_crc inclusive
	headerCrcCoverLen = 32 // header_magic..block_id, i.e. headerFixedLen - payload_len(4) - header_crc(4)
	footerFixedLen    = 12

	offVersion     = 8
	offType        = 10
	offFlags       = 11
	offEncoding    = 15
	offTimestamp   = 16
	offBlockID     = 24
	offPayloadLen  = 32
	offHeaderCrc   = 36
	offPayloadCrc  = 40 // start of PAYLOAD section, relative to frame start
)

// HeaderMagic prefixes every framed block. Chosen to be unlikely to occur by
// chance in arbitrary garbage or partially-written text, so the Scanner's
// byte-search for it is a reliable resync point.
var HeaderMagic = [headerMagicLen]byte{'E', 'M', 'D', 'B', 0xDE, 0xAD, 0xBE, 0xEF}

// FooterMagic closes every framed block.
var FooterMagic = [4]byte{0xFE, 0xED, 0xC0, 0xDE}

var le = endian.GetLittleEndianEngine()

// FrameLen returns the total number of bytes Encode will produce for a
// payload of the given length.
func FrameLen(payloadLen int) int {
	return headerFixedLen + 4 /* payload_crc */ + payloadLen + footerFixedLen
}

// Encode frames b into a single contiguous byte buffer: header, payload_crc,
// payload, footer. Encoding is deterministic: the same Block always produces
// the same bytes.
func Encode(b block.Block) []byte {
	buf := make([]byte, FrameLen(len(b.Payload)))
	encodeInto(buf, b)

	return buf
}

// EncodeInto frames b into dst, which must be at least FrameLen(len(b.Payload))
// bytes long, and returns the number of bytes written. This lets callers
// reuse a pooled buffer instead of allocating per block.
func EncodeInto(dst []byte, b block.Block) (int, error) {
	n := FrameLen(len(b.Payload))
	if len(dst) < n {
		return 0, errs.ErrTruncatedBlock
	}
	encodeInto(dst[:n], b)

	return n, nil
}

func encodeInto(buf []byte, b block.Block) {
	copy(buf[0:headerMagicLen], HeaderMagic[:])
	le.PutUint16(buf[offVersion:], b.Version)
	buf[offType] = byte(b.Type)
	le.PutUint32(buf[offFlags:], uint32(b.Flags))
	buf[offEncoding] = byte(b.Encoding)
	le.PutUint64(buf[offTimestamp:], uint64(b.Timestamp))
	le.PutUint64(buf[offBlockID:], uint64(b.BlockID))
	payloadLen := uint32(len(b.Payload))
	le.PutUint32(buf[offPayloadLen:], payloadLen)

	headerCrc := crc32.ChecksumIEEE(buf[0:headerCrcCoverLen])
	le.PutUint32(buf[offHeaderCrc:], headerCrc)

	payloadCrc := crc32.ChecksumIEEE(b.Payload)
	le.PutUint32(buf[offPayloadCrc:], payloadCrc)

	payloadStart := offPayloadCrc + 4
	copy(buf[payloadStart:payloadStart+len(b.Payload)], b.Payload)

	footerStart := payloadStart + len(b.Payload)
	totalCrc := crc32.ChecksumIEEE(buf[0:footerStart])
	le.PutUint32(buf[footerStart:], totalCrc)
	le.PutUint32(buf[footerStart+4:], payloadLen)
	copy(buf[footerStart+8:footerStart+12], FooterMagic[:])
}

// Decoded is the result of a successful Decode: the parsed Block plus the
// byte range its payload occupied within the source buffer, so callers that
// already hold the buffer can avoid a second copy.
type Decoded struct {
	Block        block.Block
	PayloadStart int
	PayloadEnd   int
}

// Decode parses a single framed block from the start of buf. buf may be
// longer than one frame (e.g. a full file read); only the leading frame is
// consumed. Decode validates header magic, footer magic, payload length
// equality between header and footer, and all three CRCs.
func Decode(buf []byte) (Decoded, error) {
	if len(buf) < headerFixedLen+4+footerFixedLen {
		return Decoded{}, errs.ErrTruncatedBlock
	}

	if !hasHeaderMagic(buf) {
		return Decoded{}, errs.ErrHeaderMagicMismatch
	}

	headerCrc := le.Uint32(buf[offHeaderCrc:])
	if crc32.ChecksumIEEE(buf[0:headerCrcCoverLen]) != headerCrc {
		return Decoded{}, errs.ErrHeaderCrcMismatch
	}

	payloadLen := int(le.Uint32(buf[offPayloadLen:]))
	payloadStart := offPayloadCrc + 4
	footerStart := payloadStart + payloadLen

	if footerStart+footerFixedLen > len(buf) {
		return Decoded{}, errs.ErrTruncatedBlock
	}

	footerPayloadLen := int(le.Uint32(buf[footerStart+4:]))
	if footerPayloadLen != payloadLen {
		return Decoded{}, errs.ErrPayloadLengthMismatch
	}

	if !bytesEqual(buf[footerStart+8:footerStart+12], FooterMagic[:]) {
		return Decoded{}, errs.ErrFooterMagicMismatch
	}

	payloadCrc := le.Uint32(buf[offPayloadCrc:])
	payload := buf[payloadStart:footerStart]
	if crc32.ChecksumIEEE(payload) != payloadCrc {
		return Decoded{}, errs.ErrPayloadCrcMismatch
	}

	totalCrc := le.Uint32(buf[footerStart:])
	if crc32.ChecksumIEEE(buf[0:footerStart]) != totalCrc {
		return Decoded{}, errs.ErrTotalCrcMismatch
	}

	b := block.Block{
		Version:   le.Uint16(buf[offVersion:]),
		Type:      block.Type(buf[offType]),
		Flags:     block.Flags(le.Uint32(buf[offFlags:])),
		Encoding:  block.Encoding(buf[offEncoding]),
		Timestamp: int64(le.Uint64(buf[offTimestamp:])),
		BlockID:   int64(le.Uint64(buf[offBlockID:])),
		Payload:   payload,
	}

	return Decoded{Block: b, PayloadStart: payloadStart, PayloadEnd: footerStart}, nil
}

func hasHeaderMagic(buf []byte) bool {
	return bytesEqual(buf[0:headerMagicLen], HeaderMagic[:])
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

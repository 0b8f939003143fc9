package blockio

import (
	"github.com/emaildb/emaildb/errs"
	"github.com/google/uuid"
)

// ExtendedHeaderVersion1 is the only extended-header version this package
// can decode. A later version number fails closed with
// ErrExtendedHeaderUnsupported rather than guessing at a layout it doesn't
// understand.
const ExtendedHeaderVersion1 uint8 = 1

// ExtendedHeader precedes the actual payload bytes whenever block.Flags
// reports Compressed or Encrypted. It is self-describing: a versioned,
// prefixed-boolean layout so a codec that understands version 1 can skip
// fields it doesn't need and a codec that sees a later version fails
// cleanly instead of misreading bytes as payload.
//
// Wire layout (little-endian), all fields after Version are optional and
// prefixed by a presence byte (0 or 1):
//
//	version              : 1
//	has_uncompressed_size: 1
//	  uncompressed_size  : 8   (present only if has_uncompressed_size == 1)
//	has_iv               : 1
//	  iv_len             : 1
//	  iv                 : iv_len
//	has_auth_tag         : 1
//	  tag_len            : 1
//	  tag                : tag_len
//	has_key_id           : 1
//	  key_id             : 16  (uuid.UUID)
type ExtendedHeader struct {
	UncompressedSize uint64
	HasUncompressedSize bool

	IV []byte

	AuthTag []byte

	KeyID       uuid.UUID
	HasKeyID bool
}

// Bytes serializes h into its wire form.
func (h ExtendedHeader) Bytes() []byte {
	size := 1 + 1
	if h.HasUncompressedSize {
		size += 8
	}
	size += 1
	if len(h.IV) > 0 {
		size += 1 + len(h.IV)
	}
	size += 1
	if len(h.AuthTag) > 0 {
		size += 1 + len(h.AuthTag)
	}
	size += 1
	if h.HasKeyID {
		size += 16
	}

	buf := make([]byte, 0, size)
	buf = append(buf, ExtendedHeaderVersion1)

	if h.HasUncompressedSize {
		buf = append(buf, 1)
		buf = le.AppendUint64(buf, h.UncompressedSize)
	} else {
		buf = append(buf, 0)
	}

	if len(h.IV) > 0 {
		buf = append(buf, 1, byte(len(h.IV)))
		buf = append(buf, h.IV...)
	} else {
		buf = append(buf, 0)
	}

	if len(h.AuthTag) > 0 {
		buf = append(buf, 1, byte(len(h.AuthTag)))
		buf = append(buf, h.AuthTag...)
	} else {
		buf = append(buf, 0)
	}

	if h.HasKeyID {
		buf = append(buf, 1)
		buf = append(buf, h.KeyID[:]...)
	} else {
		buf = append(buf, 0)
	}

	return buf
}

// DecodeExtendedHeader parses an ExtendedHeader from the start of buf and
// returns it along with the number of bytes it consumed, so the caller can
// slice the remainder as the real payload.
func DecodeExtendedHeader(buf []byte) (ExtendedHeader, int, error) {
	if len(buf) < 1 {
		return ExtendedHeader{}, 0, errs.ErrTruncatedBlock
	}

	if buf[0] != ExtendedHeaderVersion1 {
		return ExtendedHeader{}, 0, errs.ErrExtendedHeaderUnsupported
	}

	pos := 1
	var h ExtendedHeader

	flag, n, err := readByte(buf, pos)
	if err != nil {
		return ExtendedHeader{}, 0, err
	}
	pos = n
	if flag == 1 {
		if pos+8 > len(buf) {
			return ExtendedHeader{}, 0, errs.ErrTruncatedBlock
		}
		h.HasUncompressedSize = true
		h.UncompressedSize = le.Uint64(buf[pos:])
		pos += 8
	}

	flag, pos, err = readByte(buf, pos)
	if err != nil {
		return ExtendedHeader{}, 0, err
	}
	if flag == 1 {
		ivLen, p, err := readByte(buf, pos)
		if err != nil {
			return ExtendedHeader{}, 0, err
		}
		pos = p
		if pos+int(ivLen) > len(buf) {
			return ExtendedHeader{}, 0, errs.ErrTruncatedBlock
		}
		h.IV = append([]byte(nil), buf[pos:pos+int(ivLen)]...)
		pos += int(ivLen)
	}

	flag, pos, err = readByte(buf, pos)
	if err != nil {
		return ExtendedHeader{}, 0, err
	}
	if flag == 1 {
		tagLen, p, err := readByte(buf, pos)
		if err != nil {
			return ExtendedHeader{}, 0, err
		}
		pos = p
		if pos+int(tagLen) > len(buf) {
			return ExtendedHeader{}, 0, errs.ErrTruncatedBlock
		}
		h.AuthTag = append([]byte(nil), buf[pos:pos+int(tagLen)]...)
		pos += int(tagLen)
	}

	flag, pos, err = readByte(buf, pos)
	if err != nil {
		return ExtendedHeader{}, 0, err
	}
	if flag == 1 {
		if pos+16 > len(buf) {
			return ExtendedHeader{}, 0, errs.ErrTruncatedBlock
		}
		h.HasKeyID = true
		copy(h.KeyID[:], buf[pos:pos+16])
		pos += 16
	}

	return h, pos, nil
}

func readByte(buf []byte, pos int) (byte, int, error) {
	if pos >= len(buf) {
		return 0, 0, errs.ErrTruncatedBlock
	}

	return buf[pos], pos + 1, nil
}

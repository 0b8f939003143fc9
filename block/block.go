// Package block defines EmailDB's on-disk atomic unit: the Block. It holds
// only the data model — framing, checksums, and file I/O live in package
// blockio and blockfile respectively.
package block

// Type enumerates the known block payload kinds. Numeric values are part of
// the on-disk format and must never be renumbered; unknown values are
// preserved opaquely by BlockCodec and BlockFile.
type Type uint8

const (
	TypeMetadata              Type = 1
	TypeWriteAheadLog         Type = 2
	TypeFolderTree            Type = 3
	TypeFolder                Type = 4
	TypeSegment               Type = 5
	TypeCleanup               Type = 6
	TypeZoneTreeSegmentKV     Type = 7
	TypeZoneTreeSegmentVector Type = 8
	TypeFreeSpace             Type = 9
	TypeEmailBatch            Type = 10
	TypeFolderEnvelope        Type = 11
	TypeKeyManager            Type = 12
	TypeKeyExchange           Type = 13
)

func (t Type) String() string {
	switch t {
	case TypeMetadata:
		return "Metadata"
	case TypeWriteAheadLog:
		return "WriteAheadLog"
	case TypeFolderTree:
		return "FolderTree"
	case TypeFolder:
		return "Folder"
	case TypeSegment:
		return "Segment"
	case TypeCleanup:
		return "Cleanup"
	case TypeZoneTreeSegmentKV:
		return "ZoneTreeSegmentKV"
	case TypeZoneTreeSegmentVector:
		return "ZoneTreeSegmentVector"
	case TypeFreeSpace:
		return "FreeSpace"
	case TypeEmailBatch:
		return "EmailBatch"
	case TypeFolderEnvelope:
		return "FolderEnvelope"
	case TypeKeyManager:
		return "KeyManager"
	case TypeKeyExchange:
		return "KeyExchange"
	default:
		return "Unknown"
	}
}

// Encoding identifies how Payload bytes are structured, independent of
// compression/encryption (which are carried in Flags).
type Encoding uint8

const (
	EncodingProtobuf  Encoding = 1
	EncodingCapnProto Encoding = 2
	EncodingJSON      Encoding = 3
	EncodingRawBytes  Encoding = 4
)

func (e Encoding) String() string {
	switch e {
	case EncodingProtobuf:
		return "Protobuf"
	case EncodingCapnProto:
		return "CapnProto"
	case EncodingJSON:
		return "JSON"
	case EncodingRawBytes:
		return "RawBytes"
	default:
		return "Unknown"
	}
}

// CompressionAlgo identifies a compression algorithm, stored in the low 7
// bits (1..127) of Flags above the Compressed bit.
type CompressionAlgo uint8

const (
	CompressionNone CompressionAlgo = 1
	CompressionZstd CompressionAlgo = 2
	CompressionS2   CompressionAlgo = 3
	CompressionLZ4  CompressionAlgo = 4
)

func (c CompressionAlgo) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// EncryptionAlgo identifies an encryption algorithm, stored in bits 8-15 of
// Flags (1..127 in the 7 bits above the Encrypted bit).
type EncryptionAlgo uint8

const (
	EncryptionNone     EncryptionAlgo = 1
	EncryptionAESGCM   EncryptionAlgo = 2
	EncryptionChaCha20 EncryptionAlgo = 3
)

func (e EncryptionAlgo) String() string {
	switch e {
	case EncryptionNone:
		return "None"
	case EncryptionAESGCM:
		return "AES-GCM"
	case EncryptionChaCha20:
		return "ChaCha20-Poly1305"
	default:
		return "Unknown"
	}
}

// Flags packs compression/encryption selection into a single u32 so it
// round-trips through the header without additional fields. Bit layout:
//
//	bit 0       : compressed
//	bits 1-7    : compression algorithm id (1..127)
//	bit 8       : encrypted
//	bits 9-15   : encryption algorithm id (1..127)
//	bits 16-31  : reserved, must round-trip unmodified
type Flags uint32

const (
	flagCompressedBit = 1 << 0
	flagEncryptedBit  = 1 << 8

	compressionAlgoMask = 0x7F
	compressionAlgoShift = 1
	encryptionAlgoMask   = 0x7F
	encryptionAlgoShift  = 9
)

// NewFlags builds a Flags value from a compression and encryption selection.
// Pass CompressionNone/EncryptionNone to leave the corresponding bit unset.
func NewFlags(comp CompressionAlgo, enc EncryptionAlgo) Flags {
	var f Flags
	if comp != CompressionNone && comp != 0 {
		f |= flagCompressedBit
		f |= Flags(uint32(comp)&compressionAlgoMask) << compressionAlgoShift
	}
	if enc != EncryptionNone && enc != 0 {
		f |= flagEncryptedBit
		f |= Flags(uint32(enc)&encryptionAlgoMask) << encryptionAlgoShift
	}

	return f
}

// Compressed reports whether the compressed bit is set.
func (f Flags) Compressed() bool {
	return f&flagCompressedBit != 0
}

// Encrypted reports whether the encrypted bit is set.
func (f Flags) Encrypted() bool {
	return f&flagEncryptedBit != 0
}

// CompressionAlgo extracts the compression algorithm id, meaningful only
// when Compressed() is true.
func (f Flags) CompressionAlgo() CompressionAlgo {
	return CompressionAlgo((uint32(f) >> compressionAlgoShift) & compressionAlgoMask)
}

// EncryptionAlgo extracts the encryption algorithm id, meaningful only when
// Encrypted() is true.
func (f Flags) EncryptionAlgo() EncryptionAlgo {
	return EncryptionAlgo((uint32(f) >> encryptionAlgoShift) & encryptionAlgoMask)
}

// Reserved returns the upper 16 bits, untouched by this package so callers
// and future extensions can round-trip them.
func (f Flags) Reserved() uint32 {
	return uint32(f) >> 16
}

// WithReserved returns a copy of f with its reserved bits replaced by r.
func (f Flags) WithReserved(r uint32) Flags {
	return Flags(uint32(f)&0x0000FFFF | (r << 16))
}

// Block is the atomic, framed unit of storage. Payload is opaque to this
// package; if Flags indicates compression or encryption, the first bytes of
// Payload are an ExtendedHeader (see package blockio).
type Block struct {
	Version   uint16
	Type      Type
	Flags     Flags
	Encoding  Encoding
	Timestamp int64
	BlockID   int64
	Payload   []byte
}

// CurrentVersion is the only block format version this package knows how to
// write. Decode accepts it and preserves unknown future versions' bytes
// opaquely only insofar as the header fields themselves remain readable;
// payload interpretation for a different version is the caller's concern.
const CurrentVersion uint16 = 1

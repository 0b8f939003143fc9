// Package endian provides the byte-order abstraction used for every binary
// framing operation in EmailDB.
//
// This package extends Go's standard encoding/binary package by combining
// ByteOrder and AppendByteOrder into a single EndianEngine interface. Spec
// §4.1 fixes the on-disk block layout as little-endian, so EmailDB needs
// exactly one engine; the interface still exists (rather than calling
// binary.LittleEndian directly everywhere) so blockio's codec can be
// written against an abstraction instead of a concrete ByteOrder value.
//
// # Basic Usage
//
//	import "github.com/emaildb/emaildb/endian"
//
//	engine := endian.GetLittleEndianEngine()
//	buf = engine.AppendUint64(buf, uint64(blockID))
//
// # Performance
//
// Using EndianEngine (which includes AppendByteOrder) avoids an extra
// allocation-and-copy compared to ByteOrder alone when building up a frame
// incrementally:
//
//	// Using EndianEngine (recommended)
//	buf = engine.AppendUint64(buf, value)
//
//	// Using ByteOrder only
//	tmp := make([]byte, 8)
//	engine.PutUint64(tmp, value)
//	buf = append(buf, tmp...)  // extra allocation
//
// # Thread Safety
//
// EndianEngine values are immutable and stateless; GetLittleEndianEngine's
// result is safe for concurrent use.
package endian

import "encoding/binary"

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian from
// the standard library, making it fully compatible with existing Go code while
// providing access to both read/write and append operations.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the engine blockio uses for every block
// header, footer, and extended-header field (spec §4.1: "little-endian").
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

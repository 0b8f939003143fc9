package emailstore

import (
	"crypto/sha256"
	"encoding/binary"
)

// fieldSep separates envelope fields inside the hash input. It cannot
// appear in any of the fields it separates (they are header values, never
// raw binary), so it can't be used to craft a collision by shifting a
// byte from one field into the next.
const fieldSep = 0x00

// EnvelopeHash computes SHA-256 over the canonicalized envelope fields of
// msg plus the raw byte length of data. Folding in the byte length is what
// lets two otherwise-identical envelopes with different bodies produce
// different hashes without having to hash the body itself.
func EnvelopeHash(msg Message, data []byte) [32]byte {
	h := sha256.New()
	writeField(h, msg.MessageID)
	writeField(h, msg.From)
	writeField(h, msg.To)
	writeField(h, msg.DateISO8601)
	writeField(h, msg.Subject)
	writeField(h, msg.CC)
	writeField(h, msg.InReplyTo)
	writeField(h, msg.FirstReference)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(data)))
	h.Write(lenBuf[:])

	var out [32]byte
	copy(out[:], h.Sum(nil))

	return out
}

func writeField(h interface{ Write([]byte) (int, error) }, s string) {
	h.Write([]byte(s))
	h.Write([]byte{fieldSep})
}

// ContentHash computes SHA-256 over the raw email bytes.
func ContentHash(data []byte) [32]byte {
	return sha256.Sum256(data)
}

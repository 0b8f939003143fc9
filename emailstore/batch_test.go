package emailstore

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleMessage(id string) Message {
	return Message{
		MessageID:   id,
		From:        "alice@example.com",
		To:          "bob@example.com",
		DateISO8601: "2026-01-15T10:00:00Z",
		Subject:     "hello",
	}
}

func TestBatchBuilder_AddAssignsDenseLocalIDs(t *testing.T) {
	b := NewBatchBuilder(1 << 20)

	e0 := b.Add(sampleMessage("m0"), []byte("first"))
	e1 := b.Add(sampleMessage("m1"), []byte("second"))

	assert.Equal(t, uint32(0), e0.LocalID)
	assert.Equal(t, uint32(1), e1.LocalID)
	assert.Equal(t, 2, b.Len())
}

func TestBatchBuilder_ShouldFlush(t *testing.T) {
	b := NewBatchBuilder(10)

	b.Add(sampleMessage("m0"), []byte("12345"))
	assert.False(t, b.ShouldFlush())

	b.Add(sampleMessage("m1"), []byte("678910"))
	assert.True(t, b.ShouldFlush())
}

func TestBatchBuilder_SerializeRoundTripsViaTOCParser(t *testing.T) {
	b := NewBatchBuilder(1 << 20)
	b.Add(sampleMessage("m0"), []byte("alpha"))
	b.Add(sampleMessage("m1"), []byte("beta-data"))

	payload := b.Serialize()

	entries, err := parseTOC(payload)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	d0, err := sliceEntry(payload, entries, 0)
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(d0))

	d1, err := sliceEntry(payload, entries, 1)
	require.NoError(t, err)
	assert.Equal(t, "beta-data", string(d1))

	assert.Equal(t, b.Entries()[0].EnvelopeHash, entries[0].envelopeHash)
	assert.Equal(t, b.Entries()[1].ContentHash, entries[1].contentHash)
}

func TestBatchBuilder_SerializeCountField(t *testing.T) {
	b := NewBatchBuilder(1 << 20)
	b.Add(sampleMessage("m0"), []byte("x"))

	payload := b.Serialize()
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(payload[0:4]))
}

func TestBatchBuilder_Clear(t *testing.T) {
	b := NewBatchBuilder(10)
	b.Add(sampleMessage("m0"), []byte("12345"))
	require.True(t, b.ShouldFlush())

	b.Clear()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, int64(0), b.RawSize())
	assert.False(t, b.ShouldFlush())
}

func TestBatchBuilder_ContentFingerprintIsDeterministic(t *testing.T) {
	b := NewBatchBuilder(1 << 20)

	e0 := b.Add(sampleMessage("m0"), []byte("same body"))
	e1 := b.Add(sampleMessage("m1"), []byte("same body"))
	e2 := b.Add(sampleMessage("m2"), []byte("different body"))

	assert.Equal(t, e0.ContentFingerprint, e1.ContentFingerprint)
	assert.NotEqual(t, e0.ContentFingerprint, e2.ContentFingerprint)
}

func TestBatchBuilder_EmptySerialize(t *testing.T) {
	b := NewBatchBuilder(1 << 20)
	payload := b.Serialize()
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(payload[0:4]))

	entries, err := parseTOC(payload)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

package emailstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeHash_DifferentBodyLengthsDiffer(t *testing.T) {
	msg := sampleMessage("m0")

	h1 := EnvelopeHash(msg, make([]byte, 1024))
	h2 := EnvelopeHash(msg, make([]byte, 2048))

	assert.NotEqual(t, h1, h2)
}

func TestEnvelopeHash_SameEverythingMatches(t *testing.T) {
	msg := sampleMessage("m0")
	data := []byte("identical body")

	assert.Equal(t, EnvelopeHash(msg, data), EnvelopeHash(msg, data))
}

func TestEnvelopeHash_DifferentSubjectDiffers(t *testing.T) {
	m1 := sampleMessage("m0")
	m2 := sampleMessage("m0")
	m2.Subject = "different subject"

	data := []byte("same body")
	assert.NotEqual(t, EnvelopeHash(m1, data), EnvelopeHash(m2, data))
}

func TestContentHash_Deterministic(t *testing.T) {
	data := []byte("raw email bytes")
	assert.Equal(t, ContentHash(data), ContentHash(data))
}

func TestContentHash_DifferentContentDiffers(t *testing.T) {
	assert.NotEqual(t, ContentHash([]byte("a")), ContentHash([]byte("b")))
}

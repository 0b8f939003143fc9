package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSum64_Deterministic(t *testing.T) {
	data := []byte("the body of an email")
	assert.Equal(t, Sum64(data), Sum64(data))
}

func TestSum64_DifferentInputsDiffer(t *testing.T) {
	a := Sum64([]byte("alpha"))
	b := Sum64([]byte("beta"))
	assert.NotEqual(t, a, b)
}

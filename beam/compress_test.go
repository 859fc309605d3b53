package beam

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressFallbackChunkRoundTrip(t *testing.T) {
	raw := []byte("the quick brown fox jumps over the lazy dog, repeated: " +
		"the quick brown fox jumps over the lazy dog")
	c := compressFallbackChunk(raw)
	assert.True(t, c.compressed)
	assert.Equal(t, int64(len(raw)), c.origLen)
	assert.Equal(t, int64(len(raw)), c.Len(), "Len must report the uncompressed size while compressed")

	err := decompressChunkInPlace(c)
	require.NoError(t, err)
	assert.False(t, c.compressed)
	assert.Equal(t, raw, c.Data.Bytes())
}

func TestDecompressChunkInPlaceNoopOnPlainChunk(t *testing.T) {
	c := NewBytesChunk([]byte("plain"))
	err := decompressChunkInPlace(c)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(c.Data.Bytes()))
}

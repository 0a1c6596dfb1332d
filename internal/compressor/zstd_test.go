package compressor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZstdRoundTrip(t *testing.T) {
	c, err := NewZstdCompressorWithConcurrency(1)
	require.NoError(t, err)
	defer c.Close()

	src := bytes.Repeat([]byte(`{"name":"Bob","tags":["x","y"]}`), 64)
	packed, err := c.Compress(nil, src)
	require.NoError(t, err)
	assert.True(t, IsZstdFrame(packed))
	assert.Less(t, len(packed), len(src))

	plain, err := c.Decompress(nil, packed)
	require.NoError(t, err)
	assert.Equal(t, src, plain)
}

func TestZstdBelowThreshold(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	defer c.Close()
	c.SetMinCompressSize(1024)

	src := []byte(`{"a":1}`)
	packed, err := c.Compress(nil, src)
	require.NoError(t, err)
	assert.Equal(t, src, packed)

	plain, err := c.Decompress(nil, packed)
	require.NoError(t, err)
	assert.Equal(t, src, plain)
}

func TestZstdClosed(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)
	c.Close()
	_, err = c.Compress(nil, []byte("x"))
	assert.Error(t, err)

	var nop NopCompressor
	out, err := nop.Compress(nil, []byte("x"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("x"), out)
}

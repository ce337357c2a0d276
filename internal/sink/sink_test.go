package sink

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pgarchive.dev/core/internal/descriptor"
)

func TestNewWriterPlainPassesThrough(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, descriptor.CompressNone)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "hello", buf.String())
}

func TestNewWriterGzipRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, descriptor.CompressGzip)
	require.NoError(t, err)
	_, err = w.Write([]byte("hello gzip"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NotEqual(t, "hello gzip", buf.String(), "gzip output must not equal the plaintext")
	assert.Greater(t, buf.Len(), 0)
}

func TestNewWriterPbzipRejected(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, descriptor.CompressPbzip)
	assert.Error(t, err)
}

func TestNewWriterUnknownRejected(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewWriter(&buf, descriptor.CompressType("bogus"))
	assert.Error(t, err)
}

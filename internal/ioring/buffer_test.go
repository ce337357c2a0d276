package ioring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectoredBufferOffsetBounds(t *testing.T) {
	var vb = NewVectoredBuffer(4, 3)
	require.Equal(t, int64(12), vb.Size())

	require.NoError(t, vb.SetOffset(5))
	assert.Equal(t, int64(5), vb.Offset())
	assert.Equal(t, 3, len(vb.Ptr()), "offset 5 into 4-byte slots lands at slot 1, in-slot offset 1")

	assert.Error(t, vb.SetOffset(-1))
	assert.Error(t, vb.SetOffset(13))
	assert.NoError(t, vb.SetOffset(12))
}

func TestVectoredBufferEffectiveSizeInvariant(t *testing.T) {
	var vb = NewVectoredBuffer(8, 2)
	assert.NoError(t, vb.SetEffectiveSize(0))
	assert.NoError(t, vb.SetEffectiveSize(16))
	assert.Error(t, vb.SetEffectiveSize(17))
	assert.Error(t, vb.SetEffectiveSize(-1))
}

func TestVectoredBufferClearPreservesAllocation(t *testing.T) {
	var vb = NewVectoredBuffer(4, 2)
	vb.Buffer()[0] = 0xFF
	require.NoError(t, vb.SetEffectiveSize(4))
	vb.Clear()
	assert.Equal(t, byte(0), vb.Buffer()[0])
	assert.Equal(t, int64(4), vb.EffectiveSize(), "Clear must not reset effective_size")
	assert.Equal(t, 2, vb.NumBuffers())
}

package ioring

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "ioring-*.dat")
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestRingUnavailableBeforeSetup(t *testing.T) {
	var r Ring
	var buf = NewVectoredBuffer(8, 1)
	assert.ErrorIs(t, r.Read(context.Background(), buf, 0), ErrRingUnavailable)

	_, err := r.HandleCurrentIO()
	assert.ErrorIs(t, err, ErrRingUnavailable)
}

func TestRingSubmissionFullOnOversizedVector(t *testing.T) {
	var r Ring
	r.Setup(openTempFile(t), 2, 8)
	defer r.Exit()

	var buf = NewVectoredBuffer(8, 3) // 3 slots against queue_depth 2
	assert.ErrorIs(t, r.Write(context.Background(), buf, 0), ErrSubmissionFull)
}

func TestRingSubmissionFullOnMismatchedBlockSize(t *testing.T) {
	var r Ring
	r.Setup(openTempFile(t), 4, 8)
	defer r.Exit()

	var buf = NewVectoredBuffer(4, 1) // block_size 4 != ring's 8
	assert.ErrorIs(t, r.Write(context.Background(), buf, 0), ErrSubmissionFull)
}

func TestRingNoPendingIO(t *testing.T) {
	var r Ring
	r.Setup(openTempFile(t), 2, 8)
	defer r.Exit()

	_, err := r.HandleCurrentIO()
	assert.ErrorIs(t, err, ErrNoPendingIO)
}

func TestRingWriteThenReadRoundTrip(t *testing.T) {
	var f = openTempFile(t)
	var r Ring
	r.Setup(f, 2, 8)
	defer r.Exit()

	var out = NewVectoredBuffer(8, 2)
	copy(out.Slots()[0], []byte("ABCDEFGH"))
	copy(out.Slots()[1], []byte("IJKLMNOP"))
	require.NoError(t, out.SetEffectiveSize(16))

	require.NoError(t, r.Write(context.Background(), out, 0))
	n, err := r.HandleCurrentIO()
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)

	var in = NewVectoredBuffer(8, 2)
	require.NoError(t, r.Read(context.Background(), in, 0))
	n, err = r.HandleCurrentIO()
	require.NoError(t, err)
	assert.Equal(t, int64(16), n)
	assert.Equal(t, int64(16), in.EffectiveSize())
	assert.Equal(t, "ABCDEFGH", string(in.Slots()[0]))
	assert.Equal(t, "IJKLMNOP", string(in.Slots()[1]))
}

func TestRingShortWriteRespectsEffectiveSize(t *testing.T) {
	var f = openTempFile(t)
	var r Ring
	r.Setup(f, 2, 8)
	defer r.Exit()

	var out = NewVectoredBuffer(8, 2)
	copy(out.Slots()[0], []byte("ABCDEFGH"))
	require.NoError(t, out.SetEffectiveSize(5)) // only first 5 bytes of slot 0 are valid

	require.NoError(t, r.Write(context.Background(), out, 0))
	n, err := r.HandleCurrentIO()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

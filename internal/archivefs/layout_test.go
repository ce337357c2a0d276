package archivefs

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureArchiveDirCreatesMarker(t *testing.T) {
	var l = New(afero.NewMemMapFs())
	require.NoError(t, l.EnsureArchiveDir("/archives/a1"))

	exists, err := afero.Exists(l.Fs, "/archives/a1/"+MarkerFile)
	require.NoError(t, err)
	assert.True(t, exists)

	// Idempotent: calling again must not fail or duplicate anything.
	require.NoError(t, l.EnsureArchiveDir("/archives/a1"))
}

func TestCreateBasebackupDirNaming(t *testing.T) {
	var l = New(afero.NewMemMapFs())
	var started = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	path, err := l.CreateBasebackupDir("/archives/a1", "nightly", started)
	require.NoError(t, err)
	assert.Equal(t, "/archives/a1/nightly-20260304T050607Z", path)

	isDir, err := afero.DirExists(l.Fs, path)
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestCreateBasebackupDirDefaultsUnlabeled(t *testing.T) {
	var started = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	assert.Equal(t, "backup-20260304T050607Z", BasebackupDirName("", started))
}

func TestWALDirAndSegmentPath(t *testing.T) {
	var l = New(afero.NewMemMapFs())
	path, err := l.EnsureWALDir("/archives/a1")
	require.NoError(t, err)
	assert.Equal(t, "/archives/a1/wal", path)
	assert.Equal(t, "/archives/a1/wal/000000010000000000000002", l.WALSegmentPath("/archives/a1", "000000010000000000000002"))
}

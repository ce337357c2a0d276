package basebackup

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pgarchive.dev/core/internal/archivefs"
	"go.pgarchive.dev/core/internal/catalog"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgconn"
)

func newTestPipeline(t *testing.T) (*Pipeline, *pgconn.FakeConn, *descriptor.Archive) {
	t.Helper()
	var c, err = catalog.OpenRW(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/archives/a1"
	created, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	var fs = afero.NewMemMapFs()
	var layout = archivefs.New(fs)
	require.NoError(t, layout.EnsureArchiveDir(created.Directory))

	var fake = pgconn.NewFakeConn()
	fake.Identification = pgconn.StreamIdentification{
		SystemID: "6800000000000000001", Timeline: 1, XLogPos: "0/3000000", WalSegmentSize: 16 * 1024 * 1024,
	}
	fake.XLogPosEnd = "0/5000060"

	return &Pipeline{Catalog: c, Conn: fake, Layout: layout, Config: Config{BufferSize: 8, NumBuffers: 2}}, fake, created
}

func TestRunEndToEndReady(t *testing.T) {
	var ctx = context.Background()
	var p, fake, archive = newTestPipeline(t)
	fake.Tablespaces = []pgconn.FakeTablespace{
		{Info: pgconn.TablespaceInfo{Spcoid: 0, Spcsize: 4}, Data: []byte("pgdata-bytes-longer-than-one-buffer")},
		{Info: pgconn.TablespaceInfo{Spcoid: 16401, Spclocation: "/mnt/ts1", Spcsize: 2}, Data: []byte("ts1-bytes")},
	}

	b, err := p.Run(ctx, Options{Archive: archive, Label: "nightly"})
	require.NoError(t, err)
	assert.Equal(t, descriptor.StatusReady, b.Status)
	assert.False(t, b.Stopped.IsZero())
	assert.Equal(t, "0/5000060", b.XLogPosEnd)
	assert.True(t, fake.Disconnected)

	tablespaces, err := p.Catalog.ListTablespaces(b.ID)
	require.NoError(t, err)
	require.Len(t, tablespaces, 2)
	assert.Equal(t, uint32(0), tablespaces[0].Spcoid)
	assert.Equal(t, uint32(16401), tablespaces[1].Spcoid)

	exists, err := afero.Exists(p.Layout.Fs, filepath.Join(b.FsEntry, "tablespace-0"))
	require.NoError(t, err)
	assert.True(t, exists)

	content, err := afero.ReadFile(p.Layout.Fs, filepath.Join(b.FsEntry, "tablespace-0"))
	require.NoError(t, err)
	assert.Equal(t, "pgdata-bytes-longer-than-one-buffer", string(content))
}

func TestRunAbortsOnMidStreamFailure(t *testing.T) {
	var ctx = context.Background()
	var p, fake, archive = newTestPipeline(t)
	fake.Tablespaces = []pgconn.FakeTablespace{
		{Info: pgconn.TablespaceInfo{Spcoid: 0}, Data: []byte("pgdata")},
		{Info: pgconn.TablespaceInfo{Spcoid: 16401}, Data: []byte("ts1")},
	}
	fake.FailAtTablespace = 1

	_, err := p.Run(ctx, Options{Archive: archive, Label: "nightly"})
	require.Error(t, err)

	backups, err := p.Catalog.ListBackupCatalog(archive.ID)
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, descriptor.StatusAborted, backups[0].Status)
	assert.False(t, backups[0].Stopped.IsZero())

	exists, existsErr := afero.DirExists(p.Layout.Fs, backups[0].FsEntry)
	require.NoError(t, existsErr)
	assert.True(t, exists, "fsentry directory must survive an abort")
}

func TestRunFailsWhenProfileMissing(t *testing.T) {
	var ctx = context.Background()
	var p, _, archive = newTestPipeline(t)

	require.NoError(t, p.Catalog.DropBackupProfile(descriptor.DefaultProfileName, false))

	_, err := p.Run(ctx, Options{Archive: archive, Label: "nightly"})
	require.Error(t, err)
}

package command

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pgarchive.dev/core/internal/archivefs"
	"go.pgarchive.dev/core/internal/catalog"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgconn"
)

func newTestExecutor(t *testing.T) (*Executor, *pgconn.FakeConn) {
	t.Helper()
	c, err := catalog.OpenRW(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	var layout = archivefs.New(afero.NewMemMapFs())
	var fake = pgconn.NewFakeConn()
	fake.Identification = pgconn.StreamIdentification{SystemID: "1", Timeline: 1, XLogPos: "0/1000000"}
	fake.XLogPosEnd = "0/2000000"

	var exec = NewExecutor(c, layout, func(*descriptor.Connection) (pgconn.Conn, error) { return fake, nil })
	return exec, fake
}

func createTestArchive(t *testing.T, e *Executor, name string) *descriptor.Archive {
	t.Helper()
	var a = descriptor.NewArchive()
	a.Name, a.Directory = name, "/archives/"+name
	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagCreateArchive, Archive: a})
	require.NoError(t, err)
	require.Len(t, res.Archives, 1)
	return res.Archives[0]
}

func TestCreateArchiveCreatesDirectory(t *testing.T) {
	var e, _ = newTestExecutor(t)
	var a = createTestArchive(t, e, "a1")

	exists, err := afero.DirExists(e.Layout.Fs, a.Directory)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagCreateArchive, Archive: a})
	assert.Error(t, err)
}

func TestListArchiveFiltersBySubstring(t *testing.T) {
	var e, _ = newTestExecutor(t)
	createTestArchive(t, e, "nightly")
	createTestArchive(t, e, "weekly")

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagListArchive, ArchiveName: "night"})
	require.NoError(t, err)
	require.Len(t, res.Archives, 1)
	assert.Equal(t, "nightly", res.Archives[0].Name)
}

func TestAlterArchiveWritesOnlyAffectedColumns(t *testing.T) {
	var e, _ = newTestExecutor(t)
	var a = createTestArchive(t, e, "a1")

	a.PgHost = "10.0.0.5"
	a.Affected.Push(descriptor.ArchivePgHost)

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagAlterArchive, Archive: a})
	require.NoError(t, err)
	require.Len(t, res.Archives, 1)
	assert.Equal(t, "10.0.0.5", res.Archives[0].PgHost)
	assert.Equal(t, "a1", res.Archives[0].Name)
}

func TestVerifyArchiveFailsWhenDirectoryMissing(t *testing.T) {
	var e, _ = newTestExecutor(t)
	var a = createTestArchive(t, e, "a1")
	require.NoError(t, e.Layout.Fs.RemoveAll(a.Directory))

	_, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagVerifyArchive, ArchiveName: "a1"})
	assert.Error(t, err)
}

func TestStartBasebackupEndToEnd(t *testing.T) {
	var e, fake = newTestExecutor(t)
	createTestArchive(t, e, "a1")
	fake.Tablespaces = []pgconn.FakeTablespace{
		{Info: pgconn.TablespaceInfo{Spcoid: 0}, Data: []byte("pgdata")},
	}

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartBasebackup, ArchiveName: "a1", Label: "nightly"})
	require.NoError(t, err)
	require.Len(t, res.Backups, 1)
	assert.Equal(t, descriptor.StatusReady, res.Backups[0].Status)
}

func TestPinAndUnpinBasebackup(t *testing.T) {
	var e, fake = newTestExecutor(t)
	var a = createTestArchive(t, e, "a1")
	fake.Tablespaces = []pgconn.FakeTablespace{{Info: pgconn.TablespaceInfo{Spcoid: 0}, Data: []byte("x")}}

	started, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartBasebackup, ArchiveName: "a1"})
	require.NoError(t, err)
	var b = started.Backups[0]

	pinRes, err := e.Dispatch(context.Background(), &descriptor.Command{
		Tag: descriptor.TagPinBasebackup, Archive: a, Pin: &descriptor.Pin{Operation: descriptor.PinNewest},
	})
	require.NoError(t, err)
	require.Len(t, pinRes.Backups, 1)
	assert.Equal(t, 1, pinRes.Backups[0].Pinned)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagDropBasebackup, BackupID: b.ID})
	assert.Error(t, err, "a pinned basebackup must refuse drop")

	unpinRes, err := e.Dispatch(context.Background(), &descriptor.Command{
		Tag: descriptor.TagUnpinBasebackup, Archive: a, Pin: &descriptor.Pin{Operation: descriptor.PinNewest},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, unpinRes.Backups[0].Pinned)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagDropBasebackup, BackupID: b.ID})
	require.NoError(t, err)

	exists, err := afero.DirExists(e.Layout.Fs, b.FsEntry)
	require.NoError(t, err)
	assert.False(t, exists, "drop basebackup must remove its directory")
}

func TestApplyRetentionPolicyDeletesUnkeptBasebackups(t *testing.T) {
	var e, _ = newTestExecutor(t)
	e.Dial = func(*descriptor.Connection) (pgconn.Conn, error) {
		var fake = pgconn.NewFakeConn()
		fake.Tablespaces = []pgconn.FakeTablespace{{Info: pgconn.TablespaceInfo{Spcoid: 0}, Data: []byte("x")}}
		return fake, nil
	}
	var a = createTestArchive(t, e, "a1")

	var ids []int
	var dirs []string
	for i := 0; i < 3; i++ {
		res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartBasebackup, ArchiveName: "a1", Label: "b"})
		require.NoError(t, err)
		ids = append(ids, res.Backups[0].ID)
		dirs = append(dirs, res.Backups[0].FsEntry)
		time.Sleep(1100 * time.Millisecond) // basebackup directory names carry second precision
	}

	var policy = descriptor.NewRetentionPolicy("keep-latest")
	policy.Rules = []descriptor.RetentionRule{{Type: descriptor.RuleKeepNum, Value: "1"}}
	_, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagCreateRetentionPolicy, Retention: policy})
	require.NoError(t, err)

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagApplyRetentionPolicy, Archive: a, PolicyName: "keep-latest"})
	require.NoError(t, err)
	require.NotNil(t, res.Plan)
	assert.Len(t, res.Plan.Deletions(), 2)

	remaining, err := e.Catalog.ListBackupCatalog(a.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, ids[len(ids)-1], remaining[0].ID)

	for i, dir := range dirs {
		exists, err := afero.DirExists(e.Layout.Fs, dir)
		require.NoError(t, err)
		if ids[i] == remaining[0].ID {
			assert.True(t, exists, "retained basebackup directory must survive")
		} else {
			assert.False(t, exists, "deleted basebackup directory must be removed")
		}
	}
}

func TestVariableRoundTrip(t *testing.T) {
	var e, _ = newTestExecutor(t)

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagShowVariable, VariableName: "log_level"})
	require.NoError(t, err)
	assert.Equal(t, "info", res.Variable)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagSetVariable, VariableName: "log_level", VariableValue: "debug"})
	require.NoError(t, err)

	res, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagShowVariable, VariableName: "log_level"})
	require.NoError(t, err)
	assert.Equal(t, "debug", res.Variable)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagResetVariable, VariableName: "log_level"})
	require.NoError(t, err)

	res, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagShowVariable, VariableName: "log_level"})
	require.NoError(t, err)
	assert.Equal(t, "info", res.Variable)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagShowVariable, VariableName: "does_not_exist"})
	assert.Error(t, err)
}

func TestStartLauncherRefusesSecondAttempt(t *testing.T) {
	var e, _ = newTestExecutor(t)
	var a = createTestArchive(t, e, "a1")

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartLauncher, Archive: a})
	require.NoError(t, err)
	require.Equal(t, 1, len(res.Workers))

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartLauncher, Archive: a})
	assert.Error(t, err)

	res, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartLauncher, Archive: a, ExistsOk: true})
	require.NoError(t, err)
	assert.Equal(t, res.Workers[0].PID, res.PID)
}

func TestDropArchiveRefusesUnknownArchive(t *testing.T) {
	var e, _ = newTestExecutor(t)
	_, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagDropArchive, ArchiveName: "missing"})
	assert.Error(t, err)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagDropArchive, ArchiveName: "missing", ExistsOk: true})
	assert.NoError(t, err)
}

func TestStartStreamingRequiresStreamerConnection(t *testing.T) {
	var e, _ = newTestExecutor(t)
	var a = createTestArchive(t, e, "a1")

	_, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartStreaming, Archive: a})
	assert.Error(t, err)

	var conn = descriptor.NewConnection(descriptor.ConnectionTypeStreamer)
	conn.ArchiveID = a.ID
	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagCreateConnection, Connection: conn})
	require.NoError(t, err)

	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStartStreaming, Archive: a})
	require.NoError(t, err)
	require.Len(t, res.Workers, 1)
	assert.Equal(t, descriptor.WorkerStreamer, res.Workers[0].Type)

	stopRes, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagStopStreaming, Archive: a})
	require.NoError(t, err)
	require.Len(t, stopRes.Workers, 1)
	assert.Equal(t, descriptor.WorkerShutdown, stopRes.Workers[0].State)
}

func TestExecCommandRunsChildProcess(t *testing.T) {
	var e, _ = newTestExecutor(t)
	res, err := e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagExecCommand, ExecArgv: []string{"true"}})
	require.NoError(t, err)
	assert.Equal(t, "", res.ExecOutput)

	_, err = e.Dispatch(context.Background(), &descriptor.Command{Tag: descriptor.TagExecCommand, ExecArgv: []string{"false"}})
	assert.Error(t, err)
}

func TestBackgroundWorkerCommandPreservesSubTag(t *testing.T) {
	var cmd = &descriptor.Command{Tag: descriptor.TagStartStreaming, ArchiveName: "a1"}
	var wrapped = cmd.AsBackgroundWorker(true)
	assert.Equal(t, descriptor.TagBackgroundWorkerCommand, wrapped.Tag)
	assert.Equal(t, descriptor.TagStartStreaming, wrapped.SubTag)
	assert.True(t, wrapped.Detach)
	assert.Equal(t, "a1", wrapped.ArchiveName)
}

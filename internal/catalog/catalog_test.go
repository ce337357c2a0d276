package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pgarchive.dev/core/internal/descriptor"
)

func openTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := OpenRW(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenRWCreatesDefaultProfile(t *testing.T) {
	var c = openTestCatalog(t)
	p, err := c.GetBackupProfile(descriptor.DefaultProfileName)
	require.NoError(t, err)
	assert.Equal(t, descriptor.DefaultProfileName, p.Name)
}

func TestCreateListDropArchiveScenario(t *testing.T) {
	var c = openTestCatalog(t)

	var a = descriptor.NewArchive()
	a.Name, a.Directory, a.PgHost, a.PgPort, a.PgUser, a.PgDatabase = "a1", "/tmp/a1", "h", 5432, "u", "d"

	created, err := c.CreateArchive(a, false)
	require.NoError(t, err)
	require.True(t, created.Found())

	conn, err := c.GetConnection(created.ID, descriptor.ConnectionTypeBasebackup)
	require.NoError(t, err)
	assert.Equal(t, created.ID, conn.ArchiveID, "creating an archive must atomically create its basebackup connection")

	list, err := c.GetArchiveList("")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a1", list[0].Name)
	assert.Equal(t, "h", list[0].PgHost)

	require.NoError(t, c.DropArchive("a1", false))

	list, err = c.GetArchiveList("")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateArchiveAlreadyExists(t *testing.T) {
	var c = openTestCatalog(t)
	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/tmp/a1"

	_, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	_, err = c.CreateArchive(a, false)
	assert.Error(t, err)

	_, err = c.CreateArchive(a, true)
	assert.NoError(t, err, "existsOk must make re-creation a no-op")
}

func TestDropArchiveNotFound(t *testing.T) {
	var c = openTestCatalog(t)
	assert.Error(t, c.DropArchive("missing", false))
	assert.NoError(t, c.DropArchive("missing", true))
}

func TestUpdateArchiveAttributesMinimality(t *testing.T) {
	var c = openTestCatalog(t)
	var a = descriptor.NewArchive()
	a.Name, a.Directory, a.PgHost, a.PgPort, a.PgUser, a.PgDatabase = "a1", "/tmp/a1", "h1", 5432, "u", "d"
	created, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	var patch = created.Copy()
	patch.PgHost = "h2"
	patch.Affected = descriptor.NewAttributeSet(descriptor.ArchivePgHost)

	require.NoError(t, c.UpdateArchiveAttributes(patch, patch.Affected))

	got, err := c.GetArchiveByName("a1")
	require.NoError(t, err)
	assert.Equal(t, "h2", got.PgHost)
	assert.Equal(t, created.PgPort, got.PgPort, "unaffected column must be byte-identical to its pre-image")
	assert.Equal(t, created.PgUser, got.PgUser)
	assert.Equal(t, created.PgDatabase, got.PgDatabase)
	assert.Equal(t, created.Directory, got.Directory)
}

func TestProfileDefaultingScenario(t *testing.T) {
	var c = openTestCatalog(t)

	_, err := c.ResolveProfile("")
	require.NoError(t, err, "the catalog-wide default profile always exists after OpenRW")

	_, err = c.ResolveProfile("nonexistent")
	assert.Error(t, err)
}

func TestBasebackupLifecycleAbortOnFailure(t *testing.T) {
	var c = openTestCatalog(t)
	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/tmp/a1"
	archive, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	var b = descriptor.NewBaseBackup()
	b.ArchiveID = archive.ID
	b.FsEntry = "/tmp/a1/backup-1"
	registered, err := c.RegisterBasebackup(b)
	require.NoError(t, err)
	require.Equal(t, descriptor.StatusInProgress, registered.Status)

	require.NoError(t, c.AbortBasebackup(registered.ID))

	got, err := c.GetBasebackup(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, descriptor.StatusAborted, got.Status)
	assert.False(t, got.Stopped.IsZero())
	assert.Equal(t, "/tmp/a1/backup-1", got.FsEntry, "fsentry directory must still be referenced, not erased")

	list, err := c.ListBackupCatalog(archive.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, descriptor.StatusAborted, list[0].Status)
}

func TestFinalizeBasebackupRejectsNonInProgress(t *testing.T) {
	var c = openTestCatalog(t)
	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/tmp/a1"
	archive, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	var b = descriptor.NewBaseBackup()
	b.ArchiveID = archive.ID
	registered, err := c.RegisterBasebackup(b)
	require.NoError(t, err)
	require.NoError(t, c.AbortBasebackup(registered.ID))

	_, err = c.FinalizeBasebackup(registered.ID, "0/1000000")
	assert.Error(t, err, "finalizing an aborted basebackup must fail with integrity_violation")
}

func TestTransactionRollbackDiscardsWrites(t *testing.T) {
	var c = openTestCatalog(t)
	require.NoError(t, c.StartTransaction(context.Background()))

	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/tmp/a1"
	_, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	require.NoError(t, c.RollbackTransaction())

	exists, err := c.ExistsByName("a1")
	require.NoError(t, err)
	assert.False(t, exists, "rolled-back writes must not be visible")
}

func TestWithTransactionCommitsOnSuccess(t *testing.T) {
	var c = openTestCatalog(t)
	err := c.WithTransaction(context.Background(), func() error {
		var a = descriptor.NewArchive()
		a.Name, a.Directory = "a1", "/tmp/a1"
		_, err := c.CreateArchive(a, false)
		return err
	})
	require.NoError(t, err)

	exists, err := c.ExistsByName("a1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPinProtectsScenario(t *testing.T) {
	var c = openTestCatalog(t)
	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/tmp/a1"
	archive, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	var b = descriptor.NewBaseBackup()
	b.ArchiveID = archive.ID
	registered, err := c.RegisterBasebackup(b)
	require.NoError(t, err)

	require.NoError(t, c.SetPinned(registered.ID, 1))

	got, err := c.GetBasebackup(registered.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Pinned)
}

func TestRetentionPolicyRoundTrip(t *testing.T) {
	var c = openTestCatalog(t)
	var p = descriptor.NewRetentionPolicy("default")
	p.Rules = []descriptor.RetentionRule{
		{Type: descriptor.RuleKeepNum, Value: "2"},
		{Type: descriptor.RuleDropOlderByDatetime, Value: "3 days"},
	}
	require.NoError(t, c.CreateRetentionPolicy(p, false))

	got, err := c.GetRetentionPolicy("default")
	require.NoError(t, err)
	require.Len(t, got.Rules, 2)
	assert.Equal(t, descriptor.RuleKeepNum, got.Rules[0].Type)
	assert.Equal(t, "3 days", got.Rules[1].Value)

	require.NoError(t, c.DropRetentionPolicy("default", false))
	got, err = c.GetRetentionPolicy("default")
	require.NoError(t, err)
	assert.Empty(t, got.Name)
}

func TestStatCatalogAggregates(t *testing.T) {
	var c = openTestCatalog(t)
	var a = descriptor.NewArchive()
	a.Name, a.Directory = "a1", "/tmp/a1"
	archive, err := c.CreateArchive(a, false)
	require.NoError(t, err)

	var b1 = descriptor.NewBaseBackup()
	b1.ArchiveID = archive.ID
	r1, err := c.RegisterBasebackup(b1)
	require.NoError(t, err)
	_, err = c.FinalizeBasebackup(r1.ID, "0/2000000")
	require.NoError(t, err)

	var b2 = descriptor.NewBaseBackup()
	b2.ArchiveID = archive.ID
	_, err = c.RegisterBasebackup(b2)
	require.NoError(t, err)

	stat, err := c.StatCatalog("a1")
	require.NoError(t, err)
	assert.Equal(t, 2, stat.BasebackupCount)
	assert.Equal(t, 1, stat.ReadyCount)
	assert.Equal(t, 1, stat.InProgressCount)
}

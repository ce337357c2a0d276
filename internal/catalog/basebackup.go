package catalog

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// RegisterBasebackup inserts a new basebackup row with status "in
// progress", per spec.md §4.E's "registering" transition. It is
// always issued inside its own catalog transaction by the caller
// (the Base-backup Pipeline), never spanning the streaming loop.
func (c *Catalog) RegisterBasebackup(b *descriptor.BaseBackup) (*descriptor.BaseBackup, error) {
	if err := c.requireAvailable("register_basebackup"); err != nil {
		return nil, err
	}
	b.Status = descriptor.StatusInProgress
	if b.Started.IsZero() {
		b.Started = time.Now().UTC()
	}

	res, err := c.q().Exec(
		`INSERT INTO basebackup(archive_id, history_filename, label, started, stopped, pinned,
			xlogpos, xlogposend, timeline, fsentry, status, systemid, wal_segment_size, used_profile)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ArchiveID, b.HistoryFilename, b.Label, formatTime(b.Started), formatTime(b.Stopped), b.Pinned,
		b.XLogPos, b.XLogPosEnd, b.Timeline, b.FsEntry, string(b.Status), b.SystemID, int64(b.WalSegmentSize), b.UsedProfile,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "registering basebackup")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, errors.WithMessage(err, "reading basebackup id")
	}
	out := b.Copy()
	out.ID = int(id)
	return out, nil
}

// AbortBasebackup marks a basebackup aborted. Per spec.md §4.E's
// atomicity contract, this runs in its own transaction opened solely
// to record the failure; callers must not let a failure here mask
// the original streaming error.
func (c *Catalog) AbortBasebackup(id int) error {
	if err := c.requireAvailable("abort_basebackup"); err != nil {
		return err
	}
	res, err := c.q().Exec(
		`UPDATE basebackup SET status = ?, stopped = ? WHERE id = ? AND status = ?`,
		string(descriptor.StatusAborted), formatTime(time.Now().UTC()), id, string(descriptor.StatusInProgress),
	)
	if err != nil {
		return errors.WithMessage(err, "marking basebackup aborted")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 {
		return pgerror.Integrity("basebackup not in progress")
	}
	return nil
}

// FinalizeBasebackup marks a basebackup ready, recording its end LSN.
// It fails with an integrity_violation if the basebackup is not
// currently in progress, satisfying spec.md §7's integrity_violation
// kind ("attempting to finalize a basebackup not in progress").
func (c *Catalog) FinalizeBasebackup(id int, xlogPosEnd string) (*descriptor.BaseBackup, error) {
	if err := c.requireAvailable("finalize_basebackup"); err != nil {
		return nil, err
	}
	res, err := c.q().Exec(
		`UPDATE basebackup SET status = ?, stopped = ?, xlogposend = ? WHERE id = ? AND status = ?`,
		string(descriptor.StatusReady), formatTime(time.Now().UTC()), xlogPosEnd, id, string(descriptor.StatusInProgress),
	)
	if err != nil {
		return nil, errors.WithMessage(err, "finalizing basebackup")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 {
		return nil, pgerror.Integrity("basebackup not in progress")
	}
	return c.GetBasebackup(id)
}

// GetBasebackup returns the basebackup by id, or a descriptor with
// NotFoundID set if absent.
func (c *Catalog) GetBasebackup(id int) (*descriptor.BaseBackup, error) {
	if err := c.requireAvailable("get_basebackup"); err != nil {
		return nil, err
	}
	var b = descriptor.NewBaseBackup()
	var started, stopped string
	err := c.q().QueryRow(
		`SELECT id, archive_id, history_filename, label, started, stopped, pinned,
			xlogpos, xlogposend, timeline, fsentry, status, systemid, wal_segment_size, used_profile
		 FROM basebackup WHERE id = ?`, id,
	).Scan(&b.ID, &b.ArchiveID, &b.HistoryFilename, &b.Label, &started, &stopped, &b.Pinned,
		&b.XLogPos, &b.XLogPosEnd, &b.Timeline, &b.FsEntry, &b.Status, &b.SystemID, &b.WalSegmentSize, &b.UsedProfile)
	if err == sql.ErrNoRows {
		return b, nil
	}
	if err != nil {
		return nil, errors.WithMessage(err, "querying basebackup")
	}
	b.Started, b.Stopped = parseTime(started), parseTime(stopped)
	return b, nil
}

// ListBackupCatalog returns every basebackup for an archive, newest
// first, matching the ordering the retention engine and `list backup
// catalog` both expect.
func (c *Catalog) ListBackupCatalog(archiveID int) ([]*descriptor.BaseBackup, error) {
	if err := c.requireAvailable("list_backup_catalog"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(
		`SELECT id, archive_id, history_filename, label, started, stopped, pinned,
			xlogpos, xlogposend, timeline, fsentry, status, systemid, wal_segment_size, used_profile
		 FROM basebackup WHERE archive_id = ? ORDER BY started DESC, id DESC`, archiveID,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing backup catalog")
	}
	defer rows.Close()

	var out []*descriptor.BaseBackup
	for rows.Next() {
		var b = descriptor.NewBaseBackup()
		var started, stopped string
		if err := rows.Scan(&b.ID, &b.ArchiveID, &b.HistoryFilename, &b.Label, &started, &stopped, &b.Pinned,
			&b.XLogPos, &b.XLogPosEnd, &b.Timeline, &b.FsEntry, &b.Status, &b.SystemID, &b.WalSegmentSize, &b.UsedProfile); err != nil {
			return nil, errors.WithMessage(err, "scanning basebackup row")
		}
		b.Started, b.Stopped = parseTime(started), parseTime(stopped)
		out = append(out, b)
	}
	return out, errors.WithMessage(rows.Err(), "iterating basebackup rows")
}

// SetPinned sets a basebackup's pinned count directly, used by the
// pin/unpin commands.
func (c *Catalog) SetPinned(id, pinned int) error {
	if err := c.requireAvailable("set_pinned"); err != nil {
		return err
	}
	if pinned < 0 {
		pinned = 0
	}
	res, err := c.q().Exec(`UPDATE basebackup SET pinned = ? WHERE id = ?`, pinned, id)
	if err != nil {
		return errors.WithMessage(err, "updating pinned count")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 {
		return pgerror.NotFound("basebackup", strconv.Itoa(id))
	}
	return nil
}

// DropBasebackup removes a basebackup row and (via ON DELETE CASCADE)
// its tablespace rows. The caller is responsible for removing the
// basebackup's files from the filesystem; the catalog only owns the
// relational record.
func (c *Catalog) DropBasebackup(id int, existsOk bool) error {
	if err := c.requireAvailable("drop_basebackup"); err != nil {
		return err
	}
	res, err := c.q().Exec(`DELETE FROM basebackup WHERE id = ?`, id)
	if err != nil {
		return errors.WithMessage(err, "deleting basebackup")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 && !existsOk {
		return pgerror.NotFound("basebackup", strconv.Itoa(id))
	}
	return nil
}

// RegisterTablespaceForBackup inserts a tablespace row for a
// basebackup, created before the bytes of its tablespace are
// streamed, per spec.md §3.
func (c *Catalog) RegisterTablespaceForBackup(t *descriptor.Tablespace) error {
	if err := c.requireAvailable("register_tablespace_for_backup"); err != nil {
		return err
	}
	_, err := c.q().Exec(
		`INSERT INTO tablespace(backup_id, spcoid, spclocation, spcsize) VALUES (?, ?, ?, ?)`,
		t.BackupID, t.Spcoid, t.Spclocation, t.Spcsize,
	)
	return errors.WithMessage(err, "registering tablespace")
}

// ListTablespaces returns every tablespace recorded for a basebackup.
func (c *Catalog) ListTablespaces(backupID int) ([]*descriptor.Tablespace, error) {
	if err := c.requireAvailable("list_tablespaces"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(
		`SELECT backup_id, spcoid, spclocation, spcsize FROM tablespace WHERE backup_id = ? ORDER BY spcoid`, backupID,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing tablespaces")
	}
	defer rows.Close()

	var out []*descriptor.Tablespace
	for rows.Next() {
		var t = descriptor.NewTablespace(backupID)
		if err := rows.Scan(&t.BackupID, &t.Spcoid, &t.Spclocation, &t.Spcsize); err != nil {
			return nil, errors.WithMessage(err, "scanning tablespace row")
		}
		out = append(out, t)
	}
	return out, errors.WithMessage(rows.Err(), "iterating tablespace rows")
}

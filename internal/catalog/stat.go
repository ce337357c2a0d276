package catalog

import (
	"database/sql"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Stat is the aggregate summary spec.md §4.C's statCatalog returns:
// counts and durations suitable for display, with byte counts
// pre-formatted the way go-humanize renders them elsewhere in the
// pack (e.g. StorXMonitor's transfer reporting).
type Stat struct {
	ArchiveName          string
	BasebackupCount      int
	ReadyCount           int
	AbortedCount         int
	InProgressCount      int
	PinnedCount          int
	TotalTablespaceBytes int64
	TotalTablespaceHuman string
	OldestBasebackup     time.Time
	NewestBasebackup     time.Time
	RetainedSpan         time.Duration
}

// StatCatalog aggregates counts and durations for a single archive,
// per spec.md §4.C.
func (c *Catalog) StatCatalog(archiveName string) (*Stat, error) {
	if err := c.requireAvailable("stat_catalog"); err != nil {
		return nil, err
	}
	var a, err = c.GetArchiveByName(archiveName)
	if err != nil {
		return nil, err
	}
	if !a.Found() {
		return nil, errors.Errorf("stat_catalog: archive %q not found", archiveName)
	}

	var s = &Stat{ArchiveName: archiveName}
	err = c.q().QueryRow(
		`SELECT COUNT(*),
			SUM(CASE WHEN status = 'ready' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'aborted' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'in progress' THEN 1 ELSE 0 END),
			SUM(CASE WHEN pinned > 0 THEN 1 ELSE 0 END)
		 FROM basebackup WHERE archive_id = ?`, a.ID,
	).Scan(&s.BasebackupCount, &s.ReadyCount, &s.AbortedCount, &s.InProgressCount, &s.PinnedCount)
	if err != nil {
		return nil, errors.WithMessage(err, "aggregating basebackup counts")
	}

	var oldest, newest string
	err = c.q().QueryRow(
		`SELECT MIN(started), MAX(started) FROM basebackup WHERE archive_id = ?`, a.ID,
	).Scan(&oldest, &newest)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.WithMessage(err, "aggregating basebackup span")
	}
	s.OldestBasebackup, s.NewestBasebackup = parseTime(oldest), parseTime(newest)
	if !s.OldestBasebackup.IsZero() && !s.NewestBasebackup.IsZero() {
		s.RetainedSpan = s.NewestBasebackup.Sub(s.OldestBasebackup)
	}

	err = c.q().QueryRow(
		`SELECT COALESCE(SUM(t.spcsize), 0) FROM tablespace t
		 JOIN basebackup b ON b.id = t.backup_id WHERE b.archive_id = ?`, a.ID,
	).Scan(&s.TotalTablespaceBytes)
	if err != nil {
		return nil, errors.WithMessage(err, "aggregating tablespace bytes")
	}
	s.TotalTablespaceHuman = humanize.Bytes(uint64(s.TotalTablespaceBytes))

	return s, nil
}

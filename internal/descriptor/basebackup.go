package descriptor

import (
	"time"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/lsn"
)

// Status enumerates the lifecycle states of a BaseBackup.
type Status string

const (
	StatusInProgress Status = "in progress"
	StatusAborted    Status = "aborted"
	StatusReady      Status = "ready"
)

// BaseBackup is a consistent snapshot of a cluster's data files taken
// via the replication protocol, belonging to one Archive.
type BaseBackup struct {
	ID              int
	ArchiveID       int
	HistoryFilename string
	Label           string
	Started         time.Time
	Stopped         time.Time
	Pinned          int

	XLogPos        string
	XLogPosEnd     string
	Timeline       uint32
	FsEntry        string
	Status         Status
	SystemID       string
	WalSegmentSize uint64
	UsedProfile    string

	Affected AttributeSet
}

// NewBaseBackup returns a BaseBackup descriptor in its initial state:
// not yet found, status "in progress".
func NewBaseBackup() *BaseBackup {
	return &BaseBackup{ID: NotFoundID, ArchiveID: NotFoundID, Status: StatusInProgress, Affected: NewAttributeSet()}
}

// Found reports whether the descriptor refers to a real catalog row.
func (b *BaseBackup) Found() bool { return b.ID >= 0 }

// Copy duplicates the BaseBackup.
func (b *BaseBackup) Copy() *BaseBackup {
	var out = *b
	out.Affected = NewAttributeSet(b.Affected.Columns()...)
	return &out
}

// ValidateInvariants checks the universally quantified base-backup
// invariants of spec.md §8.1: Status is one of the three known values;
// if Status is ready then Stopped is set and XLogPosEnd is not behind
// XLogPos.
func (b *BaseBackup) ValidateInvariants() error {
	switch b.Status {
	case StatusInProgress, StatusAborted, StatusReady:
	default:
		return errors.Errorf("basebackup %d: unknown status %q", b.ID, b.Status)
	}
	if b.Status == StatusReady {
		if b.Stopped.IsZero() {
			return errors.Errorf("basebackup %d: ready but stopped time is unset", b.ID)
		}
		if b.XLogPosEnd != "" && b.XLogPos != "" {
			var behind = b.XLogPosEnd < b.XLogPos
			end, errEnd := lsn.Parse(b.XLogPosEnd)
			start, errStart := lsn.Parse(b.XLogPos)
			if errEnd == nil && errStart == nil {
				behind = end.Before(start)
			}
			if behind {
				return errors.Errorf("basebackup %d: xlogposend %q precedes xlogpos %q", b.ID, b.XLogPosEnd, b.XLogPos)
			}
		}
	}
	return nil
}

// Tablespace belongs to one BaseBackup and is created before the
// bytes of its tablespace are streamed.
type Tablespace struct {
	BackupID    int
	Spcoid      uint32
	Spclocation string
	Spcsize     int64

	Affected AttributeSet
}

// NewTablespace returns an empty Tablespace descriptor.
func NewTablespace(backupID int) *Tablespace {
	return &Tablespace{BackupID: backupID, Affected: NewAttributeSet()}
}

// Copy duplicates the Tablespace.
func (t *Tablespace) Copy() *Tablespace {
	var out = *t
	out.Affected = NewAttributeSet(t.Affected.Columns()...)
	return &out
}

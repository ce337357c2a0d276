package archivefs

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// MarkerFile names the empty file EnsureArchiveDir creates so a
// directory can be recognized as an archive root even before it
// holds any basebackups.
const MarkerFile = ".pgarchive"

// WALDirName is the subdirectory of an archive directory that holds
// streamed WAL segments.
const WALDirName = "wal"

// Layout roots archive directory operations on an afero.Fs.
type Layout struct {
	Fs afero.Fs
}

// New returns a Layout backed by fs.
func New(fs afero.Fs) *Layout {
	return &Layout{Fs: fs}
}

// EnsureArchiveDir creates the archive's root directory and marker
// file if they don't already exist.
func (l *Layout) EnsureArchiveDir(directory string) error {
	if err := l.Fs.MkdirAll(directory, 0750); err != nil {
		return errors.WithMessagef(err, "creating archive directory %q", directory)
	}
	var marker = filepath.Join(directory, MarkerFile)
	if exists, err := afero.Exists(l.Fs, marker); err != nil {
		return errors.WithMessage(err, "checking archive marker file")
	} else if !exists {
		if err := afero.WriteFile(l.Fs, marker, nil, 0640); err != nil {
			return errors.WithMessage(err, "writing archive marker file")
		}
	}
	return nil
}

// BasebackupDirName returns the conventional directory name for a
// basebackup with the given label and start time: "<label>-<UTC start
// time as YYYYMMDDTHHMMSSZ>", falling back to "backup" when label is
// empty so the name is still filesystem-safe and non-empty.
func BasebackupDirName(label string, started time.Time) string {
	if label == "" {
		label = "backup"
	}
	return label + "-" + started.UTC().Format("20060102T150405Z")
}

// CreateBasebackupDir creates and returns the path of a new
// basebackup directory under an archive's directory.
func (l *Layout) CreateBasebackupDir(archiveDir, label string, started time.Time) (string, error) {
	var path = filepath.Join(archiveDir, BasebackupDirName(label, started))
	if err := l.Fs.MkdirAll(path, 0750); err != nil {
		return "", errors.WithMessagef(err, "creating basebackup directory %q", path)
	}
	return path, nil
}

// WALDir returns the path of an archive's WAL segment directory.
func (l *Layout) WALDir(archiveDir string) string {
	return filepath.Join(archiveDir, WALDirName)
}

// EnsureWALDir creates the archive's WAL directory if absent and
// returns its path.
func (l *Layout) EnsureWALDir(archiveDir string) (string, error) {
	var path = l.WALDir(archiveDir)
	if err := l.Fs.MkdirAll(path, 0750); err != nil {
		return "", errors.WithMessagef(err, "creating WAL directory %q", path)
	}
	return path, nil
}

// TablespaceFilePath returns the path a tablespace's byte stream is
// written to within a basebackup directory.
func TablespaceFilePath(basebackupDir string, spcoid uint32, suffix string) string {
	return filepath.Join(basebackupDir, "tablespace-"+itoa(spcoid)+suffix)
}

// CreateTablespaceFile opens (creating) the file a tablespace's bytes
// are streamed into.
func (l *Layout) CreateTablespaceFile(basebackupDir string, spcoid uint32, suffix string) (afero.File, error) {
	return l.Fs.Create(TablespaceFilePath(basebackupDir, spcoid, suffix))
}

// WALSegmentPath returns the path a named WAL segment is written to
// within an archive's WAL directory.
func (l *Layout) WALSegmentPath(archiveDir, segmentName string) string {
	return filepath.Join(l.WALDir(archiveDir), segmentName)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	var i = len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

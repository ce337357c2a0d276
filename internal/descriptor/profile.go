package descriptor

import "github.com/pkg/errors"

// CompressType enumerates the compression strategies a BackupProfile
// may request for a base-backup's tablespace streams.
type CompressType string

const (
	CompressNone  CompressType = "none"
	CompressGzip  CompressType = "gzip"
	CompressZstd  CompressType = "zstd"
	CompressPbzip CompressType = "pbzip"
	CompressPlain CompressType = "plain"
)

// DefaultProfileName is the name of the profile a catalog must contain
// immediately after initialization, and the name start-basebackup
// falls back to when no profile is requested explicitly.
const DefaultProfileName = "default"

// BackupProfile is a named, reusable parameter set for initiating a
// base-backup.
type BackupProfile struct {
	Name              string
	CompressType      CompressType
	MaxRate           string
	Label             string
	FastCheckpoint    bool
	IncludeWAL        bool
	WaitForWAL        bool
	NoverifyChecksums bool

	Affected AttributeSet
}

// NewBackupProfile returns an empty BackupProfile descriptor.
func NewBackupProfile(name string) *BackupProfile {
	return &BackupProfile{Name: name, CompressType: CompressNone, Affected: NewAttributeSet()}
}

// Copy duplicates the BackupProfile.
func (p *BackupProfile) Copy() *BackupProfile {
	var out = *p
	out.Affected = NewAttributeSet(p.Affected.Columns()...)
	return &out
}

// Validate checks the profile's CompressType is one of the known values.
func (p *BackupProfile) Validate() error {
	switch p.CompressType {
	case CompressNone, CompressGzip, CompressZstd, CompressPbzip, CompressPlain:
	default:
		return errors.Errorf("unknown compress_type %q", p.CompressType)
	}
	if p.Name == "" {
		return errors.New("backup profile name must not be empty")
	}
	return nil
}

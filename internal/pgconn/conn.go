package pgconn

import (
	"context"
	"io"

	"go.pgarchive.dev/core/internal/descriptor"
)

// StreamIdentification is the response to IDENTIFY_SYSTEM: the server's
// current position and timeline at the moment a replication connection
// was established.
type StreamIdentification struct {
	SystemID       string
	Timeline       uint32
	XLogPos        string
	DBName         string
	WalSegmentSize uint64
}

// TablespaceInfo describes one tablespace of a base backup, as reported
// by the server before any bytes are streamed.
type TablespaceInfo struct {
	Spcoid      uint32
	Spclocation string
	Spcsize     int64
}

// TablespaceStream is one tablespace's byte stream, positioned by
// StepTablespace. Reading Data to io.EOF consumes the whole tablespace;
// the caller must do so before calling StepTablespace again.
type TablespaceStream struct {
	Info TablespaceInfo
	Data io.Reader
}

// Conn is the narrow view of a PostgreSQL replication connection the
// Base-backup Pipeline drives. Its method order is the state machine
// of spec.md §4.E: Connect, BaseBackup, ReadTablespaceInfo, then
// StepTablespace repeatedly until it returns (nil, nil), then End,
// then Disconnect.
type Conn interface {
	// Connect establishes the replication connection and issues
	// IDENTIFY_SYSTEM.
	Connect(ctx context.Context) (StreamIdentification, error)

	// BaseBackup issues BASE_BACKUP with the profile's options. It must
	// be called exactly once per connection, after Connect.
	BaseBackup(ctx context.Context, profile *descriptor.BackupProfile) error

	// ReadTablespaceInfo returns the tablespace list the server sent in
	// response to BaseBackup.
	ReadTablespaceInfo(ctx context.Context) ([]TablespaceInfo, error)

	// StepTablespace advances to the next tablespace's byte stream, or
	// returns (nil, nil) once every tablespace has been stepped.
	StepTablespace(ctx context.Context) (*TablespaceStream, error)

	// End finishes the base backup and returns the ending WAL position.
	End(ctx context.Context) (xlogPosEnd string, err error)

	// Disconnect closes the connection. It is safe to call at any
	// state, including after an error from any other method.
	Disconnect(ctx context.Context) error
}

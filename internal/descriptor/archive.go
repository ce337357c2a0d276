package descriptor

import "github.com/pkg/errors"

// ConnectionTypeBasebackup and ConnectionTypeStreamer are the two
// permitted values of Connection.Type.
const (
	ConnectionTypeBasebackup = "basebackup"
	ConnectionTypeStreamer   = "streamer"
)

// NotFoundID is the sentinel identifier returned by lookups of an
// absent entity, in place of a null handle. Callers must check ID >= 0
// before acting on a looked-up descriptor.
const NotFoundID = -1

// Archive is the unique identity (ID, Name) of an on-disk archive
// directory, together with its default connection parameters.
type Archive struct {
	ID          int
	Name        string
	Directory   string
	Compression bool
	PgHost      string
	PgPort      int
	PgUser      string
	PgDatabase  string

	Affected AttributeSet
}

// NewArchive returns an empty Archive descriptor, not yet found.
func NewArchive() *Archive {
	return &Archive{ID: NotFoundID, Affected: NewAttributeSet()}
}

// Found reports whether the descriptor refers to a real catalog row.
func (a *Archive) Found() bool { return a.ID >= 0 }

// Copy returns a duplicate of the Archive. Scalar fields are
// duplicated; the Affected set is a fresh copy (descriptors never
// alias their affected-attribute sets across copies, even though
// nested entity descriptors may be shared — see Connection.Copy).
func (a *Archive) Copy() *Archive {
	var out = *a
	out.Affected = NewAttributeSet(a.Affected.Columns()...)
	return &out
}

// Validate checks structural invariants of the Archive descriptor
// that do not require a catalog round-trip.
func (a *Archive) Validate() error {
	if a.Name == "" {
		return errors.New("archive name must not be empty")
	}
	if a.Directory == "" {
		return errors.New("archive directory must not be empty")
	}
	return nil
}

// Connection belongs to one Archive and is identified by
// (ArchiveID, Type).
type Connection struct {
	ArchiveID  int
	Type       string
	PgHost     string
	PgPort     int
	PgUser     string
	PgDatabase string
	DSN        string

	Affected AttributeSet
}

// NewConnection returns an empty Connection descriptor of the given type.
func NewConnection(connType string) *Connection {
	return &Connection{ArchiveID: NotFoundID, Type: connType, Affected: NewAttributeSet()}
}

// Copy duplicates scalar fields of the Connection. Command descriptors
// that nest a *Connection share the pointer on copy (see
// Command.Copy); this method exists for call sites that need an
// independent snapshot.
func (c *Connection) Copy() *Connection {
	var out = *c
	out.Affected = NewAttributeSet(c.Affected.Columns()...)
	return &out
}

// Validate checks the Connection's Type is one of the two permitted values.
func (c *Connection) Validate() error {
	switch c.Type {
	case ConnectionTypeBasebackup, ConnectionTypeStreamer:
		return nil
	default:
		return errors.Errorf("connection type %q is not one of %q, %q",
			c.Type, ConnectionTypeBasebackup, ConnectionTypeStreamer)
	}
}

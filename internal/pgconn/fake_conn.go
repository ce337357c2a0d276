package pgconn

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
)

// FakeTablespace is one tablespace of a FakeConn backup: its metadata
// plus the exact bytes StepTablespace's stream will yield.
type FakeTablespace struct {
	Info TablespaceInfo
	Data []byte
}

// FakeConn is an in-memory Conn double for internal/basebackup's tests.
// It replays a scripted identification and tablespace list and records
// whether Connect, BaseBackup and Disconnect were called and the
// profile BaseBackup was given; it does not record call order.
type FakeConn struct {
	Identification StreamIdentification
	Tablespaces    []FakeTablespace
	XLogPosEnd     string

	// FailBaseBackup, when set, is returned by BaseBackup instead of
	// starting the backup — for exercising a pipeline failure that
	// occurs before any basebackup row is registered.
	FailBaseBackup error
	// FailAtTablespace, when >= 0, causes StepTablespace to fail once
	// it would otherwise return that tablespace index.
	FailAtTablespace int

	Connected        bool
	BaseBackupCalled bool
	Profile          *descriptor.BackupProfile
	Disconnected     bool

	index int
}

// NewFakeConn returns a FakeConn with FailAtTablespace disabled.
func NewFakeConn() *FakeConn {
	return &FakeConn{FailAtTablespace: -1}
}

func (f *FakeConn) Connect(ctx context.Context) (StreamIdentification, error) {
	f.Connected = true
	return f.Identification, nil
}

func (f *FakeConn) BaseBackup(ctx context.Context, profile *descriptor.BackupProfile) error {
	f.BaseBackupCalled = true
	f.Profile = profile
	if f.FailBaseBackup != nil {
		return f.FailBaseBackup
	}
	return nil
}

func (f *FakeConn) ReadTablespaceInfo(ctx context.Context) ([]TablespaceInfo, error) {
	var infos = make([]TablespaceInfo, len(f.Tablespaces))
	for i, t := range f.Tablespaces {
		infos[i] = t.Info
	}
	return infos, nil
}

func (f *FakeConn) StepTablespace(ctx context.Context) (*TablespaceStream, error) {
	if f.index >= len(f.Tablespaces) {
		return nil, nil
	}
	if f.index == f.FailAtTablespace {
		return nil, errors.Errorf("simulated failure streaming tablespace %d", f.index)
	}
	var t = f.Tablespaces[f.index]
	f.index++
	return &TablespaceStream{Info: t.Info, Data: bytes.NewReader(t.Data)}, nil
}

func (f *FakeConn) End(ctx context.Context) (string, error) {
	return f.XLogPosEnd, nil
}

func (f *FakeConn) Disconnect(ctx context.Context) error {
	f.Disconnected = true
	return nil
}

var _ Conn = (*FakeConn)(nil)

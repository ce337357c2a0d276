package descriptor

import (
	"time"

	"github.com/pkg/errors"
)

// WorkerType enumerates the kind of background process a
// WorkerProcess record describes.
type WorkerType string

const (
	WorkerLauncher WorkerType = "launcher"
	WorkerStreamer WorkerType = "streamer"
	WorkerWorker   WorkerType = "worker"
)

// WorkerState enumerates a worker process's observed state.
type WorkerState string

const (
	WorkerRunning  WorkerState = "running"
	WorkerShutdown WorkerState = "shutdown"
)

// WorkerProcess records one background process launched for an
// archive. ShmKey and ShmID are carried through the catalog schema
// unmodified; this module has no shared-memory subsystem of its own
// to populate them from (see DESIGN.md Open Question 3).
type WorkerProcess struct {
	PID       int
	ArchiveID int
	Type      WorkerType
	State     WorkerState
	Started   time.Time
	ShmKey    int64
	ShmID     int64

	Affected AttributeSet
}

// NewWorkerProcess returns a WorkerProcess descriptor for a freshly
// started process.
func NewWorkerProcess(pid, archiveID int, typ WorkerType) *WorkerProcess {
	return &WorkerProcess{
		PID:       pid,
		ArchiveID: archiveID,
		Type:      typ,
		State:     WorkerRunning,
		Started:   time.Now().UTC(),
		Affected:  NewAttributeSet(),
	}
}

// Validate checks the WorkerProcess's Type and State are known values.
func (w *WorkerProcess) Validate() error {
	switch w.Type {
	case WorkerLauncher, WorkerStreamer, WorkerWorker:
	default:
		return errors.Errorf("unknown worker type %q", w.Type)
	}
	switch w.State {
	case WorkerRunning, WorkerShutdown:
	default:
		return errors.Errorf("unknown worker state %q", w.State)
	}
	return nil
}

package command

import (
	"os"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// execStartStreaming records a running WAL streamer worker for an
// archive. The actual network connection it represents is driven by
// the background-worker wrapper (TagBackgroundWorkerCommand), which
// re-invokes this command's SubTag in a child process; this
// transactional half only updates the catalog's bookkeeping.
func (e *Executor) execStartStreaming(cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "start streaming requires an archive")
	}
	conn, err := e.Catalog.GetConnection(cmd.Archive.ID, descriptor.ConnectionTypeStreamer)
	if err != nil {
		return Result{}, err
	}
	if conn.ArchiveID < 0 {
		return Result{}, pgerror.NotFound("connection", descriptor.ConnectionTypeStreamer)
	}

	var ident = descriptor.NewStreamIdentification(cmd.Archive.ID)
	ident.SlotName = descriptor.NewSlotName(cmd.Archive.Name)

	var w = descriptor.NewWorkerProcess(os.Getpid(), cmd.Archive.ID, descriptor.WorkerStreamer)
	if err := e.Catalog.RegisterWorker(w); err != nil {
		return Result{}, err
	}
	return Result{Workers: []*descriptor.WorkerProcess{w}, Stream: ident}, nil
}

// execStopStreaming marks the archive's streamer worker shutdown.
func (e *Executor) execStopStreaming(cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "stop streaming requires an archive")
	}
	workers, err := e.Catalog.ListWorkers(cmd.Archive.ID)
	if err != nil {
		return Result{}, err
	}
	var stopped []*descriptor.WorkerProcess
	for _, w := range workers {
		if w.Type != descriptor.WorkerStreamer || w.State != descriptor.WorkerRunning {
			continue
		}
		if err := e.Catalog.MarkWorkerShutdown(w.PID); err != nil {
			return Result{}, err
		}
		w.State = descriptor.WorkerShutdown
		stopped = append(stopped, w)
	}
	if len(stopped) == 0 && !cmd.ExistsOk {
		return Result{}, pgerror.NotFound("streamer", cmd.Archive.Name)
	}
	return Result{Workers: stopped}, nil
}

package catalog

import (
	"database/sql"
	"strconv"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/catalogmetrics"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// RegisterWorker inserts a worker-process record. A launcher is
// subject to spec.md §3's "at most one launcher row per
// process-group" invariant; that check is the launcher command's
// responsibility (it knows the process group), not the catalog's.
func (c *Catalog) RegisterWorker(w *descriptor.WorkerProcess) error {
	if err := c.requireAvailable("register_worker"); err != nil {
		return err
	}
	if err := w.Validate(); err != nil {
		return err
	}
	_, err := c.q().Exec(
		`INSERT INTO worker_process(pid, archive_id, type, state, started, shm_key, shm_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.PID, w.ArchiveID, string(w.Type), string(w.State), formatTime(w.Started), w.ShmKey, w.ShmID,
	)
	if err == nil {
		catalogmetrics.WorkerProcesses.Inc()
	}
	return errors.WithMessage(err, "registering worker process")
}

// MarkWorkerShutdown transitions a worker-process record to shutdown.
func (c *Catalog) MarkWorkerShutdown(pid int) error {
	if err := c.requireAvailable("mark_worker_shutdown"); err != nil {
		return err
	}
	res, err := c.q().Exec(`UPDATE worker_process SET state = ? WHERE pid = ?`, string(descriptor.WorkerShutdown), pid)
	if err != nil {
		return errors.WithMessage(err, "marking worker shutdown")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 {
		return pgerror.NotFound("worker_process", formatPID(pid))
	}
	catalogmetrics.WorkerProcesses.Dec()
	return nil
}

// DropWorker removes a worker-process record outright, e.g. once a
// shutdown process has been reaped.
func (c *Catalog) DropWorker(pid int, existsOk bool) error {
	if err := c.requireAvailable("drop_worker"); err != nil {
		return err
	}
	res, err := c.q().Exec(`DELETE FROM worker_process WHERE pid = ?`, pid)
	if err != nil {
		return errors.WithMessage(err, "deleting worker process")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithMessage(err, "reading rows affected")
	}
	if n == 0 && !existsOk {
		return pgerror.NotFound("worker_process", formatPID(pid))
	}
	return nil
}

// ListWorkers returns every worker-process record, optionally
// filtered to a single archive (archiveID < 0 means unfiltered),
// backing the `show workers` command.
func (c *Catalog) ListWorkers(archiveID int) ([]*descriptor.WorkerProcess, error) {
	if err := c.requireAvailable("list_workers"); err != nil {
		return nil, err
	}
	rows, err := c.q().Query(
		`SELECT pid, archive_id, type, state, started, shm_key, shm_id
		 FROM worker_process WHERE (? < 0 OR archive_id = ?) ORDER BY pid`, archiveID, archiveID,
	)
	if err != nil {
		return nil, errors.WithMessage(err, "listing worker processes")
	}
	defer rows.Close()

	var out []*descriptor.WorkerProcess
	for rows.Next() {
		var (
			w                descriptor.WorkerProcess
			typ, state, strt string
		)
		if err := rows.Scan(&w.PID, &w.ArchiveID, &typ, &state, &strt, &w.ShmKey, &w.ShmID); err != nil {
			return nil, errors.WithMessage(err, "scanning worker process row")
		}
		w.Type, w.State, w.Started = descriptor.WorkerType(typ), descriptor.WorkerState(state), parseTime(strt)
		w.Affected = descriptor.NewAttributeSet()
		out = append(out, &w)
	}
	return out, errors.WithMessage(rows.Err(), "iterating worker process rows")
}

// CountRunningWorkers reports the number of worker_process rows
// currently in state "running".
func (c *Catalog) CountRunningWorkers() (int, error) {
	if err := c.requireAvailable("count_running_workers"); err != nil {
		return 0, err
	}
	var n int
	err := c.q().QueryRow(
		`SELECT COUNT(*) FROM worker_process WHERE state = ?`, string(descriptor.WorkerRunning),
	).Scan(&n)
	if err != nil && err != sql.ErrNoRows {
		return 0, errors.WithMessage(err, "counting running workers")
	}
	return n, nil
}

func formatPID(pid int) string {
	return strconv.Itoa(pid)
}

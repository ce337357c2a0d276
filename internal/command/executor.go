// Package command dispatches typed command descriptors to the
// catalog store, retention engine, and base-backup pipeline, per
// spec.md §4.F. It plays the role commands.cxx plays in the original
// implementation: one concrete handler per descriptor.CommandTag,
// each wrapped in a catalog transaction with rollback-and-rethrow on
// error, except for the commands that manage their own transactions
// (start basebackup, apply retention policy, start launcher, and the
// background-worker wrapper).
package command

import (
	"context"
	"os"

	"go.pgarchive.dev/core/internal/archivefs"
	"go.pgarchive.dev/core/internal/catalog"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgconn"
	"go.pgarchive.dev/core/internal/pgerror"
	"go.pgarchive.dev/core/internal/retention"
)

// ConnDialer opens a replication connection for a connection
// descriptor. Production wiring supplies a dialer backed by
// pgconn.NewPQConn; tests supply one that returns a pgconn.FakeConn.
type ConnDialer func(*descriptor.Connection) (pgconn.Conn, error)

// WorkerLauncher spawns a detached background process running a
// wrapped command, per spec.md §4.F's background-worker wrapper.
// Process spawning is a collaborator the core only calls through this
// interface; cmd/pgarchive supplies the real implementation.
type WorkerLauncher interface {
	Launch(cmd *descriptor.Command) (pid int, err error)
}

// Executor dispatches typed command descriptors to the catalog store,
// retention engine, and base-backup pipeline. One Executor is shared
// across every command issued against a single catalog handle within
// a process.
type Executor struct {
	Catalog *catalog.Catalog
	Layout  *archivefs.Layout
	Dial    ConnDialer
	Workers WorkerLauncher

	vars Variables
}

// NewExecutor returns an Executor with its runtime-variable registry
// seeded to spec.md's defaults.
func NewExecutor(c *catalog.Catalog, layout *archivefs.Layout, dial ConnDialer) *Executor {
	return &Executor{Catalog: c, Layout: layout, Dial: dial, vars: defaultVariables()}
}

// Result is the per-command payload the CLI surface renders. Which
// fields are populated is determined by the issued Command's Tag.
type Result struct {
	Archives    []*descriptor.Archive
	Connections []*descriptor.Connection
	Profiles    []*descriptor.BackupProfile
	Backups     []*descriptor.BaseBackup
	Workers     []*descriptor.WorkerProcess
	PolicyNames []string
	Policy      *descriptor.RetentionPolicy
	Plan        *retention.CleanupPlan
	Variable    string
	Variables   map[string]string
	ExecOutput  string
	PID         int
	Stream      *descriptor.StreamIdentification
}

// Dispatch ensures the catalog handle is open, then executes cmd.
// Every command except BackgroundWorkerCommand, StartBasebackup,
// ApplyRetentionPolicy, and StartLauncher runs inside a single
// StartTransaction/CommitTransaction, rolled back and re-thrown
// unchanged on any error; those four manage
// their own nested transactions because their bodies span more than
// one atomic catalog operation (spec.md §4.E, §4.D, §4.F).
func (e *Executor) Dispatch(ctx context.Context, cmd *descriptor.Command) (Result, error) {
	if !e.Catalog.Available() {
		return Result{}, &pgerror.CatalogUnavailableError{Op: cmd.Tag.String()}
	}

	switch cmd.Tag {
	case descriptor.TagBackgroundWorkerCommand:
		return e.dispatchBackgroundWorker(ctx, cmd)
	case descriptor.TagStartBasebackup:
		return e.execStartBasebackup(ctx, cmd)
	case descriptor.TagApplyRetentionPolicy:
		return e.execApplyRetentionPolicy(ctx, cmd)
	case descriptor.TagStartLauncher:
		return e.execStartLauncher(ctx, cmd)
	}

	var res Result
	var err = e.Catalog.WithTransaction(ctx, func() error {
		var innerErr error
		res, innerErr = e.dispatchTransactional(cmd)
		return innerErr
	})
	return res, err
}

func (e *Executor) dispatchTransactional(cmd *descriptor.Command) (Result, error) {
	switch cmd.Tag {
	case descriptor.TagCreateArchive:
		return e.execCreateArchive(cmd)
	case descriptor.TagDropArchive:
		return e.execDropArchive(cmd)
	case descriptor.TagListArchive:
		return e.execListArchive(cmd)
	case descriptor.TagAlterArchive:
		return e.execAlterArchive(cmd)
	case descriptor.TagVerifyArchive:
		return e.execVerifyArchive(cmd)
	case descriptor.TagCreateBackupProfile:
		return e.execCreateBackupProfile(cmd)
	case descriptor.TagDropBackupProfile:
		return e.execDropBackupProfile(cmd)
	case descriptor.TagListBackupProfile:
		return e.execListBackupProfile(cmd)
	case descriptor.TagCreateConnection:
		return e.execCreateConnection(cmd)
	case descriptor.TagDropConnection:
		return e.execDropConnection(cmd)
	case descriptor.TagListConnection:
		return e.execListConnection(cmd)
	case descriptor.TagPinBasebackup, descriptor.TagUnpinBasebackup:
		return e.execPin(cmd)
	case descriptor.TagDropBasebackup:
		return e.execDropBasebackup(cmd)
	case descriptor.TagListBackupCatalog:
		return e.execListBackupCatalog(cmd)
	case descriptor.TagCreateRetentionPolicy:
		return e.execCreateRetentionPolicy(cmd)
	case descriptor.TagDropRetentionPolicy:
		return e.execDropRetentionPolicy(cmd)
	case descriptor.TagListRetentionPolicy:
		return e.execListRetentionPolicy(cmd)
	case descriptor.TagShowVariable:
		return e.execShowVariable(cmd)
	case descriptor.TagSetVariable:
		return e.execSetVariable(cmd)
	case descriptor.TagResetVariable:
		return e.execResetVariable(cmd)
	case descriptor.TagShowVariables:
		return e.execShowVariables()
	case descriptor.TagShowWorkers:
		return e.execShowWorkers(cmd)
	case descriptor.TagStartStreaming:
		return e.execStartStreaming(cmd)
	case descriptor.TagStopStreaming:
		return e.execStopStreaming(cmd)
	case descriptor.TagExecCommand:
		return e.execExecCommand(cmd)
	default:
		return Result{}, pgerror.InvalidArgument("tag", "unknown command tag "+cmd.Tag.String())
	}
}

// dispatchBackgroundWorker launches cmd.SubTag's command via Workers
// and registers its PID as a worker_process row, per spec.md §4.F.
func (e *Executor) dispatchBackgroundWorker(ctx context.Context, cmd *descriptor.Command) (Result, error) {
	if e.Workers == nil {
		return Result{}, pgerror.InvalidArgument("workers", "no worker launcher configured")
	}
	pid, err := e.Workers.Launch(cmd)
	if err != nil {
		return Result{}, err
	}
	var archiveID = descriptor.NotFoundID
	if cmd.Archive != nil {
		archiveID = cmd.Archive.ID
	}
	var w = descriptor.NewWorkerProcess(pid, archiveID, descriptor.WorkerWorker)
	if err := e.Catalog.WithTransaction(ctx, func() error {
		return e.Catalog.RegisterWorker(w)
	}); err != nil {
		return Result{}, err
	}
	return Result{PID: pid, Workers: []*descriptor.WorkerProcess{w}}, nil
}

// execStartLauncher registers this process as the archive daemon's
// launcher. Per spec.md §3's "at most one launcher per process-group"
// invariant, a second attempt fails unless ExistsOk is set, in which
// case it reports the existing launcher's PID.
func (e *Executor) execStartLauncher(ctx context.Context, cmd *descriptor.Command) (Result, error) {
	var existing []*descriptor.WorkerProcess
	if err := e.Catalog.WithTransaction(ctx, func() error {
		var innerErr error
		existing, innerErr = e.Catalog.ListWorkers(descriptor.NotFoundID)
		return innerErr
	}); err != nil {
		return Result{}, err
	}
	for _, w := range existing {
		if w.Type == descriptor.WorkerLauncher && w.State == descriptor.WorkerRunning {
			if cmd.ExistsOk {
				return Result{PID: w.PID, Workers: []*descriptor.WorkerProcess{w}}, nil
			}
			return Result{}, pgerror.AlreadyExists("launcher", "process group")
		}
	}

	var archiveID = descriptor.NotFoundID
	if cmd.Archive != nil {
		archiveID = cmd.Archive.ID
	}
	var w = descriptor.NewWorkerProcess(os.Getpid(), archiveID, descriptor.WorkerLauncher)
	if err := e.Catalog.WithTransaction(ctx, func() error {
		return e.Catalog.RegisterWorker(w)
	}); err != nil {
		return Result{}, err
	}
	return Result{PID: w.PID, Workers: []*descriptor.WorkerProcess{w}}, nil
}

func (e *Executor) execShowWorkers(cmd *descriptor.Command) (Result, error) {
	var archiveID = descriptor.NotFoundID
	if cmd.Archive != nil {
		archiveID = cmd.Archive.ID
	}
	list, err := e.Catalog.ListWorkers(archiveID)
	if err != nil {
		return Result{}, err
	}
	return Result{Workers: list}, nil
}

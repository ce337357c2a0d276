package command

import (
	"context"

	"go.pgarchive.dev/core/internal/basebackup"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// execStartBasebackup resolves the archive's basebackup connection,
// dials it, and drives internal/basebackup.Pipeline end to end. It
// runs outside Dispatch's generic transaction wrap: the Pipeline opens
// its own transactions per step, and nesting a second one around it
// would violate the catalog handle's non-reentrant transaction
// contract (spec.md §4.E).
func (e *Executor) execStartBasebackup(ctx context.Context, cmd *descriptor.Command) (Result, error) {
	if cmd.ArchiveName == "" {
		return Result{}, pgerror.InvalidArgument("archive", "start basebackup requires an archive name")
	}
	if e.Dial == nil {
		return Result{}, pgerror.InvalidArgument("dial", "no connection dialer configured")
	}

	archive, err := e.Catalog.GetArchiveByName(cmd.ArchiveName)
	if err != nil {
		return Result{}, err
	}
	if !archive.Found() {
		return Result{}, pgerror.NotFound("archive", cmd.ArchiveName)
	}

	connDescr, err := e.Catalog.GetConnection(archive.ID, descriptor.ConnectionTypeBasebackup)
	if err != nil {
		return Result{}, err
	}
	if connDescr.ArchiveID < 0 {
		return Result{}, pgerror.NotFound("connection", descriptor.ConnectionTypeBasebackup)
	}

	conn, err := e.Dial(connDescr)
	if err != nil {
		return Result{}, err
	}

	var pipeline = &basebackup.Pipeline{Catalog: e.Catalog, Conn: conn, Layout: e.Layout}
	b, err := pipeline.Run(ctx, basebackup.Options{
		Archive:     archive,
		ProfileName: cmd.ProfileName,
		Label:       cmd.Label,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Backups: []*descriptor.BaseBackup{b}}, nil
}

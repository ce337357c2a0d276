package command

import (
	"github.com/spf13/afero"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

func (e *Executor) execCreateArchive(cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "create archive requires an archive descriptor")
	}
	created, err := e.Catalog.CreateArchive(cmd.Archive, cmd.ExistsOk)
	if err != nil {
		return Result{}, err
	}
	if e.Layout != nil {
		if err := e.Layout.EnsureArchiveDir(created.Directory); err != nil {
			return Result{}, err
		}
	}
	return Result{Archives: []*descriptor.Archive{created}}, nil
}

func (e *Executor) execDropArchive(cmd *descriptor.Command) (Result, error) {
	return Result{}, e.Catalog.DropArchive(cmd.ArchiveName, cmd.ExistsOk)
}

func (e *Executor) execListArchive(cmd *descriptor.Command) (Result, error) {
	list, err := e.Catalog.GetArchiveList(cmd.ArchiveName)
	if err != nil {
		return Result{}, err
	}
	return Result{Archives: list}, nil
}

// execAlterArchive writes exactly the columns cmd.Archive.Affected
// names, per spec.md §4.C's affected-attributes contract.
func (e *Executor) execAlterArchive(cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "alter archive requires an archive descriptor")
	}
	if err := e.Catalog.UpdateArchiveAttributes(cmd.Archive, cmd.Archive.Affected); err != nil {
		return Result{}, err
	}
	updated, err := e.Catalog.GetArchiveByName(cmd.Archive.Name)
	if err != nil {
		return Result{}, err
	}
	return Result{Archives: []*descriptor.Archive{updated}}, nil
}

// execVerifyArchive checks the archive's mandatory basebackup
// connection and, when a Layout is attached, that its directory
// exists on disk, per spec.md §3's archive invariants.
func (e *Executor) execVerifyArchive(cmd *descriptor.Command) (Result, error) {
	archive, err := e.Catalog.GetArchiveByName(cmd.ArchiveName)
	if err != nil {
		return Result{}, err
	}
	if !archive.Found() {
		return Result{}, pgerror.NotFound("archive", cmd.ArchiveName)
	}
	conn, err := e.Catalog.GetConnection(archive.ID, descriptor.ConnectionTypeBasebackup)
	if err != nil {
		return Result{}, err
	}
	if conn.ArchiveID < 0 {
		return Result{}, pgerror.Integrity("archive is missing its mandatory basebackup connection")
	}
	if e.Layout != nil {
		exists, err := afero.DirExists(e.Layout.Fs, archive.Directory)
		if err != nil {
			return Result{}, pgerror.IO("checking archive directory", err)
		}
		if !exists {
			return Result{}, pgerror.Integrity("archive directory " + archive.Directory + " does not exist")
		}
	}
	return Result{Archives: []*descriptor.Archive{archive}}, nil
}

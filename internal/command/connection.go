package command

import (
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

func (e *Executor) execCreateConnection(cmd *descriptor.Command) (Result, error) {
	if cmd.Connection == nil {
		return Result{}, pgerror.InvalidArgument("connection", "create connection requires a connection descriptor")
	}
	if err := e.Catalog.CreateConnection(cmd.Connection, cmd.ExistsOk); err != nil {
		return Result{}, err
	}
	return Result{Connections: []*descriptor.Connection{cmd.Connection}}, nil
}

func (e *Executor) execDropConnection(cmd *descriptor.Command) (Result, error) {
	if cmd.Connection == nil {
		return Result{}, pgerror.InvalidArgument("connection", "drop connection requires a connection descriptor")
	}
	if cmd.Connection.Type == descriptor.ConnectionTypeBasebackup {
		return Result{}, pgerror.Integrity("the basebackup connection cannot be dropped independently of its archive")
	}
	return Result{}, e.Catalog.DropConnection(cmd.Connection.ArchiveID, cmd.Connection.Type, cmd.ExistsOk)
}

func (e *Executor) execListConnection(cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "list connection requires an archive")
	}
	list, err := e.Catalog.ListConnections(cmd.Archive.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Connections: list}, nil
}

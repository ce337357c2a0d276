package command

import (
	"strconv"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

// execPin applies a Pin descriptor's operation to the basebackups it
// selects, incrementing or decrementing Pinned depending on whether
// the issued tag is pin or unpin. A basebackup's Pinned count never
// goes negative.
func (e *Executor) execPin(cmd *descriptor.Command) (Result, error) {
	if cmd.Pin == nil {
		return Result{}, pgerror.InvalidArgument("pin", "pin/unpin requires a pin descriptor")
	}
	if err := cmd.Pin.Validate(); err != nil {
		return Result{}, err
	}

	targets, err := e.resolvePinTargets(cmd)
	if err != nil {
		return Result{}, err
	}

	var unpin = cmd.Tag == descriptor.TagUnpinBasebackup
	var out = make([]*descriptor.BaseBackup, 0, len(targets))
	for _, b := range targets {
		var pinned = b.Pinned
		if unpin {
			pinned--
		} else {
			pinned++
		}
		if pinned < 0 {
			pinned = 0
		}
		if err := e.Catalog.SetPinned(b.ID, pinned); err != nil {
			return Result{}, err
		}
		b.Pinned = pinned
		out = append(out, b)
	}
	return Result{Backups: out}, nil
}

func (e *Executor) resolvePinTargets(cmd *descriptor.Command) ([]*descriptor.BaseBackup, error) {
	if cmd.Archive == nil {
		return nil, pgerror.InvalidArgument("archive", "pin/unpin requires an archive")
	}
	list, err := e.Catalog.ListBackupCatalog(cmd.Archive.ID) // newest first
	if err != nil {
		return nil, err
	}

	switch cmd.Pin.Operation {
	case descriptor.PinByID:
		for _, b := range list {
			if b.ID == cmd.Pin.BackupID {
				return []*descriptor.BaseBackup{b}, nil
			}
		}
		return nil, pgerror.NotFound("basebackup", strconv.Itoa(cmd.Pin.BackupID))
	case descriptor.PinNewest:
		if len(list) == 0 {
			return nil, pgerror.NotFound("basebackup", "newest")
		}
		return list[:1], nil
	case descriptor.PinOldest:
		if len(list) == 0 {
			return nil, pgerror.NotFound("basebackup", "oldest")
		}
		return list[len(list)-1:], nil
	case descriptor.PinByCount:
		var n = cmd.Pin.Count
		if n > len(list) {
			n = len(list)
		}
		return list[:n], nil
	case descriptor.PinPinned:
		var out []*descriptor.BaseBackup
		for _, b := range list {
			if b.Pinned > 0 {
				out = append(out, b)
			}
		}
		return out, nil
	default:
		return nil, pgerror.InvalidArgument("operation", "unknown pin operation "+string(cmd.Pin.Operation))
	}
}

// execDropBasebackup removes a basebackup's catalog row and its
// on-disk directory. A pinned basebackup is refused, matching the
// retention engine's own stickiness rule (spec.md §3 invariant 4).
func (e *Executor) execDropBasebackup(cmd *descriptor.Command) (Result, error) {
	b, err := e.Catalog.GetBasebackup(cmd.BackupID)
	if err != nil {
		return Result{}, err
	}
	if !b.Found() {
		if cmd.ExistsOk {
			return Result{}, nil
		}
		return Result{}, pgerror.NotFound("basebackup", strconv.Itoa(cmd.BackupID))
	}
	if b.Pinned > 0 {
		return Result{}, pgerror.Integrity("basebackup is pinned")
	}
	if err := e.Catalog.DropBasebackup(b.ID, cmd.ExistsOk); err != nil {
		return Result{}, err
	}
	if e.Layout != nil && b.FsEntry != "" {
		if err := e.Layout.Fs.RemoveAll(b.FsEntry); err != nil {
			return Result{}, pgerror.IO("removing basebackup directory", err)
		}
	}
	return Result{Backups: []*descriptor.BaseBackup{b}}, nil
}

func (e *Executor) execListBackupCatalog(cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "list backup catalog requires an archive")
	}
	list, err := e.Catalog.ListBackupCatalog(cmd.Archive.ID)
	if err != nil {
		return Result{}, err
	}
	return Result{Backups: list}, nil
}

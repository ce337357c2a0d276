package pgarchivecmd

import (
	"context"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdBackupsStart struct {
	Archive string `long:"archive" required:"true" description:"Archive to back into"`
	Profile string `long:"profile" description:"Backup profile to use (falls back to the default profile)"`
	Label   string `long:"label" description:"Label of the new basebackup"`
	Detach  bool   `long:"detach" description:"Run the basebackup as a detached background worker"`
}

type cmdBackupsList struct {
	Archive string `long:"archive" required:"true" description:"Archive whose backup catalog to list"`
}

type cmdBackupsPin struct {
	Archive string `long:"archive" required:"true" description:"Archive the basebackup belongs to"`
	ID      int    `long:"id" default:"-1" description:"Pin the basebackup with this id"`
	Count   int    `long:"count" description:"Pin the N newest basebackups"`
	Newest  bool   `long:"newest" description:"Pin the newest basebackup"`
	Oldest  bool   `long:"oldest" description:"Pin the oldest basebackup"`
	unpin   bool
}

type cmdBackupsUnpin struct {
	cmdBackupsPin
	Pinned bool `long:"pinned" description:"Unpin every currently pinned basebackup"`
}

type cmdBackupsDrop struct {
	Archive  string `long:"archive" required:"true" description:"Archive the basebackup belongs to"`
	ID       int    `long:"id" required:"true" description:"Id of the basebackup to drop"`
	ExistsOk bool   `long:"if-exists" description:"Succeed without effect if the basebackup does not exist"`
}

func init() {
	CommandRegistry.AddCommand("backups", "start", "Start a basebackup", `
Stream a new base backup of the upstream cluster into the archive.
The backup is registered in progress before any tablespace bytes are
streamed, and transitions to ready or aborted when the session ends.
`, &cmdBackupsStart{})
	CommandRegistry.AddCommand("backups", "list", "List an archive's backup catalog", "", &cmdBackupsList{})
	CommandRegistry.AddCommand("backups", "pin", "Pin basebackups against retention", "", &cmdBackupsPin{})
	CommandRegistry.AddCommand("backups", "unpin", "Unpin basebackups", "", &cmdBackupsUnpin{})
	CommandRegistry.AddCommand("backups", "drop", "Drop a basebackup", "", &cmdBackupsDrop{})
}

func (cmd *cmdBackupsStart) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		var descr = &descriptor.Command{
			Tag:         descriptor.TagStartBasebackup,
			ArchiveName: cmd.Archive,
			ProfileName: cmd.Profile,
			Label:       cmd.Label,
		}
		if cmd.Detach {
			descr = descr.AsBackgroundWorker(true)
		}
		res, err := e.Dispatch(ctx, descr)
		if err != nil {
			return err
		}
		printBackups(res.Backups)
		return nil
	})
}

func (cmd *cmdBackupsList) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:     descriptor.TagListBackupCatalog,
			Archive: archive,
		})
		if err != nil {
			return err
		}
		printBackups(res.Backups)
		return nil
	})
}

// pinDescr translates the pin/unpin flag set into a Pin descriptor.
func (cmd *cmdBackupsPin) pinDescr(pinned bool) *descriptor.Pin {
	var p = &descriptor.Pin{Operation: descriptor.PinUndefined, Unpin: cmd.unpin, BackupID: descriptor.NotFoundID}
	switch {
	case cmd.ID >= 0:
		p.Operation, p.BackupID = descriptor.PinByID, cmd.ID
	case cmd.Count > 0:
		p.Operation, p.Count = descriptor.PinByCount, cmd.Count
	case cmd.Newest:
		p.Operation = descriptor.PinNewest
	case cmd.Oldest:
		p.Operation = descriptor.PinOldest
	case pinned:
		p.Operation = descriptor.PinPinned
	}
	return p
}

func (cmd *cmdBackupsPin) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:     descriptor.TagPinBasebackup,
			Archive: archive,
			Pin:     cmd.pinDescr(false),
		})
		if err != nil {
			return err
		}
		printBackups(res.Backups)
		return nil
	})
}

func (cmd *cmdBackupsUnpin) Execute([]string) error {
	startup()
	cmd.unpin = true
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:     descriptor.TagUnpinBasebackup,
			Archive: archive,
			Pin:     cmd.pinDescr(cmd.Pinned),
		})
		if err != nil {
			return err
		}
		printBackups(res.Backups)
		return nil
	})
}

func (cmd *cmdBackupsDrop) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:      descriptor.TagDropBasebackup,
			BackupID: cmd.ID,
			ExistsOk: cmd.ExistsOk,
		})
		if err != nil {
			return err
		}
		printBackups(res.Backups)
		return nil
	})
}

package pgarchivecmd

import (
	"context"
	"fmt"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdArchivesCreate struct {
	Name        string `long:"name" required:"true" description:"Name of the archive"`
	Directory   string `long:"directory" required:"true" description:"Filesystem directory of the archive"`
	Compression bool   `long:"compression" description:"Compress received WAL segments"`
	PgHost      string `long:"pghost" description:"Upstream server host"`
	PgPort      int    `long:"pgport" default:"5432" description:"Upstream server port"`
	PgUser      string `long:"pguser" description:"Upstream server user"`
	PgDatabase  string `long:"pgdatabase" description:"Upstream server database"`
	ExistsOk    bool   `long:"if-not-exists" description:"Succeed without effect if the archive already exists"`
}

type cmdArchivesDrop struct {
	Name     string `long:"name" required:"true" description:"Name of the archive"`
	ExistsOk bool   `long:"if-exists" description:"Succeed without effect if the archive does not exist"`
}

type cmdArchivesList struct {
	Name string `long:"name" description:"Restrict the listing to a single archive"`
}

type cmdArchivesAlter struct {
	Name       string `long:"name" required:"true" description:"Name of the archive"`
	PgHost     string `long:"pghost" description:"New upstream server host"`
	PgPort     int    `long:"pgport" description:"New upstream server port"`
	PgUser     string `long:"pguser" description:"New upstream server user"`
	PgDatabase string `long:"pgdatabase" description:"New upstream server database"`
}

type cmdArchivesVerify struct {
	Name string `long:"name" required:"true" description:"Name of the archive"`
}

type cmdArchivesStat struct {
	Name string `long:"name" required:"true" description:"Name of the archive"`
}

func init() {
	CommandRegistry.AddCommand("archives", "create", "Create an archive", `
Create a new archive with its mandatory basebackup connection. The
connection is created atomically with the archive itself.
`, &cmdArchivesCreate{})
	CommandRegistry.AddCommand("archives", "drop", "Drop an archive", "", &cmdArchivesDrop{})
	CommandRegistry.AddCommand("archives", "list", "List archives", "", &cmdArchivesList{})
	CommandRegistry.AddCommand("archives", "alter", "Alter an archive's connection attributes", `
Alter writes exactly the attributes named by the provided flags and
preserves every other column.
`, &cmdArchivesAlter{})
	CommandRegistry.AddCommand("archives", "verify", "Verify an archive's catalog and directory state", "", &cmdArchivesVerify{})
	CommandRegistry.AddCommand("archives", "stat", "Show aggregate archive statistics", "", &cmdArchivesStat{})
}

func (cmd *cmdArchivesCreate) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		var a = descriptor.NewArchive()
		a.Name = cmd.Name
		a.Directory = cmd.Directory
		a.Compression = cmd.Compression
		a.PgHost = cmd.PgHost
		a.PgPort = cmd.PgPort
		a.PgUser = cmd.PgUser
		a.PgDatabase = cmd.PgDatabase

		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:      descriptor.TagCreateArchive,
			Archive:  a,
			ExistsOk: cmd.ExistsOk,
		})
		if err != nil {
			return err
		}
		printArchives(res.Archives)
		return nil
	})
}

func (cmd *cmdArchivesDrop) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:         descriptor.TagDropArchive,
			ArchiveName: cmd.Name,
			ExistsOk:    cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdArchivesList) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:         descriptor.TagListArchive,
			ArchiveName: cmd.Name,
		})
		if err != nil {
			return err
		}
		printArchives(res.Archives)
		return nil
	})
}

func (cmd *cmdArchivesAlter) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		var a = descriptor.NewArchive()
		a.Name = cmd.Name

		if cmd.PgHost != "" {
			a.PgHost = cmd.PgHost
			a.Affected.Push(descriptor.ArchivePgHost)
		}
		if cmd.PgPort != 0 {
			a.PgPort = cmd.PgPort
			a.Affected.Push(descriptor.ArchivePgPort)
		}
		if cmd.PgUser != "" {
			a.PgUser = cmd.PgUser
			a.Affected.Push(descriptor.ArchivePgUser)
		}
		if cmd.PgDatabase != "" {
			a.PgDatabase = cmd.PgDatabase
			a.Affected.Push(descriptor.ArchivePgDatabase)
		}

		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:     descriptor.TagAlterArchive,
			Archive: a,
		})
		if err != nil {
			return err
		}
		printArchives(res.Archives)
		return nil
	})
}

func (cmd *cmdArchivesVerify) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:         descriptor.TagVerifyArchive,
			ArchiveName: cmd.Name,
		})
		if err != nil {
			return err
		}
		printArchives(res.Archives)
		return nil
	})
}

func (cmd *cmdArchivesStat) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		stat, err := e.Catalog.StatCatalog(cmd.Name)
		if err != nil {
			return err
		}
		fmt.Printf("archive:      %s\n", stat.ArchiveName)
		fmt.Printf("basebackups:  %d (%d ready, %d aborted, %d in progress, %d pinned)\n",
			stat.BasebackupCount, stat.ReadyCount, stat.AbortedCount, stat.InProgressCount, stat.PinnedCount)
		fmt.Printf("tablespaces:  %s\n", stat.TotalTablespaceHuman)
		if !stat.OldestBasebackup.IsZero() {
			fmt.Printf("oldest:       %s\n", stat.OldestBasebackup.Format("2006-01-02 15:04:05"))
			fmt.Printf("newest:       %s\n", stat.NewestBasebackup.Format("2006-01-02 15:04:05"))
			fmt.Printf("span:         %s\n", stat.RetainedSpan)
		}
		return nil
	})
}

// Package pgarchivecmd implements the pgarchive command surface: one
// go-flags command per executor tag, each building a typed command
// descriptor and handing it to the command executor. The package is a
// thin shim — parsing and rendering only; all semantics live behind
// internal/command.
package pgarchivecmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/afero"

	"go.pgarchive.dev/core/internal/archivefs"
	"go.pgarchive.dev/core/internal/catalog"
	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgconn"
	"go.pgarchive.dev/core/internal/pgerror"
	mbp "go.pgarchive.dev/core/mainboilerplate"
)

const iniFilename = "pgarchive.ini"

var baseCfg = new(struct {
	Catalog struct {
		Path string `long:"path" env:"PATH" default:"pgarchive.db" description:"Path of the catalog database file"`
	} `group:"Catalog" namespace:"catalog" env-namespace:"CATALOG"`

	Log         mbp.LogConfig         `group:"Logging" namespace:"log" env-namespace:"LOG"`
	Diagnostics mbp.DiagnosticsConfig `group:"Debug" namespace:"debug" env-namespace:"DEBUG"`
})

// CommandRegistry is the tree of sub-commands main registers under the
// root parser.
var CommandRegistry = mbp.NewCommandRegistry()

// BaseConfig returns the root option groups main hands to its parser.
func BaseConfig() interface{} { return baseCfg }

// startup initializes logging. Called at the top of every command's
// Execute, once flag and INI parsing has completed.
func startup() {
	mbp.InitLog(baseCfg.Log)
}

// withExecutor opens the catalog, wires an Executor against the real
// filesystem and replication dialer, runs fn, and closes the catalog.
func withExecutor(fn func(context.Context, *command.Executor) error) error {
	var cat, err = catalog.OpenRW(baseCfg.Catalog.Path)
	if err != nil {
		return err
	}
	defer cat.Close()

	var layout = archivefs.New(afero.NewOsFs())
	var executor = command.NewExecutor(cat, layout, func(c *descriptor.Connection) (pgconn.Conn, error) {
		return pgconn.NewPQConn(c)
	})
	executor.Workers = reinvokeLauncher{}

	return fn(context.Background(), executor)
}

// resolveArchive looks an archive up by name, failing with not_found
// if it is absent.
func resolveArchive(ctx context.Context, e *command.Executor, name string) (*descriptor.Archive, error) {
	if name == "" {
		return nil, pgerror.InvalidArgument("archive", "an archive name is required")
	}
	res, err := e.Dispatch(ctx, &descriptor.Command{Tag: descriptor.TagListArchive, ArchiveName: name})
	if err != nil {
		return nil, err
	}
	for _, a := range res.Archives {
		if a.Name == name {
			return a, nil
		}
	}
	return nil, pgerror.NotFound("archive", name)
}

// reinvokeLauncher spawns a detached child running this binary with
// the argv a wrapped command's tag maps back to. Standard streams are
// inherited for interactive launches and detached from the terminal
// otherwise, per the background-worker wrapper's Detach flag.
type reinvokeLauncher struct{}

func (reinvokeLauncher) Launch(cmd *descriptor.Command) (int, error) {
	var argv []string
	switch cmd.SubTag {
	case descriptor.TagStartBasebackup:
		argv = []string{"backups", "start", "--archive", cmd.ArchiveName}
		if cmd.ProfileName != "" {
			argv = append(argv, "--profile", cmd.ProfileName)
		}
		if cmd.Label != "" {
			argv = append(argv, "--label", cmd.Label)
		}
	case descriptor.TagStartStreaming:
		argv = []string{"streams", "start", "--archive", cmd.ArchiveName}
	default:
		return 0, pgerror.InvalidArgument("tag", "command cannot run as a background worker: "+cmd.SubTag.String())
	}

	var child = exec.Command(os.Args[0], argv...)
	if !cmd.Detach {
		child.Stdin, child.Stdout, child.Stderr = os.Stdin, os.Stdout, os.Stderr
	}
	if err := child.Start(); err != nil {
		return 0, pgerror.IO("spawning background worker", err)
	}
	// The child is intentionally not waited on; its progress is
	// observed through the catalog's worker_process records.
	if err := child.Process.Release(); err != nil {
		return 0, pgerror.IO("releasing background worker", err)
	}
	return child.Process.Pid, nil
}

func printArchives(archives []*descriptor.Archive) {
	for _, a := range archives {
		fmt.Printf("%d\t%s\t%s\tcompression=%t\t%s:%d/%s user=%s\n",
			a.ID, a.Name, a.Directory, a.Compression, a.PgHost, a.PgPort, a.PgDatabase, a.PgUser)
	}
}

func printBackups(backups []*descriptor.BaseBackup) {
	for _, b := range backups {
		fmt.Printf("%d\t%s\t%s\ttimeline=%d\t%s..%s\tpinned=%d\t%s\n",
			b.ID, b.Label, b.Status, b.Timeline, b.XLogPos, b.XLogPosEnd, b.Pinned, b.FsEntry)
	}
}

func printWorkers(workers []*descriptor.WorkerProcess) {
	for _, w := range workers {
		fmt.Printf("%d\t%s\t%s\tarchive_id=%d\tstarted=%s\n",
			w.PID, w.Type, w.State, w.ArchiveID, w.Started.Format("2006-01-02 15:04:05"))
	}
}

package pgarchivecmd

import (
	"context"
	"fmt"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdWorkersShow struct {
	Archive string `long:"archive" description:"Restrict the listing to one archive's workers"`
}

type cmdLauncherStart struct {
	ExistsOk bool `long:"if-not-exists" description:"Report the existing launcher instead of failing if one is already running"`
}

type cmdExec struct {
	Positional struct {
		Argv []string `positional-arg-name:"argv" required:"1" description:"Program and arguments to run"`
	} `positional-args:"true"`
}

func init() {
	CommandRegistry.AddCommand("workers", "show", "Show registered worker processes", "", &cmdWorkersShow{})
	CommandRegistry.AddCommand("workers", "start-launcher", "Register this process as the archive launcher", `
Register this process as the launcher of its process group. At most
one launcher may be running at a time.
`, &cmdLauncherStart{})
	CommandRegistry.AddCommand("workers", "exec", "Run an external program", `
Run an operator-supplied external program, such as a post-backup hook,
and print its combined output.
`, &cmdExec{})
}

func (cmd *cmdWorkersShow) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		var descr = &descriptor.Command{Tag: descriptor.TagShowWorkers}
		if cmd.Archive != "" {
			archive, err := resolveArchive(ctx, e, cmd.Archive)
			if err != nil {
				return err
			}
			descr.Archive = archive
		}
		res, err := e.Dispatch(ctx, descr)
		if err != nil {
			return err
		}
		printWorkers(res.Workers)
		return nil
	})
}

func (cmd *cmdLauncherStart) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:      descriptor.TagStartLauncher,
			ExistsOk: cmd.ExistsOk,
		})
		if err != nil {
			return err
		}
		printWorkers(res.Workers)
		return nil
	})
}

func (cmd *cmdExec) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:      descriptor.TagExecCommand,
			ExecArgv: cmd.Positional.Argv,
		})
		if err != nil {
			return err
		}
		fmt.Print(res.ExecOutput)
		return nil
	})
}

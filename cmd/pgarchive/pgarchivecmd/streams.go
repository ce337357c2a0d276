package pgarchivecmd

import (
	"context"
	"fmt"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdStreamsStart struct {
	Archive string `long:"archive" required:"true" description:"Archive to stream WAL into"`
	Detach  bool   `long:"detach" description:"Run the streamer as a detached background worker"`
}

type cmdStreamsStop struct {
	Archive  string `long:"archive" required:"true" description:"Archive whose streamer to stop"`
	ExistsOk bool   `long:"if-exists" description:"Succeed without effect if no streamer is running"`
}

func init() {
	CommandRegistry.AddCommand("streams", "start", "Start WAL streaming for an archive", `
Register a WAL streamer worker for the archive. The archive must carry
a streamer connection (see "connections create --type streamer").
`, &cmdStreamsStart{})
	CommandRegistry.AddCommand("streams", "stop", "Stop WAL streaming for an archive", "", &cmdStreamsStop{})
}

func (cmd *cmdStreamsStart) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		var descr = &descriptor.Command{
			Tag:         descriptor.TagStartStreaming,
			Archive:     archive,
			ArchiveName: archive.Name,
		}
		if cmd.Detach {
			descr = descr.AsBackgroundWorker(true)
		}
		res, err := e.Dispatch(ctx, descr)
		if err != nil {
			return err
		}
		if res.Stream != nil {
			fmt.Printf("slot: %s\n", res.Stream.SlotName)
		}
		printWorkers(res.Workers)
		return nil
	})
}

func (cmd *cmdStreamsStop) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:      descriptor.TagStopStreaming,
			Archive:  archive,
			ExistsOk: cmd.ExistsOk,
		})
		if err != nil {
			return err
		}
		printWorkers(res.Workers)
		return nil
	})
}

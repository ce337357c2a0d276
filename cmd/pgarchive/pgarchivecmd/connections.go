package pgarchivecmd

import (
	"context"
	"fmt"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdConnectionsCreate struct {
	Archive    string `long:"archive" required:"true" description:"Archive the connection belongs to"`
	Type       string `long:"type" default:"streamer" choice:"basebackup" choice:"streamer" description:"Connection type"`
	PgHost     string `long:"pghost" description:"Upstream server host"`
	PgPort     int    `long:"pgport" default:"5432" description:"Upstream server port"`
	PgUser     string `long:"pguser" description:"Upstream server user"`
	PgDatabase string `long:"pgdatabase" description:"Upstream server database"`
	DSN        string `long:"dsn" description:"Full DSN, overriding the individual parameters"`
	ExistsOk   bool   `long:"if-not-exists" description:"Succeed without effect if the connection already exists"`
}

type cmdConnectionsDrop struct {
	Archive  string `long:"archive" required:"true" description:"Archive the connection belongs to"`
	Type     string `long:"type" required:"true" choice:"basebackup" choice:"streamer" description:"Connection type"`
	ExistsOk bool   `long:"if-exists" description:"Succeed without effect if the connection does not exist"`
}

type cmdConnectionsList struct {
	Archive string `long:"archive" required:"true" description:"Archive whose connections to list"`
}

func init() {
	CommandRegistry.AddCommand("connections", "create", "Create a connection for an archive", `
Create an additional connection for an archive. Each archive carries
its basebackup connection from creation; a streamer connection is
added here before streaming can start.
`, &cmdConnectionsCreate{})
	CommandRegistry.AddCommand("connections", "drop", "Drop an archive's connection", "", &cmdConnectionsDrop{})
	CommandRegistry.AddCommand("connections", "list", "List an archive's connections", "", &cmdConnectionsList{})
}

func (cmd *cmdConnectionsCreate) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		var conn = descriptor.NewConnection(cmd.Type)
		conn.ArchiveID = archive.ID
		conn.PgHost = cmd.PgHost
		conn.PgPort = cmd.PgPort
		conn.PgUser = cmd.PgUser
		conn.PgDatabase = cmd.PgDatabase
		conn.DSN = cmd.DSN

		_, err = e.Dispatch(ctx, &descriptor.Command{
			Tag:        descriptor.TagCreateConnection,
			Connection: conn,
			ExistsOk:   cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdConnectionsDrop) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		var conn = descriptor.NewConnection(cmd.Type)
		conn.ArchiveID = archive.ID

		_, err = e.Dispatch(ctx, &descriptor.Command{
			Tag:        descriptor.TagDropConnection,
			Connection: conn,
			ExistsOk:   cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdConnectionsList) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		archive, err := resolveArchive(ctx, e, cmd.Archive)
		if err != nil {
			return err
		}
		res, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:     descriptor.TagListConnection,
			Archive: archive,
		})
		if err != nil {
			return err
		}
		for _, c := range res.Connections {
			fmt.Printf("%s\t%s:%d/%s user=%s\n", c.Type, c.PgHost, c.PgPort, c.PgDatabase, c.PgUser)
		}
		return nil
	})
}

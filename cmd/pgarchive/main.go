package main

import (
	"github.com/jessevdk/go-flags"

	"go.pgarchive.dev/core/cmd/pgarchive/pgarchivecmd"
	mbp "go.pgarchive.dev/core/mainboilerplate"
)

const iniFilename = "pgarchive.ini"

func main() {
	defer mbp.InitDiagnosticsAndRecover(mbp.DiagnosticsConfig{})()

	parser := flags.NewParser(pgarchivecmd.BaseConfig(), flags.Default)

	parser.LongDescription = `pgarchive is a backup and streaming control tool for PostgreSQL
clusters. It maintains an on-disk archive per cluster holding base
backups and a continuous WAL stream, with a local catalog database
recording inventory, retention, and worker state.

See --help pages of each sub-command for documentation and usage examples.
Optionally configure pgarchive with a '` + iniFilename + `' file in the current working directory,
or with '~/.config/pgarchive/` + iniFilename + `'. Use the 'print-config' sub-command to inspect
the tool's current configuration.
`

	mbp.AddPrintConfigCmd(parser, iniFilename)

	_ = mustAddCmd(parser.Command, "archives", "Manage archives", "", struct{}{})
	_ = mustAddCmd(parser.Command, "connections", "Manage archive connections", "", struct{}{})
	_ = mustAddCmd(parser.Command, "profiles", "Manage backup profiles", "", struct{}{})
	_ = mustAddCmd(parser.Command, "backups", "Manage base backups", "", struct{}{})
	_ = mustAddCmd(parser.Command, "retention", "Manage retention policies", "", struct{}{})
	_ = mustAddCmd(parser.Command, "streams", "Manage WAL streaming", "", struct{}{})
	_ = mustAddCmd(parser.Command, "vars", "Manage runtime variables", "", struct{}{})
	_ = mustAddCmd(parser.Command, "workers", "Manage worker processes", "", struct{}{})

	mbp.Must(pgarchivecmd.CommandRegistry.AddCommands("", parser.Command, true), "could not add subcommand")

	mbp.MustParseConfig(parser, iniFilename)
}

func mustAddCmd(cmd *flags.Command, name, short, long string, cfg interface{}) *flags.Command {
	cmd, err := cmd.AddCommand(name, short, long, cfg)
	mbp.Must(err, "failed to add command")
	return cmd
}

package pgarchivecmd

import (
	"context"
	"fmt"

	"go.pgarchive.dev/core/internal/command"
	"go.pgarchive.dev/core/internal/descriptor"
)

type cmdProfilesCreate struct {
	Name              string `long:"name" required:"true" description:"Name of the backup profile"`
	CompressType      string `long:"compress-type" default:"none" choice:"none" choice:"gzip" choice:"zstd" choice:"pbzip" choice:"plain" description:"Compression of tablespace streams"`
	MaxRate           string `long:"max-rate" description:"Maximum transfer rate requested from the server"`
	Label             string `long:"label" description:"Default label for basebackups using this profile"`
	FastCheckpoint    bool   `long:"fast-checkpoint" description:"Request a fast checkpoint"`
	IncludeWAL        bool   `long:"include-wal" description:"Include WAL segments in the basebackup stream"`
	WaitForWAL        bool   `long:"wait-for-wal" description:"Wait for required WAL to be archived"`
	NoverifyChecksums bool   `long:"noverify-checksums" description:"Skip server-side checksum verification"`
	ExistsOk          bool   `long:"if-not-exists" description:"Succeed without effect if the profile already exists"`
}

type cmdProfilesDrop struct {
	Name     string `long:"name" required:"true" description:"Name of the backup profile"`
	ExistsOk bool   `long:"if-exists" description:"Succeed without effect if the profile does not exist"`
}

type cmdProfilesList struct{}

func init() {
	CommandRegistry.AddCommand("profiles", "create", "Create a backup profile", `
Create a named, reusable parameter set for initiating base backups.
A profile named "default" exists in every initialized catalog.
`, &cmdProfilesCreate{})
	CommandRegistry.AddCommand("profiles", "drop", "Drop a backup profile", "", &cmdProfilesDrop{})
	CommandRegistry.AddCommand("profiles", "list", "List backup profiles", "", &cmdProfilesList{})
}

func (cmd *cmdProfilesCreate) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		var p = descriptor.NewBackupProfile(cmd.Name)
		p.CompressType = descriptor.CompressType(cmd.CompressType)
		p.MaxRate = cmd.MaxRate
		p.Label = cmd.Label
		p.FastCheckpoint = cmd.FastCheckpoint
		p.IncludeWAL = cmd.IncludeWAL
		p.WaitForWAL = cmd.WaitForWAL
		p.NoverifyChecksums = cmd.NoverifyChecksums

		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:      descriptor.TagCreateBackupProfile,
			Profile:  p,
			ExistsOk: cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdProfilesDrop) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		_, err := e.Dispatch(ctx, &descriptor.Command{
			Tag:         descriptor.TagDropBackupProfile,
			ProfileName: cmd.Name,
			ExistsOk:    cmd.ExistsOk,
		})
		return err
	})
}

func (cmd *cmdProfilesList) Execute([]string) error {
	startup()
	return withExecutor(func(ctx context.Context, e *command.Executor) error {
		res, err := e.Dispatch(ctx, &descriptor.Command{Tag: descriptor.TagListBackupProfile})
		if err != nil {
			return err
		}
		for _, p := range res.Profiles {
			fmt.Printf("%s\tcompress=%s\tmax_rate=%s\tlabel=%s\n",
				p.Name, p.CompressType, p.MaxRate, p.Label)
		}
		return nil
	})
}

package command

import (
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/pgerror"
)

func (e *Executor) execCreateBackupProfile(cmd *descriptor.Command) (Result, error) {
	if cmd.Profile == nil {
		return Result{}, pgerror.InvalidArgument("profile", "create backup profile requires a profile descriptor")
	}
	if err := e.Catalog.CreateBackupProfile(cmd.Profile, cmd.ExistsOk); err != nil {
		return Result{}, err
	}
	return Result{Profiles: []*descriptor.BackupProfile{cmd.Profile}}, nil
}

// execDropBackupProfile refuses to drop the "default" profile, per
// spec.md §3's guarantee that a profile named default always exists.
func (e *Executor) execDropBackupProfile(cmd *descriptor.Command) (Result, error) {
	if cmd.ProfileName == descriptor.DefaultProfileName {
		return Result{}, pgerror.Integrity("the default backup profile cannot be dropped")
	}
	return Result{}, e.Catalog.DropBackupProfile(cmd.ProfileName, cmd.ExistsOk)
}

func (e *Executor) execListBackupProfile(cmd *descriptor.Command) (Result, error) {
	list, err := e.Catalog.ListBackupProfiles()
	if err != nil {
		return Result{}, err
	}
	return Result{Profiles: list}, nil
}

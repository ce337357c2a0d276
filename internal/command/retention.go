package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"go.pgarchive.dev/core/internal/catalogmetrics"
	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/lsn"
	"go.pgarchive.dev/core/internal/pgerror"
	"go.pgarchive.dev/core/internal/retention"
)

func (e *Executor) execCreateRetentionPolicy(cmd *descriptor.Command) (Result, error) {
	if cmd.Retention == nil {
		return Result{}, pgerror.InvalidArgument("retention", "create retention policy requires a policy descriptor")
	}
	if err := e.Catalog.CreateRetentionPolicy(cmd.Retention, cmd.ExistsOk); err != nil {
		return Result{}, err
	}
	return Result{Policy: cmd.Retention}, nil
}

func (e *Executor) execDropRetentionPolicy(cmd *descriptor.Command) (Result, error) {
	return Result{}, e.Catalog.DropRetentionPolicy(cmd.PolicyName, cmd.ExistsOk)
}

func (e *Executor) execListRetentionPolicy(cmd *descriptor.Command) (Result, error) {
	if cmd.PolicyName != "" {
		p, err := e.Catalog.GetRetentionPolicy(cmd.PolicyName)
		if err != nil {
			return Result{}, err
		}
		if p.Name == "" {
			return Result{}, pgerror.NotFound("retention_policy", cmd.PolicyName)
		}
		return Result{Policy: p}, nil
	}
	names, err := e.Catalog.ListRetentionPolicies()
	if err != nil {
		return Result{}, err
	}
	return Result{PolicyNames: names}, nil
}

// execApplyRetentionPolicy evaluates a named policy against an
// archive's basebackups and carries out the resulting plan: dropped
// basebackups are removed from the catalog under one transaction,
// then (once committed) their directories and the WAL segments the
// plan's boundaries cover are removed from disk. Filesystem cleanup
// runs after the catalog commit rather than inside it, since afero
// operations are not part of the SQL transaction and must not be
// retried by a rollback.
func (e *Executor) execApplyRetentionPolicy(ctx context.Context, cmd *descriptor.Command) (Result, error) {
	if cmd.Archive == nil {
		return Result{}, pgerror.InvalidArgument("archive", "apply retention policy requires an archive")
	}

	var policy *descriptor.RetentionPolicy
	var backups []*descriptor.BaseBackup
	if err := e.Catalog.WithTransaction(ctx, func() error {
		var innerErr error
		policy, innerErr = e.Catalog.GetRetentionPolicy(cmd.PolicyName)
		if innerErr != nil {
			return innerErr
		}
		if policy.Name == "" {
			return pgerror.NotFound("retention_policy", cmd.PolicyName)
		}
		backups, innerErr = e.Catalog.ListBackupCatalog(cmd.Archive.ID)
		return innerErr
	}); err != nil {
		return Result{}, err
	}

	plan, err := retention.Evaluate(policy, backups, time.Now().UTC())
	if err != nil {
		return Result{}, err
	}
	var deletions = plan.Deletions()

	if err := e.Catalog.WithTransaction(ctx, func() error {
		for _, b := range deletions {
			if b.Pinned > 0 {
				continue // invariant 4: a pinned basebackup is never an eviction target
			}
			if err := e.Catalog.DropBasebackup(b.ID, true); err != nil {
				return err
			}
			catalogmetrics.RetentionEvictionsTotal.Inc()
		}
		return nil
	}); err != nil {
		return Result{}, err
	}

	if e.Layout != nil {
		if err := e.removeDeletedBasebackups(deletions); err != nil {
			return Result{}, err
		}
		if err := e.cleanupWAL(cmd.Archive, plan); err != nil {
			return Result{}, err
		}
	}

	return Result{Plan: plan}, nil
}

func (e *Executor) removeDeletedBasebackups(deletions []*descriptor.BaseBackup) error {
	for _, b := range deletions {
		if b.Pinned > 0 || b.FsEntry == "" {
			continue
		}
		if err := e.Layout.Fs.RemoveAll(b.FsEntry); err != nil {
			return pgerror.IO("removing basebackup directory", err)
		}
	}
	return nil
}

// cleanupWAL removes WAL segments the plan's boundaries declare safe
// to delete, per spec.md §4.D's Cleanup Descriptor. A boundary's End
// is a textual LSN; it is converted to the conventional WAL segment
// file name for the boundary's timeline before comparison, since
// segment names (not raw LSNs) are what an archive's WAL directory
// holds.
func (e *Executor) cleanupWAL(archive *descriptor.Archive, plan *retention.CleanupPlan) error {
	switch plan.WALMode {
	case retention.WALModeNone:
		return nil
	case retention.WALModeAll:
		if err := e.Layout.Fs.RemoveAll(e.Layout.WALDir(archive.Directory)); err != nil {
			return pgerror.IO("removing WAL directory", err)
		}
		return nil
	}

	var entries, err = afero.ReadDir(e.Layout.Fs, e.Layout.WALDir(archive.Directory))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return pgerror.IO("listing WAL directory", err)
	}

	var walSegmentSize = defaultWalSegmentSize(plan)
	for _, boundary := range plan.Boundaries {
		if boundary.End == "" {
			continue
		}
		endLSN, err := lsn.Parse(boundary.End)
		if err != nil {
			continue
		}
		var boundaryName = endLSN.SegmentName(boundary.Timeline, walSegmentSize)
		var prefix = fmt.Sprintf("%08X", boundary.Timeline)
		for _, info := range entries {
			var name = info.Name()
			if len(name) != 24 || name[:8] != prefix {
				continue
			}
			if name < boundaryName {
				if err := e.Layout.Fs.Remove(e.Layout.WALSegmentPath(archive.Directory, name)); err != nil && !os.IsNotExist(err) {
					return pgerror.IO("removing WAL segment "+name, err)
				}
				catalogmetrics.WALSegmentsRemovedTotal.Inc()
			}
		}
	}
	return nil
}

func defaultWalSegmentSize(plan *retention.CleanupPlan) uint64 {
	for _, e := range plan.Entries {
		if e.Keep && e.Backup.WalSegmentSize > 0 {
			return e.Backup.WalSegmentSize
		}
	}
	return lsn.DefaultSegmentSize
}

package retention

import "go.pgarchive.dev/core/internal/descriptor"

// WALMode enumerates how a CleanupPlan instructs the caller to treat
// WAL segments, per spec.md §3's Cleanup Descriptor.
type WALMode string

const (
	WALModeRange  WALMode = "range"
	WALModeOffset WALMode = "offset"
	WALModeAll    WALMode = "all"
	WALModeNone   WALMode = "none"
)

// PlanEntry tags one basebackup keep or delete.
type PlanEntry struct {
	Backup *descriptor.BaseBackup
	Keep   bool
}

// TimelineBoundary is the per-timeline LSN range that is safe to
// delete: every WAL segment in [Start, End) may be removed.
type TimelineBoundary struct {
	Timeline uint32
	Start    string
	End      string
}

// CleanupPlan is the retention engine's output: basebackups newest
// first, each tagged keep or delete, plus the WAL cleanup mode and
// per-timeline boundaries it implies.
type CleanupPlan struct {
	Entries    []PlanEntry
	WALMode    WALMode
	Boundaries []TimelineBoundary
}

// Deletions returns the subset of Entries marked for deletion, newest
// first.
func (p *CleanupPlan) Deletions() []*descriptor.BaseBackup {
	var out []*descriptor.BaseBackup
	for _, e := range p.Entries {
		if !e.Keep {
			out = append(out, e.Backup)
		}
	}
	return out
}

// Retained returns the subset of Entries marked keep, newest first.
func (p *CleanupPlan) Retained() []*descriptor.BaseBackup {
	var out []*descriptor.BaseBackup
	for _, e := range p.Entries {
		if e.Keep {
			out = append(out, e.Backup)
		}
	}
	return out
}

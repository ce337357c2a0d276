package retention

import (
	"sort"
	"time"

	"github.com/pkg/errors"

	"go.pgarchive.dev/core/internal/descriptor"
	"go.pgarchive.dev/core/internal/interval"
	"go.pgarchive.dev/core/internal/lsn"
)

type decision int

const (
	undecided decision = iota
	keep
	dropped
)

// Evaluate applies policy's rules, in order, to backups (which need
// not be pre-sorted) and returns the resulting CleanupPlan, newest
// basebackup first. now is the reference instant for datetime rules;
// callers pass time.Now().UTC() in production and a fixed instant in
// tests.
func Evaluate(policy *descriptor.RetentionPolicy, backups []*descriptor.BaseBackup, now time.Time) (*CleanupPlan, error) {
	var sorted = append([]*descriptor.BaseBackup(nil), backups...)
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].Started.Equal(sorted[j].Started) {
			return sorted[i].Started.After(sorted[j].Started) // newest first
		}
		return sorted[i].ID > sorted[j].ID
	})

	var state = make(map[int]decision, len(sorted))
	for _, b := range sorted {
		if b.Pinned > 0 {
			state[b.ID] = keep // invariant 4: pinned backups are never eviction targets
		}
	}

	for i, r := range policy.Rules {
		if err := applyRule(r, sorted, state, now); err != nil {
			return nil, errors.Wrapf(err, "applying retention rule %d (%s)", i, r.Type)
		}
	}

	var plan = &CleanupPlan{}
	for _, b := range sorted {
		plan.Entries = append(plan.Entries, PlanEntry{Backup: b, Keep: state[b.ID] == keep})
	}

	plan.WALMode, plan.Boundaries = computeWALCleanup(policy, plan.Entries)
	return plan, nil
}

// applyRule mutates state in place: a rule may only move a backup
// from undecided or dropped into keep (stickiness), or from
// undecided into dropped. It never demotes an existing keep.
func applyRule(r descriptor.RetentionRule, sorted []*descriptor.BaseBackup, state map[int]decision, now time.Time) error {
	switch r.Type {
	case descriptor.RuleKeepWithLabel:
		for _, b := range sorted {
			if b.Label == r.Value {
				markKeep(state, b.ID)
			}
		}
	case descriptor.RuleDropWithLabel:
		for _, b := range sorted {
			if b.Label == r.Value {
				markDrop(state, b.ID)
			}
		}
	case descriptor.RuleKeepNum:
		n, err := parseCount(r.Value)
		if err != nil {
			return err
		}
		for _, b := range youngestN(sorted, n) {
			markKeep(state, b.ID)
		}
	case descriptor.RuleDropNum:
		n, err := parseCount(r.Value)
		if err != nil {
			return err
		}
		for _, b := range oldestN(sorted, n) {
			markDrop(state, b.ID)
		}
	case descriptor.RuleKeepNewerByDatetime:
		cutoff, err := boundaryBefore(r.Value, now)
		if err != nil {
			return err
		}
		for _, b := range sorted {
			if b.Started.After(cutoff) {
				markKeep(state, b.ID)
			}
		}
	case descriptor.RuleKeepOlderByDatetime:
		cutoff, err := boundaryBefore(r.Value, now)
		if err != nil {
			return err
		}
		for _, b := range sorted {
			if b.Started.Before(cutoff) {
				markKeep(state, b.ID)
			}
		}
	case descriptor.RuleDropNewerByDatetime:
		cutoff, err := boundaryBefore(r.Value, now)
		if err != nil {
			return err
		}
		for _, b := range sorted {
			if b.Started.After(cutoff) {
				markDrop(state, b.ID)
			}
		}
	case descriptor.RuleDropOlderByDatetime:
		cutoff, err := boundaryBefore(r.Value, now)
		if err != nil {
			return err
		}
		for _, b := range sorted {
			if b.Started.Before(cutoff) {
				markDrop(state, b.ID)
			}
		}
	case descriptor.RulePin, descriptor.RuleUnpin, descriptor.RuleCleanup:
		// No plan-computation effect: a basebackup's pinned count is
		// mutated by the separate pin/unpin command (descriptor.Pin)
		// and already handled above via the Pinned>0 check; cleanup
		// is a schema-compatibility marker only. See DESIGN.md.
	default:
		return errors.Errorf("unknown retention rule type %q", r.Type)
	}
	return nil
}

func markKeep(state map[int]decision, id int) { state[id] = keep }

func markDrop(state map[int]decision, id int) {
	if state[id] != keep {
		state[id] = dropped
	}
}

func parseCount(value string) (int, error) {
	var n int
	for _, c := range value {
		if c < '0' || c > '9' {
			return 0, errors.Errorf("not a non-negative integer: %q", value)
		}
		n = n*10 + int(c-'0')
	}
	if value == "" {
		return 0, errors.New("empty count value")
	}
	return n, nil
}

// boundaryBefore returns now shifted back by interval expression
// value: "N days" means N days before now (a positive-magnitude interval shifts backward in time, per
// spec.md §4.D's "compare started to now() ± I").
func boundaryBefore(value string, now time.Time) (time.Time, error) {
	iv, err := interval.Parse(value)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-iv.Duration()), nil
}

// sorted is assumed newest-first; youngestN takes the first n entries.
func youngestN(sorted []*descriptor.BaseBackup, n int) []*descriptor.BaseBackup {
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// oldestN takes the last n entries of a newest-first slice.
func oldestN(sorted []*descriptor.BaseBackup, n int) []*descriptor.BaseBackup {
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[len(sorted)-n:]
}

// computeWALCleanup derives the WAL cleanup mode and per-timeline
// boundaries from the final keep/delete decisions, per spec.md §4.D:
// none for an empty policy, all when nothing is retained, range
// otherwise with the boundary at the oldest retained basebackup's
// xlogpos per timeline. offset mode is reserved for engines that only
// track a byte offset rather than a full LSN; this evaluator always
// has a full LSN available and so never emits it (DESIGN.md).
func computeWALCleanup(policy *descriptor.RetentionPolicy, entries []PlanEntry) (WALMode, []TimelineBoundary) {
	if len(policy.Rules) == 0 {
		return WALModeNone, nil
	}

	var oldestByTimeline = make(map[uint32]string)
	var anyRetained bool
	for _, e := range entries {
		if !e.Keep || e.Backup.XLogPos == "" {
			continue
		}
		anyRetained = true
		cur, ok := oldestByTimeline[e.Backup.Timeline]
		if !ok {
			oldestByTimeline[e.Backup.Timeline] = e.Backup.XLogPos
			continue
		}
		if olderLSN(e.Backup.XLogPos, cur) {
			oldestByTimeline[e.Backup.Timeline] = e.Backup.XLogPos
		}
	}
	if !anyRetained {
		return WALModeAll, nil
	}

	var timelines = make([]uint32, 0, len(oldestByTimeline))
	for tl := range oldestByTimeline {
		timelines = append(timelines, tl)
	}
	sort.Slice(timelines, func(i, j int) bool { return timelines[i] < timelines[j] })

	var boundaries []TimelineBoundary
	for _, tl := range timelines {
		boundaries = append(boundaries, TimelineBoundary{Timeline: tl, Start: "", End: oldestByTimeline[tl]})
	}
	return WALModeRange, boundaries
}

func olderLSN(a, b string) bool {
	pa, errA := lsn.Parse(a)
	pb, errB := lsn.Parse(b)
	if errA != nil || errB != nil {
		return a < b
	}
	return pa.Before(pb)
}

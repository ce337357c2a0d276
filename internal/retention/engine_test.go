package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pgarchive.dev/core/internal/descriptor"
)

func backupAged(id int, ageDays int, now time.Time) *descriptor.BaseBackup {
	var b = descriptor.NewBaseBackup()
	b.ID = id
	b.Started = now.Add(-time.Duration(ageDays) * 24 * time.Hour)
	b.Timeline = 1
	b.XLogPos = "0/" + string(rune('A'+ageDays)) + "000000"
	return b
}

func TestKeepNumWinsOverDropOlderScenario(t *testing.T) {
	var now = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	var backups = []*descriptor.BaseBackup{
		backupAged(1, 1, now),
		backupAged(2, 2, now),
		backupAged(3, 3, now),
		backupAged(4, 4, now),
		backupAged(5, 5, now),
	}
	var policy = descriptor.NewRetentionPolicy("p")
	policy.Rules = []descriptor.RetentionRule{
		{Type: descriptor.RuleKeepNum, Value: "2"},
		{Type: descriptor.RuleDropOlderByDatetime, Value: "3 days"},
	}

	plan, err := Evaluate(policy, backups, now)
	require.NoError(t, err)

	var kept = map[int]bool{}
	for _, e := range plan.Entries {
		kept[e.Backup.ID] = e.Keep
	}
	assert.True(t, kept[1])
	assert.True(t, kept[2])
	assert.False(t, kept[3], "3-day backup was not selected by keep_num and must be dropped")
	assert.False(t, kept[4])
	assert.False(t, kept[5])
	assert.Equal(t, WALModeRange, plan.WALMode)
}

func TestPinProtectsAgainstDropRule(t *testing.T) {
	var now = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	var backups = []*descriptor.BaseBackup{
		backupAged(1, 1, now),
		backupAged(2, 2, now),
		backupAged(3, 3, now),
	}
	backups[2].Pinned = 1 // id 3 is pinned

	var policy = descriptor.NewRetentionPolicy("p")
	policy.Rules = []descriptor.RetentionRule{
		{Type: descriptor.RuleDropNum, Value: "3"},
	}

	plan, err := Evaluate(policy, backups, now)
	require.NoError(t, err)

	for _, e := range plan.Entries {
		if e.Backup.ID == 3 {
			assert.True(t, e.Keep, "pinned backup must never be marked for deletion")
		}
	}
}

func TestKeepIsStickyAgainstLaterDropRule(t *testing.T) {
	var now = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	var backups = []*descriptor.BaseBackup{backupAged(1, 10, now)}
	backups[0].Label = "nightly"

	var policy = descriptor.NewRetentionPolicy("p")
	policy.Rules = []descriptor.RetentionRule{
		{Type: descriptor.RuleKeepWithLabel, Value: "nightly"},
		{Type: descriptor.RuleDropWithLabel, Value: "nightly"},
	}

	plan, err := Evaluate(policy, backups, now)
	require.NoError(t, err)
	require.Len(t, plan.Entries, 1)
	assert.True(t, plan.Entries[0].Keep, "a rule marking keep must not be demoted by a later drop rule")
}

func TestEmptyPolicyYieldsNoneMode(t *testing.T) {
	var now = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	var backups = []*descriptor.BaseBackup{backupAged(1, 1, now)}
	var policy = descriptor.NewRetentionPolicy("p")

	plan, err := Evaluate(policy, backups, now)
	require.NoError(t, err)
	assert.Equal(t, WALModeNone, plan.WALMode)
}

func TestAllBasebackupsDroppedYieldsAllMode(t *testing.T) {
	var now = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	var backups = []*descriptor.BaseBackup{backupAged(1, 1, now)}
	var policy = descriptor.NewRetentionPolicy("p")
	policy.Rules = []descriptor.RetentionRule{
		{Type: descriptor.RuleDropNum, Value: "1"},
	}

	plan, err := Evaluate(policy, backups, now)
	require.NoError(t, err)
	assert.Equal(t, WALModeAll, plan.WALMode)
	assert.Empty(t, plan.Retained())
}

func TestUntouchedBasebackupDefaultsToDelete(t *testing.T) {
	var now = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	var backups = []*descriptor.BaseBackup{backupAged(1, 1, now), backupAged(2, 2, now)}
	var policy = descriptor.NewRetentionPolicy("p")
	policy.Rules = []descriptor.RetentionRule{
		{Type: descriptor.RuleKeepWithLabel, Value: "nonexistent-label"},
	}

	plan, err := Evaluate(policy, backups, now)
	require.NoError(t, err)
	for _, e := range plan.Entries {
		assert.False(t, e.Keep)
	}
}

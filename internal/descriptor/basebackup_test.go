package descriptor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseBackupInvariants(t *testing.T) {
	var b = NewBaseBackup()
	assert.NoError(t, b.ValidateInvariants(), "in progress with no stopped time is valid")

	b.Status = Status("bogus")
	assert.Error(t, b.ValidateInvariants())

	b.Status = StatusReady
	assert.Error(t, b.ValidateInvariants(), "ready requires stopped to be set")

	b.Stopped = time.Now()
	b.XLogPos = "0/2000000"
	b.XLogPosEnd = "0/1000000"
	assert.Error(t, b.ValidateInvariants(), "xlogposend must not precede xlogpos")

	b.XLogPosEnd = "0/3000000"
	assert.NoError(t, b.ValidateInvariants())
}

func TestBaseBackupCopyIndependence(t *testing.T) {
	var b = NewBaseBackup()
	b.Label = "orig"
	b.Affected.Push(BackupLabel)

	var c = b.Copy()
	c.Label = "changed"
	c.Affected.Push(BackupStatus)

	assert.Equal(t, "orig", b.Label)
	assert.False(t, b.Affected.Has(BackupStatus))
}

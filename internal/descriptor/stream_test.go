package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamPositionMonotonicity(t *testing.T) {
	var s = NewStreamIdentification(1)
	require.NoError(t, s.ApplyPositionUpdate(100, 50, 150))
	assert.EqualValues(t, 100, s.WritePosition)
	assert.EqualValues(t, 50, s.FlushPosition)
	assert.EqualValues(t, 150, s.ServerPosition)

	// Advancing is fine.
	require.NoError(t, s.ApplyPositionUpdate(200, 120, 250))

	// Regressing flush_position must be rejected and must not mutate state.
	var err = s.ApplyPositionUpdate(210, 80, 260)
	require.Error(t, err)
	assert.EqualValues(t, 120, s.FlushPosition, "rejected update must not have applied")
}

func TestStreamPositionOrderingRejected(t *testing.T) {
	var s = NewStreamIdentification(1)
	// flush must never exceed write.
	assert.Error(t, s.ValidatePositionUpdate(50, 60, 100))
	// write must never exceed server.
	assert.Error(t, s.ValidatePositionUpdate(200, 50, 100))
	assert.NoError(t, s.ValidatePositionUpdate(100, 50, 200))
}

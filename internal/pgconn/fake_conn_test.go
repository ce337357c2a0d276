package pgconn

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeConnStepsTablespacesInOrderThenStops(t *testing.T) {
	var ctx = context.Background()
	var f = NewFakeConn()
	f.Tablespaces = []FakeTablespace{
		{Info: TablespaceInfo{Spcoid: 0, Spclocation: ""}, Data: []byte("pgdata-bytes")},
		{Info: TablespaceInfo{Spcoid: 16401, Spclocation: "/mnt/ts1"}, Data: []byte("ts1-bytes")},
	}
	f.XLogPosEnd = "0/5000060"

	_, err := f.Connect(ctx)
	require.NoError(t, err)
	require.True(t, f.Connected)

	require.NoError(t, f.BaseBackup(ctx, nil))
	require.True(t, f.BaseBackupCalled)

	infos, err := f.ReadTablespaceInfo(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	first, err := f.StepTablespace(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, uint32(0), first.Info.Spcoid)
	data, err := io.ReadAll(first.Data)
	require.NoError(t, err)
	assert.Equal(t, "pgdata-bytes", string(data))

	second, err := f.StepTablespace(ctx)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, uint32(16401), second.Info.Spcoid)

	third, err := f.StepTablespace(ctx)
	require.NoError(t, err)
	assert.Nil(t, third)

	xlogPosEnd, err := f.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0/5000060", xlogPosEnd)

	require.NoError(t, f.Disconnect(ctx))
	assert.True(t, f.Disconnected)
}

func TestFakeConnFailAtTablespaceIndex(t *testing.T) {
	var ctx = context.Background()
	var f = NewFakeConn()
	f.Tablespaces = []FakeTablespace{
		{Info: TablespaceInfo{Spcoid: 0}, Data: []byte("a")},
		{Info: TablespaceInfo{Spcoid: 1}, Data: []byte("b")},
	}
	f.FailAtTablespace = 1

	first, err := f.StepTablespace(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = f.StepTablespace(ctx)
	assert.Error(t, err)
}

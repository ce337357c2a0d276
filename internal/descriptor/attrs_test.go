package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeSetMembership(t *testing.T) {
	var s = NewAttributeSet(ArchivePgHost)
	require.True(t, s.Has(ArchivePgHost))
	require.False(t, s.Has(ArchivePgPort))

	s.Push(ArchivePgPort)
	assert.ElementsMatch(t, []int{ArchivePgHost, ArchivePgPort}, s.Columns())

	s.Clear()
	assert.Empty(t, s.Columns())
}

func TestArchiveCopyIsIndependent(t *testing.T) {
	var a = NewArchive()
	a.Name = "a1"
	a.Affected.Push(ArchiveName)

	var b = a.Copy()
	b.Affected.Push(ArchiveDirectory)

	assert.False(t, a.Affected.Has(ArchiveDirectory), "copy must not alias the original's attribute set")
	assert.Equal(t, "a1", b.Name)
}

func TestArchiveFoundSentinel(t *testing.T) {
	var a = NewArchive()
	assert.False(t, a.Found())
	a.ID = 0
	assert.True(t, a.Found())
}

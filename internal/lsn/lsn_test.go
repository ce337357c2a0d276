package lsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndStringRoundTrip(t *testing.T) {
	var cases = []string{"0/0", "0/2000000", "16/B374D848", "FFFFFFFF/FFFFFFFF"}
	for _, c := range cases {
		l, err := Parse(c)
		require.NoError(t, err)
		assert.Equal(t, c, l.String())
	}
}

func TestParseMalformed(t *testing.T) {
	for _, bad := range []string{"", "no-slash", "zz/10", "10/zz", "1/2/3"} {
		_, err := Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestBefore(t *testing.T) {
	a, _ := Parse("0/1000000")
	b, _ := Parse("0/2000000")
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
}

func TestSegmentName(t *testing.T) {
	var l = LSN(0x2A * DefaultSegmentSize)
	assert.Equal(t, "00000001000000000000002A", l.SegmentName(1, DefaultSegmentSize))

	// Crossing a logical XLogID boundary (4GiB) rolls logID forward.
	var perXLogID = (uint64(1) << 32) / DefaultSegmentSize
	var l2 = LSN(perXLogID * DefaultSegmentSize)
	assert.Equal(t, "0000000100000001"+"00000000", l2.SegmentName(1, DefaultSegmentSize))
}

// Package lsn decodes and formats write-ahead-log positions (LSNs) and
// derives WAL segment file names from them, following the standard
// PostgreSQL textual LSN representation and segment-naming rule
// referenced by spec.md §6.
package lsn

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LSN is a 64-bit position within the WAL stream, monotonic per server
// lifetime. The high 32 bits are the "logical" log file number, the
// low 32 bits the byte offset within it.
type LSN uint64

// DefaultSegmentSize is the WAL segment size PostgreSQL uses unless
// configured otherwise at initdb time (16MiB).
const DefaultSegmentSize uint64 = 16 * 1024 * 1024

// Parse decodes the standard "XXXXXXXX/XXXXXXXX" textual LSN form.
func Parse(s string) (LSN, error) {
	var parts = strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return 0, errors.Errorf("malformed LSN %q: expected XXXXXXXX/XXXXXXXX", s)
	}
	hi, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed LSN %q", s)
	}
	lo, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "malformed LSN %q", s)
	}
	return LSN(hi<<32 | lo), nil
}

// String renders the LSN in the standard "XXXXXXXX/XXXXXXXX" form.
func (l LSN) String() string {
	return fmt.Sprintf("%X/%X", uint64(l)>>32, uint64(l)&0xFFFFFFFF)
}

// Before reports whether l is strictly less than other.
func (l LSN) Before(other LSN) bool { return l < other }

// segmentsPerXLogID returns the number of WAL segments per 4GiB logical
// log file for the given segment size, which must be a power of two
// dividing 4GiB evenly (PostgreSQL enforces this at initdb time).
func segmentsPerXLogID(walSegmentSize uint64) uint64 {
	return (1 << 32) / walSegmentSize
}

// SegmentName returns the conventional WAL segment file name
// containing this LSN on the given timeline, e.g.
// "00000001000000000000002A" for timeline 1, default segment size.
func (l LSN) SegmentName(timeline uint32, walSegmentSize uint64) string {
	if walSegmentSize == 0 {
		walSegmentSize = DefaultSegmentSize
	}
	var segno = uint64(l) / walSegmentSize
	var perXLogID = segmentsPerXLogID(walSegmentSize)
	var logID = segno / perXLogID
	var seg = segno % perXLogID
	return fmt.Sprintf("%08X%08X%08X", timeline, logID, seg)
}

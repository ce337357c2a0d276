package descriptor

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// StreamStatus enumerates the lifecycle states of a streaming session.
type StreamStatus string

const (
	StreamIdentified StreamStatus = "identified"
	StreamStreaming  StreamStatus = "streaming"
	StreamShutdown   StreamStatus = "shutdown"
	StreamFailed     StreamStatus = "failed"
)

// StreamIdentification is the per-session streaming state of one live
// streamer process against one archive.
type StreamIdentification struct {
	ArchiveID      int
	SlotName       string
	SystemID       string
	Timeline       uint32
	XLogPos        string
	XLogPosDecoded uint64
	Status         StreamStatus
	WalSegmentSize uint64

	WritePosition  uint64
	FlushPosition  uint64
	ApplyPosition  uint64
	ServerPosition uint64

	Affected AttributeSet
}

// NewStreamIdentification returns an empty StreamIdentification descriptor.
func NewStreamIdentification(archiveID int) *StreamIdentification {
	return &StreamIdentification{ArchiveID: archiveID, Status: StreamIdentified, Affected: NewAttributeSet()}
}

// NewSlotName derives a replication slot name for an archive's
// streamer session. Slot names must be lower-case identifiers, so the
// archive name is folded and a random suffix keeps concurrent sessions
// against the same archive apart.
func NewSlotName(archiveName string) string {
	var folded = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '_'
		}
	}, archiveName)
	return "pgarchive_" + folded + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// ValidatePositionUpdate checks the WAL position monotonicity invariant
// of spec.md §5 and §8.7: flush_position <= write_position <=
// server_position, and an update must never lower flush_position.
// It compares the receiver's current positions against the proposed
// next values and returns an error if the update would violate either
// rule.
func (s *StreamIdentification) ValidatePositionUpdate(write, flush, server uint64) error {
	if flush < s.FlushPosition {
		return errors.Errorf("flush position would regress from %d to %d", s.FlushPosition, flush)
	}
	if flush > write {
		return errors.Errorf("flush position %d exceeds write position %d", flush, write)
	}
	if write > server {
		return errors.Errorf("write position %d exceeds server position %d", write, server)
	}
	return nil
}

// ApplyPositionUpdate validates and then applies a position update in
// one step.
func (s *StreamIdentification) ApplyPositionUpdate(write, flush, server uint64) error {
	if err := s.ValidatePositionUpdate(write, flush, server); err != nil {
		return err
	}
	s.WritePosition = write
	s.FlushPosition = flush
	s.ServerPosition = server
	return nil
}

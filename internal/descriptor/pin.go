package descriptor

import "github.com/pkg/errors"

// PinOperation discriminates the payload a Pin descriptor carries. A
// single value with this tag replaces the original's BasicPinDescr /
// PinDescr / UnpinDescr inheritance hierarchy per spec.md §9 — the
// inheritance added nothing beyond naming, and Operation is already
// the discriminator.
type PinOperation string

const (
	PinByID      PinOperation = "id"
	PinByCount   PinOperation = "count"
	PinNewest    PinOperation = "newest"
	PinOldest    PinOperation = "oldest"
	PinPinned    PinOperation = "pinned"
	PinUndefined PinOperation = "undefined"
)

// Pin is a transient descriptor of a pin or unpin request. BackupID is
// meaningful only for PinByID and Count only for PinByCount; the other
// operations use neither.
type Pin struct {
	Operation PinOperation
	Unpin     bool
	BackupID  int
	Count     int
}

// Validate checks that Pin carries the payload its Operation requires.
func (p Pin) Validate() error {
	switch p.Operation {
	case PinByID:
		if p.BackupID < 0 {
			return errors.New("pin by id requires a non-negative backup id")
		}
	case PinByCount:
		if p.Count <= 0 {
			return errors.New("pin by count requires a positive count")
		}
	case PinNewest, PinOldest, PinPinned:
	default:
		return errors.Errorf("unknown pin operation %q", p.Operation)
	}
	return nil
}

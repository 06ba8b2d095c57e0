package reservation

import "github.com/google/uuid"

// ConflictCheck is evaluated by a store inside its serialization point,
// against the blocking reservations it holds for the candidate's resource at
// that moment. Keeping the check a pure function lets every store backend
// share the same detection semantics.
type ConflictCheck func(existing []*Reservation) []*Reservation

// FindConflicts returns every blocking-status reservation whose interval
// overlaps the candidate window. excludeID skips one reservation, used when
// re-validating an existing record. An empty result means the window is
// bookable.
func FindConflicts(candidate Interval, existing []*Reservation, excludeID uuid.UUID) []*Reservation {
	var conflicts []*Reservation
	for _, r := range existing {
		if excludeID != uuid.Nil && r.ID() == excludeID {
			continue
		}
		if !r.IsBlocking() {
			continue
		}
		if candidate.Overlaps(r.Interval()) {
			conflicts = append(conflicts, r)
		}
	}
	return conflicts
}

// CheckFor binds a candidate window into a ConflictCheck for store use.
func CheckFor(candidate Interval, excludeID uuid.UUID) ConflictCheck {
	return func(existing []*Reservation) []*Reservation {
		return FindConflicts(candidate, existing, excludeID)
	}
}

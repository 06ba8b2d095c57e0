package reservation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidInterval   = errors.New("invalid reservation interval")
	ErrInvalidStatus     = errors.New("invalid reservation status")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrMissingResource   = errors.New("resource id is required")
	ErrMissingRequester  = errors.New("requester id is required")
)

// Reservation is the scheduling aggregate. The id is assigned by the store
// on first insert; until then it is uuid.Nil. Records handed to callers are
// immutable snapshots: WithStatus returns a copy, nothing mutates in place.
type Reservation struct {
	id          uuid.UUID
	resourceID  uuid.UUID
	requesterID uuid.UUID
	interval    Interval
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

// NewReservation builds an unpersisted candidate record. initial must be a
// blocking status (pending, or confirmed under the auto-confirm policy).
func NewReservation(resourceID, requesterID uuid.UUID, iv Interval, initial Status) (*Reservation, error) {
	if resourceID == uuid.Nil {
		return nil, ErrMissingResource
	}
	if requesterID == uuid.Nil {
		return nil, ErrMissingRequester
	}
	if !initial.IsBlocking() {
		return nil, ErrInvalidStatus
	}

	return &Reservation{
		id:          uuid.Nil,
		resourceID:  resourceID,
		requesterID: requesterID,
		interval:    iv,
		status:      initial,
	}, nil
}

// Reconstruct rebuilds a persisted reservation from store columns.
func Reconstruct(
	id, resourceID, requesterID uuid.UUID,
	iv Interval,
	status Status,
	createdAt, updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:          id,
		resourceID:  resourceID,
		requesterID: requesterID,
		interval:    iv,
		status:      status,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

func (r *Reservation) ID() uuid.UUID          { return r.id }
func (r *Reservation) ResourceID() uuid.UUID  { return r.resourceID }
func (r *Reservation) RequesterID() uuid.UUID { return r.requesterID }
func (r *Reservation) Interval() Interval     { return r.interval }
func (r *Reservation) Status() Status         { return r.status }
func (r *Reservation) CreatedAt() time.Time   { return r.createdAt }
func (r *Reservation) UpdatedAt() time.Time   { return r.updatedAt }

func (r *Reservation) IsBlocking() bool {
	return r.status.IsBlocking()
}

func (r *Reservation) IsOwnedBy(requesterID uuid.UUID) bool {
	return r.requesterID == requesterID
}

// WithStatus returns a copy in the target status, or ErrIllegalTransition
// when the state machine forbids the move.
func (r *Reservation) WithStatus(target Status, now time.Time) (*Reservation, error) {
	if !target.IsValid() {
		return nil, ErrInvalidStatus
	}
	if !r.status.CanTransitionTo(target) {
		return nil, ErrIllegalTransition
	}

	next := *r
	next.status = target
	next.updatedAt = now
	return &next, nil
}

// ConflictError reports the blocking reservations a candidate window
// collided with at commit time.
type ConflictError struct {
	Conflicts []*Reservation
}

func (e *ConflictError) Error() string {
	ids := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		ids[i] = c.ID().String()
	}
	return fmt.Sprintf("slot conflicts with %d reservation(s): %s", len(e.Conflicts), strings.Join(ids, ", "))
}

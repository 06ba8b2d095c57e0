// Package memstore provides a process-local reservation store behind a
// single mutex. It honors the same atomicity contract as the durable
// backends, which makes it the test double of choice and a workable
// single-instance deployment without external storage.
package memstore

import (
	"context"
	"sort"
	"sync"

	"reservio/internal/domain/reservation"
	"reservio/internal/infra"
	"reservio/internal/pkg/clock"

	"github.com/google/uuid"
)

type ReservationStore struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]*reservation.Reservation
	clock clock.Clock
}

func NewReservationStore(clk clock.Clock) *ReservationStore {
	return &ReservationStore{
		byID:  make(map[uuid.UUID]*reservation.Reservation),
		clock: clk,
	}
}

func (s *ReservationStore) InsertIfNoConflict(
	ctx context.Context,
	res *reservation.Reservation,
	check reservation.ConflictCheck,
) (*reservation.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("context done before insert", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.blockingForResourceLocked(res.ResourceID())
	if conflicts := check(existing); len(conflicts) > 0 {
		return nil, &reservation.ConflictError{Conflicts: conflicts}
	}

	now := s.clock.Now()
	stored := reservation.Reconstruct(
		uuid.New(),
		res.ResourceID(),
		res.RequesterID(),
		res.Interval(),
		res.Status(),
		now,
		now,
	)
	s.byID[stored.ID()] = stored
	return stored, nil
}

func (s *ReservationStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next reservation.Status,
) (*reservation.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("context done before update", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	if current.Status() != expected {
		return nil, infra.WrapRepoErr("reservation status changed concurrently", nil, infra.KindStaleState)
	}

	updated := reservation.Reconstruct(
		current.ID(),
		current.ResourceID(),
		current.RequesterID(),
		current.Interval(),
		next,
		current.CreatedAt(),
		s.clock.Now(),
	)
	s.byID[id] = updated
	return updated, nil
}

func (s *ReservationStore) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("context done before read", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[id]
	if !ok {
		return nil, infra.WrapRepoErr("reservation not found", nil, infra.KindNotFound)
	}
	return rec, nil
}

func (s *ReservationStore) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*reservation.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("context done before read", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []*reservation.Reservation
	for _, rec := range s.byID {
		if rec.ResourceID() == resourceID {
			recs = append(recs, rec)
		}
	}
	sortByStart(recs)
	return recs, nil
}

func (s *ReservationStore) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*reservation.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, infra.WrapRepoErr("context done before read", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var recs []*reservation.Reservation
	for _, rec := range s.byID {
		if rec.RequesterID() == requesterID {
			recs = append(recs, rec)
		}
	}
	sortByStart(recs)
	return recs, nil
}

// Caller must hold s.mu.
func (s *ReservationStore) blockingForResourceLocked(resourceID uuid.UUID) []*reservation.Reservation {
	var recs []*reservation.Reservation
	for _, rec := range s.byID {
		if rec.ResourceID() == resourceID && rec.IsBlocking() {
			recs = append(recs, rec)
		}
	}
	return recs
}

func sortByStart(recs []*reservation.Reservation) {
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.Interval().Start().Equal(b.Interval().Start()) {
			return a.Interval().Start().Before(b.Interval().Start())
		}
		return a.ID().String() < b.ID().String()
	})
}

//go:build unit || integration

package builder

import (
	"time"

	"reservio/internal/domain/reservation"

	"github.com/google/uuid"
)

var baseTime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// ReservationBuilder assembles reservation candidates for tests. Defaults
// describe a valid one-hour pending booking.
type ReservationBuilder struct {
	resourceID  uuid.UUID
	requesterID uuid.UUID
	start       time.Time
	end         time.Time
	status      reservation.Status
}

func NewReservationBuilder() *ReservationBuilder {
	return &ReservationBuilder{
		resourceID:  uuid.New(),
		requesterID: uuid.New(),
		start:       baseTime,
		end:         baseTime.Add(time.Hour),
		status:      reservation.StatusPending,
	}
}

func (b *ReservationBuilder) With(mutate func(*ReservationBuilder)) *ReservationBuilder {
	if mutate != nil {
		mutate(b)
	}
	return b
}

func (b *ReservationBuilder) WithResource(id uuid.UUID) *ReservationBuilder {
	b.resourceID = id
	return b
}

func (b *ReservationBuilder) WithRequester(id uuid.UUID) *ReservationBuilder {
	b.requesterID = id
	return b
}

func (b *ReservationBuilder) WithWindow(start, end time.Time) *ReservationBuilder {
	b.start = start
	b.end = end
	return b
}

// WithOffsetWindow shifts the default window by the given offsets from the
// builder base time, keeping tests readable when laying out several bookings.
func (b *ReservationBuilder) WithOffsetWindow(startOffset, endOffset time.Duration) *ReservationBuilder {
	b.start = baseTime.Add(startOffset)
	b.end = baseTime.Add(endOffset)
	return b
}

func (b *ReservationBuilder) WithStatus(status reservation.Status) *ReservationBuilder {
	b.status = status
	return b
}

// BuildDomain runs the candidate through the real constructors, so invalid
// windows and statuses surface the domain errors.
func (b *ReservationBuilder) BuildDomain() (*reservation.Reservation, error) {
	iv, err := reservation.NewInterval(b.start, b.end)
	if err != nil {
		return nil, err
	}
	return reservation.NewReservation(b.resourceID, b.requesterID, iv, b.status)
}

// BuildPersisted returns a record as a store would hand it back, with an
// assigned id and timestamps.
func (b *ReservationBuilder) BuildPersisted() *reservation.Reservation {
	iv, err := reservation.NewInterval(b.start, b.end)
	if err != nil {
		panic(err)
	}
	now := baseTime.Add(-time.Hour)
	return reservation.Reconstruct(uuid.New(), b.resourceID, b.requesterID, iv, b.status, now, now)
}

// BaseTime is the anchor instant the default window starts at.
func BaseTime() time.Time {
	return baseTime
}

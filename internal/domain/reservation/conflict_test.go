//go:build unit

package reservation_test

import (
	"testing"
	"time"

	"reservio/internal/domain/reservation"
	"reservio/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindConflicts(t *testing.T) {
	resourceID := uuid.New()
	persisted := func(startOffset, endOffset time.Duration, status reservation.Status) *reservation.Reservation {
		return builder.NewReservationBuilder().
			WithResource(resourceID).
			WithOffsetWindow(startOffset, endOffset).
			WithStatus(status).
			BuildPersisted()
	}

	window := func(startOffset, endOffset time.Duration) reservation.Interval {
		iv, err := reservation.NewInterval(
			builder.BaseTime().Add(startOffset),
			builder.BaseTime().Add(endOffset),
		)
		require.NoError(t, err)
		return iv
	}

	t.Run("returns every overlapping blocking reservation", func(t *testing.T) {
		pending := persisted(0, time.Hour, reservation.StatusPending)
		confirmed := persisted(30*time.Minute, 2*time.Hour, reservation.StatusConfirmed)
		disjoint := persisted(3*time.Hour, 4*time.Hour, reservation.StatusConfirmed)

		got := reservation.FindConflicts(window(0, time.Hour), []*reservation.Reservation{pending, confirmed, disjoint}, uuid.Nil)

		require.Len(t, got, 2)
		assert.Equal(t, pending.ID(), got[0].ID())
		assert.Equal(t, confirmed.ID(), got[1].ID())
	})

	t.Run("non-blocking reservations never conflict", func(t *testing.T) {
		cancelled := persisted(0, time.Hour, reservation.StatusCancelled)
		rejected := persisted(0, time.Hour, reservation.StatusRejected)

		got := reservation.FindConflicts(window(0, time.Hour), []*reservation.Reservation{cancelled, rejected}, uuid.Nil)
		assert.Empty(t, got)
	})

	t.Run("adjacent windows do not conflict", func(t *testing.T) {
		before := persisted(-time.Hour, 0, reservation.StatusConfirmed)
		after := persisted(time.Hour, 2*time.Hour, reservation.StatusConfirmed)

		got := reservation.FindConflicts(window(0, time.Hour), []*reservation.Reservation{before, after}, uuid.Nil)
		assert.Empty(t, got)
	})

	t.Run("exclude id skips one record", func(t *testing.T) {
		self := persisted(0, time.Hour, reservation.StatusConfirmed)
		other := persisted(0, time.Hour, reservation.StatusConfirmed)

		got := reservation.FindConflicts(window(0, time.Hour), []*reservation.Reservation{self, other}, self.ID())

		require.Len(t, got, 1)
		assert.Equal(t, other.ID(), got[0].ID())
	})

	t.Run("empty store means bookable", func(t *testing.T) {
		got := reservation.FindConflicts(window(0, time.Hour), nil, uuid.Nil)
		assert.Empty(t, got)
	})
}

func TestCheckFor(t *testing.T) {
	existing := builder.NewReservationBuilder().
		WithOffsetWindow(0, time.Hour).
		WithStatus(reservation.StatusConfirmed).
		BuildPersisted()

	iv, err := reservation.NewInterval(builder.BaseTime(), builder.BaseTime().Add(time.Hour))
	require.NoError(t, err)

	check := reservation.CheckFor(iv, uuid.Nil)
	got := check([]*reservation.Reservation{existing})

	require.Len(t, got, 1)
	assert.Equal(t, existing.ID(), got[0].ID())
}

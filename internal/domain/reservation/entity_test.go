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

type entityCase struct {
	name   string
	mutate func(*builder.ReservationBuilder)
	errIs  error
}

func TestNewReservation(t *testing.T) {
	t.Run("basic success case", func(t *testing.T) {
		actual, err := builder.NewReservationBuilder().BuildDomain()
		require.NoError(t, err)
		require.NotNil(t, actual)

		assert.Equal(t, uuid.Nil, actual.ID(), "id is assigned by the store")
		assert.Equal(t, reservation.StatusPending, actual.Status())
		assert.True(t, actual.IsBlocking())
		assert.True(t, actual.CreatedAt().IsZero())
	})

	t.Run("validation", func(t *testing.T) {
		runEntityCases(t, []entityCase{
			{
				name:   "confirmed initial status",
				mutate: func(b *builder.ReservationBuilder) { b.WithStatus(reservation.StatusConfirmed) },
			},
			{
				name:   "missing resource",
				mutate: func(b *builder.ReservationBuilder) { b.WithResource(uuid.Nil) },
				errIs:  reservation.ErrMissingResource,
			},
			{
				name:   "missing requester",
				mutate: func(b *builder.ReservationBuilder) { b.WithRequester(uuid.Nil) },
				errIs:  reservation.ErrMissingRequester,
			},
			{
				name:   "cancelled initial status",
				mutate: func(b *builder.ReservationBuilder) { b.WithStatus(reservation.StatusCancelled) },
				errIs:  reservation.ErrInvalidStatus,
			},
			{
				name:   "rejected initial status",
				mutate: func(b *builder.ReservationBuilder) { b.WithStatus(reservation.StatusRejected) },
				errIs:  reservation.ErrInvalidStatus,
			},
			{
				name: "inverted window",
				mutate: func(b *builder.ReservationBuilder) {
					b.WithOffsetWindow(time.Hour, 0)
				},
				errIs: reservation.ErrInvalidInterval,
			},
		})
	})
}

func TestReservationWithStatus(t *testing.T) {
	now := builder.BaseTime().Add(2 * time.Hour)

	t.Run("legal transition returns an updated copy", func(t *testing.T) {
		original := builder.NewReservationBuilder().BuildPersisted()

		next, err := original.WithStatus(reservation.StatusConfirmed, now)
		require.NoError(t, err)

		assert.Equal(t, reservation.StatusConfirmed, next.Status())
		assert.Equal(t, now, next.UpdatedAt())
		assert.Equal(t, original.ID(), next.ID())
		assert.Equal(t, reservation.StatusPending, original.Status(), "original snapshot is untouched")
	})

	t.Run("illegal transition from confirmed", func(t *testing.T) {
		rec := builder.NewReservationBuilder().WithStatus(reservation.StatusConfirmed).BuildPersisted()

		_, err := rec.WithStatus(reservation.StatusPending, now)
		require.ErrorIs(t, err, reservation.ErrIllegalTransition)
	})

	t.Run("terminal states never transition", func(t *testing.T) {
		for _, from := range []reservation.Status{reservation.StatusCancelled, reservation.StatusRejected} {
			rec := builder.NewReservationBuilder().WithStatus(from).BuildPersisted()

			_, err := rec.WithStatus(reservation.StatusConfirmed, now)
			require.ErrorIs(t, err, reservation.ErrIllegalTransition, from.String())
		}
	})

	t.Run("unknown target status", func(t *testing.T) {
		rec := builder.NewReservationBuilder().BuildPersisted()

		_, err := rec.WithStatus(reservation.Status("archived"), now)
		require.ErrorIs(t, err, reservation.ErrInvalidStatus)
	})
}

func TestReservationIsOwnedBy(t *testing.T) {
	requesterID := uuid.New()
	rec := builder.NewReservationBuilder().WithRequester(requesterID).BuildPersisted()

	assert.True(t, rec.IsOwnedBy(requesterID))
	assert.False(t, rec.IsOwnedBy(uuid.New()))
}

func TestConflictError(t *testing.T) {
	first := builder.NewReservationBuilder().BuildPersisted()
	second := builder.NewReservationBuilder().BuildPersisted()

	err := &reservation.ConflictError{Conflicts: []*reservation.Reservation{first, second}}

	assert.Contains(t, err.Error(), "2 reservation(s)")
	assert.Contains(t, err.Error(), first.ID().String())
	assert.Contains(t, err.Error(), second.ID().String())
}

func runEntityCases(t *testing.T, cases []entityCase) {
	t.Helper()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			actual, err := builder.NewReservationBuilder().With(c.mutate).BuildDomain()

			if c.errIs == nil {
				require.NoError(t, err)
				require.NotNil(t, actual)
			} else {
				require.Nil(t, actual)
				require.ErrorIs(t, err, c.errIs)
			}
		})
	}
}

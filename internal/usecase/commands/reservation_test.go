//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"reservio/internal/domain/reservation"
	"reservio/internal/domain/user"
	"reservio/internal/infra"
	"reservio/internal/infra/memstore"
	"reservio/internal/pkg/clock"
	"reservio/internal/pkg/config"
	"reservio/internal/usecase/commands"
	"reservio/tests/common/builder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() config.ReservationConfig {
	return config.ReservationConfig{
		AutoConfirm:       false,
		StoreDriver:       config.StoreDriverMemory,
		StoreTimeout:      5 * time.Second,
		TransitionRetries: 3,
	}
}

func newEngine(t *testing.T, policy config.ReservationConfig) (commands.ReservationCommands, *memstore.ReservationStore, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(builder.BaseTime())
	store := memstore.NewReservationStore(clk)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return commands.NewReservationCommands(store, clk, policy, logger), store, clk
}

func viewer() user.Actor {
	return user.Actor{ID: uuid.New(), Role: user.RoleViewer}
}

func operator() user.Actor {
	return user.Actor{ID: uuid.New(), Role: user.RoleOperator}
}

func TestCreateReservation(t *testing.T) {
	resourceID := uuid.New()
	start := builder.BaseTime()

	t.Run("creates a pending reservation by default", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		actor := viewer()

		view, err := engine.CreateReservation(context.Background(), resourceID, actor, start, start.Add(time.Hour))
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, view.ID)
		assert.Equal(t, resourceID, view.ResourceID)
		assert.Equal(t, actor.ID, view.RequesterID)
		assert.Equal(t, reservation.StatusPending.String(), view.Status)
	})

	t.Run("auto-confirm policy starts reservations confirmed", func(t *testing.T) {
		policy := testPolicy()
		policy.AutoConfirm = true
		engine, _, _ := newEngine(t, policy)

		view, err := engine.CreateReservation(context.Background(), resourceID, viewer(), start, start.Add(time.Hour))
		require.NoError(t, err)

		assert.Equal(t, reservation.StatusConfirmed.String(), view.Status)
	})

	t.Run("invalid window", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())

		cases := []struct {
			name  string
			start time.Time
			end   time.Time
		}{
			{"start equals end", start, start},
			{"start after end", start.Add(time.Hour), start},
			{"zero start", time.Time{}, start.Add(time.Hour)},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				_, err := engine.CreateReservation(context.Background(), resourceID, viewer(), c.start, c.end)
				require.ErrorIs(t, err, commands.ErrInvalidInterval)
			})
		}
	})

	t.Run("missing resource id", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())

		_, err := engine.CreateReservation(context.Background(), uuid.Nil, viewer(), start, start.Add(time.Hour))
		require.ErrorIs(t, err, commands.ErrDomainValidation)
	})

	t.Run("overlapping window reports the winner", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())

		first, err := engine.CreateReservation(context.Background(), resourceID, viewer(), start, start.Add(time.Hour))
		require.NoError(t, err)

		_, err = engine.CreateReservation(context.Background(), resourceID, viewer(), start.Add(30*time.Minute), start.Add(90*time.Minute))
		require.ErrorIs(t, err, commands.ErrSlotTaken)

		var conflictErr *reservation.ConflictError
		require.ErrorAs(t, err, &conflictErr)
		require.Len(t, conflictErr.Conflicts, 1)
		assert.Equal(t, first.ID, conflictErr.Conflicts[0].ID())
	})

	t.Run("back-to-back bookings both succeed", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())

		_, err := engine.CreateReservation(context.Background(), resourceID, viewer(), start, start.Add(time.Hour))
		require.NoError(t, err)

		_, err = engine.CreateReservation(context.Background(), resourceID, viewer(), start.Add(time.Hour), start.Add(2*time.Hour))
		require.NoError(t, err)
	})

	t.Run("cancelled reservation frees the slot", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		owner := viewer()

		first, err := engine.CreateReservation(context.Background(), resourceID, owner, start, start.Add(time.Hour))
		require.NoError(t, err)

		_, err = engine.Transition(context.Background(), first.ID, owner, reservation.StatusCancelled)
		require.NoError(t, err)

		_, err = engine.CreateReservation(context.Background(), resourceID, viewer(), start, start.Add(time.Hour))
		require.NoError(t, err)
	})

	t.Run("concurrent identical bookings admit exactly one", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())

		const attempts = 16
		var wg sync.WaitGroup
		results := make(chan error, attempts)

		for range attempts {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := engine.CreateReservation(context.Background(), resourceID, viewer(), start, start.Add(time.Hour))
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		winners := 0
		for err := range results {
			if err == nil {
				winners++
			} else {
				require.ErrorIs(t, err, commands.ErrSlotTaken)
			}
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("store timeout surfaces as unavailable", func(t *testing.T) {
		clk := clock.NewFixed(builder.BaseTime())
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine := commands.NewReservationCommands(&timeoutStore{}, clk, testPolicy(), logger)

		_, err := engine.CreateReservation(context.Background(), resourceID, viewer(), start, start.Add(time.Hour))
		require.ErrorIs(t, err, commands.ErrStoreUnavailable)
	})
}

func TestTransition(t *testing.T) {
	resourceID := uuid.New()
	start := builder.BaseTime()

	seed := func(t *testing.T, engine commands.ReservationCommands, owner user.Actor) uuid.UUID {
		t.Helper()
		view, err := engine.CreateReservation(context.Background(), resourceID, owner, start, start.Add(time.Hour))
		require.NoError(t, err)
		return view.ID
	}

	t.Run("operator confirms a pending reservation", func(t *testing.T) {
		engine, _, clk := newEngine(t, testPolicy())
		id := seed(t, engine, viewer())

		clk.Advance(time.Minute)
		view, err := engine.Transition(context.Background(), id, operator(), reservation.StatusConfirmed)
		require.NoError(t, err)

		assert.Equal(t, reservation.StatusConfirmed.String(), view.Status)
		assert.Equal(t, clk.Now(), view.UpdatedAt)
	})

	t.Run("operator rejects a pending reservation", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		id := seed(t, engine, viewer())

		view, err := engine.Transition(context.Background(), id, operator(), reservation.StatusRejected)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusRejected.String(), view.Status)
	})

	t.Run("owner cancels own reservation", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		owner := viewer()
		id := seed(t, engine, owner)

		view, err := engine.Transition(context.Background(), id, owner, reservation.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, reservation.StatusCancelled.String(), view.Status)
	})

	t.Run("viewer may not confirm", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		owner := viewer()
		id := seed(t, engine, owner)

		_, err := engine.Transition(context.Background(), id, owner, reservation.StatusConfirmed)
		require.ErrorIs(t, err, commands.ErrForbidden)
	})

	t.Run("viewer may not cancel someone else's reservation", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		id := seed(t, engine, viewer())

		_, err := engine.Transition(context.Background(), id, viewer(), reservation.StatusCancelled)
		require.ErrorIs(t, err, commands.ErrForbidden)
	})

	t.Run("illegal transition from terminal status", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		owner := viewer()
		id := seed(t, engine, owner)

		_, err := engine.Transition(context.Background(), id, owner, reservation.StatusCancelled)
		require.NoError(t, err)

		_, err = engine.Transition(context.Background(), id, operator(), reservation.StatusConfirmed)
		require.ErrorIs(t, err, commands.ErrIllegalTransition)
	})

	t.Run("unknown target status", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())
		id := seed(t, engine, viewer())

		_, err := engine.Transition(context.Background(), id, operator(), reservation.Status("archived"))
		require.ErrorIs(t, err, commands.ErrIllegalTransition)
	})

	t.Run("unknown reservation", func(t *testing.T) {
		engine, _, _ := newEngine(t, testPolicy())

		_, err := engine.Transition(context.Background(), uuid.New(), operator(), reservation.StatusConfirmed)
		require.ErrorIs(t, err, commands.ErrReservationNotFound)
	})

	t.Run("retries a lost CAS and succeeds", func(t *testing.T) {
		clk := clock.NewFixed(builder.BaseTime())
		inner := memstore.NewReservationStore(clk)
		store := &flakyStore{ReservationStore: inner, staleFailures: 2}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine := commands.NewReservationCommands(store, clk, testPolicy(), logger)

		rec, err := builder.NewReservationBuilder().WithResource(resourceID).BuildDomain()
		require.NoError(t, err)
		stored, err := inner.InsertIfNoConflict(context.Background(), rec, reservation.CheckFor(rec.Interval(), uuid.Nil))
		require.NoError(t, err)

		view, err := engine.Transition(context.Background(), stored.ID(), operator(), reservation.StatusConfirmed)
		require.NoError(t, err)

		assert.Equal(t, reservation.StatusConfirmed.String(), view.Status)
		assert.Equal(t, 3, store.updateCalls)
	})

	t.Run("exhausted retries surface a transition conflict", func(t *testing.T) {
		clk := clock.NewFixed(builder.BaseTime())
		inner := memstore.NewReservationStore(clk)
		store := &flakyStore{ReservationStore: inner, staleFailures: 100}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		engine := commands.NewReservationCommands(store, clk, testPolicy(), logger)

		rec, err := builder.NewReservationBuilder().WithResource(resourceID).BuildDomain()
		require.NoError(t, err)
		stored, err := inner.InsertIfNoConflict(context.Background(), rec, reservation.CheckFor(rec.Interval(), uuid.Nil))
		require.NoError(t, err)

		_, err = engine.Transition(context.Background(), stored.ID(), operator(), reservation.StatusConfirmed)
		require.ErrorIs(t, err, commands.ErrTransitionConflict)
		assert.Equal(t, 3, store.updateCalls)
	})
}

// timeoutStore fails every write as if the store deadline elapsed.
type timeoutStore struct{}

func (s *timeoutStore) InsertIfNoConflict(context.Context, *reservation.Reservation, reservation.ConflictCheck) (*reservation.Reservation, error) {
	return nil, infra.WrapRepoErr("insert timed out", context.DeadlineExceeded)
}

func (s *timeoutStore) UpdateStatus(context.Context, uuid.UUID, reservation.Status, reservation.Status) (*reservation.Reservation, error) {
	return nil, infra.WrapRepoErr("update timed out", context.DeadlineExceeded)
}

func (s *timeoutStore) FindByID(context.Context, uuid.UUID) (*reservation.Reservation, error) {
	return nil, infra.WrapRepoErr("read timed out", context.DeadlineExceeded)
}

// flakyStore loses the CAS a fixed number of times before delegating.
type flakyStore struct {
	*memstore.ReservationStore
	staleFailures int
	updateCalls   int
}

func (s *flakyStore) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next reservation.Status) (*reservation.Reservation, error) {
	s.updateCalls++
	if s.updateCalls <= s.staleFailures {
		return nil, infra.WrapRepoErr("reservation status changed concurrently", nil, infra.KindStaleState)
	}
	return s.ReservationStore.UpdateStatus(ctx, id, expected, next)
}

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"reservio/internal/domain/reservation"
	"reservio/internal/domain/user"
	"reservio/internal/infra"
	"reservio/internal/pkg/clock"
	"reservio/internal/pkg/config"
	"reservio/internal/pkg/errs"
	"reservio/internal/usecase/queries"

	"github.com/google/uuid"
)

var (
	ErrInvalidInterval     = errs.New("invalid reservation interval")
	ErrSlotTaken           = errs.New("time slot already taken")
	ErrIllegalTransition   = errs.New("illegal status transition")
	ErrTransitionConflict  = errs.New("reservation transition conflict")
	ErrReservationNotFound = errs.New("reservation not found")
	ErrForbidden           = errs.New("actor may not perform this transition")
	ErrStoreUnavailable    = errs.New("reservation store unavailable")
	ErrStorageFailed       = errs.New("reservation store operation failed")
	ErrDomainValidation    = errs.New("domain validation error")
)

// ReservationStore is the write side of the store contract. Implementations
// must make InsertIfNoConflict atomic: the conflict check and the insert are
// indivisible from the perspective of any other conflicting insert, and
// UpdateStatus is a compare-and-swap with no partial effect on failure.
type ReservationStore interface {
	InsertIfNoConflict(ctx context.Context, res *reservation.Reservation, check reservation.ConflictCheck) (*reservation.Reservation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next reservation.Status) (*reservation.Reservation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
}

type ReservationCommands interface {
	CreateReservation(ctx context.Context, resourceID uuid.UUID, actor user.Actor, start, end time.Time) (*queries.ReservationView, error)
	Transition(ctx context.Context, id uuid.UUID, actor user.Actor, target reservation.Status) (*queries.ReservationView, error)
}

type reservationCommandsImpl struct {
	store  ReservationStore
	clock  clock.Clock
	policy config.ReservationConfig
	logger *slog.Logger
}

func NewReservationCommands(store ReservationStore, clk clock.Clock, policy config.ReservationConfig, logger *slog.Logger) ReservationCommands {
	return &reservationCommandsImpl{
		store:  store,
		clock:  clk,
		policy: policy,
		logger: logger,
	}
}

// CreateReservation validates the requested window, then delegates the
// check-and-insert to the store's serialization point. Two concurrent calls
// for overlapping windows on one resource yield exactly one winner.
func (c *reservationCommandsImpl) CreateReservation(
	ctx context.Context,
	resourceID uuid.UUID,
	actor user.Actor,
	start, end time.Time,
) (*queries.ReservationView, error) {
	iv, err := reservation.NewInterval(start, end)
	if err != nil {
		return nil, errs.Mark(err, ErrInvalidInterval)
	}

	initial := reservation.StatusPending
	if c.policy.AutoConfirm {
		initial = reservation.StatusConfirmed
	}

	rec, err := reservation.NewReservation(resourceID, actor.ID, iv, initial)
	if err != nil {
		return nil, errs.Mark(err, ErrDomainValidation)
	}

	sctx, cancel := context.WithTimeout(ctx, c.policy.StoreTimeout)
	defer cancel()

	stored, err := c.store.InsertIfNoConflict(sctx, rec, reservation.CheckFor(iv, uuid.Nil))
	if err != nil {
		var conflictErr *reservation.ConflictError
		switch {
		case errors.As(err, &conflictErr):
			c.logger.Info("booking rejected: slot taken",
				"resource_id", resourceID,
				"requester_id", actor.ID,
				"interval", iv.String(),
				"conflicts", len(conflictErr.Conflicts),
			)
			return nil, errs.Mark(err, ErrSlotTaken)
		case infra.IsKind(err, infra.KindTimeout):
			return nil, errs.Mark(err, ErrStoreUnavailable)
		default:
			return nil, errs.Mark(err, ErrStorageFailed)
		}
	}

	c.logger.Info("reservation created",
		"reservation_id", stored.ID(),
		"resource_id", resourceID,
		"requester_id", actor.ID,
		"status", stored.Status().String(),
	)
	return queries.NewReservationView(stored), nil
}

// Transition moves a reservation through the status state machine using
// optimistic concurrency: read, validate, compare-and-swap, with a bounded
// retry on benign races before surfacing a retryable conflict.
func (c *reservationCommandsImpl) Transition(
	ctx context.Context,
	id uuid.UUID,
	actor user.Actor,
	target reservation.Status,
) (*queries.ReservationView, error) {
	if !target.IsValid() {
		return nil, errs.Mark(reservation.ErrInvalidStatus, ErrIllegalTransition)
	}

	attempts := c.policy.TransitionRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		current, err := c.readCurrent(ctx, id)
		if err != nil {
			return nil, err
		}

		if err := authorizeTransition(actor, current, target); err != nil {
			return nil, err
		}

		if _, err := current.WithStatus(target, c.clock.Now()); err != nil {
			return nil, errs.Mark(err, ErrIllegalTransition)
		}

		updated, err := c.casStatus(ctx, id, current.Status(), target)
		if err != nil {
			if infra.IsKind(err, infra.KindStaleState) {
				c.logger.Debug("transition CAS lost, retrying",
					"reservation_id", id,
					"attempt", attempt+1,
				)
				continue
			}
			return nil, err
		}

		c.logger.Info("reservation transitioned",
			"reservation_id", id,
			"from", current.Status().String(),
			"to", target.String(),
			"actor_id", actor.ID,
		)
		return queries.NewReservationView(updated), nil
	}

	return nil, ErrTransitionConflict
}

func (c *reservationCommandsImpl) readCurrent(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	sctx, cancel := context.WithTimeout(ctx, c.policy.StoreTimeout)
	defer cancel()

	current, err := c.store.FindByID(sctx, id)
	if err != nil {
		switch {
		case infra.IsKind(err, infra.KindNotFound):
			return nil, errs.Mark(err, ErrReservationNotFound)
		case infra.IsKind(err, infra.KindTimeout):
			return nil, errs.Mark(err, ErrStoreUnavailable)
		default:
			return nil, errs.Mark(err, ErrStorageFailed)
		}
	}
	return current, nil
}

func (c *reservationCommandsImpl) casStatus(ctx context.Context, id uuid.UUID, expected, next reservation.Status) (*reservation.Reservation, error) {
	sctx, cancel := context.WithTimeout(ctx, c.policy.StoreTimeout)
	defer cancel()

	updated, err := c.store.UpdateStatus(sctx, id, expected, next)
	if err != nil {
		switch {
		case infra.IsKind(err, infra.KindStaleState):
			return nil, err
		case infra.IsKind(err, infra.KindNotFound):
			return nil, errs.Mark(err, ErrReservationNotFound)
		case infra.IsKind(err, infra.KindTimeout):
			return nil, errs.Mark(err, ErrStoreUnavailable)
		default:
			return nil, errs.Mark(err, ErrStorageFailed)
		}
	}
	return updated, nil
}

// Owners may cancel their own reservations; confirming or rejecting, and
// touching someone else's reservation, require the operator role or above.
func authorizeTransition(actor user.Actor, current *reservation.Reservation, target reservation.Status) error {
	if actor.Role.CanManageReservations() {
		return nil
	}
	if target == reservation.StatusCancelled && current.IsOwnedBy(actor.ID) {
		return nil
	}
	return ErrForbidden
}

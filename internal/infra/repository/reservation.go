package repository

import (
	"context"
	"errors"
	"time"

	"reservio/internal/domain/reservation"
	"reservio/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = "id, resource_id, requester_id, starts_at, ends_at, status, created_at, updated_at"

// ReservationRepository is the postgres-backed reservation store. Atomicity
// of InsertIfNoConflict comes from a per-resource advisory transaction lock:
// conflicting inserts for one resource serialize, inserts on different
// resources proceed in parallel.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) InsertIfNoConflict(
	ctx context.Context,
	res *reservation.Reservation,
	check reservation.ConflictCheck,
) (*reservation.Reservation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes conflicting inserts per resource for the span of this tx.
	_, err = tx.Exec(ctx,
		"SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))",
		res.ResourceID(),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to acquire resource lock", err)
	}

	existing, err := r.blockingForResource(ctx, tx, res.ResourceID())
	if err != nil {
		return nil, err
	}

	if conflicts := check(existing); len(conflicts) > 0 {
		return nil, &reservation.ConflictError{Conflicts: conflicts}
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO reservations (resource_id, requester_id, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reservationColumns,
		res.ResourceID(), res.RequesterID(), res.Interval().Start(), res.Interval().End(), res.Status().String(),
	)
	stored, err := scanReservation(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to insert reservation", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, infra.WrapRepoErr("failed to commit reservation", err)
	}
	return stored, nil
}

func (r *ReservationRepository) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next reservation.Status,
) (*reservation.Reservation, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE reservations
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2
		RETURNING `+reservationColumns,
		id, expected.String(), next.String(),
	)
	updated, err := scanReservation(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, infra.WrapRepoErr("failed to update reservation status", err)
	}

	// Distinguish a lost CAS from a missing row.
	var current string
	err = r.pool.QueryRow(ctx, "SELECT status FROM reservations WHERE id = $1", id).Scan(&current)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
	case err != nil:
		return nil, infra.WrapRepoErr("failed to read reservation status", err)
	default:
		return nil, infra.WrapRepoErr("reservation status changed concurrently", nil, infra.KindStaleState)
	}
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = $1", id)
	rec, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return rec, nil
}

func (r *ReservationRepository) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE resource_id = $1 ORDER BY starts_at, id",
		resourceID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations by resource", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *ReservationRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE requester_id = $1 ORDER BY created_at, id",
		requesterID,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations by requester", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (r *ReservationRepository) blockingForResource(ctx context.Context, tx pgx.Tx, resourceID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := tx.Query(ctx,
		"SELECT "+reservationColumns+` FROM reservations
		 WHERE resource_id = $1 AND status IN ($2, $3)`,
		resourceID, reservation.StatusPending.String(), reservation.StatusConfirmed.String(),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load blocking reservations", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows pgx.Rows) ([]*reservation.Reservation, error) {
	var recs []*reservation.Reservation
	for rows.Next() {
		rec, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation row", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate reservation rows", err)
	}
	return recs, nil
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, resourceID, requesterID uuid.UUID
		startsAt, endsAt            time.Time
		status                      string
		createdAt, updatedAt        time.Time
	)
	if err := row.Scan(&id, &resourceID, &requesterID, &startsAt, &endsAt, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	iv, err := reservation.NewInterval(startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	st, err := reservation.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return reservation.Reconstruct(id, resourceID, requesterID, iv, st, createdAt.UTC(), updatedAt.UTC()), nil
}

// Package sqlitestore backs the reservation store with an embedded SQLite
// database for single-node deployments. Writes go through one connection, so
// the conditional insert is serialized without advisory locks.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"reservio/internal/domain/reservation"
	"reservio/internal/infra"
	"reservio/internal/pkg/clock"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	id           TEXT PRIMARY KEY,
	resource_id  TEXT NOT NULL,
	requester_id TEXT NOT NULL,
	starts_at    TEXT NOT NULL,
	ends_at      TEXT NOT NULL,
	status       TEXT NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled', 'rejected')),
	created_at   TEXT NOT NULL,
	updated_at   TEXT NOT NULL,
	CHECK (starts_at < ends_at)
);

CREATE INDEX IF NOT EXISTS idx_reservations_resource_window
	ON reservations (resource_id, starts_at);

CREATE INDEX IF NOT EXISTS idx_reservations_requester
	ON reservations (requester_id, created_at);
`

const reservationColumns = "id, resource_id, requester_id, starts_at, ends_at, status, created_at, updated_at"

type ReservationStore struct {
	db    *sql.DB
	clock clock.Clock
}

func Open(path string, clk clock.Clock) (*ReservationStore, func(), error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, err
	}
	// One writer connection keeps SQLite's locking out of the picture and
	// makes the conditional insert a serialization point by construction.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	cleanup := func() { _ = db.Close() }
	return &ReservationStore{db: db, clock: clk}, cleanup, nil
}

func (s *ReservationStore) InsertIfNoConflict(
	ctx context.Context,
	res *reservation.Reservation,
	check reservation.ConflictCheck,
) (*reservation.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := s.blockingForResource(ctx, tx, res.ResourceID())
	if err != nil {
		return nil, err
	}

	if conflicts := check(existing); len(conflicts) > 0 {
		return nil, &reservation.ConflictError{Conflicts: conflicts}
	}

	now := s.clock.Now()
	id := uuid.New()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO reservations (id, resource_id, requester_id, starts_at, ends_at, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(),
		res.ResourceID().String(),
		res.RequesterID().String(),
		res.Interval().Start().Format(time.RFC3339Nano),
		res.Interval().End().Format(time.RFC3339Nano),
		res.Status().String(),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to insert reservation", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, infra.WrapRepoErr("failed to commit reservation", err)
	}

	return reservation.Reconstruct(id, res.ResourceID(), res.RequesterID(), res.Interval(), res.Status(), now, now), nil
}

func (s *ReservationStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	expected, next reservation.Status,
) (*reservation.Reservation, error) {
	now := s.clock.Now()
	result, err := s.db.ExecContext(ctx, `
		UPDATE reservations SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?`,
		next.String(), now.Format(time.RFC3339Nano), id.String(), expected.String(),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to update reservation status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, infra.WrapRepoErr("failed to read update result", err)
	}
	if affected == 0 {
		var current string
		err := s.db.QueryRowContext(ctx, "SELECT status FROM reservations WHERE id = ?", id.String()).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		if err != nil {
			return nil, infra.WrapRepoErr("failed to read reservation status", err)
		}
		return nil, infra.WrapRepoErr("reservation status changed concurrently", nil, infra.KindStaleState)
	}

	return s.FindByID(ctx, id)
}

func (s *ReservationStore) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id.String())
	rec, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return rec, nil
}

func (s *ReservationStore) ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*reservation.Reservation, error) {
	return s.list(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE resource_id = ? ORDER BY starts_at, id",
		resourceID.String())
}

func (s *ReservationStore) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*reservation.Reservation, error) {
	return s.list(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE requester_id = ? ORDER BY created_at, id",
		requesterID.String())
}

func (s *ReservationStore) list(ctx context.Context, query string, arg string) ([]*reservation.Reservation, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

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

func (s *ReservationStore) blockingForResource(ctx context.Context, tx *sql.Tx, resourceID uuid.UUID) ([]*reservation.Reservation, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE resource_id = ? AND status IN (?, ?)",
		resourceID.String(), reservation.StatusPending.String(), reservation.StatusConfirmed.String(),
	)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to load blocking reservations", err)
	}
	defer rows.Close()

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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*reservation.Reservation, error) {
	var (
		idStr, resourceStr, requesterStr string
		startsStr, endsStr, statusStr    string
		createdStr, updatedStr           string
	)
	if err := row.Scan(&idStr, &resourceStr, &requesterStr, &startsStr, &endsStr, &statusStr, &createdStr, &updatedStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	resourceID, err := uuid.Parse(resourceStr)
	if err != nil {
		return nil, err
	}
	requesterID, err := uuid.Parse(requesterStr)
	if err != nil {
		return nil, err
	}
	startsAt, err := time.Parse(time.RFC3339Nano, startsStr)
	if err != nil {
		return nil, err
	}
	endsAt, err := time.Parse(time.RFC3339Nano, endsStr)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
	if err != nil {
		return nil, err
	}

	iv, err := reservation.NewInterval(startsAt, endsAt)
	if err != nil {
		return nil, err
	}
	status, err := reservation.ParseStatus(statusStr)
	if err != nil {
		return nil, err
	}
	return reservation.Reconstruct(id, resourceID, requesterID, iv, status, createdAt.UTC(), updatedAt.UTC()), nil
}

package repository

import (
	"context"

	"reservio/internal/infra"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS reservations (
	id           uuid PRIMARY KEY DEFAULT gen_random_uuid(),
	resource_id  uuid NOT NULL,
	requester_id uuid NOT NULL,
	starts_at    timestamptz NOT NULL,
	ends_at      timestamptz NOT NULL,
	status       text NOT NULL CHECK (status IN ('pending', 'confirmed', 'cancelled', 'rejected')),
	created_at   timestamptz NOT NULL DEFAULT now(),
	updated_at   timestamptz NOT NULL DEFAULT now(),
	CHECK (starts_at < ends_at)
);

CREATE INDEX IF NOT EXISTS idx_reservations_resource_window
	ON reservations (resource_id, starts_at);

CREATE INDEX IF NOT EXISTS idx_reservations_requester
	ON reservations (requester_id, created_at);
`

// Migrate applies the reservation schema. Idempotent; safe to run at every
// startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return infra.WrapRepoErr("failed to apply reservation schema", err)
	}
	return nil
}

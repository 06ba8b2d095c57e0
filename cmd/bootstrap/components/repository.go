package components

import (
	"context"
	"fmt"

	"reservio/internal/infra/db"
	"reservio/internal/infra/memstore"
	"reservio/internal/infra/repository"
	"reservio/internal/infra/sqlitestore"
	"reservio/internal/pkg/clock"
	"reservio/internal/pkg/config"
	"reservio/internal/usecase/commands"
	"reservio/internal/usecase/queries"

	"go.uber.org/fx"
)

// ReservationStore is the full store contract: the write side used by the
// scheduling engine plus the read side used by the query service. Every
// backend satisfies both.
type ReservationStore interface {
	commands.ReservationStore
	queries.ReservationReader
}

var StoreModule = fx.Module("store",
	fx.Provide(
		NewReservationStore,
		func(s ReservationStore) commands.ReservationStore { return s },
		func(s ReservationStore) queries.ReservationReader { return s },
	),
)

// NewReservationStore selects the store backend from configuration. All
// backends honor the conditional-insert atomicity contract; they differ only
// in durability and deployment footprint.
func NewReservationStore(lc fx.Lifecycle, cfg config.Config, clk clock.Clock) (ReservationStore, error) {
	switch cfg.Reservation.StoreDriver {
	case config.StoreDriverPostgres:
		pool, cleanup, err := db.Connect(cfg.DB)
		if err != nil {
			return nil, err
		}
		if err := repository.Migrate(context.Background(), pool); err != nil {
			cleanup()
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				cleanup()
				return nil
			},
		})
		return repository.NewReservationRepository(pool), nil

	case config.StoreDriverSQLite:
		store, cleanup, err := sqlitestore.Open(cfg.Reservation.SQLitePath, clk)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(_ context.Context) error {
				cleanup()
				return nil
			},
		})
		return store, nil

	case config.StoreDriverMemory:
		return memstore.NewReservationStore(clk), nil

	default:
		return nil, fmt.Errorf("unknown reservation store driver: %q", cfg.Reservation.StoreDriver)
	}
}

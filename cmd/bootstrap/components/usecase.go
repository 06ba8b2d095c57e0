package components

import (
	"reservio/internal/pkg/clock"
	"reservio/internal/pkg/config"
	"reservio/internal/usecase"
	"reservio/internal/usecase/commands"
	"reservio/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	fx.Provide(
		clock.New,
		usecase.NewTokenValidator,
		commands.NewReservationCommands,
		func(reader queries.ReservationReader, cfg config.Config) queries.ReservationQueries {
			return queries.NewReservationQueries(reader, cfg.Reservation.StoreTimeout)
		},
	),
)

package response

import (
	"time"

	"reservio/internal/domain/reservation"
	"reservio/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID          uuid.UUID `json:"id"`
	ResourceID  uuid.UUID `json:"resource_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:          view.ID,
		ResourceID:  view.ResourceID,
		RequesterID: view.RequesterID,
		StartsAt:    view.StartsAt,
		EndsAt:      view.EndsAt,
		Status:      view.Status,
		CreatedAt:   view.CreatedAt,
		UpdatedAt:   view.UpdatedAt,
	}
}

func FromReservationViews(views []*queries.ReservationView) []*ReservationResponse {
	out := make([]*ReservationResponse, len(views))
	for i, v := range views {
		out[i] = FromReservationView(v)
	}
	return out
}

// ConflictDetail lists the reservations a rejected booking collided with,
// for caller diagnostics.
type ConflictDetail struct {
	ID       uuid.UUID `json:"id"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
	Status   string    `json:"status"`
}

func ConflictDetails(conflicts []*reservation.Reservation) []ConflictDetail {
	out := make([]ConflictDetail, len(conflicts))
	for i, c := range conflicts {
		out[i] = ConflictDetail{
			ID:       c.ID(),
			StartsAt: c.Interval().Start(),
			EndsAt:   c.Interval().End(),
			Status:   c.Status().String(),
		}
	}
	return out
}

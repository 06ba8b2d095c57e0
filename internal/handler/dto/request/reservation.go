package request

import (
	"time"

	"github.com/google/uuid"
)

// CreateReservationRequest carries the requested window. Timestamps bind as
// RFC3339 with offset; a naive local time fails JSON binding. The requester
// identity is deliberately absent: it comes from the authenticated context.
type CreateReservationRequest struct {
	ResourceID uuid.UUID `json:"resource_id" binding:"required"`
	StartsAt   time.Time `json:"starts_at" binding:"required"`
	EndsAt     time.Time `json:"ends_at" binding:"required"`
}

type TransitionReservationRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed cancelled rejected"`
}

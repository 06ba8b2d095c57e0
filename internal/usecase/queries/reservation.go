package queries

import (
	"context"
	"time"

	"reservio/internal/domain/reservation"
	"reservio/internal/infra"
	"reservio/internal/pkg/errs"

	"github.com/google/uuid"
)

var (
	ErrReservationNotFound = errs.New("reservation not found")
	ErrStoreUnavailable    = errs.New("reservation store unavailable")
)

// ReservationView is the read model handed to callers.
type ReservationView struct {
	ID          uuid.UUID `json:"id"`
	ResourceID  uuid.UUID `json:"resource_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewReservationView(r *reservation.Reservation) *ReservationView {
	return &ReservationView{
		ID:          r.ID(),
		ResourceID:  r.ResourceID(),
		RequesterID: r.RequesterID(),
		StartsAt:    r.Interval().Start(),
		EndsAt:      r.Interval().End(),
		Status:      r.Status().String(),
		CreatedAt:   r.CreatedAt(),
		UpdatedAt:   r.UpdatedAt(),
	}
}

// ReservationReader is the read side of the store contract. Reads observe a
// committed snapshot and carry no conflict implications.
type ReservationReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	ListByResource(ctx context.Context, resourceID uuid.UUID) ([]*reservation.Reservation, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*reservation.Reservation, error)
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]*ReservationView, error)
	ListForResource(ctx context.Context, resourceID uuid.UUID) ([]*ReservationView, error)
}

type reservationQueriesImpl struct {
	reader  ReservationReader
	timeout time.Duration
}

func NewReservationQueries(reader ReservationReader, timeout time.Duration) ReservationQueries {
	return &reservationQueriesImpl{reader: reader, timeout: timeout}
}

func (q *reservationQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*ReservationView, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	rec, err := q.reader.FindByID(ctx, id)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return NewReservationView(rec), nil
}

func (q *reservationQueriesImpl) ListForRequester(ctx context.Context, requesterID uuid.UUID) ([]*ReservationView, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	recs, err := q.reader.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return toViews(recs), nil
}

func (q *reservationQueriesImpl) ListForResource(ctx context.Context, resourceID uuid.UUID) ([]*ReservationView, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	recs, err := q.reader.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, mapReadErr(err)
	}
	return toViews(recs), nil
}

func toViews(recs []*reservation.Reservation) []*ReservationView {
	views := make([]*ReservationView, len(recs))
	for i, rec := range recs {
		views[i] = NewReservationView(rec)
	}
	return views
}

func mapReadErr(err error) error {
	switch {
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, ErrReservationNotFound)
	case infra.IsKind(err, infra.KindTimeout):
		return errs.Mark(err, ErrStoreUnavailable)
	default:
		return err
	}
}

package user

import "github.com/google/uuid"

// Actor is the authenticated identity a request acts as. It always comes
// from the verified token context, never from client-supplied payload
// fields.
type Actor struct {
	ID   uuid.UUID
	Role Role
}

func (a Actor) IsZero() bool {
	return a.ID == uuid.Nil
}

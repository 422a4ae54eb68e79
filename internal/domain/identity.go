package domain

import (
	"errors"

	"github.com/google/uuid"
)

// ErrEmptyIdentity is returned when a caller identity is missing or incomplete.
var ErrEmptyIdentity = errors.New("caller identity is incomplete")

// Identity is the resolved caller of an operation: the subject id and the
// display name recorded on entities the caller creates. It is resolved by the
// authentication layer before any aggregate operation runs and passed in
// explicitly so the domain never reaches into ambient request state.
type Identity struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
}

// Validate checks that the identity carries both a subject id and a name.
func (i Identity) Validate() error {
	if i.ID == uuid.Nil || i.DisplayName == "" {
		return ErrEmptyIdentity
	}
	return nil
}

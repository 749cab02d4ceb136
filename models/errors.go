package models

import (
	"errors"
	"fmt"
)

// ErrInviteCodeSpent reports an invite code that is missing or already
// consumed at the moment of the atomic mark-used write. The invite
// store maps it to its invalid-code error.
var ErrInviteCodeSpent = errors.New("invite code already used")

// DeserializationError reports a remote document whose shape does not
// match the expected schema. It is returned from the store boundary
// instead of silently substituting placeholder values.
type DeserializationError struct {
	Collection string
	DocID      string
	Err        error
}

func (e *DeserializationError) Error() string {
	return fmt.Sprintf("malformed document %s/%s: %v", e.Collection, e.DocID, e.Err)
}

func (e *DeserializationError) Unwrap() error {
	return e.Err
}

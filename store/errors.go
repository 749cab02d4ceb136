// Package store implements the attendance, presence, report, and invite
// code stores over the remote document collections. Each store owns
// writes to its own collection; failures are returned to the caller and
// never retried here.
package store

import "errors"

var (
	// ErrLocationUnavailable blocks a sign-in attempted without a
	// resolved device coordinate.
	ErrLocationUnavailable = errors.New("location unavailable")

	// ErrChecklistIncomplete blocks a sign-in whose readiness checklist
	// was not fully affirmed.
	ErrChecklistIncomplete = errors.New("checklist incomplete")

	// ErrInvalidInviteCode blocks account creation when the invite code
	// is absent or already used.
	ErrInvalidInviteCode = errors.New("invalid invite code")

	// ErrPasswordMismatch is returned before any remote call when the
	// new and confirm password fields differ.
	ErrPasswordMismatch = errors.New("passwords do not match")
)

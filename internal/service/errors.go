package service

import "errors"

// Failure classes of the workflow entry points. Callers branch with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrNotFound marks a missing ticket, queue, follow-up, or saved search.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks a rejected input value.
	ErrValidation = errors.New("validation error")

	// ErrPermission marks a denied queue or ticket access. The message stays
	// generic so a denial never confirms the entity exists.
	ErrPermission = errors.New("permission denied")

	// ErrNoChanges is the no-op signal of the update workflow: nothing was
	// supplied that would change the ticket, so nothing was persisted.
	ErrNoChanges = errors.New("no changes")
)

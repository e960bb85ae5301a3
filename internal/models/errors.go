package models

import "errors"

// Workflow error taxonomy. Services return these (possibly wrapped) and the
// HTTP layer maps them to statuses; repositories translate database
// conditions (no rows, unique violations) into them.
var (
	// ErrNotFound - the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied - the acting user does not own the resource.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrConflict - duplicate action: a second review, a replayed payment
	// callback, an accept on an already resolved request.
	ErrConflict = errors.New("conflict")
	// ErrValidation - input failed a shape or range check.
	ErrValidation = errors.New("validation failed")
	// ErrProviderNotOnboarded - the provider has no linked payment account,
	// checkout cannot be created.
	ErrProviderNotOnboarded = errors.New("provider account not linked")
)

package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers return
// these (optionally wrapped) so the engine and callers can translate them into the
// error kinds of the validation contract.
//
// These represent factual states about resources, not rule violations:
// - ErrNotFound: entity does not exist in store
// - ErrBusy: another validation of the same submission holds the advisory lock
// - ErrConflict: concurrent writers raced on the same resource
// - ErrCatalogInvalid: rule catalog failed validation; previous catalog stays live
// - ErrCancelled: cooperative cancellation; the open transaction was rolled back
//
// Rule violations are data, never errors; they travel as ErrorRecord rows.
var (
	ErrNotFound       = errors.New("not found")
	ErrBusy           = errors.New("submission validation in progress")
	ErrConflict       = errors.New("conflict")
	ErrCatalogInvalid = errors.New("rule catalog invalid")
	ErrCancelled      = errors.New("cancelled")
)

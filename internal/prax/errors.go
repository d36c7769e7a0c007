package prax

import "errors"

var (
	// ErrAuthorizationDenied means the user refused access to the source.
	// It stays in effect until the permission is changed outside prax.
	ErrAuthorizationDenied = errors.New("access to the photo library was denied")

	// ErrNotAuthorized is returned when an import is triggered before access was granted.
	ErrNotAuthorized = errors.New("access to the photo library has not been granted")

	// ErrImportInProgress is returned when a different pass is already running.
	ErrImportInProgress = errors.New("an import pass is already running")

	// ErrSourceFetch wraps failures reading from the source.
	ErrSourceFetch = errors.New("source fetch failed")

	// ErrStorageCommit wraps failures committing a pass transaction.
	ErrStorageCommit = errors.New("storage commit failed")

	// ErrLookupAmbiguity means an identifier resolved to more than one record.
	ErrLookupAmbiguity = errors.New("identifier matched more than one record")

	// ErrInvalidTransition is returned for state changes the reporter does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

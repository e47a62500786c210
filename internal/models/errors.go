package models

import "errors"

// Domain errors surfaced by repositories and the transfer engine. The HTTP
// layer maps them to status codes with errors.Is; store internals never leak
// past these.
var (
	// ErrInsufficientFunds covers both a missing sender and a balance below
	// the requested amount. Callers are not told which.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrDuplicateAccount reports an account-number collision on creation.
	ErrDuplicateAccount = errors.New("account number already exists")

	// ErrAccountNotFound reports a balance query for a nonexistent account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrCommitConflict reports an atomic unit aborted by the store: an
	// isolation conflict or a reference uniqueness violation. Nothing was
	// applied; a resubmission draws a fresh reference.
	ErrCommitConflict = errors.New("transfer aborted by a store conflict")

	// ErrStoreUnavailable reports an infrastructure fault outside business
	// logic. Nothing was applied.
	ErrStoreUnavailable = errors.New("store unavailable")
)

package domain

import "errors"

// Domain errors are pure — no infrastructure dependency.

var (
	// Decode errors — fatal to a single record, never to a whole batch.
	ErrUnknownStatus = errors.New("unrecognized task status code")

	// Transport / contract errors — recoverable, prior state is kept.
	ErrLedgerUnreachable = errors.New("task ledger is unreachable")
	ErrCallReverted      = errors.New("ledger call reverted")
	ErrTaskNotFound      = errors.New("task not found on ledger")

	// Controller errors
	ErrStaleResult  = errors.New("stale result superseded by a newer request")
	ErrDisposed     = errors.New("tracker has been disposed")
	ErrNoActionable = errors.New("task status offers no action")
	ErrInvalidRange = errors.New("invalid task range")

	// Value-type validation errors
	ErrInvalidIdentity    = errors.New("invalid identity address")
	ErrInvalidRoleID      = errors.New("invalid role id")
	ErrInvalidInterfaceID = errors.New("invalid interface id")
	ErrInvalidQuorum      = errors.New("invalid quorum amount")
	ErrInvalidAmount      = errors.New("invalid deposit amount")
)

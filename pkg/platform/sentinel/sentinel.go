package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services translate them into domain errors.
//
//   - ErrNotFound: no record stored under the key, or the stored record is unreadable
//   - ErrConflict: optimistic revision check failed
//   - ErrAlreadyUsed: key already holds a record (create-only writes)
//   - ErrInvalidState: record is in the wrong state for the requested transition
//   - ErrUnavailable: backing medium temporarily unavailable
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)

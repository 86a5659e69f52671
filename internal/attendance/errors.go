package attendance

import (
	"errors"
	"fmt"

	"acadence/internal/ledger"
)

// Domain outcomes of a redemption attempt. Every attempt yields exactly one
// of: a new record, AlreadyMarkedError, or one of these sentinels.
var (
	// ErrInvalidInput means the caller sent malformed input; retrying
	// without changing it will not help.
	ErrInvalidInput = errors.New("invalid input")
	// ErrSessionNotFound means the session id is unknown or deactivated.
	ErrSessionNotFound = errors.New("session not found or inactive")
	// ErrSessionExpired means the session's TTL has passed. The session is
	// deactivated as a side effect and can never be reused.
	ErrSessionExpired = errors.New("session expired")
	// ErrStorageUnavailable wraps transient infrastructure failures. Safe
	// to retry with backoff.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// AlreadyMarkedError reports that the student is already recorded present
// for this subject today. Not a failure: it carries the existing record so
// callers can render a confirmation instead of a generic error.
type AlreadyMarkedError struct {
	Existing ledger.Record
}

func (e *AlreadyMarkedError) Error() string {
	return fmt.Sprintf("already marked for %s on %s", e.Existing.Subject, ledger.DayKey(e.Existing.Day))
}

/*
errors.go - Centralized error types for the circulation engine

PURPOSE:
  All error kinds in one place so callers branch with errors.Is/errors.As
  instead of matching strings. The HTTP layer maps these to status codes;
  the CLI maps them to exit messages.

ERROR CATEGORIES:
  1. Not-found errors  - A referenced key/copy/loan/fine does not exist
  2. Conflict errors   - The operation contradicts current ledger state
  3. Validation errors - The request itself is incomplete
  4. Store errors      - The underlying transaction could not commit

USAGE:
    if errors.Is(err, circulation.ErrCopyUnavailable) {
        // copy is on loan; surface the conflict to the caller
    }

    var missing *circulation.MissingDetailsError
    if errors.As(err, &missing) {
        // missing.Missing lists the absent fields
    }

SEE ALSO:
  - engine.go: Produces these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package circulation

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrItemNotFound is returned when a catalog key does not exist.
	ErrItemNotFound = errors.New("catalog item not found")

	// ErrCopyNotFound is returned when a copy ID does not exist in inventory.
	ErrCopyNotFound = errors.New("copy not found")

	// ErrLoanNotFound is returned when a loan ID is unknown.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrFineNotFound is returned when no fine exists for a loan.
	ErrFineNotFound = errors.New("fine not found")

	// ErrCopyUnavailable is returned when a borrow targets a copy that
	// already has an open loan. Exactly one of two concurrent borrows for
	// the same copy sees this.
	ErrCopyUnavailable = errors.New("copy unavailable: already on loan")

	// ErrLoanAlreadyClosed is returned when a loan is returned twice.
	// The second return is an error, never a silent success.
	ErrLoanAlreadyClosed = errors.New("loan already closed")

	// ErrMissingDetails is returned when a donation introduces a new catalog
	// key without the full item details.
	ErrMissingDetails = errors.New("missing item details")

	// ErrItemExists is returned when inserting a catalog key that is taken.
	ErrItemExists = errors.New("catalog item already exists")

	// ErrStorageFailure is returned when the underlying transaction could not
	// commit. The pre-operation state is fully intact: no partial writes.
	ErrStorageFailure = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnavailableError reports which open loan blocks a borrow.
type UnavailableError struct {
	CopyID     CopyID
	OpenLoanID LoanID
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("copy %s unavailable: open loan %s", e.CopyID, e.OpenLoanID)
}

func (e *UnavailableError) Unwrap() error { return ErrCopyUnavailable }

// AlreadyClosedError reports when the loan was previously returned.
type AlreadyClosedError struct {
	LoanID     LoanID
	ReturnedOn Date
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("loan %s already closed on %s", e.LoanID, e.ReturnedOn)
}

func (e *AlreadyClosedError) Unwrap() error { return ErrLoanAlreadyClosed }

// MissingDetailsError lists the fields a new catalog item still needs.
type MissingDetailsError struct {
	ItemKey ItemKey
	Missing []string
}

func (e *MissingDetailsError) Error() string {
	return fmt.Sprintf("item %s not in catalog and details incomplete: missing %s",
		e.ItemKey, strings.Join(e.Missing, ", "))
}

func (e *MissingDetailsError) Unwrap() error { return ErrMissingDetails }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrCopyNotFound) ||
		errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrFineNotFound)
}

// IsConflict returns true if the error is a ledger-state conflict that a
// different request (not a retry of this one) might resolve.
func IsConflict(err error) bool {
	return errors.Is(err, ErrCopyUnavailable) ||
		errors.Is(err, ErrLoanAlreadyClosed) ||
		errors.Is(err, ErrItemExists)
}

// IsClientError returns true if the error is due to invalid client input or
// a state conflict, as opposed to a storage failure.
func IsClientError(err error) bool {
	return IsNotFound(err) || IsConflict(err) || errors.Is(err, ErrMissingDetails)
}

// Package approvals carries the error taxonomy and actor guards shared by
// every approval pipeline (permits, petty cash, contractor invoices).
package approvals

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound means the target record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation means the input was rejected before any state was read.
	ErrValidation = errors.New("validation failed")
	// ErrConflict means the record is not in a state that allows the
	// requested transition (wrong status, already-used code, double submit).
	ErrConflict = errors.New("state conflict")
	// ErrSelfApproval means an actor tried to approve, reject or verify
	// their own submission where a distinct actor is required.
	ErrSelfApproval = fmt.Errorf("%w: self-approval forbidden", ErrConflict)
	// ErrForbidden means the caller's role does not allow the action.
	ErrForbidden = errors.New("forbidden")
)

// EnsureDistinctActor rejects any approval-type action where the actor is
// the submitter. Every pipeline calls this before mutating state so the
// invariant cannot be skipped by a new endpoint.
func EnsureDistinctActor(actorID, submitterID uuid.UUID, action string) error {
	if actorID == submitterID {
		return fmt.Errorf("%w: cannot %s your own submission", ErrSelfApproval, action)
	}
	return nil
}

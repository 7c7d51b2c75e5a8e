/*
errors.go - Centralized error types for the slot-selection engine

ERROR CATEGORIES:
  1. Local validation errors - rejected before any network call
  2. Refresh errors - weekly-view fetch failed or was superseded
  3. Submission errors - backend rejection, possibly partial

Callers branch with errors.Is / errors.As:

    if errors.Is(err, grid.ErrSlotAlreadyAssigned) { ... }

    var partial *grid.PartialSubmissionError
    if errors.As(err, &partial) { forceRefresh() }
*/
package grid

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmptySelection is returned when a submission carries no cells.
	ErrEmptySelection = errors.New("empty selection")

	// ErrInvalidDateRange is returned when valid_from is missing or
	// valid_to precedes valid_from.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrUnassignedSlotForAbsence is returned when an absence request
	// includes a cell with no existing shift assignment to be absent from.
	ErrUnassignedSlotForAbsence = errors.New("absence requires an assigned slot")

	// ErrSlotAlreadyAssigned is returned when an extra-work request
	// includes a cell that is already assigned.
	ErrSlotAlreadyAssigned = errors.New("slot already assigned")

	// ErrRefreshFailed is returned when the weekly-view fetch fails.
	// Local state is left untouched; the caller may retry.
	ErrRefreshFailed = errors.New("schedule refresh failed")

	// ErrRefreshSuperseded is returned when a fetch resolved after a newer
	// context change. Its response was discarded and nothing was applied.
	ErrRefreshSuperseded = errors.New("schedule refresh superseded")

	// ErrPartialSubmission is returned when a sequential per-range
	// submission stopped mid-way. Applied ranges are NOT rolled back.
	ErrPartialSubmission = errors.New("submission partially applied")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnassignedSlotError lists the selected cells that have no shift binding.
type UnassignedSlotError struct {
	Keys []CellKey
}

func (e *UnassignedSlotError) Error() string {
	return fmt.Sprintf("absence requires an assigned slot: %d cell(s) unbound", len(e.Keys))
}

func (e *UnassignedSlotError) Unwrap() error { return ErrUnassignedSlotForAbsence }

// AlreadyAssignedError lists the selected cells that are already assigned.
type AlreadyAssignedError struct {
	Keys []CellKey
}

func (e *AlreadyAssignedError) Error() string {
	return fmt.Sprintf("extra work on already-assigned slot: %d cell(s)", len(e.Keys))
}

func (e *AlreadyAssignedError) Unwrap() error { return ErrSlotAlreadyAssigned }

// RefreshError wraps the transport failure behind a reconciliation fetch.
type RefreshError struct {
	Cause error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("schedule refresh failed: %v", e.Cause)
}

func (e *RefreshError) Unwrap() error { return ErrRefreshFailed }

// PartialSubmissionError reports a sequential per-range submission that
// stopped at the first failure. Applied counts ranges confirmed before the
// failure; the backend remains the source of truth, so the caller should
// force a reconciliation refresh to discover actual state.
type PartialSubmissionError struct {
	Applied int
	Total   int
	Cause   error
}

func (e *PartialSubmissionError) Error() string {
	return fmt.Sprintf("submission stopped after %d/%d range(s): %v", e.Applied, e.Total, e.Cause)
}

func (e *PartialSubmissionError) Unwrap() error { return ErrPartialSubmission }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidationError reports whether the error was raised locally before any
// network call. These are never retried automatically.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptySelection) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrUnassignedSlotForAbsence) ||
		errors.Is(err, ErrSlotAlreadyAssigned)
}

// IsRetryable reports whether retrying the same operation might succeed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRefreshFailed)
}

/*
submit.go - Validation, compression and bulk submission

PURPOSE:
  The Pipeline is the single exit point of the grid: it validates the
  current selection against the request-type rules, compresses it into
  ranges, materializes shift records where needed, and issues exactly one
  logical submission to the backend.

SUBMISSION FLOW:

  validate ──▶ compress ──▶ ensure slots ──▶ bulk write ──▶ refresh
     │                        (dedup)            │
     └── local errors,                           └── backend error surfaced
         no network call                             verbatim, selection kept

PER-RANGE FALLBACK:
  When no bulk endpoint is available the pipeline issues sequential
  per-range calls and stops at the first failure, reporting partial
  completion. Already-applied ranges are not rolled back; the backend is
  the source of truth and the caller forces a reconciliation refresh.
  Older console revisions did one call per CELL; that behavior is gone.

The pipeline makes at most one attempt per Submit call. Retry policy, if
any, belongs to the caller.
*/
package grid

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// =============================================================================
// COLLABORATOR INTERFACES - Implemented by the REST client
// =============================================================================

// SlotEnsurer materializes (or fetches) a shift template covering one hour
// range. The upsert is idempotent server-side.
type SlotEnsurer interface {
	EnsureSlot(ctx context.Context, day Weekday, startHour, endHour int) (ShiftID, error)
}

// BulkAssignment is the single logical write for an admin assignment.
type BulkAssignment struct {
	UserID         string
	ValidFrom      time.Time
	ValidTo        *time.Time
	Ranges         []Range
	IdempotencyKey string
}

// BulkAssigner issues one bulk assignment call carrying every range.
type BulkAssigner interface {
	BulkAssign(ctx context.Context, ba BulkAssignment) error
}

// RangeAssigner is the sequential fallback when only per-range endpoints
// exist. The pipeline stops at the first failure.
type RangeAssigner interface {
	AssignRange(ctx context.Context, userID string, validFrom time.Time, validTo *time.Time, rng Range) error
}

// RequestSubmission is one member-initiated leave/extra-work request.
type RequestSubmission struct {
	Type           RequestType
	UserID         string
	TargetDate     time.Time
	ShiftIDs       []ShiftID
	Ranges         []Range
	Reason         string
	IdempotencyKey string
}

// RequestSubmitter writes a leave/extra-work request.
type RequestSubmitter interface {
	SubmitRequest(ctx context.Context, sub RequestSubmission) error
}

// =============================================================================
// SUBMISSION - One submit attempt
// =============================================================================

// Submission describes what the operator is submitting the selection as.
type Submission struct {
	Type      RequestType
	UserID    string
	ValidFrom time.Time
	ValidTo   *time.Time
	Reason    string
}

// Outcome reports what a successful Submit sent.
type Outcome struct {
	Ranges         []Range
	Summary        SelectionSummary
	IdempotencyKey string
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline validates, compresses and submits the current selection.
// Bulk is preferred; PerRange is the documented fallback used only when
// Bulk is nil. Reconciler, when set, is refreshed after a successful write
// so the grid resets to confirmed server state.
type Pipeline struct {
	Slots      SlotEnsurer
	Bulk       BulkAssigner
	PerRange   RangeAssigner
	Requests   RequestSubmitter
	Reconciler *Reconciler
	Log        *zap.Logger
}

// Submit runs one submission attempt for the given state.
//
// Validation failures (IsValidationError) are detected before any network
// call. Backend failures are returned with the server's message intact and
// leave the SlotState unchanged, so the attempted selection survives for a
// retry. A *PartialSubmissionError means some fallback ranges were applied
// before the failure; force a refresh to discover true state.
func (p *Pipeline) Submit(ctx context.Context, state *SlotState, sub Submission) (*Outcome, error) {
	if err := p.validate(state, sub); err != nil {
		return nil, err
	}

	var binding map[CellKey]ShiftID
	if sub.Type == RequestAbsence {
		binding = state.BindingMap()
	}
	ranges := Compress(state.Selected(), binding)

	if sub.Type != RequestAbsence {
		ensured, err := p.ensureSlots(ctx, ranges)
		if err != nil {
			return nil, err
		}
		ranges = ensured
	}

	outcome := &Outcome{
		Ranges:         ranges,
		Summary:        Summarize(state),
		IdempotencyKey: uuid.NewString(),
	}

	var err error
	switch sub.Type {
	case RequestAssign:
		err = p.writeAssignment(ctx, sub, ranges, outcome.IdempotencyKey)
	default:
		err = p.writeRequest(ctx, sub, ranges, outcome.IdempotencyKey)
	}
	if err != nil {
		return nil, err
	}

	p.logger().Info("submission accepted",
		zap.String("type", string(sub.Type)),
		zap.String("user", sub.UserID),
		zap.Int("ranges", len(ranges)))

	if p.Reconciler != nil {
		if err := p.Reconciler.Refresh(ctx); err != nil {
			// The write itself succeeded; report the refresh problem
			// alongside the outcome so the UI can offer a manual reload.
			return outcome, err
		}
	}
	return outcome, nil
}

// validate enforces the request-type preconditions. Order matters: the
// cheapest checks run first and everything fails before any network call.
func (p *Pipeline) validate(state *SlotState, sub Submission) error {
	if state.SelectionSize() == 0 {
		return ErrEmptySelection
	}
	if sub.ValidFrom.IsZero() {
		return fmt.Errorf("%w: valid_from is required", ErrInvalidDateRange)
	}
	if sub.ValidTo != nil && sub.ValidTo.Before(sub.ValidFrom) {
		return fmt.Errorf("%w: valid_to precedes valid_from", ErrInvalidDateRange)
	}

	switch sub.Type {
	case RequestAbsence:
		var unbound []CellKey
		for _, key := range state.Selected() {
			if _, ok := state.Binding(key); !ok {
				unbound = append(unbound, key)
			}
		}
		if len(unbound) > 0 {
			return &UnassignedSlotError{Keys: unbound}
		}
	case RequestExtra:
		var clashes []CellKey
		for _, key := range state.Selected() {
			if state.IsAssigned(key) {
				clashes = append(clashes, key)
			}
		}
		if len(clashes) > 0 {
			return &AlreadyAssignedError{Keys: clashes}
		}
	}
	return nil
}

// ensureSlots materializes a shift record for every range that lacks one,
// calling the collaborator once per distinct (weekday, start, end) span.
func (p *Pipeline) ensureSlots(ctx context.Context, ranges []Range) ([]Range, error) {
	ensured := make(map[string]ShiftID)
	out := make([]Range, len(ranges))
	for i, r := range ranges {
		out[i] = r
		if r.ShiftID != "" {
			continue
		}
		span := fmt.Sprintf("%d/%d/%d", r.Weekday, r.StartHour, r.EndHour)
		id, ok := ensured[span]
		if !ok {
			var err error
			id, err = p.Slots.EnsureSlot(ctx, r.Weekday, r.StartHour, r.EndHour)
			if err != nil {
				return nil, fmt.Errorf("ensure slot %s %s-%s: %w",
					r.Weekday, FormatClock(r.StartHour*60), FormatClock(r.EndHour*60), err)
			}
			ensured[span] = id
		}
		out[i].ShiftID = id
	}
	return out, nil
}

func (p *Pipeline) writeAssignment(ctx context.Context, sub Submission, ranges []Range, key string) error {
	if p.Bulk != nil {
		return p.Bulk.BulkAssign(ctx, BulkAssignment{
			UserID:         sub.UserID,
			ValidFrom:      sub.ValidFrom,
			ValidTo:        sub.ValidTo,
			Ranges:         ranges,
			IdempotencyKey: key,
		})
	}

	// Sequential fallback: stop at first failure, report how far we got.
	for i, r := range ranges {
		if err := p.PerRange.AssignRange(ctx, sub.UserID, sub.ValidFrom, sub.ValidTo, r); err != nil {
			if i > 0 {
				return &PartialSubmissionError{Applied: i, Total: len(ranges), Cause: err}
			}
			return err
		}
	}
	return nil
}

func (p *Pipeline) writeRequest(ctx context.Context, sub Submission, ranges []Range, key string) error {
	shiftIDs := make([]ShiftID, 0, len(ranges))
	seen := make(map[ShiftID]struct{})
	for _, r := range ranges {
		if r.ShiftID == "" {
			continue
		}
		if _, dup := seen[r.ShiftID]; dup {
			continue
		}
		seen[r.ShiftID] = struct{}{}
		shiftIDs = append(shiftIDs, r.ShiftID)
	}

	return p.Requests.SubmitRequest(ctx, RequestSubmission{
		Type:           sub.Type,
		UserID:         sub.UserID,
		TargetDate:     sub.ValidFrom,
		ShiftIDs:       shiftIDs,
		Ranges:         ranges,
		Reason:         sub.Reason,
		IdempotencyKey: key,
	})
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

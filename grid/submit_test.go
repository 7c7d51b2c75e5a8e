package grid_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/shiftboard/grid"
)

// Counting fakes: every test asserts not just outcomes but how many
// backend calls were (not) made.

type fakeEnsurer struct {
	calls []grid.Range
	err   error
}

func (f *fakeEnsurer) EnsureSlot(ctx context.Context, day grid.Weekday, startHour, endHour int) (grid.ShiftID, error) {
	f.calls = append(f.calls, grid.Range{Weekday: day, StartHour: startHour, EndHour: endHour})
	if f.err != nil {
		return "", f.err
	}
	return grid.ShiftID(fmt.Sprintf("slot-%d-%d-%d", day, startHour, endHour)), nil
}

type fakeBulk struct {
	calls []grid.BulkAssignment
	err   error
}

func (f *fakeBulk) BulkAssign(ctx context.Context, ba grid.BulkAssignment) error {
	f.calls = append(f.calls, ba)
	return f.err
}

type fakePerRange struct {
	calls   []grid.Range
	failAt  int // fail on the n-th call (1-based); 0 = never
	failErr error
}

func (f *fakePerRange) AssignRange(ctx context.Context, userID string, validFrom time.Time, validTo *time.Time, rng grid.Range) error {
	f.calls = append(f.calls, rng)
	if f.failAt > 0 && len(f.calls) == f.failAt {
		return f.failErr
	}
	return nil
}

type fakeRequests struct {
	calls []grid.RequestSubmission
	err   error
}

func (f *fakeRequests) SubmitRequest(ctx context.Context, sub grid.RequestSubmission) error {
	f.calls = append(f.calls, sub)
	return f.err
}

func selectedState(keys ...grid.CellKey) *grid.SlotState {
	st := grid.NewSlotState(grid.DefaultGrid())
	for _, key := range keys {
		st.Toggle(key)
	}
	return st
}

// =============================================================================
// LOCAL VALIDATION - Fails fast, no collaborator call
// =============================================================================

func TestSubmit_EmptySelection(t *testing.T) {
	ensurer, bulk := &fakeEnsurer{}, &fakeBulk{}
	p := &grid.Pipeline{Slots: ensurer, Bulk: bulk}

	_, err := p.Submit(context.Background(), selectedState(), grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
	})

	assert.ErrorIs(t, err, grid.ErrEmptySelection)
	assert.True(t, grid.IsValidationError(err))
	assert.Empty(t, ensurer.calls)
	assert.Empty(t, bulk.calls)
}

func TestSubmit_InvalidDateRange(t *testing.T) {
	p := &grid.Pipeline{Slots: &fakeEnsurer{}, Bulk: &fakeBulk{}}
	st := selectedState(grid.CellKeyFor(grid.Monday, 9))

	_, err := p.Submit(context.Background(), st, grid.Submission{
		Type:   grid.RequestAssign,
		UserID: "u1", // zero ValidFrom
	})
	assert.ErrorIs(t, err, grid.ErrInvalidDateRange)

	to := date(2026, time.February, 1)
	_, err = p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
		ValidTo:   &to,
	})
	assert.ErrorIs(t, err, grid.ErrInvalidDateRange, "valid_to before valid_from")
}

func TestSubmit_AbsenceRequiresBinding(t *testing.T) {
	// An absence containing any unbound cell is rejected before any
	// network call: no ensure-slot, no request write.
	ensurer, requests := &fakeEnsurer{}, &fakeRequests{}
	p := &grid.Pipeline{Slots: ensurer, Requests: requests}

	st := grid.NewSlotState(grid.DefaultGrid())
	st.MarkAssigned(grid.CellKeyFor(grid.Monday, 9), "s1")
	st.SeedSelectedFromAssigned()
	st.Toggle(grid.CellKeyFor(grid.Monday, 10)) // unbound cell joins the selection

	_, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAbsence,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, grid.ErrUnassignedSlotForAbsence)

	var unbound *grid.UnassignedSlotError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, []grid.CellKey{grid.CellKeyFor(grid.Monday, 10)}, unbound.Keys)

	assert.Empty(t, ensurer.calls, "no ensure-slot call may happen")
	assert.Empty(t, requests.calls, "no submission call may happen")
}

func TestSubmit_ExtraRejectsAssignedCells(t *testing.T) {
	ensurer, requests := &fakeEnsurer{}, &fakeRequests{}
	p := &grid.Pipeline{Slots: ensurer, Requests: requests}

	st := grid.NewSlotState(grid.DefaultGrid())
	st.MarkAssigned(grid.CellKeyFor(grid.Tuesday, 10), "s1")
	st.Toggle(grid.CellKeyFor(grid.Tuesday, 10)) // already assigned
	st.Toggle(grid.CellKeyFor(grid.Tuesday, 11))

	_, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestExtra,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 3),
	})

	assert.ErrorIs(t, err, grid.ErrSlotAlreadyAssigned)
	assert.Empty(t, ensurer.calls)
	assert.Empty(t, requests.calls)
}

// =============================================================================
// ASSIGNMENT SUBMISSION
// =============================================================================

func TestSubmit_BulkAssignment(t *testing.T) {
	ensurer, bulk := &fakeEnsurer{}, &fakeBulk{}
	p := &grid.Pipeline{Slots: ensurer, Bulk: bulk}

	st := selectedState(
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Monday, 10),
		grid.CellKeyFor(grid.Monday, 11),
		grid.CellKeyFor(grid.Monday, 13),
	)
	out, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
	})

	require.NoError(t, err)
	require.Len(t, bulk.calls, 1, "exactly one bulk call")
	ba := bulk.calls[0]
	assert.Equal(t, "u1", ba.UserID)
	require.Len(t, ba.Ranges, 2)
	assert.Equal(t, 9, ba.Ranges[0].StartHour)
	assert.Equal(t, 12, ba.Ranges[0].EndHour)
	assert.Equal(t, 13, ba.Ranges[1].StartHour)
	assert.Equal(t, 14, ba.Ranges[1].EndHour)
	assert.NotEmpty(t, ba.IdempotencyKey)
	assert.Equal(t, ba.IdempotencyKey, out.IdempotencyKey)

	// Each distinct span got exactly one ensure-slot call.
	assert.Len(t, ensurer.calls, 2)
	for _, r := range ba.Ranges {
		assert.NotEmpty(t, r.ShiftID, "ranges must carry materialized shift ids")
	}
}

func TestSubmit_EnsureSlotDeduplicatesSpans(t *testing.T) {
	// Identical spans (possible only through bound/unbound mixes) must not
	// trigger redundant ensure-slot calls; verify via two equal-span weeks.
	ensurer, bulk := &fakeEnsurer{}, &fakeBulk{}
	p := &grid.Pipeline{Slots: ensurer, Bulk: bulk}

	st := selectedState(
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Tuesday, 9),
	)
	_, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
	})

	require.NoError(t, err)
	// Same hours on different weekdays are distinct spans.
	assert.Len(t, ensurer.calls, 2)
}

func TestSubmit_BackendRejectionKeepsSelection(t *testing.T) {
	bulk := &fakeBulk{err: errors.New("overlapping assignment exists")}
	p := &grid.Pipeline{Slots: &fakeEnsurer{}, Bulk: bulk}

	st := selectedState(grid.CellKeyFor(grid.Monday, 9))
	before := st.Selected()

	out, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
	})

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Contains(t, err.Error(), "overlapping assignment exists", "backend message surfaced verbatim")
	assert.Equal(t, before, st.Selected(), "selection preserved for retry")
}

func TestSubmit_PerRangeFallbackStopsOnFirstFailure(t *testing.T) {
	per := &fakePerRange{failAt: 2, failErr: errors.New("conflict on second range")}
	p := &grid.Pipeline{Slots: &fakeEnsurer{}, PerRange: per} // no bulk endpoint

	st := selectedState(
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Tuesday, 9),
		grid.CellKeyFor(grid.Wednesday, 9),
	)
	_, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
	})

	require.Error(t, err)
	var partial *grid.PartialSubmissionError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, 1, partial.Applied)
	assert.Equal(t, 3, partial.Total)
	assert.Len(t, per.calls, 2, "processing stops at first failure")
}

// =============================================================================
// REQUEST SUBMISSION + RECONCILIATION HOOK
// =============================================================================

func TestSubmit_AbsenceCarriesShiftIDs(t *testing.T) {
	requests := &fakeRequests{}
	p := &grid.Pipeline{Slots: &fakeEnsurer{}, Requests: requests}

	st := grid.NewSlotState(grid.DefaultGrid())
	st.MarkAssigned(grid.CellKeyFor(grid.Monday, 9), "morning")
	st.MarkAssigned(grid.CellKeyFor(grid.Monday, 10), "morning")
	st.SeedSelectedFromAssigned()

	_, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAbsence,
		UserID:    "u1",
		ValidFrom: date(2026, time.March, 2),
		Reason:    "medical appointment",
	})

	require.NoError(t, err)
	require.Len(t, requests.calls, 1)
	sub := requests.calls[0]
	assert.Equal(t, grid.RequestAbsence, sub.Type)
	assert.Equal(t, []grid.ShiftID{"morning"}, sub.ShiftIDs, "duplicate shift ids collapse")
	assert.Equal(t, "medical appointment", sub.Reason)
	require.Len(t, sub.Ranges, 1)
	assert.Equal(t, grid.ShiftID("morning"), sub.Ranges[0].ShiftID)
}

func TestSubmit_SuccessTriggersReconcilerRefresh(t *testing.T) {
	// After a successful bulk assign, an echo-back reconciliation leaves
	// selected == assigned with exactly the submitted cells.
	week := date(2026, time.March, 2)
	reader := &fakeReader{views: map[string][]grid.AssignmentEvent{
		"u1": {eventOn(week, 9, 12, "s1")},
	}}
	st := grid.NewSlotState(grid.DefaultGrid())
	rec := grid.NewReconciler(reader, st, nil)
	rec.SetContext(grid.ViewContext{UserID: "u1", WeekStart: week, Type: grid.RequestAssign})

	p := &grid.Pipeline{Slots: &fakeEnsurer{}, Bulk: &fakeBulk{}, Reconciler: rec}

	st.Toggle(grid.CellKeyFor(grid.Monday, 9))
	st.Toggle(grid.CellKeyFor(grid.Monday, 10))
	st.Toggle(grid.CellKeyFor(grid.Monday, 11))

	out, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: week,
	})

	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, 1, reader.calls, "success triggers exactly one re-fetch")

	want := []grid.CellKey{
		grid.CellKeyFor(grid.Monday, 9),
		grid.CellKeyFor(grid.Monday, 10),
		grid.CellKeyFor(grid.Monday, 11),
	}
	assert.Equal(t, want, st.Assigned())
	assert.Equal(t, st.Assigned(), st.Selected(), "no extra or missing cells after echo-back")
}

func TestSubmit_RefreshFailureAfterAcceptedWrite(t *testing.T) {
	week := date(2026, time.March, 2)
	reader := &fakeReader{err: errors.New("timeout")}
	st := grid.NewSlotState(grid.DefaultGrid())
	rec := grid.NewReconciler(reader, st, nil)
	rec.SetContext(grid.ViewContext{UserID: "u1", WeekStart: week, Type: grid.RequestAssign})

	p := &grid.Pipeline{Slots: &fakeEnsurer{}, Bulk: &fakeBulk{}, Reconciler: rec}
	st.Toggle(grid.CellKeyFor(grid.Monday, 9))

	out, err := p.Submit(context.Background(), st, grid.Submission{
		Type:      grid.RequestAssign,
		UserID:    "u1",
		ValidFrom: week,
	})

	// The write landed; the outcome proves it even though refresh failed.
	require.NotNil(t, out)
	assert.ErrorIs(t, err, grid.ErrRefreshFailed)
}

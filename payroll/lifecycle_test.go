package payroll_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
	"github.com/warp/payroll-engine/taxdata"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const admin = "user-admin"

// newRunWithRecords seeds one employer, grants admin, and creates a run with
// the given number of DRAFT records.
func newRunWithRecords(t *testing.T, employees int) (*payroll.StateMachine, *store.Memory, *payroll.RunResult) {
	t.Helper()
	mem := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, mem.GrantAdmin(ctx, admin, "acme"))

	for i := 0; i < employees; i++ {
		emp := salariedEmployee(fmt.Sprintf("emp-%d", i+1))
		require.NoError(t, mem.PutEmployee(ctx, emp))
	}

	calc := payroll.NewPayCalculator(mem, mem, taxdata.US2024())
	orch := payroll.NewRunOrchestrator(calc, mem, mem)
	result, err := orch.CreateRun(ctx, "acme", biweeklyPeriod(t), nil)
	require.NoError(t, err)
	require.Equal(t, employees, result.Created)

	return payroll.NewStateMachine(mem, mem), mem, result
}

// =============================================================================
// HAPPY PATH
// =============================================================================

func TestLifecycle_DraftToApprovedToPaid(t *testing.T) {
	sm, _, result := newRunWithRecords(t, 1)
	ctx := context.Background()
	id := result.RecordIDs[0]

	rec, err := sm.Approve(ctx, id, admin)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, rec.Status)

	rec, err = sm.Finalize(ctx, id, admin)
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusPaid, rec.Status)
}

func TestLifecycle_RunSettlesWhenAllRecordsTerminal(t *testing.T) {
	sm, mem, result := newRunWithRecords(t, 2)
	ctx := context.Background()

	// Pay the first, void the second: both terminal, run settles.
	_, err := sm.Approve(ctx, result.RecordIDs[0], admin)
	require.NoError(t, err)
	_, err = sm.Finalize(ctx, result.RecordIDs[0], admin)
	require.NoError(t, err)

	run, err := mem.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunOpen, run.Status, "one record still non-terminal")

	_, err = sm.Void(ctx, result.RecordIDs[1], admin, "duplicate entry")
	require.NoError(t, err)

	run, err = mem.GetRun(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RunSettled, run.Status)
}

// =============================================================================
// INVALID TRANSITIONS
// =============================================================================

func TestLifecycle_DoubleApproveFails(t *testing.T) {
	sm, _, result := newRunWithRecords(t, 1)
	ctx := context.Background()
	id := result.RecordIDs[0]

	_, err := sm.Approve(ctx, id, admin)
	require.NoError(t, err)

	_, err = sm.Approve(ctx, id, admin)
	assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)

	var tErr *payroll.InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, payroll.StatusApproved, tErr.Current)
	assert.Equal(t, payroll.StatusDraft, tErr.Expected)
}

func TestLifecycle_FinalizeFromDraftFails(t *testing.T) {
	sm, _, result := newRunWithRecords(t, 1)

	_, err := sm.Finalize(context.Background(), result.RecordIDs[0], admin)
	assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)
}

func TestLifecycle_VoidPaidRecordFails(t *testing.T) {
	sm, _, result := newRunWithRecords(t, 1)
	ctx := context.Background()
	id := result.RecordIDs[0]

	_, err := sm.Approve(ctx, id, admin)
	require.NoError(t, err)
	_, err = sm.Finalize(ctx, id, admin)
	require.NoError(t, err)

	// PAID is terminal. A reversal is an accounting correction, not a void.
	_, err = sm.Void(ctx, id, admin, "should not work")
	assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)
}

func TestLifecycle_VoidStoresReason(t *testing.T) {
	sm, mem, result := newRunWithRecords(t, 1)
	ctx := context.Background()
	id := result.RecordIDs[0]

	rec, err := sm.Void(ctx, id, admin, "entered against wrong period")
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusVoid, rec.Status)
	assert.Equal(t, "entered against wrong period", rec.VoidReason)

	stored, err := mem.GetRecord(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "entered against wrong period", stored.VoidReason)
}

func TestLifecycle_VoidFromApproved(t *testing.T) {
	sm, _, result := newRunWithRecords(t, 1)
	ctx := context.Background()
	id := result.RecordIDs[0]

	_, err := sm.Approve(ctx, id, admin)
	require.NoError(t, err)

	rec, err := sm.Void(ctx, id, admin, "funding issue")
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusVoid, rec.Status)
}

// =============================================================================
// AUTHORIZATION
// =============================================================================

func TestLifecycle_UnauthorizedActor(t *testing.T) {
	sm, _, result := newRunWithRecords(t, 1)

	_, err := sm.Approve(context.Background(), result.RecordIDs[0], "user-stranger")
	assert.ErrorIs(t, err, payroll.ErrUnauthorized)
}

func TestLifecycle_UnknownRecord(t *testing.T) {
	sm, _, _ := newRunWithRecords(t, 1)

	_, err := sm.Approve(context.Background(), "rec-missing", admin)
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
}

// =============================================================================
// SETTLED RUNS STOP BLOCKING NEW ONES
// =============================================================================

func TestLifecycle_SettledRunNoLongerBlocksOverlap(t *testing.T) {
	sm, mem, result := newRunWithRecords(t, 1)
	ctx := context.Background()

	_, err := sm.Void(ctx, result.RecordIDs[0], admin, "rerun needed")
	require.NoError(t, err)

	// The settled run's period is free again.
	calc := payroll.NewPayCalculator(mem, mem, taxdata.US2024())
	orch := payroll.NewRunOrchestrator(calc, mem, mem)
	_, err = orch.CreateRun(ctx, "acme", biweeklyPeriod(t), nil)
	assert.NoError(t, err)
}

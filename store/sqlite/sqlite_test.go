package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func d(s string) decimal.Decimal { return payroll.MustDecimal(s) }

func testRecord(id, runID, employeeID string, end time.Time, gross string, status payroll.RecordStatus) payroll.PayrollRecord {
	now := time.Now().UTC()
	return payroll.PayrollRecord{
		ID:              payroll.RecordID(id),
		RunID:           payroll.RunID(runID),
		EmployerID:      "acme",
		EmployeeID:      payroll.EmployeeID(employeeID),
		PeriodStart:     end.AddDate(0, 0, -13),
		PeriodEnd:       end,
		PaymentDate:     end.AddDate(0, 0, 5),
		GrossPay:        d(gross),
		Bonuses:         decimal.Zero,
		Commissions:     decimal.Zero,
		TotalDeductions: decimal.Zero,
		NetPay:          d(gross),
		Status:          status,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func seedRun(t *testing.T, st *sqlite.Store, runID string, records ...payroll.RecordWithItems) {
	t.Helper()
	var start, end time.Time
	if len(records) > 0 {
		start = records[0].Record.PeriodStart
		end = records[0].Record.PeriodEnd
	}
	run := payroll.PayrollRun{
		ID:          payroll.RunID(runID),
		EmployerID:  "acme",
		PeriodStart: start,
		PeriodEnd:   end,
		PaymentDate: end,
		Status:      payroll.RunOpen,
		Created:     len(records),
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, st.CreateRunRecords(context.Background(), run, records))
}

// =============================================================================
// EMPLOYEE ROUND TRIP
// =============================================================================

func TestEmployeeRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	emp := payroll.Employee{
		ID:               "emp-1",
		EmployerID:       "acme",
		Name:             "Grace",
		CompensationType: payroll.CompHourly,
		Rate:             d("25.50"),
		PayFrequency:     payroll.FreqBiweekly,
		Status:           payroll.EmploymentActive,
		Withholding: payroll.Withholding{
			FilingStatus:     payroll.FilingMarriedJoint,
			Allowances:       2,
			ExtraWithholding: d("50"),
			ExemptFICA:       true,
		},
		HireDate: payroll.Date(2022, time.June, 1),
	}
	require.NoError(t, st.PutEmployee(ctx, emp))

	got, err := st.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, emp.Name, got.Name)
	assert.True(t, got.Rate.Equal(d("25.50")))
	assert.Equal(t, payroll.FilingMarriedJoint, got.Withholding.FilingStatus)
	assert.Equal(t, 2, got.Withholding.Allowances)
	assert.True(t, got.Withholding.ExtraWithholding.Equal(d("50")))
	assert.True(t, got.Withholding.ExemptFICA)
	assert.False(t, got.Withholding.ExemptFederal)
	assert.True(t, got.HireDate.Equal(payroll.Date(2022, time.June, 1)))

	_, err = st.GetEmployee(ctx, "ghost")
	assert.ErrorIs(t, err, payroll.ErrEmployeeNotFound)
}

func TestListActiveEmployees_FiltersStatusAndEmployer(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, e := range []struct {
		id, employer string
		status       payroll.EmploymentStatus
	}{
		{"emp-1", "acme", payroll.EmploymentActive},
		{"emp-2", "acme", payroll.EmploymentInactive},
		{"emp-3", "globex", payroll.EmploymentActive},
	} {
		require.NoError(t, st.PutEmployee(ctx, payroll.Employee{
			ID:               payroll.EmployeeID(e.id),
			EmployerID:       payroll.EmployerID(e.employer),
			Name:             e.id,
			CompensationType: payroll.CompWeekly,
			Rate:             d("1000"),
			Status:           e.status,
		}))
	}

	active, err := st.ListActiveEmployees(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, payroll.EmployeeID("emp-1"), active[0].ID)
}

// =============================================================================
// RECORDS AND ITEMS
// =============================================================================

func TestCreateRunRecords_AtomicWithItems(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := payroll.Date(2024, time.March, 17)
	rec := testRecord("rec-1", "run-1", "emp-1", end, "3000", payroll.StatusDraft)
	items := []payroll.DeductionItem{
		{RecordID: "rec-1", Type: payroll.DeductionSocialSecurity, Description: "Social security", Amount: d("186")},
		{RecordID: "rec-1", Type: payroll.DeductionMedicare, Description: "Medicare", Amount: d("43.50")},
	}
	seedRun(t, st, "run-1", payroll.RecordWithItems{Record: rec, Items: items})

	got, err := st.GetRecord(ctx, "rec-1")
	require.NoError(t, err)
	assert.True(t, got.GrossPay.Equal(d("3000")))
	assert.Equal(t, payroll.StatusDraft, got.Status)

	gotItems, err := st.GetDeductionItems(ctx, "rec-1")
	require.NoError(t, err)
	require.Len(t, gotItems, 2)
	assert.True(t, gotItems[0].Amount.Add(gotItems[1].Amount).Equal(d("229.50")))

	run, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.RunOpen, run.Status)

	records, err := st.ListRunRecords(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

// =============================================================================
// YEAR TO DATE
// =============================================================================

func TestYearToDate_SumsPaidRecordsBeforeDate(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	ssItem := func(rec, amount string) payroll.DeductionItem {
		return payroll.DeductionItem{RecordID: payroll.RecordID(rec), Type: payroll.DeductionSocialSecurity, Description: "Social security", Amount: d(amount)}
	}

	seedRun(t, st, "run-1",
		payroll.RecordWithItems{
			Record: testRecord("rec-1", "run-1", "emp-1", payroll.Date(2024, time.January, 14), "3000.25", payroll.StatusPaid),
			Items:  []payroll.DeductionItem{ssItem("rec-1", "186.02")},
		})
	seedRun(t, st, "run-2",
		payroll.RecordWithItems{
			Record: testRecord("rec-2", "run-2", "emp-1", payroll.Date(2024, time.January, 28), "3000.25", payroll.StatusPaid),
			Items:  []payroll.DeductionItem{ssItem("rec-2", "186.02")},
		})
	// DRAFT: excluded.
	seedRun(t, st, "run-3",
		payroll.RecordWithItems{
			Record: testRecord("rec-3", "run-3", "emp-1", payroll.Date(2024, time.February, 11), "3000.25", payroll.StatusDraft),
		})
	// Previous year: excluded.
	seedRun(t, st, "run-4",
		payroll.RecordWithItems{
			Record: testRecord("rec-4", "run-4", "emp-1", payroll.Date(2023, time.December, 17), "9999", payroll.StatusPaid),
		})
	// On or after the cutoff: excluded.
	seedRun(t, st, "run-5",
		payroll.RecordWithItems{
			Record: testRecord("rec-5", "run-5", "emp-1", payroll.Date(2024, time.March, 10), "3000.25", payroll.StatusPaid),
		})

	totals, err := st.YearToDate(ctx, "emp-1", 2024, payroll.Date(2024, time.March, 1))
	require.NoError(t, err)

	// Two qualifying records; decimal-exact sums, no REAL arithmetic drift.
	assert.True(t, totals.Gross.Equal(d("6000.50")), "gross %s", totals.Gross)
	assert.True(t, totals.SocialSecurityTax.Equal(d("372.04")), "ss %s", totals.SocialSecurityTax)
}

// =============================================================================
// CONDITIONAL STATUS UPDATES
// =============================================================================

func TestUpdateRecordStatus_CompareAndSet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := payroll.Date(2024, time.March, 17)
	seedRun(t, st, "run-1", payroll.RecordWithItems{
		Record: testRecord("rec-1", "run-1", "emp-1", end, "3000", payroll.StatusDraft),
	})

	rec, err := st.UpdateRecordStatus(ctx, "rec-1", payroll.StatusDraft, payroll.StatusApproved, "")
	require.NoError(t, err)
	assert.Equal(t, payroll.StatusApproved, rec.Status)

	// Second approve loses the compare-and-set.
	_, err = st.UpdateRecordStatus(ctx, "rec-1", payroll.StatusDraft, payroll.StatusApproved, "")
	assert.ErrorIs(t, err, payroll.ErrInvalidStateTransition)

	var tErr *payroll.InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, payroll.StatusApproved, tErr.Current)

	_, err = st.UpdateRecordStatus(ctx, "rec-missing", payroll.StatusDraft, payroll.StatusApproved, "")
	assert.ErrorIs(t, err, payroll.ErrRecordNotFound)
}

func TestUpdateRecordStatus_VoidReasonOnlyOnVoid(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := payroll.Date(2024, time.March, 17)
	seedRun(t, st, "run-1", payroll.RecordWithItems{
		Record: testRecord("rec-1", "run-1", "emp-1", end, "3000", payroll.StatusDraft),
	})

	rec, err := st.UpdateRecordStatus(ctx, "rec-1", payroll.StatusDraft, payroll.StatusVoid, "bad period")
	require.NoError(t, err)
	assert.Equal(t, "bad period", rec.VoidReason)
}

// =============================================================================
// RUNS
// =============================================================================

func TestFindOpenRunOverlap(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := payroll.Date(2024, time.March, 17)
	seedRun(t, st, "run-1", payroll.RecordWithItems{
		Record: testRecord("rec-1", "run-1", "emp-1", end, "3000", payroll.StatusDraft),
	})

	// Shares March 17 with the open run.
	found, err := st.FindOpenRunOverlap(ctx, "acme", payroll.Date(2024, time.March, 17), payroll.Date(2024, time.March, 30))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, payroll.RunID("run-1"), found.ID)

	// Adjacent period: no overlap.
	found, err = st.FindOpenRunOverlap(ctx, "acme", payroll.Date(2024, time.March, 18), payroll.Date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Nil(t, found)

	// Different employer: no overlap.
	found, err = st.FindOpenRunOverlap(ctx, "globex", payroll.Date(2024, time.March, 10), payroll.Date(2024, time.March, 20))
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestSettleRunIfTerminal(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	end := payroll.Date(2024, time.March, 17)
	seedRun(t, st, "run-1",
		payroll.RecordWithItems{Record: testRecord("rec-1", "run-1", "emp-1", end, "3000", payroll.StatusDraft)},
		payroll.RecordWithItems{Record: testRecord("rec-2", "run-1", "emp-2", end, "3000", payroll.StatusDraft)},
	)

	// One record still DRAFT: the run stays OPEN.
	_, err := st.UpdateRecordStatus(ctx, "rec-1", payroll.StatusDraft, payroll.StatusVoid, "x")
	require.NoError(t, err)
	require.NoError(t, st.SettleRunIfTerminal(ctx, "run-1"))

	run, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.RunOpen, run.Status)

	// All terminal: settles.
	_, err = st.UpdateRecordStatus(ctx, "rec-2", payroll.StatusDraft, payroll.StatusApproved, "")
	require.NoError(t, err)
	_, err = st.UpdateRecordStatus(ctx, "rec-2", payroll.StatusApproved, payroll.StatusPaid, "")
	require.NoError(t, err)
	require.NoError(t, st.SettleRunIfTerminal(ctx, "run-1"))

	run, err = st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, payroll.RunSettled, run.Status)

	// A settled run no longer matches the overlap scan.
	found, err := st.FindOpenRunOverlap(ctx, "acme", payroll.Date(2024, time.March, 10), payroll.Date(2024, time.March, 20))
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestListRuns_NewestFirst(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	older := payroll.PayrollRun{
		ID: "run-1", EmployerID: "acme", Status: payroll.RunSettled,
		PeriodStart: payroll.Date(2024, time.February, 1),
		PeriodEnd:   payroll.Date(2024, time.February, 14),
		PaymentDate: payroll.Date(2024, time.February, 16),
		CreatedAt:   time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC),
	}
	newer := older
	newer.ID = "run-2"
	newer.CreatedAt = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	require.NoError(t, st.CreateRunRecords(ctx, older, nil))
	require.NoError(t, st.CreateRunRecords(ctx, newer, nil))

	runs, err := st.ListRuns(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, payroll.RunID("run-2"), runs[0].ID)
}

// =============================================================================
// AUTHORIZER
// =============================================================================

func TestCanManagePayroll(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.GrantAdmin(ctx, "user-1", "acme"))

	ok, err := st.CanManagePayroll(ctx, "user-1", "acme")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.CanManagePayroll(ctx, "user-1", "globex")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = st.CanManagePayroll(ctx, "user-2", "acme")
	require.NoError(t, err)
	assert.False(t, ok)
}

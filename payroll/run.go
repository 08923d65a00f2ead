/*
run.go - Payroll run orchestration

PURPOSE:
  Builds a payroll run across many employees: selects eligible employees,
  refuses periods that overlap an open run for the same employer, computes
  each employee's breakdown, and persists the run with its DRAFT records and
  deduction items. A single employee's failure never aborts the run; it is
  recorded and the rest continue (partial-success policy).

CHECK-THEN-ACT RACE:
  The overlap check and the creation must not interleave across two
  concurrent calls for the same employer, or both would pass the check. The
  orchestrator serializes the sequence with a per-employer mutex; stores may
  additionally enforce uniqueness at write time.
*/
package payroll

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// RunFailure records one employee the run could not pay.
type RunFailure struct {
	EmployeeID EmployeeID
	Reason     string
}

// RunResult reports what a run created and what it skipped.
type RunResult struct {
	RunID     RunID
	Created   int
	Failed    int
	RecordIDs []RecordID
	Failures  []RunFailure
}

// RunOrchestrator creates payroll runs.
type RunOrchestrator struct {
	Calc      *PayCalculator
	Employees EmployeeStore
	Records   RecordStore

	// IDs generates run and record identifiers; overridable in tests.
	IDs IDGenerator

	mu    sync.Mutex
	locks map[EmployerID]*sync.Mutex
}

// IDGenerator mints identifiers for runs and records.
type IDGenerator interface {
	NewRunID() RunID
	NewRecordID() RecordID
}

// NewRunOrchestrator wires an orchestrator over the calculator and stores.
func NewRunOrchestrator(calc *PayCalculator, employees EmployeeStore, records RecordStore) *RunOrchestrator {
	return &RunOrchestrator{
		Calc:      calc,
		Employees: employees,
		Records:   records,
		IDs:       timestampIDs{},
		locks:     make(map[EmployerID]*sync.Mutex),
	}
}

// CreateRun builds one payroll run. employeeIDs optionally restricts the
// selection; nil means every ACTIVE employee of the employer.
//
// Runs carry no per-employee hours input, so HOURLY employees come out with
// zero base pay here; pay them through the single-employee calculate path,
// which accepts worked hours.
func (o *RunOrchestrator) CreateRun(ctx context.Context, employerID EmployerID, period PayPeriod, employeeIDs []EmployeeID) (*RunResult, error) {
	if period.End.Before(period.Start) {
		return nil, ErrInvalidPeriod
	}

	// Serialize check-overlap-then-create per employer.
	lock := o.employerLock(employerID)
	lock.Lock()
	defer lock.Unlock()

	eligible, err := o.selectEmployees(ctx, employerID, employeeIDs)
	if err != nil {
		return nil, err
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleEmployees
	}

	if existing, err := o.Records.FindOpenRunOverlap(ctx, employerID, period.Start, period.End); err != nil {
		return nil, fmt.Errorf("overlap check: %w", err)
	} else if existing != nil {
		return nil, &OverlapError{
			EmployerID: employerID,
			RunID:      existing.ID,
			Start:      existing.PeriodStart,
			End:        existing.PeriodEnd,
		}
	}

	runID := o.IDs.NewRunID()
	now := time.Now().UTC()

	var records []RecordWithItems
	result := RunResult{RunID: runID}
	for i := range eligible {
		emp := &eligible[i]
		breakdown, err := o.Calc.CalculatePay(ctx, emp.ID, period, PayInput{})
		if err != nil {
			// Partial-success policy: skip this employee, keep the rest.
			log.Printf("payroll run %s: employee %s skipped: %v", runID, emp.ID, err)
			result.Failed++
			result.Failures = append(result.Failures, RunFailure{EmployeeID: emp.ID, Reason: err.Error()})
			continue
		}

		recordID := o.IDs.NewRecordID()
		items := make([]DeductionItem, len(breakdown.Deductions))
		for j, item := range breakdown.Deductions {
			item.RecordID = recordID
			items[j] = item
		}
		records = append(records, RecordWithItems{
			Record: PayrollRecord{
				ID:              recordID,
				RunID:           runID,
				EmployerID:      employerID,
				EmployeeID:      emp.ID,
				PeriodStart:     period.Start,
				PeriodEnd:       period.End,
				PaymentDate:     period.PaymentDate,
				GrossPay:        breakdown.Gross.Total,
				Bonuses:         breakdown.Gross.Bonuses,
				Commissions:     breakdown.Gross.Commissions,
				TotalDeductions: breakdown.TotalDeductions,
				NetPay:          breakdown.NetPay,
				Status:          StatusDraft,
				CreatedAt:       now,
				UpdatedAt:       now,
			},
			Items: items,
		})
		result.Created++
		result.RecordIDs = append(result.RecordIDs, recordID)
	}

	// A run with no records has nothing left to transition, so it settles
	// immediately; persisting it OPEN would block the period forever.
	status := RunOpen
	if result.Created == 0 {
		status = RunSettled
	}

	run := PayrollRun{
		ID:          runID,
		EmployerID:  employerID,
		PeriodStart: period.Start,
		PeriodEnd:   period.End,
		PaymentDate: period.PaymentDate,
		Status:      status,
		Created:     result.Created,
		Failed:      result.Failed,
		CreatedAt:   now,
	}
	if err := o.Records.CreateRunRecords(ctx, run, records); err != nil {
		return nil, fmt.Errorf("persist run %s: %w", runID, err)
	}
	return &result, nil
}

// selectEmployees returns ACTIVE employees, intersected with the requested
// subset when one is given. Requested employees that are unknown or inactive
// simply drop out of the selection; an empty result is the caller's error.
func (o *RunOrchestrator) selectEmployees(ctx context.Context, employerID EmployerID, subset []EmployeeID) ([]Employee, error) {
	active, err := o.Employees.ListActiveEmployees(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("list active employees: %w", err)
	}
	if subset == nil {
		return active, nil
	}
	wanted := make(map[EmployeeID]bool, len(subset))
	for _, id := range subset {
		wanted[id] = true
	}
	var out []Employee
	for _, emp := range active {
		if wanted[emp.ID] {
			out = append(out, emp)
		}
	}
	return out, nil
}

func (o *RunOrchestrator) employerLock(id EmployerID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.locks[id] == nil {
		o.locks[id] = &sync.Mutex{}
	}
	return o.locks[id]
}

// timestampIDs is the default id scheme, matching record counts per process.
type timestampIDs struct{}

var idCounter struct {
	mu sync.Mutex
	n  int64
}

func nextID(prefix string) string {
	idCounter.mu.Lock()
	idCounter.n++
	n := idCounter.n
	idCounter.mu.Unlock()
	return fmt.Sprintf("%s-%d-%d", prefix, time.Now().UnixNano(), n)
}

func (timestampIDs) NewRunID() RunID       { return RunID(nextID("run")) }
func (timestampIDs) NewRecordID() RecordID { return RecordID(nextID("rec")) }

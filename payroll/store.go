/*
store.go - Persistence interfaces for the payroll engine

PURPOSE:
  Defines the narrow contracts between the engine and storage. The engine
  reads employees and PAID history, writes new runs with their records and
  deduction items as an atomic group, and mutates record status only through
  a conditional update.

CONDITIONAL UPDATES:
  UpdateRecordStatus is compare-and-set: the store must only apply the update
  if the current status equals the expected predecessor, and must return
  *InvalidTransitionError otherwise. This is what makes two concurrent
  approve/finalize calls on the same record safe.

IMPLEMENTATIONS:
  - payroll/store (memory): mutex-guarded maps for tests and dev
  - store/sqlite: production-shaped persistence with WAL and CAS UPDATEs
*/
package payroll

import (
	"context"
	"time"
)

// EmployeeStore reads employee records. The employee/history store is an
// external collaborator; employees are read-only to this engine.
type EmployeeStore interface {
	// GetEmployee returns ErrEmployeeNotFound if the id is unknown.
	GetEmployee(ctx context.Context, id EmployeeID) (*Employee, error)

	// ListActiveEmployees returns all ACTIVE employees of an employer.
	ListActiveEmployees(ctx context.Context, employerID EmployerID) ([]Employee, error)
}

// RecordWithItems pairs a record with its deduction items for atomic writes.
type RecordWithItems struct {
	Record PayrollRecord
	Items  []DeductionItem
}

// RecordStore persists payroll runs, records, and deduction items.
type RecordStore interface {
	// CreateRunRecords persists a run and its records (each with deduction
	// items) atomically. Records arrive in DRAFT.
	CreateRunRecords(ctx context.Context, run PayrollRun, records []RecordWithItems) error

	// GetRecord returns ErrRecordNotFound if the id is unknown.
	GetRecord(ctx context.Context, id RecordID) (*PayrollRecord, error)

	// GetDeductionItems returns the items of one record.
	GetDeductionItems(ctx context.Context, id RecordID) ([]DeductionItem, error)

	// YearToDate sums gross pay and withheld SS/medicare across PAID records
	// of the calendar year whose periods ended strictly before `before`.
	YearToDate(ctx context.Context, employeeID EmployeeID, year int, before time.Time) (YTDTotals, error)

	// UpdateRecordStatus conditionally moves a record from `from` to `to`,
	// returning the updated record. Must fail with *InvalidTransitionError
	// when the current status differs from `from`. The note is stored as the
	// void reason for transitions to VOID.
	UpdateRecordStatus(ctx context.Context, id RecordID, from, to RecordStatus, note string) (*PayrollRecord, error)

	// FindOpenRunOverlap returns the OPEN run of the employer whose period
	// overlaps [start, end], or nil when none exists. A run is OPEN while
	// any of its records is DRAFT or APPROVED.
	FindOpenRunOverlap(ctx context.Context, employerID EmployerID, start, end time.Time) (*PayrollRun, error)

	// SettleRunIfTerminal marks the run SETTLED once every one of its
	// records is PAID or VOID. No-op otherwise.
	SettleRunIfTerminal(ctx context.Context, id RunID) error

	// GetRun returns a run aggregate by id.
	GetRun(ctx context.Context, id RunID) (*PayrollRun, error)

	// ListRuns returns an employer's runs, newest first.
	ListRuns(ctx context.Context, employerID EmployerID) ([]PayrollRun, error)

	// ListRunRecords returns the records belonging to a run.
	ListRunRecords(ctx context.Context, id RunID) ([]PayrollRecord, error)
}

// Authorizer answers whether an acting user administers an employer's
// payroll. Authentication itself lives outside this engine.
type Authorizer interface {
	CanManagePayroll(ctx context.Context, userID string, employerID EmployerID) (bool, error)
}

/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the HTTP layer uses the
  classification helpers to pick status codes.

ERROR CATEGORIES:
  1. Lookup errors    - missing employee or record
  2. Validation errors - business rule violations (inactive employee,
     overlapping run, empty selection, bad period)
  3. Lifecycle errors  - wrong-status transitions, unauthorized actors

PROPAGATION POLICY:
  Per-employee failures inside a run are collected and reported in the run
  result, never surfaced as a whole-run failure. Every other error aborts
  the single operation that raised it. Nothing is silently corrected.
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a referenced employee doesn't exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRecordNotFound is returned when a referenced payroll record doesn't exist.
	ErrRecordNotFound = errors.New("payroll record not found")

	// ErrEmployeeInactive is returned on an attempt to pay a non-ACTIVE employee.
	ErrEmployeeInactive = errors.New("employee is not active")

	// ErrOverlappingRun is returned when a non-terminal run already covers the
	// requested period for the same employer.
	ErrOverlappingRun = errors.New("overlapping payroll run in progress")

	// ErrNoEligibleEmployees is returned when a run's employee selection is empty.
	ErrNoEligibleEmployees = errors.New("no eligible employees for payroll run")

	// ErrInvalidStateTransition is returned when approve/finalize/void is
	// attempted from the wrong status.
	ErrInvalidStateTransition = errors.New("invalid payroll state transition")

	// ErrUnauthorized is returned when the acting party does not administer
	// the record's employer.
	ErrUnauthorized = errors.New("actor not authorized for employer")

	// ErrInvalidPeriod is returned when a pay period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid pay period: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidTransitionError reports which transition was refused and why.
type InvalidTransitionError struct {
	RecordID RecordID
	Current  RecordStatus
	Expected RecordStatus
	Target   RecordStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move record %s to %s: status is %s, expected %s",
		e.RecordID, e.Target, e.Current, e.Expected)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// OverlapError reports the run that blocks a new run's period.
type OverlapError struct {
	EmployerID EmployerID
	RunID      RunID
	Start      time.Time
	End        time.Time
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("employer %s already has open run %s covering %s to %s",
		e.EmployerID, e.RunID, e.Start.Format("2006-01-02"), e.End.Format("2006-01-02"))
}

func (e *OverlapError) Unwrap() error { return ErrOverlappingRun }

// InactiveEmployeeError names the employee that could not be paid.
type InactiveEmployeeError struct {
	EmployeeID EmployeeID
	Status     EmploymentStatus
}

func (e *InactiveEmployeeError) Error() string {
	return fmt.Sprintf("employee %s cannot be paid: status %s", e.EmployeeID, e.Status)
}

func (e *InactiveEmployeeError) Unwrap() error { return ErrEmployeeInactive }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrRecordNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrEmployeeInactive) ||
		errors.Is(err, ErrOverlappingRun) ||
		errors.Is(err, ErrNoEligibleEmployees) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrInvalidPeriod)
}

// Package store provides in-memory implementations of the payroll storage
// interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// MEMORY STORE - Implements EmployeeStore, RecordStore, and Authorizer
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[payroll.EmployeeID]payroll.Employee
	records   map[payroll.RecordID]payroll.PayrollRecord
	items     map[payroll.RecordID][]payroll.DeductionItem
	runs      map[payroll.RunID]payroll.PayrollRun
	admins    map[string]map[payroll.EmployerID]bool
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[payroll.EmployeeID]payroll.Employee),
		records:   make(map[payroll.RecordID]payroll.PayrollRecord),
		items:     make(map[payroll.RecordID][]payroll.DeductionItem),
		runs:      make(map[payroll.RunID]payroll.PayrollRun),
		admins:    make(map[string]map[payroll.EmployerID]bool),
	}
}

// -----------------------------------------------------------------------------
// Seeding (the employee store is an external collaborator; these helpers
// stand in for it)
// -----------------------------------------------------------------------------

// PutEmployee inserts or replaces an employee record.
func (m *Memory) PutEmployee(_ context.Context, emp payroll.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

// PutRecord inserts a record with its items directly, bypassing the
// orchestrator. Test seeding only.
func (m *Memory) PutRecord(rec payroll.PayrollRecord, items []payroll.DeductionItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	m.items[rec.ID] = append([]payroll.DeductionItem(nil), items...)
}

// GrantAdmin marks a user as payroll administrator for an employer.
func (m *Memory) GrantAdmin(_ context.Context, userID string, employerID payroll.EmployerID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.admins[userID] == nil {
		m.admins[userID] = make(map[payroll.EmployerID]bool)
	}
	m.admins[userID][employerID] = true
	return nil
}

// -----------------------------------------------------------------------------
// EmployeeStore
// -----------------------------------------------------------------------------

func (m *Memory) GetEmployee(_ context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[id]
	if !ok {
		return nil, payroll.ErrEmployeeNotFound
	}
	return &emp, nil
}

func (m *Memory) ListActiveEmployees(_ context.Context, employerID payroll.EmployerID) ([]payroll.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.Employee
	for _, emp := range m.employees {
		if emp.EmployerID == employerID && emp.Status == payroll.EmploymentActive {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// RecordStore
// -----------------------------------------------------------------------------

func (m *Memory) CreateRunRecords(_ context.Context, run payroll.PayrollRun, records []payroll.RecordWithItems) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = run
	for _, rw := range records {
		m.records[rw.Record.ID] = rw.Record
		m.items[rw.Record.ID] = append([]payroll.DeductionItem(nil), rw.Items...)
	}
	return nil
}

func (m *Memory) GetRecord(_ context.Context, id payroll.RecordID) (*payroll.PayrollRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, payroll.ErrRecordNotFound
	}
	return &rec, nil
}

func (m *Memory) GetDeductionItems(_ context.Context, id payroll.RecordID) ([]payroll.DeductionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.records[id]; !ok {
		return nil, payroll.ErrRecordNotFound
	}
	return append([]payroll.DeductionItem(nil), m.items[id]...), nil
}

func (m *Memory) YearToDate(_ context.Context, employeeID payroll.EmployeeID, year int, before time.Time) (payroll.YTDTotals, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	totals := payroll.YTDTotals{
		Gross:             decimal.Zero,
		SocialSecurityTax: decimal.Zero,
		MedicareTax:       decimal.Zero,
	}
	for id, rec := range m.records {
		if rec.EmployeeID != employeeID || rec.Status != payroll.StatusPaid {
			continue
		}
		if rec.PeriodStart.Year() != year || !rec.PeriodEnd.Before(before) {
			continue
		}
		totals.Gross = totals.Gross.Add(rec.GrossPay)
		for _, item := range m.items[id] {
			switch item.Type {
			case payroll.DeductionSocialSecurity:
				totals.SocialSecurityTax = totals.SocialSecurityTax.Add(item.Amount)
			case payroll.DeductionMedicare:
				totals.MedicareTax = totals.MedicareTax.Add(item.Amount)
			}
		}
	}
	return totals, nil
}

func (m *Memory) UpdateRecordStatus(_ context.Context, id payroll.RecordID, from, to payroll.RecordStatus, note string) (*payroll.PayrollRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, payroll.ErrRecordNotFound
	}
	// Compare-and-set: the whole point of this method.
	if rec.Status != from {
		return nil, &payroll.InvalidTransitionError{
			RecordID: id,
			Current:  rec.Status,
			Expected: from,
			Target:   to,
		}
	}
	rec.Status = to
	rec.UpdatedAt = time.Now().UTC()
	if to == payroll.StatusVoid {
		rec.VoidReason = note
	}
	m.records[id] = rec
	return &rec, nil
}

func (m *Memory) FindOpenRunOverlap(_ context.Context, employerID payroll.EmployerID, start, end time.Time) (*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, run := range m.runs {
		if run.EmployerID != employerID || run.Status != payroll.RunOpen {
			continue
		}
		if !run.PeriodStart.After(end) && !start.After(run.PeriodEnd) {
			found := run
			return &found, nil
		}
	}
	return nil, nil
}

func (m *Memory) SettleRunIfTerminal(_ context.Context, id payroll.RunID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok || run.Status != payroll.RunOpen {
		return nil
	}
	for _, rec := range m.records {
		if rec.RunID == id && !rec.Status.Terminal() {
			return nil
		}
	}
	run.Status = payroll.RunSettled
	m.runs[id] = run
	return nil
}

func (m *Memory) GetRun(_ context.Context, id payroll.RunID) (*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, payroll.ErrRecordNotFound
	}
	return &run, nil
}

func (m *Memory) ListRuns(_ context.Context, employerID payroll.EmployerID) ([]payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PayrollRun
	for _, run := range m.runs {
		if run.EmployerID == employerID {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListRunRecords(_ context.Context, id payroll.RunID) ([]payroll.PayrollRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.PayrollRecord
	for _, rec := range m.records {
		if rec.RunID == id {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// -----------------------------------------------------------------------------
// Authorizer
// -----------------------------------------------------------------------------

func (m *Memory) CanManagePayroll(_ context.Context, userID string, employerID payroll.EmployerID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.admins[userID][employerID], nil
}

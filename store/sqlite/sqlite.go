/*
Package sqlite provides a SQLite-backed implementation of the payroll
storage interfaces.

PURPOSE:
  Implements EmployeeStore, RecordStore, and Authorizer using SQLite. In
  production the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  employees        Employee records with compensation + withholding config
  employer_admins  Who may manage an employer's payroll
  payroll_runs     First-class run aggregates (period, counts, OPEN/SETTLED)
  payroll_records  One employee's result per run, with lifecycle status
  deduction_items  Withholding lines, created atomically with their record

PRECISION:
  Money is stored as TEXT decimal strings and summed in Go with
  shopspring/decimal. SQLite REAL arithmetic is never used for amounts.

CONDITIONAL UPDATES:
  Status transitions use UPDATE ... WHERE id = ? AND status = ?, so two
  concurrent approve/finalize calls cannot both succeed. Zero rows affected
  means either a missing record or a wrong predecessor; the store re-reads
  to report which.

WAL MODE:
  The database is opened with WAL for better concurrency: readers don't
  block, a single writer at a time, better crash recovery.

USAGE:
  st, err := sqlite.New("./data/payroll.db")   // ":memory:" for tests
  if err != nil { log.Fatal(err) }
  defer st.Close()

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-engine/payroll"
)

const dateFormat = "2006-01-02"

// Store implements the payroll storage interfaces using SQLite.
type Store struct {
	db *sql.DB
}

// New creates a SQLite store at the given path. Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		employer_id TEXT NOT NULL,
		name TEXT NOT NULL,
		compensation_type TEXT NOT NULL,
		rate TEXT NOT NULL,
		pay_frequency TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		filing_status TEXT NOT NULL DEFAULT 'SINGLE',
		allowances INTEGER NOT NULL DEFAULT 0,
		extra_withholding TEXT NOT NULL DEFAULT '0',
		exempt_fica BOOLEAN NOT NULL DEFAULT FALSE,
		exempt_federal BOOLEAN NOT NULL DEFAULT FALSE,
		hire_date TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_employees_employer_status
		ON employees(employer_id, status);

	CREATE TABLE IF NOT EXISTS employer_admins (
		user_id TEXT NOT NULL,
		employer_id TEXT NOT NULL,
		PRIMARY KEY (user_id, employer_id)
	);

	CREATE TABLE IF NOT EXISTS payroll_runs (
		id TEXT PRIMARY KEY,
		employer_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Overlap checks scan an employer's OPEN runs.
	CREATE INDEX IF NOT EXISTS idx_runs_employer_status
		ON payroll_runs(employer_id, status);

	CREATE TABLE IF NOT EXISTS payroll_records (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		employer_id TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		gross_pay TEXT NOT NULL,
		bonuses TEXT NOT NULL,
		commissions TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		net_pay TEXT NOT NULL,
		status TEXT NOT NULL,
		void_reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- YTD derivation: PAID records per employee per year (hot path).
	CREATE INDEX IF NOT EXISTS idx_records_employee_status_period
		ON payroll_records(employee_id, status, period_end);
	CREATE INDEX IF NOT EXISTS idx_records_run
		ON payroll_records(run_id);

	CREATE TABLE IF NOT EXISTS deduction_items (
		record_id TEXT NOT NULL,
		item_type TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_record
		ON deduction_items(record_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SEEDING - the employee store is an external collaborator in the design;
// these writes stand in for it
// =============================================================================

// PutEmployee inserts or replaces an employee record.
func (s *Store) PutEmployee(ctx context.Context, emp payroll.Employee) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO employees
		(id, employer_id, name, compensation_type, rate, pay_frequency, status,
		 filing_status, allowances, extra_withholding, exempt_fica, exempt_federal, hire_date)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		string(emp.ID), string(emp.EmployerID), emp.Name,
		string(emp.CompensationType), emp.Rate.String(), string(emp.PayFrequency),
		string(emp.Status), string(emp.Withholding.FilingStatus), emp.Withholding.Allowances,
		emp.Withholding.ExtraWithholding.String(), emp.Withholding.ExemptFICA,
		emp.Withholding.ExemptFederal, emp.HireDate.Format(dateFormat))
	return err
}

// GrantAdmin marks a user as payroll administrator for an employer.
func (s *Store) GrantAdmin(ctx context.Context, userID string, employerID payroll.EmployerID) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO employer_admins (user_id, employer_id) VALUES (?,?)",
		userID, string(employerID))
	return err
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

const employeeColumns = `id, employer_id, name, compensation_type, rate, pay_frequency,
	status, filing_status, allowances, extra_withholding, exempt_fica, exempt_federal, hire_date`

func (s *Store) GetEmployee(ctx context.Context, id payroll.EmployeeID) (*payroll.Employee, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE id = ?", string(id))
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payroll.ErrEmployeeNotFound
	}
	return emp, err
}

func (s *Store) ListActiveEmployees(ctx context.Context, employerID payroll.EmployerID) ([]payroll.Employee, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+employeeColumns+" FROM employees WHERE employer_id = ? AND status = ? ORDER BY id",
		string(employerID), string(payroll.EmploymentActive))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *emp)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(r rowScanner) (*payroll.Employee, error) {
	var (
		emp                            payroll.Employee
		rate, extra, hireDate          string
		compType, freq, status, filing string
	)
	if err := r.Scan(&emp.ID, &emp.EmployerID, &emp.Name, &compType, &rate, &freq,
		&status, &filing, &emp.Withholding.Allowances, &extra,
		&emp.Withholding.ExemptFICA, &emp.Withholding.ExemptFederal, &hireDate); err != nil {
		return nil, err
	}
	var err error
	emp.CompensationType = payroll.CompensationType(compType)
	emp.PayFrequency = payroll.PayFrequency(freq)
	emp.Status = payroll.EmploymentStatus(status)
	emp.Withholding.FilingStatus = payroll.FilingStatus(filing)
	if emp.Rate, err = decimal.NewFromString(rate); err != nil {
		return nil, fmt.Errorf("employee %s: bad rate %q", emp.ID, rate)
	}
	if emp.Withholding.ExtraWithholding, err = decimal.NewFromString(extra); err != nil {
		return nil, fmt.Errorf("employee %s: bad extra withholding %q", emp.ID, extra)
	}
	if hireDate != "" {
		emp.HireDate, _ = time.Parse(dateFormat, hireDate)
	}
	return &emp, nil
}

// =============================================================================
// RECORD STORE
// =============================================================================

func (s *Store) CreateRunRecords(ctx context.Context, run payroll.PayrollRun, records []payroll.RecordWithItems) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO payroll_runs
		(id, employer_id, period_start, period_end, payment_date, status, created_count, failed_count, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		string(run.ID), string(run.EmployerID),
		run.PeriodStart.Format(dateFormat), run.PeriodEnd.Format(dateFormat),
		run.PaymentDate.Format(dateFormat), string(run.Status),
		run.Created, run.Failed, run.CreatedAt.Format(time.RFC3339)); err != nil {
		return err
	}

	for _, rw := range records {
		rec := rw.Record
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO payroll_records
			(id, run_id, employer_id, employee_id, period_start, period_end, payment_date,
			 gross_pay, bonuses, commissions, total_deductions, net_pay, status, void_reason,
			 created_at, updated_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			string(rec.ID), string(rec.RunID), string(rec.EmployerID), string(rec.EmployeeID),
			rec.PeriodStart.Format(dateFormat), rec.PeriodEnd.Format(dateFormat),
			rec.PaymentDate.Format(dateFormat),
			rec.GrossPay.String(), rec.Bonuses.String(), rec.Commissions.String(),
			rec.TotalDeductions.String(), rec.NetPay.String(),
			string(rec.Status), rec.VoidReason,
			rec.CreatedAt.Format(time.RFC3339), rec.UpdatedAt.Format(time.RFC3339)); err != nil {
			return err
		}
		for _, item := range rw.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO deduction_items (record_id, item_type, description, amount)
				VALUES (?,?,?,?)`,
				string(rec.ID), string(item.Type), item.Description, item.Amount.String()); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

const recordColumns = `id, run_id, employer_id, employee_id, period_start, period_end,
	payment_date, gross_pay, bonuses, commissions, total_deductions, net_pay,
	status, void_reason, created_at, updated_at`

func (s *Store) GetRecord(ctx context.Context, id payroll.RecordID) (*payroll.PayrollRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM payroll_records WHERE id = ?", string(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payroll.ErrRecordNotFound
	}
	return rec, err
}

func scanRecord(r rowScanner) (*payroll.PayrollRecord, error) {
	var (
		rec                                   payroll.PayrollRecord
		start, end, payment, created, updated string
		gross, bonuses, commissions, tot, net string
		status                                string
	)
	if err := r.Scan(&rec.ID, &rec.RunID, &rec.EmployerID, &rec.EmployeeID,
		&start, &end, &payment, &gross, &bonuses, &commissions, &tot, &net,
		&status, &rec.VoidReason, &created, &updated); err != nil {
		return nil, err
	}
	rec.Status = payroll.RecordStatus(status)
	rec.PeriodStart, _ = time.Parse(dateFormat, start)
	rec.PeriodEnd, _ = time.Parse(dateFormat, end)
	rec.PaymentDate, _ = time.Parse(dateFormat, payment)
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updated)

	for _, pair := range []struct {
		dst *decimal.Decimal
		src string
	}{
		{&rec.GrossPay, gross},
		{&rec.Bonuses, bonuses},
		{&rec.Commissions, commissions},
		{&rec.TotalDeductions, tot},
		{&rec.NetPay, net},
	} {
		d, err := decimal.NewFromString(pair.src)
		if err != nil {
			return nil, fmt.Errorf("record %s: bad amount %q", rec.ID, pair.src)
		}
		*pair.dst = d
	}
	return &rec, nil
}

func (s *Store) GetDeductionItems(ctx context.Context, id payroll.RecordID) ([]payroll.DeductionItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT record_id, item_type, description, amount FROM deduction_items WHERE record_id = ?",
		string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.DeductionItem
	for rows.Next() {
		var item payroll.DeductionItem
		var amount string
		if err := rows.Scan(&item.RecordID, &item.Type, &item.Description, &amount); err != nil {
			return nil, err
		}
		if item.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("item for %s: bad amount %q", id, amount)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// YearToDate sums in Go over TEXT decimals; SQL SUM would route through REAL
// and lose precision.
func (s *Store) YearToDate(ctx context.Context, employeeID payroll.EmployeeID, year int, before time.Time) (payroll.YTDTotals, error) {
	totals := payroll.YTDTotals{
		Gross:             decimal.Zero,
		SocialSecurityTax: decimal.Zero,
		MedicareTax:       decimal.Zero,
	}

	yearStart := fmt.Sprintf("%04d-01-01", year)
	yearEnd := fmt.Sprintf("%04d-12-31", year)
	filter := `employee_id = ? AND status = ?
		  AND period_start >= ? AND period_start <= ?
		  AND period_end < ?`
	args := []any{
		string(employeeID), string(payroll.StatusPaid),
		yearStart, yearEnd, before.Format(dateFormat),
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT gross_pay FROM payroll_records WHERE "+filter, args...)
	if err != nil {
		return totals, err
	}
	defer rows.Close()
	for rows.Next() {
		var gross string
		if err := rows.Scan(&gross); err != nil {
			return totals, err
		}
		g, err := decimal.NewFromString(gross)
		if err != nil {
			return totals, err
		}
		totals.Gross = totals.Gross.Add(g)
	}
	if err := rows.Err(); err != nil {
		return totals, err
	}

	itemRows, err := s.db.QueryContext(ctx, `
		SELECT i.item_type, i.amount
		FROM deduction_items i
		JOIN payroll_records r ON r.id = i.record_id
		WHERE r.`+filter, args...)
	if err != nil {
		return totals, err
	}
	defer itemRows.Close()
	for itemRows.Next() {
		var itemType, amount string
		if err := itemRows.Scan(&itemType, &amount); err != nil {
			return totals, err
		}
		a, err := decimal.NewFromString(amount)
		if err != nil {
			return totals, err
		}
		switch payroll.DeductionType(itemType) {
		case payroll.DeductionSocialSecurity:
			totals.SocialSecurityTax = totals.SocialSecurityTax.Add(a)
		case payroll.DeductionMedicare:
			totals.MedicareTax = totals.MedicareTax.Add(a)
		}
	}
	return totals, itemRows.Err()
}

func (s *Store) UpdateRecordStatus(ctx context.Context, id payroll.RecordID, from, to payroll.RecordStatus, note string) (*payroll.PayrollRecord, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payroll_records
		SET status = ?, void_reason = CASE WHEN ? = 'VOID' THEN ? ELSE void_reason END,
		    updated_at = ?
		WHERE id = ? AND status = ?`,
		string(to), string(to), note, time.Now().UTC().Format(time.RFC3339),
		string(id), string(from))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Distinguish missing record from wrong predecessor.
		rec, err := s.GetRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &payroll.InvalidTransitionError{
			RecordID: id,
			Current:  rec.Status,
			Expected: from,
			Target:   to,
		}
	}
	return s.GetRecord(ctx, id)
}

// =============================================================================
// RUN QUERIES
// =============================================================================

const runColumns = `id, employer_id, period_start, period_end, payment_date,
	status, created_count, failed_count, created_at`

func (s *Store) FindOpenRunOverlap(ctx context.Context, employerID payroll.EmployerID, start, end time.Time) (*payroll.PayrollRun, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+` FROM payroll_runs
		WHERE employer_id = ? AND status = ?
		  AND period_start <= ? AND period_end >= ?
		LIMIT 1`,
		string(employerID), string(payroll.RunOpen),
		end.Format(dateFormat), start.Format(dateFormat))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func (s *Store) SettleRunIfTerminal(ctx context.Context, id payroll.RunID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE payroll_runs SET status = ?
		WHERE id = ? AND status = ?
		  AND NOT EXISTS (
			SELECT 1 FROM payroll_records
			WHERE run_id = ? AND status IN (?, ?)
		  )`,
		string(payroll.RunSettled), string(id), string(payroll.RunOpen),
		string(id), string(payroll.StatusDraft), string(payroll.StatusApproved))
	return err
}

func (s *Store) GetRun(ctx context.Context, id payroll.RunID) (*payroll.PayrollRun, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM payroll_runs WHERE id = ?", string(id))
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, payroll.ErrRecordNotFound
	}
	return run, err
}

func (s *Store) ListRuns(ctx context.Context, employerID payroll.EmployerID) ([]payroll.PayrollRun, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM payroll_runs WHERE employer_id = ? ORDER BY created_at DESC",
		string(employerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.PayrollRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (s *Store) ListRunRecords(ctx context.Context, id payroll.RunID) ([]payroll.PayrollRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM payroll_records WHERE run_id = ? ORDER BY id",
		string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.PayrollRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanRun(r rowScanner) (*payroll.PayrollRun, error) {
	var (
		run                          payroll.PayrollRun
		start, end, payment, created string
		status                       string
	)
	if err := r.Scan(&run.ID, &run.EmployerID, &start, &end, &payment,
		&status, &run.Created, &run.Failed, &created); err != nil {
		return nil, err
	}
	run.Status = payroll.RunStatus(status)
	run.PeriodStart, _ = time.Parse(dateFormat, start)
	run.PeriodEnd, _ = time.Parse(dateFormat, end)
	run.PaymentDate, _ = time.Parse(dateFormat, payment)
	run.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &run, nil
}

// =============================================================================
// AUTHORIZER
// =============================================================================

func (s *Store) CanManagePayroll(ctx context.Context, userID string, employerID payroll.EmployerID) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM employer_admins WHERE user_id = ? AND employer_id = ?",
		userID, string(employerID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Employees:
    POST   /api/employees                    Create or replace employee
    GET    /api/employees/{id}               Get employee details
    POST   /api/employees/{id}/calculate     Preview a pay breakdown

  Runs:
    POST   /api/employers/{id}/runs          Create payroll run
    GET    /api/employers/{id}/runs          List runs for employer
    GET    /api/runs/{id}                    Run with its records

  Records:
    GET    /api/records/{id}                 Record with deduction items
    POST   /api/records/{id}/approve         DRAFT -> APPROVED
    POST   /api/records/{id}/finalize        APPROVED -> PAID
    POST   /api/records/{id}/void            DRAFT/APPROVED -> VOID

  Admin:
    POST   /api/admin/grants                 Grant payroll admin rights

ARCHITECTURE:
  Handler struct holds the store plus the engine components wired over it:
  calculator, run orchestrator, and state machine.

ACTING USER:
  Lifecycle transitions read the acting user from the X-User-ID header.
  This is trust-the-gateway identification, not authentication; the engine
  only checks that the named user administers the record's employer.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 403: Acting user does not administer the employer
  - 404: Resource not found
  - 409: Lifecycle conflicts (wrong-status transition, overlapping run)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - payroll/: Domain logic these handlers delegate to
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/payroll-engine/payroll"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the API needs from persistence: the engine's read interfaces
// plus directory writes for employees and admin grants.
type Store interface {
	payroll.EmployeeStore
	payroll.RecordStore
	payroll.Authorizer

	PutEmployee(ctx context.Context, emp payroll.Employee) error
	GrantAdmin(ctx context.Context, userID string, employerID payroll.EmployerID) error
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	Store Store

	Calc      *payroll.PayCalculator
	Runs      *payroll.RunOrchestrator
	Lifecycle *payroll.StateMachine
}

// NewHandler wires the engine components over one store and tax config.
func NewHandler(store Store, tax *payroll.TaxConfig) *Handler {
	calc := payroll.NewPayCalculator(store, store, tax)
	return &Handler{
		Store:     store,
		Calc:      calc,
		Runs:      payroll.NewRunOrchestrator(calc, store, store),
		Lifecycle: payroll.NewStateMachine(store, store),
	}
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// CreateEmployee creates or replaces an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.EmployerID == "" {
		writeError(w, http.StatusBadRequest, "id and employer_id are required", nil)
		return
	}

	hireDate, err := time.Parse(dateLayout, req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	status := payroll.EmploymentStatus(req.Status)
	if status == "" {
		status = payroll.EmploymentActive
	}

	emp := payroll.Employee{
		ID:               payroll.EmployeeID(req.ID),
		EmployerID:       payroll.EmployerID(req.EmployerID),
		Name:             req.Name,
		CompensationType: payroll.CompensationType(req.CompensationType),
		Rate:             req.Rate,
		PayFrequency:     payroll.PayFrequency(req.PayFrequency),
		Status:           status,
		Withholding: payroll.Withholding{
			FilingStatus:     payroll.FilingStatus(req.Withholding.FilingStatus),
			Allowances:       req.Withholding.Allowances,
			ExtraWithholding: req.Withholding.ExtraWithholding,
			ExemptFICA:       req.Withholding.ExemptFICA,
			ExemptFederal:    req.Withholding.ExemptFederal,
		},
		HireDate: hireDate,
	}

	if err := h.Store.PutEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(&emp))
}

// GetEmployee returns a single employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(emp))
}

// CalculatePay previews one employee's breakdown for a period. Nothing is
// persisted; payroll runs are the write path.
// POST /api/employees/{id}/calculate
func (h *Handler) CalculatePay(w http.ResponseWriter, r *http.Request) {
	id := payroll.EmployeeID(chi.URLParam(r, "id"))

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd, req.PaymentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pay period", err)
		return
	}

	input := payroll.PayInput{
		Hours: payroll.HoursInput{
			Regular:    req.Hours.Regular,
			Overtime:   req.Hours.Overtime,
			DoubleTime: req.Hours.DoubleTime,
		},
		Bonuses:     req.Bonuses,
		Commissions: req.Commissions,
	}

	breakdown, err := h.Calc.CalculatePay(r.Context(), id, period, input)
	if err != nil {
		writeDomainError(w, "Calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(breakdown))
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// CreateRun starts a payroll run for an employer.
// POST /api/employers/{id}/runs
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	employerID := payroll.EmployerID(chi.URLParam(r, "id"))

	var req CreateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	period, err := parsePeriod(req.PeriodStart, req.PeriodEnd, req.PaymentDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid pay period", err)
		return
	}

	var subset []payroll.EmployeeID
	if req.EmployeeIDs != nil {
		subset = make([]payroll.EmployeeID, len(req.EmployeeIDs))
		for i, id := range req.EmployeeIDs {
			subset[i] = payroll.EmployeeID(id)
		}
	}

	result, err := h.Runs.CreateRun(r.Context(), employerID, period, subset)
	if err != nil {
		writeDomainError(w, "Failed to create payroll run", err)
		return
	}

	dto := RunResultDTO{
		RunID:     string(result.RunID),
		Created:   result.Created,
		Failed:    result.Failed,
		RecordIDs: make([]string, len(result.RecordIDs)),
	}
	for i, id := range result.RecordIDs {
		dto.RecordIDs[i] = string(id)
	}
	for _, f := range result.Failures {
		dto.Failures = append(dto.Failures, RunFailureDTO{
			EmployeeID: string(f.EmployeeID),
			Reason:     f.Reason,
		})
	}
	writeJSON(w, http.StatusCreated, dto)
}

// ListRuns lists an employer's payroll runs, newest first.
// GET /api/employers/{id}/runs
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	employerID := payroll.EmployerID(chi.URLParam(r, "id"))

	runs, err := h.Store.ListRuns(r.Context(), employerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list runs", err)
		return
	}

	dtos := make([]RunDTO, len(runs))
	for i := range runs {
		dtos[i] = toRunDTO(&runs[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRun returns a run with its records.
// GET /api/runs/{id}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := payroll.RunID(chi.URLParam(r, "id"))
	ctx := r.Context()

	run, err := h.Store.GetRun(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get run", err)
		return
	}
	records, err := h.Store.ListRunRecords(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list run records", err)
		return
	}

	dto := RunDetailDTO{RunDTO: toRunDTO(run), Records: make([]RecordDTO, len(records))}
	for i := range records {
		dto.Records[i] = toRecordDTO(&records[i])
	}
	writeJSON(w, http.StatusOK, dto)
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// GetRecord returns a record with its deduction items.
// GET /api/records/{id}
func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := payroll.RecordID(chi.URLParam(r, "id"))
	ctx := r.Context()

	rec, err := h.Store.GetRecord(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get record", err)
		return
	}
	items, err := h.Store.GetDeductionItems(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get deduction items", err)
		return
	}

	writeJSON(w, http.StatusOK, RecordDetailDTO{
		RecordDTO:  toRecordDTO(rec),
		Deductions: toDeductionItemDTOs(items),
	})
}

// ApproveRecord moves a DRAFT record to APPROVED.
// POST /api/records/{id}/approve
func (h *Handler) ApproveRecord(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id payroll.RecordID, actor string) (*payroll.PayrollRecord, error) {
		return h.Lifecycle.Approve(r.Context(), id, actor)
	})
}

// FinalizeRecord moves an APPROVED record to PAID.
// POST /api/records/{id}/finalize
func (h *Handler) FinalizeRecord(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id payroll.RecordID, actor string) (*payroll.PayrollRecord, error) {
		return h.Lifecycle.Finalize(r.Context(), id, actor)
	})
}

// VoidRecord cancels a DRAFT or APPROVED record.
// POST /api/records/{id}/void
func (h *Handler) VoidRecord(w http.ResponseWriter, r *http.Request) {
	var req VoidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusBadRequest, "A void reason is required", nil)
		return
	}
	h.transition(w, r, func(id payroll.RecordID, actor string) (*payroll.PayrollRecord, error) {
		return h.Lifecycle.Void(r.Context(), id, actor, req.Reason)
	})
}

// transition is the shared shape of the three lifecycle handlers.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(payroll.RecordID, string) (*payroll.PayrollRecord, error)) {
	id := payroll.RecordID(chi.URLParam(r, "id"))
	actor := r.Header.Get("X-User-ID")
	if actor == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required", nil)
		return
	}

	rec, err := apply(id, actor)
	if err != nil {
		writeDomainError(w, "Transition failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTO(rec))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// GrantAdmin marks a user as payroll administrator for an employer.
// POST /api/admin/grants
func (h *Handler) GrantAdmin(w http.ResponseWriter, r *http.Request) {
	var req GrantAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.EmployerID == "" {
		writeError(w, http.StatusBadRequest, "user_id and employer_id are required", nil)
		return
	}

	if err := h.Store.GrantAdmin(r.Context(), req.UserID, payroll.EmployerID(req.EmployerID)); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to grant admin", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func parsePeriod(start, end, payment string) (payroll.PayPeriod, error) {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return payroll.PayPeriod{}, err
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return payroll.PayPeriod{}, err
	}
	p := e
	if payment != "" {
		if p, err = time.Parse(dateLayout, payment); err != nil {
			return payroll.PayPeriod{}, err
		}
	}
	return payroll.NewPayPeriod(s, e, p)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, payroll.ErrUnauthorized):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, payroll.ErrInvalidStateTransition),
		errors.Is(err, payroll.ErrOverlappingRun):
		writeError(w, http.StatusConflict, message, err)
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

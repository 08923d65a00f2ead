/*
lifecycle.go - Payroll record state machine

PURPOSE:
  Governs the one-directional lifecycle DRAFT -> APPROVED -> PAID, plus the
  VOID escape hatch reachable from DRAFT or APPROVED only. Every transition
  requires the current status to exactly match the expected predecessor and
  the acting party to administer the record's employer.

LIFECYCLE:

    DRAFT ──approve──▶ APPROVED ──finalize──▶ PAID (terminal)
      │                   │
      └──────void─────────┘──▶ VOID (terminal)

  PAID and VOID are terminal: no further mutation of the record or its
  deduction items is permitted. PAID records can never be voided; reversal
  of a paid record is an accounting correction outside this engine.

CONCURRENCY:
  Transitions go through the store's conditional update, so two concurrent
  approve (or finalize) calls cannot both succeed on the same record.
*/
package payroll

import "context"

// StateMachine applies lifecycle transitions to payroll records.
type StateMachine struct {
	Records RecordStore
	Auth    Authorizer
}

// NewStateMachine wires the state machine over a record store and authorizer.
func NewStateMachine(records RecordStore, auth Authorizer) *StateMachine {
	return &StateMachine{Records: records, Auth: auth}
}

// Approve moves a DRAFT record to APPROVED.
func (sm *StateMachine) Approve(ctx context.Context, id RecordID, actingUserID string) (*PayrollRecord, error) {
	if err := sm.authorize(ctx, id, actingUserID); err != nil {
		return nil, err
	}
	return sm.Records.UpdateRecordStatus(ctx, id, StatusDraft, StatusApproved, "")
}

// Finalize moves an APPROVED record to PAID and settles the run when this
// was its last non-terminal record.
func (sm *StateMachine) Finalize(ctx context.Context, id RecordID, actingUserID string) (*PayrollRecord, error) {
	if err := sm.authorize(ctx, id, actingUserID); err != nil {
		return nil, err
	}
	rec, err := sm.Records.UpdateRecordStatus(ctx, id, StatusApproved, StatusPaid, "")
	if err != nil {
		return nil, err
	}
	if err := sm.Records.SettleRunIfTerminal(ctx, rec.RunID); err != nil {
		return nil, err
	}
	return rec, nil
}

// Void cancels a DRAFT or APPROVED record. Never valid from PAID. The reason
// is stored on the record for audit.
func (sm *StateMachine) Void(ctx context.Context, id RecordID, actingUserID, reason string) (*PayrollRecord, error) {
	if err := sm.authorize(ctx, id, actingUserID); err != nil {
		return nil, err
	}
	current, err := sm.Records.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != StatusDraft && current.Status != StatusApproved {
		return nil, &InvalidTransitionError{
			RecordID: id,
			Current:  current.Status,
			Expected: StatusDraft,
			Target:   StatusVoid,
		}
	}
	// The conditional update still guards against a concurrent transition
	// between the read above and this write.
	rec, err := sm.Records.UpdateRecordStatus(ctx, id, current.Status, StatusVoid, reason)
	if err != nil {
		return nil, err
	}
	if err := sm.Records.SettleRunIfTerminal(ctx, rec.RunID); err != nil {
		return nil, err
	}
	return rec, nil
}

// authorize resolves the record's employer and checks the acting party.
func (sm *StateMachine) authorize(ctx context.Context, id RecordID, actingUserID string) error {
	rec, err := sm.Records.GetRecord(ctx, id)
	if err != nil {
		return err
	}
	ok, err := sm.Auth.CanManagePayroll(ctx, actingUserID, rec.EmployerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

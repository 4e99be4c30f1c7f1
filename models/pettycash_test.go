package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"p9e.in/siteops/pkg/approvals"
)

func TestExpenseStatusCanTransition(t *testing.T) {
	tests := []struct {
		from    ExpenseStatus
		to      ExpenseStatus
		allowed bool
	}{
		{ExpensePendingPM, ExpensePendingOwner, true},
		{ExpensePendingPM, ExpenseRejected, true},
		{ExpensePendingPM, ExpenseApproved, false},
		{ExpensePendingOwner, ExpenseApproved, true},
		{ExpensePendingOwner, ExpenseRejected, true},
		{ExpensePendingOwner, ExpensePendingPM, false},
		{ExpenseApproved, ExpenseRejected, false},
		{ExpenseRejected, ExpensePendingPM, false},
		{ExpenseRejected, ExpenseApproved, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, expected %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestExpenseCheckApproval(t *testing.T) {
	submitter := uuid.New()
	manager := uuid.New()

	t.Run("manager advances first tier", func(t *testing.T) {
		e := &PettyCashExpense{SubmitterID: submitter, Status: ExpensePendingPM}
		if err := e.CheckApproval(manager, ExpensePendingPM); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("owner advances second tier", func(t *testing.T) {
		e := &PettyCashExpense{SubmitterID: submitter, Status: ExpensePendingOwner}
		if err := e.CheckApproval(manager, ExpensePendingOwner); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("self-approval rejected", func(t *testing.T) {
		e := &PettyCashExpense{SubmitterID: submitter, Status: ExpensePendingPM}
		err := e.CheckApproval(submitter, ExpensePendingPM)
		if !errors.Is(err, approvals.ErrSelfApproval) {
			t.Errorf("expected ErrSelfApproval, got %v", err)
		}
	})

	t.Run("tier skip rejected", func(t *testing.T) {
		// Owner approval against an expense still at the PM tier.
		e := &PettyCashExpense{SubmitterID: submitter, Status: ExpensePendingPM}
		err := e.CheckApproval(manager, ExpensePendingOwner)
		if !errors.Is(err, approvals.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("terminal states refuse approval", func(t *testing.T) {
		for _, status := range []ExpenseStatus{ExpenseApproved, ExpenseRejected} {
			e := &PettyCashExpense{SubmitterID: submitter, Status: status}
			if err := e.CheckApproval(manager, ExpensePendingPM); !errors.Is(err, approvals.ErrConflict) {
				t.Errorf("status %s: expected ErrConflict, got %v", status, err)
			}
		}
	})
}

func TestExpenseCheckRejection(t *testing.T) {
	submitter := uuid.New()
	manager := uuid.New()

	t.Run("rejectable from either pending tier", func(t *testing.T) {
		for _, status := range []ExpenseStatus{ExpensePendingPM, ExpensePendingOwner} {
			e := &PettyCashExpense{SubmitterID: submitter, Status: status}
			if err := e.CheckRejection(manager); err != nil {
				t.Errorf("status %s: unexpected error: %v", status, err)
			}
		}
	})

	t.Run("self-rejection forbidden", func(t *testing.T) {
		e := &PettyCashExpense{SubmitterID: submitter, Status: ExpensePendingPM}
		if err := e.CheckRejection(submitter); !errors.Is(err, approvals.ErrSelfApproval) {
			t.Errorf("expected ErrSelfApproval, got %v", err)
		}
	})

	t.Run("terminal states refuse rejection", func(t *testing.T) {
		for _, status := range []ExpenseStatus{ExpenseApproved, ExpenseRejected} {
			e := &PettyCashExpense{SubmitterID: submitter, Status: status}
			if err := e.CheckRejection(manager); !errors.Is(err, approvals.ErrConflict) {
				t.Errorf("status %s: expected ErrConflict, got %v", status, err)
			}
		}
	})
}

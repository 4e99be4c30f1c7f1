package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"p9e.in/siteops/pkg/approvals"
)

func TestPermitStatusCanTransition(t *testing.T) {
	tests := []struct {
		from    PermitStatus
		to      PermitStatus
		allowed bool
	}{
		{PermitPending, PermitApproved, true},
		{PermitPending, PermitOTPGenerated, true},
		{PermitPending, PermitCompleted, false},
		{PermitApproved, PermitOTPGenerated, true},
		{PermitApproved, PermitPending, false},
		{PermitOTPGenerated, PermitCompleted, true},
		{PermitOTPGenerated, PermitExpired, true},
		{PermitOTPGenerated, PermitApproved, false},
		{PermitCompleted, PermitOTPGenerated, false},
		{PermitExpired, PermitPending, false},
		{PermitExpired, PermitApproved, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, expected %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestPermitStatusTerminal(t *testing.T) {
	for _, s := range []PermitStatus{PermitCompleted, PermitExpired} {
		if !s.Terminal() {
			t.Errorf("%s must be terminal", s)
		}
	}
	for _, s := range []PermitStatus{PermitPending, PermitApproved, PermitOTPGenerated} {
		if s.Terminal() {
			t.Errorf("%s must not be terminal", s)
		}
	}
}

func TestPermitCheckVerification(t *testing.T) {
	requester := uuid.New()
	now := time.Now()
	expiry := now.Add(5 * time.Minute)

	freshPermit := func() *Permit {
		return &Permit{
			RequesterID:  requester,
			Status:       PermitOTPGenerated,
			OTPCode:      "482913",
			OTPExpiresAt: &expiry,
		}
	}

	t.Run("correct code by requester completes", func(t *testing.T) {
		next, err := freshPermit().CheckVerification(requester, "482913", now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if next != PermitCompleted {
			t.Errorf("next status = %s, expected COMPLETED", next)
		}
	})

	t.Run("non-requester is forbidden", func(t *testing.T) {
		_, err := freshPermit().CheckVerification(uuid.New(), "482913", now)
		if !errors.Is(err, approvals.ErrForbidden) {
			t.Errorf("expected ErrForbidden, got %v", err)
		}
	})

	t.Run("wrong code is a validation failure", func(t *testing.T) {
		p := freshPermit()
		next, err := p.CheckVerification(requester, "000000", now)
		if !errors.Is(err, approvals.ErrValidation) {
			t.Errorf("expected ErrValidation, got %v", err)
		}
		if next != PermitOTPGenerated {
			t.Errorf("wrong code must not move the permit, got %s", next)
		}
	})

	t.Run("used code is a conflict", func(t *testing.T) {
		p := freshPermit()
		p.OTPUsed = true
		_, err := p.CheckVerification(requester, "482913", now)
		if !errors.Is(err, approvals.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("late attempt expires the permit", func(t *testing.T) {
		p := freshPermit()
		next, err := p.CheckVerification(requester, "482913", expiry.Add(time.Second))
		if !errors.Is(err, approvals.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		if next != PermitExpired {
			t.Errorf("late attempt must move the permit to EXPIRED, got %s", next)
		}
	})

	t.Run("missing expiry counts as expired", func(t *testing.T) {
		p := freshPermit()
		p.OTPExpiresAt = nil
		next, err := p.CheckVerification(requester, "482913", now)
		if !errors.Is(err, approvals.ErrConflict) {
			t.Errorf("expected ErrConflict, got %v", err)
		}
		if next != PermitExpired {
			t.Errorf("expected EXPIRED, got %s", next)
		}
	})

	t.Run("wrong status is a conflict", func(t *testing.T) {
		for _, status := range []PermitStatus{PermitPending, PermitApproved, PermitCompleted, PermitExpired} {
			p := freshPermit()
			p.Status = status
			next, err := p.CheckVerification(requester, "482913", now)
			if !errors.Is(err, approvals.ErrConflict) {
				t.Errorf("status %s: expected ErrConflict, got %v", status, err)
			}
			if next != status {
				t.Errorf("status %s: must not move, got %s", status, next)
			}
		}
	})
}

package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"p9e.in/siteops/pkg/approvals"
)

func TestMaterialRequestCheckResolve(t *testing.T) {
	requester := uuid.New()
	purchaser := uuid.New()

	t.Run("distinct resolver on pending request", func(t *testing.T) {
		m := &MaterialRequest{RequesterID: requester, Status: MaterialRequestPending}
		if err := m.CheckResolve(purchaser); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("requester cannot resolve own request", func(t *testing.T) {
		m := &MaterialRequest{RequesterID: requester, Status: MaterialRequestPending}
		err := m.CheckResolve(requester)
		if !errors.Is(err, approvals.ErrSelfApproval) {
			t.Errorf("expected ErrSelfApproval, got %v", err)
		}
	})

	t.Run("resolved requests refuse re-processing", func(t *testing.T) {
		for _, status := range []MaterialRequestStatus{MaterialRequestApproved, MaterialRequestRejected} {
			m := &MaterialRequest{RequesterID: requester, Status: status}
			if err := m.CheckResolve(purchaser); !errors.Is(err, approvals.ErrConflict) {
				t.Errorf("status %s: expected ErrConflict, got %v", status, err)
			}
		}
	})
}

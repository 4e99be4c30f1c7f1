package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/siteops/pkg/approvals"
)

// ExpenseStatus is the closed status set of the petty-cash pipeline.
type ExpenseStatus string

const (
	ExpensePendingPM    ExpenseStatus = "PENDING_PM_APPROVAL"
	ExpensePendingOwner ExpenseStatus = "PENDING_OWNER_APPROVAL"
	ExpenseApproved     ExpenseStatus = "APPROVED"
	ExpenseRejected     ExpenseStatus = "REJECTED"
)

var expenseTransitions = map[ExpenseStatus][]ExpenseStatus{
	ExpensePendingPM:    {ExpensePendingOwner, ExpenseRejected},
	ExpensePendingOwner: {ExpenseApproved, ExpenseRejected},
	ExpenseApproved:     {},
	ExpenseRejected:     {},
}

// CanTransition reports whether from -> to is a legal expense transition.
// Status only moves forward; REJECTED is terminal from either pending tier.
func (from ExpenseStatus) CanTransition(to ExpenseStatus) bool {
	for _, s := range expenseTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PettyCashExpense is a reimbursable field expense moving through the
// two-tier submitter -> project manager -> owner approval chain.
type PettyCashExpense struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExpenseNumber string    `gorm:"size:20;uniqueIndex;not null" json:"expenseNumber"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	SubmitterID   uuid.UUID `gorm:"type:uuid;not null;index" json:"submitterId"`
	Submitter     *User     `gorm:"foreignKey:SubmitterID" json:"submitter,omitempty"`
	Amount        float64   `gorm:"not null" json:"amount"`
	Description   string    `gorm:"type:text;not null" json:"description"`
	Category      string    `gorm:"size:50;not null" json:"category"`
	ReceiptURL    *string   `gorm:"size:500" json:"receiptUrl,omitempty"`

	// Geofence annotation captured at submission time. Outside-the-fence
	// submissions are accepted; approvers see the flag.
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	DistanceFromSite *float64 `json:"distanceFromSite,omitempty"`
	GeofenceValid    *bool    `json:"geofenceValid,omitempty"`

	Status ExpenseStatus `gorm:"size:30;not null;default:'PENDING_PM_APPROVAL';index" json:"status"`

	PMApprovedByID    *uuid.UUID `gorm:"type:uuid" json:"pmApprovedById,omitempty"`
	PMApprovedAt      *time.Time `json:"pmApprovedAt,omitempty"`
	OwnerApprovedByID *uuid.UUID `gorm:"type:uuid" json:"ownerApprovedById,omitempty"`
	OwnerApprovedAt   *time.Time `json:"ownerApprovedAt,omitempty"`

	RejectedByID    *uuid.UUID `gorm:"type:uuid" json:"rejectedById,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason *string    `gorm:"type:text" json:"rejectionReason,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *PettyCashExpense) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

// CheckApproval decides whether actor may advance the expense from the
// given tier, without mutating anything. Tier skipping is forbidden: the
// expense must sit exactly at the tier the actor is approving.
func (e *PettyCashExpense) CheckApproval(actorID uuid.UUID, tier ExpenseStatus) error {
	if err := approvals.EnsureDistinctActor(actorID, e.SubmitterID, "approve"); err != nil {
		return err
	}
	if e.Status != tier {
		return fmt.Errorf("%w: expense is %s, expected %s", approvals.ErrConflict, e.Status, tier)
	}
	return nil
}

// CheckRejection decides whether actor may reject the expense. Rejection
// is allowed from either pending tier and is terminal.
func (e *PettyCashExpense) CheckRejection(actorID uuid.UUID) error {
	if err := approvals.EnsureDistinctActor(actorID, e.SubmitterID, "reject"); err != nil {
		return err
	}
	if !e.Status.CanTransition(ExpenseRejected) {
		return fmt.Errorf("%w: expense is %s, cannot reject", approvals.ErrConflict, e.Status)
	}
	return nil
}

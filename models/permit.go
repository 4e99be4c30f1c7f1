package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"p9e.in/siteops/pkg/approvals"
)

// PermitStatus is the closed status set of the permit-to-work lifecycle.
type PermitStatus string

const (
	PermitPending      PermitStatus = "PENDING"
	PermitApproved     PermitStatus = "APPROVED"
	PermitOTPGenerated PermitStatus = "OTP_GENERATED"
	PermitCompleted    PermitStatus = "COMPLETED"
	PermitExpired      PermitStatus = "EXPIRED"
)

// permitTransitions is the full transition table. COMPLETED and EXPIRED are
// terminal: a dead permit is never revived, a new one must be requested.
var permitTransitions = map[PermitStatus][]PermitStatus{
	PermitPending:      {PermitApproved, PermitOTPGenerated},
	PermitApproved:     {PermitOTPGenerated},
	PermitOTPGenerated: {PermitCompleted, PermitExpired},
	PermitCompleted:    {},
	PermitExpired:      {},
}

// CanTransition reports whether from -> to is a legal permit transition.
func (from PermitStatus) CanTransition(to PermitStatus) bool {
	for _, s := range permitTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s PermitStatus) Terminal() bool {
	return len(permitTransitions[s]) == 0
}

// Permit is a hazardous-work authorization. The one-time code gates the
// actual start of work and is never serialized in any read response; it is
// delivered to the requester out-of-band through the notification sink.
type Permit struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	PermitNumber    string         `gorm:"size:20;uniqueIndex;not null" json:"permitNumber"`
	ProjectID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"projectId"`
	RequesterID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"requesterId"`
	Requester       *User          `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	TaskDescription string         `gorm:"type:text;not null" json:"taskDescription"`
	HazardType      string         `gorm:"size:100;not null" json:"hazardType"`
	SafetyMeasures  pq.StringArray `gorm:"type:text[];not null" json:"safetyMeasures"`
	Status          PermitStatus   `gorm:"size:20;not null;default:'PENDING';index" json:"status"`

	ApprovedByID *uuid.UUID `gorm:"type:uuid" json:"approvedById,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`

	OTPCode        string     `gorm:"size:10" json:"-"`
	OTPGeneratedAt *time.Time `json:"-"`
	OTPExpiresAt   *time.Time `json:"otpExpiresAt,omitempty"`
	OTPUsed        bool       `gorm:"default:false" json:"-"`

	WorkStartedAt *time.Time `json:"workStartedAt,omitempty"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Permit) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// CheckVerification decides what a code-verification attempt by actorID at
// time now should do, without touching stored state. It returns the status
// the permit must move to (PermitCompleted on success, PermitExpired on a
// late attempt) and a non-nil error for every outcome except success.
func (p *Permit) CheckVerification(actorID uuid.UUID, code string, now time.Time) (PermitStatus, error) {
	if actorID != p.RequesterID {
		return p.Status, fmt.Errorf("%w: only the requester may verify this permit", approvals.ErrForbidden)
	}
	if p.Status != PermitOTPGenerated {
		return p.Status, fmt.Errorf("%w: permit is %s, not verifiable", approvals.ErrConflict, p.Status)
	}
	if p.OTPUsed {
		return p.Status, fmt.Errorf("%w: code already used", approvals.ErrConflict)
	}
	if p.OTPExpiresAt == nil || now.After(*p.OTPExpiresAt) {
		return PermitExpired, fmt.Errorf("%w: code expired, request a new permit", approvals.ErrConflict)
	}
	if code != p.OTPCode {
		return p.Status, fmt.Errorf("%w: incorrect code", approvals.ErrValidation)
	}
	return PermitCompleted, nil
}

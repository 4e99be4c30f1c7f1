package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"p9e.in/siteops/pkg/approvals"
)

// MaterialRequestStatus is the closed status set for material requests.
type MaterialRequestStatus string

const (
	MaterialRequestPending  MaterialRequestStatus = "pending"
	MaterialRequestApproved MaterialRequestStatus = "approved"
	MaterialRequestRejected MaterialRequestStatus = "rejected"
)

// MaterialRequest is a site material requisition. The anomaly detector
// compares the requested quantity against the trailing 7-day average for
// the same material and annotates the request; it never blocks creation.
type MaterialRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	RequesterID uuid.UUID `gorm:"type:uuid;not null;index" json:"requesterId"`
	Requester   *User     `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`

	MaterialID  string  `gorm:"size:100;not null;index" json:"materialId"`
	Description string  `gorm:"type:text;not null" json:"description"`
	Quantity    float64 `gorm:"not null" json:"quantity"`
	Unit        string  `gorm:"size:20;not null" json:"unit"`

	QuotationPhotos datatypes.JSON `gorm:"type:jsonb" json:"quotationPhotos,omitempty"`

	Status MaterialRequestStatus `gorm:"size:20;not null;default:'pending';index" json:"status"`

	// Anomaly annotation, advisory only.
	IsAnomaly     bool     `gorm:"default:false" json:"isAnomaly"`
	AnomalyReason *string  `gorm:"type:text" json:"anomalyReason,omitempty"`
	AverageUsage  *float64 `json:"averageUsage,omitempty"`

	ResolvedByID *uuid.UUID `gorm:"type:uuid" json:"resolvedById,omitempty"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (m *MaterialRequest) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

// CheckResolve decides whether actor may approve or reject the request.
// The requester never resolves their own requisition, and anything past
// pending is done.
func (m *MaterialRequest) CheckResolve(actorID uuid.UUID) error {
	if err := approvals.EnsureDistinctActor(actorID, m.RequesterID, "resolve"); err != nil {
		return err
	}
	if m.Status != MaterialRequestPending {
		return fmt.Errorf("%w: request is %s, already resolved", approvals.ErrConflict, m.Status)
	}
	return nil
}

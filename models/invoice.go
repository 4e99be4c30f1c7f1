package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/siteops/pkg/approvals"
)

// InvoiceStatus is the closed status set of the contractor-invoice pipeline.
type InvoiceStatus string

const (
	InvoicePendingPM InvoiceStatus = "PENDING_PM_APPROVAL"
	InvoiceApproved  InvoiceStatus = "APPROVED"
	InvoiceRejected  InvoiceStatus = "REJECTED"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoicePendingPM: {InvoiceApproved, InvoiceRejected},
	InvoiceApproved:  {},
	InvoiceRejected:  {},
}

// CanTransition reports whether from -> to is a legal invoice transition.
func (from InvoiceStatus) CanTransition(to InvoiceStatus) bool {
	for _, s := range invoiceTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// DocumentSource records how the billing document was produced.
type DocumentSource string

const (
	DocumentGenerated DocumentSource = "system_generated"
	DocumentUploaded  DocumentSource = "uploaded"
)

// ContractorInvoice is a weekly labour bill aggregated from verified
// attendance. Monetary fields are rounded to two decimals at computation
// time; totalAmount = taxableAmount + gstAmount and
// taxableAmount = labourDayCount * blendedRate always hold on the stored row.
type ContractorInvoice struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNumber string    `gorm:"size:20;uniqueIndex;not null" json:"invoiceNumber"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	ContractorID  uuid.UUID `gorm:"type:uuid;not null;index" json:"contractorId"`
	Contractor    *User     `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`

	WeekStart time.Time `gorm:"type:date;not null" json:"weekStart"`
	WeekEnd   time.Time `gorm:"type:date;not null" json:"weekEnd"`

	LabourDayCount int     `gorm:"not null" json:"labourDayCount"`
	BlendedRate    float64 `gorm:"not null" json:"blendedRate"`
	TaxableAmount  float64 `gorm:"not null" json:"taxableAmount"`
	GSTRate        float64 `gorm:"not null" json:"gstRate"`
	GSTAmount      float64 `gorm:"not null" json:"gstAmount"`
	TotalAmount    float64 `gorm:"not null" json:"totalAmount"`

	Status InvoiceStatus `gorm:"size:30;not null;default:'PENDING_PM_APPROVAL';index" json:"status"`

	ApprovedByID *uuid.UUID `gorm:"type:uuid" json:"approvedById,omitempty"`
	ApprovedAt   *time.Time `json:"approvedAt,omitempty"`

	RejectedByID    *uuid.UUID `gorm:"type:uuid" json:"rejectedById,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectionReason *string    `gorm:"type:text" json:"rejectionReason,omitempty"`

	// VisibleToOwner flips on approval or manual document upload; the
	// paying owner only sees invoices once a document exists for them.
	VisibleToOwner bool `gorm:"default:false" json:"visibleToOwner"`

	DocumentURL        *string         `gorm:"size:500" json:"documentUrl,omitempty"`
	DocumentSource     *DocumentSource `gorm:"size:30" json:"documentSource,omitempty"`
	DocumentUploadedBy *uuid.UUID      `gorm:"type:uuid" json:"documentUploadedBy,omitempty"`
	DocumentUploadedAt *time.Time      `json:"documentUploadedAt,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (i *ContractorInvoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// CheckResolution decides whether the invoice can still be approved or
// rejected. Guards against double-processing: anything not pending is done.
func (i *ContractorInvoice) CheckResolution(to InvoiceStatus) error {
	if !i.Status.CanTransition(to) {
		return fmt.Errorf("%w: invoice is %s, cannot move to %s", approvals.ErrConflict, i.Status, to)
	}
	return nil
}

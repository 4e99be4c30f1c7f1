package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// NotificationType defines what triggered a notification.
type NotificationType string

const (
	NotificationPermitRequested  NotificationType = "permit_requested"
	NotificationPermitOTP        NotificationType = "permit_otp"
	NotificationApprovalRequired NotificationType = "approval_required"
	NotificationApprovalApproved NotificationType = "approval_approved"
	NotificationApprovalRejected NotificationType = "approval_rejected"
	NotificationInvoiceReady     NotificationType = "invoice_ready"
	NotificationAnomalyFlagged   NotificationType = "anomaly_flagged"
)

// Notification is a single in-app message for one recipient. Delivery is
// fire-and-forget; workflow operations never fail because a notification
// could not be written.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientID uuid.UUID        `gorm:"type:uuid;not null;index" json:"recipientId"`
	Type        NotificationType `gorm:"size:50;not null" json:"type"`
	Title       string           `gorm:"size:255;not null" json:"title"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	Data        datatypes.JSON   `gorm:"type:jsonb" json:"data,omitempty"`
	IsRead      bool             `gorm:"default:false;index" json:"isRead"`
	ReadAt      *time.Time       `json:"readAt,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}

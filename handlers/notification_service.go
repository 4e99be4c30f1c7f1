package handlers

import (
	"encoding/json"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
)

// NotificationService writes in-app notifications. Every call is
// fire-and-forget: failures are logged and swallowed so a workflow
// transition is never rolled back because its notification could not be
// delivered.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService creates a new notification service instance
func NewNotificationService() *NotificationService {
	return &NotificationService{
		db: config.DB,
	}
}

// Notify delivers one notification to one recipient, best-effort.
func (ns *NotificationService) Notify(recipientID uuid.UUID, typ models.NotificationType, title, message string, data map[string]interface{}) {
	var payload datatypes.JSON
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.Printf("notification payload marshal failed: %v", err)
		} else {
			payload = datatypes.JSON(raw)
		}
	}

	n := models.Notification{
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
		Message:     message,
		Data:        payload,
	}
	if err := ns.db.Create(&n).Error; err != nil {
		log.Printf("failed to deliver notification %s to %s: %v", typ, recipientID, err)
	}
}

// NotifyAll fans one notification out to several recipients, best-effort
// per recipient.
func (ns *NotificationService) NotifyAll(recipientIDs []uuid.UUID, typ models.NotificationType, title, message string, data map[string]interface{}) {
	for _, id := range recipientIDs {
		ns.Notify(id, typ, title, message, data)
	}
}

// ProjectApproverIDs returns the project's managers plus its owner, the
// audience for approval-required notifications.
func (ns *NotificationService) ProjectApproverIDs(projectID uuid.UUID) []uuid.UUID {
	var project models.Project
	if err := ns.db.Preload("Members").First(&project, "id = ?", projectID).Error; err != nil {
		log.Printf("failed to resolve approvers for project %s: %v", projectID, err)
		return nil
	}

	ids := []uuid.UUID{project.OwnerID}
	for _, m := range project.Members {
		if m.Role == models.RoleManager && m.UserID != project.OwnerID {
			ids = append(ids, m.UserID)
		}
	}
	return ids
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LabourAttendanceRecord is one attendance event for a labour worker on a
// calendar date. The invoice pipeline deduplicates by (worker, date) so a
// worker marked twice in one day still bills a single labour-day.
type LabourAttendanceRecord struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ContractorID   uuid.UUID `gorm:"type:uuid;not null;index" json:"contractorId"`
	LabourWorkerID uuid.UUID `gorm:"type:uuid;not null;index" json:"labourWorkerId"`
	ProjectID      uuid.UUID `gorm:"type:uuid;not null;index" json:"projectId"`
	AttendanceDate time.Time `gorm:"type:date;not null;index" json:"attendanceDate"`

	Present       bool `gorm:"not null" json:"present"`
	FaceMatched   bool `gorm:"not null" json:"faceMatched"`
	GeofenceValid bool `gorm:"default:true" json:"geofenceValid"`

	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *LabourAttendanceRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GeoFence is the optional circular site boundary embedded on a project.
// A nil fence, or Enabled=false, means geofencing is off for the project
// and every point is treated as unvalidated.
type GeoFence struct {
	Enabled      bool    `json:"enabled"`
	CenterLat    float64 `json:"centerLat"`
	CenterLng    float64 `json:"centerLng"`
	RadiusMeters float64 `json:"radiusMeters"`
	BufferMeters float64 `json:"bufferMeters"`
}

// Value implements driver.Valuer so the fence is stored as jsonb.
func (g GeoFence) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan implements sql.Scanner.
func (g *GeoFence) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*g = GeoFence{}
		return nil
	case []byte:
		return json.Unmarshal(v, g)
	case string:
		return json.Unmarshal([]byte(v), g)
	default:
		return fmt.Errorf("GeoFence.Scan: unsupported type %T", src)
	}
}

type Project struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Code      string    `gorm:"size:50;uniqueIndex;not null" json:"code"`
	Address   string    `gorm:"size:255" json:"address"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index" json:"ownerId"`
	Owner     *User     `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	GeoFence  *GeoFence `gorm:"type:jsonb" json:"geoFence,omitempty"`
	IsActive  bool      `gorm:"default:true" json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Members   []ProjectMember      `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Contracts []ContractorContract `gorm:"foreignKey:ProjectID" json:"contracts,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// ProjectMember links a user to a project. Managers on a project are the
// tier-1 approvers for petty cash and contractor invoices.
type ProjectMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index:idx_project_member,unique" json:"projectId"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_project_member,unique" json:"userId"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Role      Role      `gorm:"size:30;not null" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func (pm *ProjectMember) BeforeCreate(tx *gorm.DB) (err error) {
	if pm.ID == uuid.Nil {
		pm.ID = uuid.New()
	}
	return
}

// ContractorContract is a contractor's engagement on a project with a
// negotiated daily rate. Invoice generation requires an active contract
// covering the billed week.
type ContractorContract struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"projectId"`
	ContractorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"contractorId"`
	Contractor   *User      `gorm:"foreignKey:ContractorID" json:"contractor,omitempty"`
	DailyRate    float64    `gorm:"not null" json:"dailyRate"`
	StartDate    time.Time  `gorm:"type:date;not null" json:"startDate"`
	EndDate      *time.Time `gorm:"type:date" json:"endDate,omitempty"`
	IsActive     bool       `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (c *ContractorContract) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}

// Covers reports whether the contract is active for the given window.
func (c *ContractorContract) Covers(weekStart, weekEnd time.Time) bool {
	if !c.IsActive {
		return false
	}
	if c.StartDate.After(weekEnd) {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(weekStart) {
		return false
	}
	return true
}

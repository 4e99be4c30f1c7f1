// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is the single role tag carried by every authenticated caller.
type Role string

const (
	RoleEngineer        Role = "engineer"
	RoleManager         Role = "manager"
	RoleOwner           Role = "owner"
	RolePurchaseManager Role = "purchase_manager"
	RoleContractor      Role = "contractor"
)

// Valid reports whether r is one of the known role tags.
func (r Role) Valid() bool {
	switch r {
	case RoleEngineer, RoleManager, RoleOwner, RolePurchaseManager, RoleContractor:
		return true
	}
	return false
}

// Code returns the sequence-counter category used to mint employee IDs
// for this role (e.g. "ENG" -> ENG-0001).
func (r Role) Code() string {
	switch r {
	case RoleEngineer:
		return "ENG"
	case RoleManager:
		return "MGR"
	case RoleOwner:
		return "OWN"
	case RolePurchaseManager:
		return "PUR"
	case RoleContractor:
		return "CON"
	}
	return "USR"
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EmployeeID   string    `gorm:"size:20;uniqueIndex;not null" json:"employeeId"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Phone        string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         Role      `gorm:"size:30;not null;index" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

package config

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"p9e.in/siteops/models"
	"p9e.in/siteops/pkg/sequence"
)

// SeedBootstrapOwner creates the first owner account when the users table
// is empty, so a fresh deployment can log in and register everyone else.
// Credentials come from BOOTSTRAP_OWNER_* env vars; skipped when unset.
func SeedBootstrapOwner() {
	email := os.Getenv("BOOTSTRAP_OWNER_EMAIL")
	password := os.Getenv("BOOTSTRAP_OWNER_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var count int64
	if err := DB.Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("Warning: could not check users table: %v", err)
		return
	}
	if count > 0 {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Warning: could not hash bootstrap password: %v", err)
		return
	}

	name := os.Getenv("BOOTSTRAP_OWNER_NAME")
	if name == "" {
		name = "Site Owner"
	}
	phone := os.Getenv("BOOTSTRAP_OWNER_PHONE")
	if phone == "" {
		phone = "0000000000"
	}

	err = DB.Transaction(func(tx *gorm.DB) error {
		employeeID, err := sequence.NewIssuer(tx).Issue(models.RoleOwner.Code())
		if err != nil {
			return err
		}
		owner := models.User{
			EmployeeID:   employeeID,
			Name:         name,
			Email:        email,
			Phone:        phone,
			PasswordHash: string(hash),
			Role:         models.RoleOwner,
			IsActive:     true,
		}
		return tx.Create(&owner).Error
	})
	if err != nil {
		log.Printf("Warning: bootstrap owner seeding failed: %v", err)
		return
	}
	log.Printf("Seeded bootstrap owner account %s", email)
}

package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/siteops/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "10032026_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Project{}, &models.ProjectMember{},
					&models.ContractorContract{}, &models.SequenceCounter{})
			},
		},
		{
			ID: "10032026_create_workflow_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Permit{}, &models.PettyCashExpense{},
					&models.ContractorInvoice{}, &models.MaterialRequest{},
					&models.LabourAttendanceRecord{})
			},
		},
		{
			ID: "10032026_create_notification_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Notification{})
			},
		},
		{
			ID: "12032026_attendance_billing_index",
			Migrate: func(tx *gorm.DB) error {
				// Covering index for the weekly billing aggregation query.
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_attendance_billing
					ON labour_attendance_records (contractor_id, project_id, attendance_date)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec(`DROP INDEX IF EXISTS idx_attendance_billing`).Error
			},
		},
	})
	return m.Migrate()
}

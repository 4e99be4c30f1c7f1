package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
	"p9e.in/siteops/pkg/approvals"
	"p9e.in/siteops/pkg/sequence"
)

// InvoiceService runs the contractor weekly-invoice pipeline: attendance
// aggregation, rate blending, GST computation, manager approval, document
// generation and distribution.
type InvoiceService struct {
	db       *gorm.DB
	policy   config.BillingPolicy
	notifier *NotificationService
	store    ObjectStore
	email    *EmailService
}

// NewInvoiceService creates a new invoice service instance
func NewInvoiceService() *InvoiceService {
	return &InvoiceService{
		db:       config.DB,
		policy:   config.LoadBillingPolicy(),
		notifier: NewNotificationService(),
		store:    NewObjectStore(),
		email:    NewEmailService(),
	}
}

// Generate builds an invoice for a contractor's verified labour on a
// project over one week. Attendance counts only when both presence and
// face-match are true, deduplicated per (worker, date). Zero labour-days
// rejects generation.
func (s *InvoiceService) Generate(contractorID, projectID uuid.UUID, weekStart time.Time) (*models.ContractorInvoice, error) {
	start, end := weekWindow(weekStart)

	var contract models.ContractorContract
	err := s.db.Where("contractor_id = ? AND project_id = ? AND is_active = ?", contractorID, projectID, true).
		First(&contract).Error
	if err != nil {
		return nil, fmt.Errorf("%w: no active contract for this contractor on the project", approvals.ErrNotFound)
	}
	if !contract.Covers(start, end) {
		return nil, fmt.Errorf("%w: contract does not cover week %s", approvals.ErrConflict, start.Format("2006-01-02"))
	}

	var existing models.ContractorInvoice
	err = s.db.Where("contractor_id = ? AND project_id = ? AND week_start = ?", contractorID, projectID, start).
		First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("%w: invoice %s already exists for this week", approvals.ErrConflict, existing.InvoiceNumber)
	}

	var records []models.LabourAttendanceRecord
	err = s.db.Where("contractor_id = ? AND project_id = ?", contractorID, projectID).
		Where("attendance_date BETWEEN ? AND ?", start, end).
		Where("present = ? AND face_matched = ?", true, true).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("load attendance: %w", err)
	}

	labourDays := countLabourDays(records)
	if labourDays == 0 {
		return nil, fmt.Errorf("%w: no verified labour-days in the billing window", approvals.ErrValidation)
	}

	amounts := computeInvoiceAmounts(s.policy, labourDays, contract.DailyRate)

	var invoice models.ContractorInvoice
	err = s.db.Transaction(func(tx *gorm.DB) error {
		number, err := sequence.NewIssuer(tx).Issue("INV")
		if err != nil {
			return err
		}
		invoice = models.ContractorInvoice{
			InvoiceNumber:  number,
			ProjectID:      projectID,
			ContractorID:   contractorID,
			WeekStart:      start,
			WeekEnd:        end,
			LabourDayCount: labourDays,
			BlendedRate:    amounts.BlendedRate,
			TaxableAmount:  amounts.TaxableAmount,
			GSTRate:        s.policy.GSTRatePercent,
			GSTAmount:      amounts.GSTAmount,
			TotalAmount:    amounts.TotalAmount,
			Status:         models.InvoicePendingPM,
		}
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create invoice: %w", err)
	}

	s.notifier.NotifyAll(s.notifier.ProjectApproverIDs(projectID),
		models.NotificationInvoiceReady,
		"Contractor invoice awaiting approval",
		fmt.Sprintf("Invoice %s for %d labour-days (total %.2f) awaits approval",
			invoice.InvoiceNumber, labourDays, invoice.TotalAmount),
		map[string]interface{}{"invoiceId": invoice.ID.String()})

	return &invoice, nil
}

// Approve resolves a pending invoice. The financial decision is the
// conditional status update; everything after it (owner visibility is part
// of the update, then document render, object-store upload, email) is
// best-effort and can never revert the approval.
func (s *InvoiceService) Approve(invoiceID, approverID uuid.UUID) (*models.ContractorInvoice, error) {
	var invoice models.ContractorInvoice
	if err := s.db.Preload("Contractor").First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, fmt.Errorf("%w: invoice %s", approvals.ErrNotFound, invoiceID)
	}
	if err := invoice.CheckResolution(models.InvoiceApproved); err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.db.Model(&models.ContractorInvoice{}).
		Where("id = ? AND status = ?", invoiceID, models.InvoicePendingPM).
		Updates(map[string]interface{}{
			"status":           models.InvoiceApproved,
			"approved_by_id":   approverID,
			"approved_at":      now,
			"visible_to_owner": true,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("approve invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: invoice already processed", approvals.ErrConflict)
	}

	if err := s.db.Preload("Contractor").First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, err
	}

	s.distributeDocument(&invoice)

	s.notifier.Notify(invoice.ContractorID,
		models.NotificationApprovalApproved,
		"Invoice approved",
		fmt.Sprintf("Invoice %s for %.2f was approved", invoice.InvoiceNumber, invoice.TotalAmount),
		map[string]interface{}{"invoiceId": invoice.ID.String()})

	return &invoice, nil
}

// distributeDocument renders, stores and emails the billing document.
// Failures are logged and swallowed; the approval already happened.
func (s *InvoiceService) distributeDocument(invoice *models.ContractorInvoice) {
	data, err := RenderInvoiceDocument(invoice)
	if err != nil {
		log.Printf("invoice %s: document render failed: %v", invoice.InvoiceNumber, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := invoice.InvoiceNumber + ".xlsx"
	url, err := s.store.Store(ctx, data, "invoices", name)
	if err != nil {
		log.Printf("invoice %s: document upload failed: %v", invoice.InvoiceNumber, err)
	} else {
		source := models.DocumentGenerated
		if err := s.db.Model(&models.ContractorInvoice{}).
			Where("id = ?", invoice.ID).
			Updates(map[string]interface{}{
				"document_url":    url,
				"document_source": source,
			}).Error; err != nil {
			log.Printf("invoice %s: document reference save failed: %v", invoice.InvoiceNumber, err)
		} else {
			invoice.DocumentURL = &url
			invoice.DocumentSource = &source
		}
	}

	var project models.Project
	if err := s.db.Preload("Owner").First(&project, "id = ?", invoice.ProjectID).Error; err != nil {
		log.Printf("invoice %s: owner lookup failed: %v", invoice.InvoiceNumber, err)
		return
	}
	if project.Owner == nil || project.Owner.Email == "" {
		return
	}

	subject := fmt.Sprintf("Approved contractor invoice %s", invoice.InvoiceNumber)
	body := fmt.Sprintf("<p>Invoice %s for project %s was approved.</p><p>Labour-days: %d<br>Total: %.2f</p>",
		invoice.InvoiceNumber, project.Name, invoice.LabourDayCount, invoice.TotalAmount)
	err = s.email.SendWithAttachment([]string{project.Owner.Email}, subject, body,
		map[string][]byte{name: data})
	if err != nil {
		log.Printf("invoice %s: email to owner failed: %v", invoice.InvoiceNumber, err)
	}
}

// Reject resolves a pending invoice terminally, with a defaulted reason.
func (s *InvoiceService) Reject(invoiceID, rejecterID uuid.UUID, reason string) (*models.ContractorInvoice, error) {
	var invoice models.ContractorInvoice
	if err := s.db.First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, fmt.Errorf("%w: invoice %s", approvals.ErrNotFound, invoiceID)
	}
	if err := invoice.CheckResolution(models.InvoiceRejected); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = defaultRejectionReason
	}

	now := time.Now()
	res := s.db.Model(&models.ContractorInvoice{}).
		Where("id = ? AND status = ?", invoiceID, models.InvoicePendingPM).
		Updates(map[string]interface{}{
			"status":           models.InvoiceRejected,
			"rejected_by_id":   rejecterID,
			"rejected_at":      now,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("reject invoice: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: invoice already processed", approvals.ErrConflict)
	}

	s.notifier.Notify(invoice.ContractorID,
		models.NotificationApprovalRejected,
		"Invoice rejected",
		fmt.Sprintf("Invoice %s was rejected: %s", invoice.InvoiceNumber, reason),
		map[string]interface{}{"invoiceId": invoice.ID.String()})

	if err := s.db.First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// AttachUploadedDocument records a manually prepared billing document for
// an invoice the contractor owns. Allowed while pending or approved; the
// approval status itself is untouched, but the invoice becomes visible to
// the owner since a document now exists for them.
func (s *InvoiceService) AttachUploadedDocument(invoiceID, contractorID uuid.UUID, documentURL string) (*models.ContractorInvoice, error) {
	if documentURL == "" {
		return nil, fmt.Errorf("%w: document URL is required", approvals.ErrValidation)
	}

	var invoice models.ContractorInvoice
	if err := s.db.First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, fmt.Errorf("%w: invoice %s", approvals.ErrNotFound, invoiceID)
	}
	if invoice.ContractorID != contractorID {
		return nil, fmt.Errorf("%w: not your invoice", approvals.ErrForbidden)
	}
	if invoice.Status == models.InvoiceRejected {
		return nil, fmt.Errorf("%w: invoice is rejected", approvals.ErrConflict)
	}

	now := time.Now()
	err := s.db.Model(&models.ContractorInvoice{}).
		Where("id = ?", invoiceID).
		Updates(map[string]interface{}{
			"document_url":         documentURL,
			"document_source":      models.DocumentUploaded,
			"document_uploaded_by": contractorID,
			"document_uploaded_at": now,
			"visible_to_owner":     true,
		}).Error
	if err != nil {
		return nil, fmt.Errorf("attach document: %w", err)
	}

	if err := s.db.First(&invoice, "id = ?", invoiceID).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

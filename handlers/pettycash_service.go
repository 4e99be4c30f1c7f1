package handlers

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
	"p9e.in/siteops/pkg/approvals"
	"p9e.in/siteops/pkg/sequence"
	"p9e.in/siteops/utils"
)

const defaultRejectionReason = "No reason provided"

// PettyCashService runs the two-tier expense pipeline:
// submitter -> project manager -> owner.
type PettyCashService struct {
	db       *gorm.DB
	notifier *NotificationService
}

// NewPettyCashService creates a new petty-cash service instance
func NewPettyCashService() *PettyCashService {
	return &PettyCashService{
		db:       config.DB,
		notifier: NewNotificationService(),
	}
}

// SubmitInput is a petty-cash submission. Coordinates are optional; when
// present they are validated against the project fence and the result is
// recorded as an annotation, never as a gate.
type SubmitInput struct {
	ProjectID   uuid.UUID
	SubmitterID uuid.UUID
	Amount      float64
	Description string
	Category    string
	ReceiptURL  *string
	Latitude    *float64
	Longitude   *float64
}

// Submit creates an expense at PENDING_PM_APPROVAL.
func (s *PettyCashService) Submit(in SubmitInput) (*models.PettyCashExpense, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", approvals.ErrValidation)
	}
	if in.Description == "" || in.Category == "" {
		return nil, fmt.Errorf("%w: description and category are required", approvals.ErrValidation)
	}

	var project models.Project
	if err := s.db.First(&project, "id = ?", in.ProjectID).Error; err != nil {
		return nil, fmt.Errorf("%w: project %s", approvals.ErrNotFound, in.ProjectID)
	}

	expense := models.PettyCashExpense{
		ProjectID:   in.ProjectID,
		SubmitterID: in.SubmitterID,
		Amount:      in.Amount,
		Description: in.Description,
		Category:    in.Category,
		ReceiptURL:  in.ReceiptURL,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Status:      models.ExpensePendingPM,
	}

	if in.Latitude != nil && in.Longitude != nil {
		result, err := utils.ValidateGeofence(*in.Latitude, *in.Longitude, project.GeoFence)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", approvals.ErrValidation, err)
		}
		if result.Status != utils.GeofenceUnvalidated {
			valid := !result.Violation
			expense.DistanceFromSite = &result.DistanceMeters
			expense.GeofenceValid = &valid
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		number, err := sequence.NewIssuer(tx).Issue("EXP")
		if err != nil {
			return err
		}
		expense.ExpenseNumber = number
		return tx.Create(&expense).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create expense: %w", err)
	}

	title := "Petty cash approval required"
	msg := fmt.Sprintf("Expense %s for %.2f awaits manager approval", expense.ExpenseNumber, expense.Amount)
	if expense.GeofenceValid != nil && !*expense.GeofenceValid {
		msg += " (submitted outside the site geofence)"
	}
	s.notifier.NotifyAll(s.notifier.ProjectApproverIDs(in.ProjectID),
		models.NotificationApprovalRequired, title, msg,
		map[string]interface{}{"expenseId": expense.ID.String()})

	return &expense, nil
}

// ApprovePM is the tier-1 manager approval, advancing the expense to
// PENDING_OWNER_APPROVAL. Self-approval and tier skipping are rejected
// before any mutation; the transition itself is a status-guarded
// conditional update so double submissions lose cleanly.
func (s *PettyCashService) ApprovePM(expenseID, approverID uuid.UUID) (*models.PettyCashExpense, error) {
	var expense models.PettyCashExpense
	if err := s.db.First(&expense, "id = ?", expenseID).Error; err != nil {
		return nil, fmt.Errorf("%w: expense %s", approvals.ErrNotFound, expenseID)
	}
	if err := expense.CheckApproval(approverID, models.ExpensePendingPM); err != nil {
		return nil, err
	}

	now := time.Now()
	res := s.db.Model(&models.PettyCashExpense{}).
		Where("id = ? AND status = ?", expenseID, models.ExpensePendingPM).
		Updates(map[string]interface{}{
			"status":            models.ExpensePendingOwner,
			"pm_approved_by_id": approverID,
			"pm_approved_at":    now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("approve expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: expense already processed", approvals.ErrConflict)
	}

	if ownerID := s.projectOwnerID(expense.ProjectID); ownerID != uuid.Nil {
		s.notifier.Notify(ownerID,
			models.NotificationApprovalRequired,
			"Petty cash final sign-off required",
			fmt.Sprintf("Expense %s cleared manager review and awaits your approval", expense.ExpenseNumber),
			map[string]interface{}{"expenseId": expense.ID.String()})
	}

	return s.reload(expenseID)
}

// ApproveOwner is the tier-2 sign-off, the terminal APPROVED state. Only
// the owner of the expense's own project may give it; the role gate alone
// would let any owner sign off on any project.
func (s *PettyCashService) ApproveOwner(expenseID, approverID uuid.UUID) (*models.PettyCashExpense, error) {
	var expense models.PettyCashExpense
	if err := s.db.First(&expense, "id = ?", expenseID).Error; err != nil {
		return nil, fmt.Errorf("%w: expense %s", approvals.ErrNotFound, expenseID)
	}
	if err := expense.CheckApproval(approverID, models.ExpensePendingOwner); err != nil {
		return nil, err
	}
	if s.projectOwnerID(expense.ProjectID) != approverID {
		return nil, fmt.Errorf("%w: only the project owner may give final sign-off", approvals.ErrForbidden)
	}

	now := time.Now()
	res := s.db.Model(&models.PettyCashExpense{}).
		Where("id = ? AND status = ?", expenseID, models.ExpensePendingOwner).
		Updates(map[string]interface{}{
			"status":               models.ExpenseApproved,
			"owner_approved_by_id": approverID,
			"owner_approved_at":    now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("approve expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: expense already processed", approvals.ErrConflict)
	}

	s.notifier.Notify(expense.SubmitterID,
		models.NotificationApprovalApproved,
		"Petty cash approved",
		fmt.Sprintf("Expense %s for %.2f was approved", expense.ExpenseNumber, expense.Amount),
		map[string]interface{}{"expenseId": expense.ID.String()})

	return s.reload(expenseID)
}

// Reject is terminal from either pending tier. A missing reason gets the
// default filler so the rejection record is never empty.
func (s *PettyCashService) Reject(expenseID, rejecterID uuid.UUID, reason string) (*models.PettyCashExpense, error) {
	var expense models.PettyCashExpense
	if err := s.db.First(&expense, "id = ?", expenseID).Error; err != nil {
		return nil, fmt.Errorf("%w: expense %s", approvals.ErrNotFound, expenseID)
	}
	if err := expense.CheckRejection(rejecterID); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = defaultRejectionReason
	}

	now := time.Now()
	res := s.db.Model(&models.PettyCashExpense{}).
		Where("id = ? AND status IN ?", expenseID,
			[]models.ExpenseStatus{models.ExpensePendingPM, models.ExpensePendingOwner}).
		Updates(map[string]interface{}{
			"status":           models.ExpenseRejected,
			"rejected_by_id":   rejecterID,
			"rejected_at":      now,
			"rejection_reason": reason,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("reject expense: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: expense already processed", approvals.ErrConflict)
	}

	s.notifier.Notify(expense.SubmitterID,
		models.NotificationApprovalRejected,
		"Petty cash rejected",
		fmt.Sprintf("Expense %s was rejected: %s", expense.ExpenseNumber, reason),
		map[string]interface{}{"expenseId": expense.ID.String()})

	return s.reload(expenseID)
}

func (s *PettyCashService) reload(id uuid.UUID) (*models.PettyCashExpense, error) {
	var expense models.PettyCashExpense
	if err := s.db.First(&expense, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *PettyCashService) projectOwnerID(projectID uuid.UUID) uuid.UUID {
	var project models.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		return uuid.Nil
	}
	return project.OwnerID
}

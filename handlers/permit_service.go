package handlers

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
	"p9e.in/siteops/pkg/approvals"
	"p9e.in/siteops/pkg/sequence"
)

const (
	otpLength   = 6
	otpValidity = 10 * time.Minute
)

// PermitService drives the permit-to-work state machine: request, approval
// with one-time-code issuance, code verification, completion and expiry.
type PermitService struct {
	db       *gorm.DB
	issuer   *sequence.Issuer
	notifier *NotificationService
}

// NewPermitService creates a new permit service instance
func NewPermitService() *PermitService {
	return &PermitService{
		db:       config.DB,
		issuer:   sequence.NewIssuer(config.DB),
		notifier: NewNotificationService(),
	}
}

// Request creates a PENDING permit and tells the project's approvers.
func (ps *PermitService) Request(projectID, requesterID uuid.UUID, taskDescription, hazardType string, safetyMeasures []string) (*models.Permit, error) {
	if taskDescription == "" || hazardType == "" {
		return nil, fmt.Errorf("%w: task description and hazard type are required", approvals.ErrValidation)
	}
	if len(safetyMeasures) == 0 {
		return nil, fmt.Errorf("%w: at least one safety measure is required", approvals.ErrValidation)
	}

	var project models.Project
	if err := ps.db.First(&project, "id = ?", projectID).Error; err != nil {
		return nil, fmt.Errorf("%w: project %s", approvals.ErrNotFound, projectID)
	}

	var permit models.Permit
	err := ps.db.Transaction(func(tx *gorm.DB) error {
		number, err := sequence.NewIssuer(tx).Issue("PTW")
		if err != nil {
			return err
		}
		permit = models.Permit{
			PermitNumber:    number,
			ProjectID:       projectID,
			RequesterID:     requesterID,
			TaskDescription: taskDescription,
			HazardType:      hazardType,
			SafetyMeasures:  safetyMeasures,
			Status:          models.PermitPending,
		}
		return tx.Create(&permit).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create permit: %w", err)
	}

	ps.notifier.NotifyAll(ps.notifier.ProjectApproverIDs(projectID),
		models.NotificationPermitRequested,
		"Permit to work requested",
		fmt.Sprintf("Permit %s requested for hazardous task: %s", permit.PermitNumber, hazardType),
		map[string]interface{}{"permitId": permit.ID.String()})

	return &permit, nil
}

// Approve moves a PENDING permit to OTP_GENERATED: the approver issues a
// six-digit single-use code with a ten-minute validity window. The code is
// delivered to the requester through the notification sink, never in the
// response.
func (ps *PermitService) Approve(permitID, approverID uuid.UUID) (*models.Permit, error) {
	var permit models.Permit
	if err := ps.db.First(&permit, "id = ?", permitID).Error; err != nil {
		return nil, fmt.Errorf("%w: permit %s", approvals.ErrNotFound, permitID)
	}

	if err := approvals.EnsureDistinctActor(approverID, permit.RequesterID, "approve"); err != nil {
		return nil, err
	}
	if !permit.Status.CanTransition(models.PermitOTPGenerated) {
		return nil, fmt.Errorf("%w: permit is %s, cannot approve", approvals.ErrConflict, permit.Status)
	}

	code, err := generateOTP(otpLength)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	now := time.Now()
	expires := now.Add(otpValidity)
	res := ps.db.Model(&models.Permit{}).
		Where("id = ? AND status IN ?", permitID, []models.PermitStatus{models.PermitPending, models.PermitApproved}).
		Updates(map[string]interface{}{
			"status":           models.PermitOTPGenerated,
			"approved_by_id":   approverID,
			"approved_at":      now,
			"otp_code":         code,
			"otp_generated_at": now,
			"otp_expires_at":   expires,
			"otp_used":         false,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("approve permit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: permit already processed", approvals.ErrConflict)
	}

	// Out-of-band delivery; the code never appears in a read response.
	ps.notifier.Notify(permit.RequesterID,
		models.NotificationPermitOTP,
		"Work authorization code",
		fmt.Sprintf("Your code for permit %s is %s. It expires in %d minutes.", permit.PermitNumber, code, int(otpValidity.Minutes())),
		map[string]interface{}{"permitId": permit.ID.String()})

	if err := ps.db.First(&permit, "id = ?", permitID).Error; err != nil {
		return nil, err
	}
	return &permit, nil
}

// VerifyCode is the requester's attempt to start work. Exactly one
// concurrent attempt can win the conditional update; the loser sees a
// conflict. A late attempt, correct code or not, expires the permit for
// good.
func (ps *PermitService) VerifyCode(permitID, actorID uuid.UUID, code string) (*models.Permit, error) {
	var permit models.Permit
	if err := ps.db.First(&permit, "id = ?", permitID).Error; err != nil {
		return nil, fmt.Errorf("%w: permit %s", approvals.ErrNotFound, permitID)
	}

	now := time.Now()
	next, checkErr := permit.CheckVerification(actorID, code, now)

	if next == models.PermitExpired && permit.Status == models.PermitOTPGenerated {
		res := ps.db.Model(&models.Permit{}).
			Where("id = ? AND status = ?", permitID, models.PermitOTPGenerated).
			Updates(map[string]interface{}{"status": models.PermitExpired})
		if res.Error != nil {
			return nil, fmt.Errorf("expire permit: %w", res.Error)
		}
		return nil, checkErr
	}
	if checkErr != nil {
		return nil, checkErr
	}

	res := ps.db.Model(&models.Permit{}).
		Where("id = ? AND status = ? AND otp_used = ?", permitID, models.PermitOTPGenerated, false).
		Updates(map[string]interface{}{
			"status":          models.PermitCompleted,
			"otp_used":        true,
			"work_started_at": now,
			"completed_at":    now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("complete permit: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: code already used", approvals.ErrConflict)
	}

	if err := ps.db.First(&permit, "id = ?", permitID).Error; err != nil {
		return nil, err
	}
	return &permit, nil
}

// ExpireStale marks every OTP_GENERATED permit whose code validity has
// lapsed as EXPIRED. Correctness never depends on this sweep; expiry is
// also evaluated at verification time.
func (ps *PermitService) ExpireStale() (int64, error) {
	res := ps.db.Model(&models.Permit{}).
		Where("status = ? AND otp_expires_at < ?", models.PermitOTPGenerated, time.Now()).
		Updates(map[string]interface{}{"status": models.PermitExpired})
	if res.Error != nil {
		return 0, fmt.Errorf("expire stale permits: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		log.Printf("expired %d stale permits", res.RowsAffected)
	}
	return res.RowsAffected, nil
}

// generateOTP returns a uniformly random numeric code of the given length.
func generateOTP(length int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

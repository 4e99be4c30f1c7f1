package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
	"p9e.in/siteops/pkg/approvals"
	"p9e.in/siteops/pkg/sequence"
)

// testDB connects and migrates a scratch database. Set TEST_DATABASE_DSN to
// run the tests in this file.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := config.Migrations(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testNumber(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

// failingStore rejects every upload.
type failingStore struct{}

func (failingStore) Store(ctx context.Context, data []byte, folder, name string) (string, error) {
	return "", fmt.Errorf("object store unavailable")
}

// An invoice approval commits before the document pipeline runs; a dead
// object store must not revert it.
func TestInvoiceApproveSurvivesStoreFailure(t *testing.T) {
	db := testDB(t)
	svc := &InvoiceService{
		db:       db,
		policy:   config.DefaultBillingPolicy,
		notifier: &NotificationService{db: db},
		store:    failingStore{},
		email:    NewEmailService(),
	}

	invoice := models.ContractorInvoice{
		InvoiceNumber:  testNumber("INV"),
		ProjectID:      uuid.New(),
		ContractorID:   uuid.New(),
		WeekStart:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		WeekEnd:        time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC),
		LabourDayCount: 10,
		BlendedRate:    700,
		TaxableAmount:  7000,
		GSTRate:        18,
		GSTAmount:      1260,
		TotalAmount:    8260,
		Status:         models.InvoicePendingPM,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	approved, err := svc.Approve(invoice.ID, uuid.New())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != models.InvoiceApproved {
		t.Errorf("returned status = %s, expected APPROVED", approved.Status)
	}
	if !approved.VisibleToOwner {
		t.Error("approved invoice must be visible to the owner")
	}
	if approved.DocumentURL != nil {
		t.Errorf("failed upload must leave no document URL, got %q", *approved.DocumentURL)
	}

	var stored models.ContractorInvoice
	if err := db.First(&stored, "id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != models.InvoiceApproved {
		t.Errorf("stored status = %s, expected APPROVED", stored.Status)
	}

	// A second approval attempt is a conflict, not a re-run.
	if _, err := svc.Approve(invoice.ID, uuid.New()); !errors.Is(err, approvals.ErrConflict) {
		t.Errorf("second approval: expected ErrConflict, got %v", err)
	}
}

// Concurrent verifications of the same code produce exactly one COMPLETED
// permit; every loser sees a conflict.
func TestVerifyCodeConcurrentSingleWinner(t *testing.T) {
	db := testDB(t)
	svc := &PermitService{
		db:       db,
		issuer:   sequence.NewIssuer(db),
		notifier: &NotificationService{db: db},
	}

	requester := uuid.New()
	generated := time.Now()
	expires := generated.Add(otpValidity)
	permit := models.Permit{
		PermitNumber:    testNumber("PTW"),
		ProjectID:       uuid.New(),
		RequesterID:     requester,
		TaskDescription: "hot work near fuel storage",
		HazardType:      "hot_work",
		SafetyMeasures:  pq.StringArray{"fire watch posted"},
		Status:          models.PermitOTPGenerated,
		OTPCode:         "482913",
		OTPGeneratedAt:  &generated,
		OTPExpiresAt:    &expires,
	}
	if err := db.Create(&permit).Error; err != nil {
		t.Fatalf("create permit: %v", err)
	}

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.VerifyCode(permit.ID, requester, "482913")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, approvals.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Errorf("%d verifications succeeded, expected exactly 1", wins)
	}
	if conflicts != attempts-1 {
		t.Errorf("%d conflicts, expected %d", conflicts, attempts-1)
	}

	var stored models.Permit
	if err := db.First(&stored, "id = ?", permit.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != models.PermitCompleted {
		t.Errorf("stored status = %s, expected COMPLETED", stored.Status)
	}
	if !stored.OTPUsed {
		t.Error("winning verification must mark the code used")
	}
}

// Tier-2 sign-off belongs to the owner of the expense's project, not to
// every holder of the owner role.
func TestApproveOwnerRequiresProjectOwner(t *testing.T) {
	db := testDB(t)
	svc := &PettyCashService{db: db, notifier: &NotificationService{db: db}}

	ownerID := uuid.New()
	project := models.Project{
		Name:    "Riverside depot",
		Code:    testNumber("PRJ"),
		OwnerID: ownerID,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}

	expense := models.PettyCashExpense{
		ExpenseNumber: testNumber("EXP"),
		ProjectID:     project.ID,
		SubmitterID:   uuid.New(),
		Amount:        450,
		Description:   "diesel for generator",
		Category:      "fuel",
		Status:        models.ExpensePendingOwner,
	}
	if err := db.Create(&expense).Error; err != nil {
		t.Fatalf("create expense: %v", err)
	}

	if _, err := svc.ApproveOwner(expense.ID, uuid.New()); !errors.Is(err, approvals.ErrForbidden) {
		t.Errorf("foreign owner: expected ErrForbidden, got %v", err)
	}

	var stored models.PettyCashExpense
	if err := db.First(&stored, "id = ?", expense.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.Status != models.ExpensePendingOwner {
		t.Errorf("refused sign-off must not move the expense, got %s", stored.Status)
	}

	approved, err := svc.ApproveOwner(expense.ID, ownerID)
	if err != nil {
		t.Fatalf("project owner sign-off: %v", err)
	}
	if approved.Status != models.ExpenseApproved {
		t.Errorf("status = %s, expected APPROVED", approved.Status)
	}
}

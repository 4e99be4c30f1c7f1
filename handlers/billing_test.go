package handlers

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{0, 0},
		{1.004, 1.00},
		{1.006, 1.01},
		// 0.125 is exactly representable, so this pins half-away-from-zero.
		{0.125, 0.13},
		{-0.125, -0.13},
		{1234.5678, 1234.57},
		{700, 700},
	}

	for _, tt := range tests {
		if got := round2(tt.in); got != tt.expected {
			t.Errorf("round2(%v) = %v, expected %v", tt.in, got, tt.expected)
		}
	}
}

func TestCountLabourDays(t *testing.T) {
	workerA := uuid.New()
	workerB := uuid.New()
	day1 := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)

	rec := func(worker uuid.UUID, day time.Time) models.LabourAttendanceRecord {
		return models.LabourAttendanceRecord{LabourWorkerID: worker, AttendanceDate: day}
	}

	tests := []struct {
		name     string
		records  []models.LabourAttendanceRecord
		expected int
	}{
		{"empty", nil, 0},
		{"single record", []models.LabourAttendanceRecord{rec(workerA, day1)}, 1},
		{"duplicate same worker same day counts once", []models.LabourAttendanceRecord{
			rec(workerA, day1), rec(workerA, day1), rec(workerB, day1),
		}, 2},
		{"same worker across days counts per day", []models.LabourAttendanceRecord{
			rec(workerA, day1), rec(workerA, day2),
		}, 2},
		{"two workers two days", []models.LabourAttendanceRecord{
			rec(workerA, day1), rec(workerB, day1), rec(workerA, day2), rec(workerB, day2), rec(workerB, day2),
		}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := countLabourDays(tt.records); got != tt.expected {
				t.Errorf("countLabourDays() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestBlendRate(t *testing.T) {
	policy := config.DefaultBillingPolicy

	tests := []struct {
		name         string
		contractRate float64
		expected     float64
	}{
		{"no contract rate falls back to market", 0, 800},
		{"negative rate falls back to market", -100, 800},
		{"rate above cap falls back to market", 1501, 800},
		{"rate at cap is blended", 1500, 0.7*800 + 0.3*1500},
		{"typical rate is blended", 1000, 0.7*800 + 0.3*1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := blendRate(policy, tt.contractRate); got != round2(tt.expected) {
				t.Errorf("blendRate(%v) = %v, expected %v", tt.contractRate, got, round2(tt.expected))
			}
		})
	}
}

func TestComputeInvoiceAmounts(t *testing.T) {
	// Policy blending to exactly 700 so the reference calculation is plain:
	// 10 labour-days at 700.00 with 18% GST must yield 7000.00 taxable,
	// 1260.00 GST, 8260.00 total.
	policy := config.BillingPolicy{
		MarketDailyRate: 700,
		ContractRateCap: 1500,
		ReferenceWeight: 0.7,
		ContractWeight:  0.3,
		GSTRatePercent:  18,
	}

	amounts := computeInvoiceAmounts(policy, 10, 700)
	if amounts.BlendedRate != 700 {
		t.Errorf("BlendedRate = %v, expected 700", amounts.BlendedRate)
	}
	if amounts.TaxableAmount != 7000 {
		t.Errorf("TaxableAmount = %v, expected 7000", amounts.TaxableAmount)
	}
	if amounts.GSTAmount != 1260 {
		t.Errorf("GSTAmount = %v, expected 1260", amounts.GSTAmount)
	}
	if amounts.TotalAmount != 8260 {
		t.Errorf("TotalAmount = %v, expected 8260", amounts.TotalAmount)
	}
}

func TestComputeInvoiceAmountsInvariants(t *testing.T) {
	policy := config.DefaultBillingPolicy

	for _, tt := range []struct {
		days         int
		contractRate float64
	}{
		{1, 0}, {5, 950.50}, {26, 1500}, {13, 1200.33}, {0, 800},
	} {
		amounts := computeInvoiceAmounts(policy, tt.days, tt.contractRate)
		if expected := round2(float64(tt.days) * amounts.BlendedRate); amounts.TaxableAmount != expected {
			t.Errorf("days=%d rate=%v: TaxableAmount = %v, expected %v", tt.days, tt.contractRate, amounts.TaxableAmount, expected)
		}
		if expected := round2(amounts.TaxableAmount + amounts.GSTAmount); amounts.TotalAmount != expected {
			t.Errorf("days=%d rate=%v: TotalAmount = %v, expected %v", tt.days, tt.contractRate, amounts.TotalAmount, expected)
		}
	}
}

func TestWeekWindow(t *testing.T) {
	noon := time.Date(2026, 3, 2, 12, 30, 45, 0, time.UTC)
	start, end := weekWindow(noon)

	if expected := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC); !start.Equal(expected) {
		t.Errorf("start = %v, expected %v", start, expected)
	}
	if expected := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC); !end.Equal(expected) {
		t.Errorf("end = %v, expected %v", end, expected)
	}
}

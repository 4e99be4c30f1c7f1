package handlers

import (
	"math"
	"time"

	"github.com/google/uuid"

	"p9e.in/siteops/config"
	"p9e.in/siteops/models"
)

// round2 rounds half away from zero to two decimal places. Every monetary
// intermediate is rounded immediately after its arithmetic step, not only
// at the end.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// countLabourDays deduplicates attendance by (worker, calendar date): the
// same worker present twice on one day still counts once.
func countLabourDays(records []models.LabourAttendanceRecord) int {
	type workerDay struct {
		worker uuid.UUID
		day    string
	}
	seen := make(map[workerDay]struct{}, len(records))
	for _, rec := range records {
		key := workerDay{rec.LabourWorkerID, rec.AttendanceDate.Format("2006-01-02")}
		seen[key] = struct{}{}
	}
	return len(seen)
}

// blendRate computes the billable daily rate. The market reference rate is
// the default; a contract rate inside (0, cap] is blended in at the
// configured weights, reference weighted more heavily to resist
// contract-rate manipulation.
func blendRate(policy config.BillingPolicy, contractRate float64) float64 {
	if contractRate <= 0 || contractRate > policy.ContractRateCap {
		return round2(policy.MarketDailyRate)
	}
	return round2(policy.ReferenceWeight*policy.MarketDailyRate + policy.ContractWeight*contractRate)
}

// invoiceAmounts is the rounded monetary breakdown of one invoice.
type invoiceAmounts struct {
	BlendedRate   float64
	TaxableAmount float64
	GSTAmount     float64
	TotalAmount   float64
}

// computeInvoiceAmounts derives the stored amounts for a labour-day count.
// Invariants on the result: Taxable = days*rate, Total = Taxable+GST, all
// at two decimals.
func computeInvoiceAmounts(policy config.BillingPolicy, labourDays int, contractRate float64) invoiceAmounts {
	rate := blendRate(policy, contractRate)
	taxable := round2(float64(labourDays) * rate)
	gst := round2(taxable * policy.GSTRatePercent / 100)
	total := round2(taxable + gst)
	return invoiceAmounts{
		BlendedRate:   rate,
		TaxableAmount: taxable,
		GSTAmount:     gst,
		TotalAmount:   total,
	}
}

// weekWindow normalizes a billing window to whole calendar days.
func weekWindow(weekStart time.Time) (time.Time, time.Time) {
	start := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 6)
}

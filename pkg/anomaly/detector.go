// Package anomaly flags material-request quantities that sit well above
// the recent average for the same material. The detector is advisory: it
// annotates requests, it never blocks them.
package anomaly

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"p9e.in/siteops/models"
)

// DefaultThreshold flags quantities more than 30% above the trailing mean.
const DefaultThreshold = 1.3

// LookbackWindow is the trailing window over which the mean is computed.
const LookbackWindow = 7 * 24 * time.Hour

// Result is the detector's annotation for a proposed quantity.
type Result struct {
	IsAnomaly    bool     `json:"isAnomaly"`
	Reason       *string  `json:"reason,omitempty"`
	AverageUsage *float64 `json:"averageUsage,omitempty"`
}

// Detector compares proposed quantities against request history.
type Detector struct {
	db        *gorm.DB
	threshold float64
}

// NewDetector creates a detector with the default threshold.
func NewDetector(db *gorm.DB) *Detector {
	return &Detector{db: db, threshold: DefaultThreshold}
}

// WithThreshold overrides the multiplier above which a quantity is flagged.
func (d *Detector) WithThreshold(threshold float64) *Detector {
	d.threshold = threshold
	return d
}

// Detect evaluates a proposed quantity against the trailing 7-day history
// of approved and pending requests for the same material, optionally scoped
// to one project. No history means no baseline and no judgment.
func (d *Detector) Detect(materialID string, proposedQuantity float64, projectID *uuid.UUID) (Result, error) {
	since := time.Now().Add(-LookbackWindow)
	q := d.db.Model(&models.MaterialRequest{}).
		Where("material_id = ?", materialID).
		Where("created_at >= ?", since).
		Where("status IN ?", []models.MaterialRequestStatus{
			models.MaterialRequestApproved, models.MaterialRequestPending,
		})
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}

	var quantities []float64
	if err := q.Pluck("quantity", &quantities).Error; err != nil {
		return Result{}, fmt.Errorf("anomaly: load request history: %w", err)
	}

	return Evaluate(proposedQuantity, quantities, d.threshold), nil
}

// Evaluate applies the threshold rule to a proposed quantity and its
// historical baseline. The comparison is strict: a proposal exactly at
// mean*threshold is not an anomaly.
func Evaluate(proposed float64, history []float64, threshold float64) Result {
	if len(history) == 0 {
		return Result{IsAnomaly: false}
	}

	var sum float64
	for _, q := range history {
		sum += q
	}
	mean := sum / float64(len(history))

	// A non-positive mean (all-zero history) gives no usable baseline, so
	// it is treated like no history rather than flagging every request.
	// Unreachable through the request handlers, which reject non-positive
	// quantities; it only guards direct callers.
	if mean <= 0 || proposed <= mean*threshold {
		return Result{IsAnomaly: false, AverageUsage: &mean}
	}

	pctAbove := int(math.Round((proposed - mean) / mean * 100))
	reason := fmt.Sprintf("requested quantity is %d%% above the 7-day average of %.2f", pctAbove, mean)
	return Result{IsAnomaly: true, Reason: &reason, AverageUsage: &mean}
}

package anomaly

import (
	"strings"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		proposed  float64
		history   []float64
		threshold float64
		anomaly   bool
	}{
		{"no history means no baseline", 1000, nil, DefaultThreshold, false},
		{"empty history means no baseline", 1000, []float64{}, DefaultThreshold, false},
		{"below mean", 80, []float64{100, 100, 100}, DefaultThreshold, false},
		{"at mean", 100, []float64{100, 100, 100}, DefaultThreshold, false},
		{"exactly at threshold is not flagged", 130, []float64{100, 100, 100}, DefaultThreshold, false},
		{"just above threshold is flagged", 130.01, []float64{100, 100, 100}, DefaultThreshold, true},
		{"well above threshold", 200, []float64{100, 100, 100}, DefaultThreshold, true},
		{"mixed history uses the mean", 160, []float64{50, 100, 150}, DefaultThreshold, true},
		{"zero mean never flags", 50, []float64{0, 0, 0}, DefaultThreshold, false},
		{"custom threshold", 160, []float64{100}, 1.6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Evaluate(tt.proposed, tt.history, tt.threshold)
			if result.IsAnomaly != tt.anomaly {
				t.Errorf("Evaluate(%.2f, %v, %.2f).IsAnomaly = %v, expected %v",
					tt.proposed, tt.history, tt.threshold, result.IsAnomaly, tt.anomaly)
			}
			if result.IsAnomaly && result.Reason == nil {
				t.Error("anomalous result must carry a reason")
			}
			if !result.IsAnomaly && result.Reason != nil {
				t.Errorf("non-anomalous result must not carry a reason, got %q", *result.Reason)
			}
			if len(tt.history) > 0 && result.AverageUsage == nil {
				t.Error("result with history must report the average")
			}
		})
	}
}

func TestEvaluateReasonPercent(t *testing.T) {
	// 200 against a mean of 100 is 100% above.
	result := Evaluate(200, []float64{100, 100, 100}, DefaultThreshold)
	if !result.IsAnomaly {
		t.Fatal("expected anomaly")
	}
	if !strings.Contains(*result.Reason, "100%") {
		t.Errorf("reason %q does not name the 100%% excess", *result.Reason)
	}
	if !strings.Contains(*result.Reason, "100.00") {
		t.Errorf("reason %q does not name the average", *result.Reason)
	}
	if *result.AverageUsage != 100 {
		t.Errorf("AverageUsage = %.2f, expected 100.00", *result.AverageUsage)
	}
}

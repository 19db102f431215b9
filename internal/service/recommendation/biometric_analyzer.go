package recommendation

import (
	"wellness-backend/internal/domain/wellness"
)

const (
	lowHRVThreshold    = 30.0
	elevatedHeartRate  = 90.0
	activeDayStartHour = 8
	activeDayEndHour   = 18
)

// BiometricAnalyzer reacts to physiological thresholds in the latest reading.
type BiometricAnalyzer struct{}

func (BiometricAnalyzer) Name() string { return "biometric" }

func (BiometricAnalyzer) Analyze(c *wellness.AnalysisContext) []wellness.Recommendation {
	latest, ok := c.LatestBiometric()
	if !ok {
		return nil
	}

	var recs []wellness.Recommendation

	if latest.HRV != nil && *latest.HRV < lowHRVThreshold {
		recs = append(recs, wellness.Recommendation{
			ID:               "low-hrv-intervention",
			Type:             wellness.TypeBreathing,
			Priority:         wellness.PriorityHigh,
			Title:            "HRV Training Session",
			Description:      "Coherent breathing can help restore your heart rate variability.",
			Action:           "Start HRV Training",
			Module:           moduleBreathing,
			Route:            "/breathing/hrv-training",
			Confidence:       0.9,
			Reasons:          []string{"Heart rate variability is below your healthy range", "Coherent breathing improves HRV"},
			BiometricTrigger: "low HRV",
		})
	}

	// Outside the active day an elevated heart rate is treated as resting.
	if latest.HeartRate != nil && *latest.HeartRate > elevatedHeartRate &&
		!hourIn(c.CurrentTime, activeDayStartHour, activeDayEndHour) {
		recs = append(recs, wellness.Recommendation{
			ID:               "elevated-heart-rate-calming",
			Type:             wellness.TypeMeditation,
			Priority:         wellness.PriorityMedium,
			Title:            "Calming Meditation",
			Description:      "Your resting heart rate is elevated. Settle in with a calming session.",
			Action:           "Calm Down",
			Module:           moduleMeditation,
			Route:            "/meditation/calming",
			Confidence:       0.85,
			Reasons:          []string{"Elevated heart rate during a resting period", "Meditation helps lower heart rate"},
			BiometricTrigger: "elevated heart rate",
		})
	}

	return recs
}

package recommendation

import (
	"wellness-backend/internal/domain/wellness"
)

const (
	// defaultStressScore stands in for the latest stress score when no
	// biometric reading is available.
	defaultStressScore  = 30.0
	workStressThreshold = 60.0
)

// TimeAnalyzer emits suggestions tied to the hour of day and the work calendar.
type TimeAnalyzer struct{}

func (TimeAnalyzer) Name() string { return "time" }

func (TimeAnalyzer) Analyze(c *wellness.AnalysisContext) []wellness.Recommendation {
	if c == nil {
		return nil
	}

	var recs []wellness.Recommendation
	now := c.CurrentTime

	if hourIn(now, 6, 10) {
		if !ritualCompletedToday(c) {
			recs = append(recs, wellness.Recommendation{
				ID:           "morning-ritual",
				Type:         wellness.TypeRitual,
				Priority:     wellness.PriorityHigh,
				Title:        "Start Your Morning Ritual",
				Description:  "Set the tone for the day with your morning ritual.",
				Action:       "Begin Ritual",
				Module:       moduleRitual,
				Route:        "/rituals/morning",
				Confidence:   0.9,
				Reasons:      []string{"Morning hours are ideal for ritual practice", "No morning ritual completed today"},
				TimeRelevant: true,
			})
		}

		if p := c.Preferences; p != nil && (p.HasGoal("focus") || p.MeditationExperience != "beginner") {
			recs = append(recs, wellness.Recommendation{
				ID:           "morning-energizing-meditation",
				Type:         wellness.TypeMeditation,
				Priority:     wellness.PriorityMedium,
				Title:        "Energizing Morning Meditation",
				Description:  "A short energizing session to sharpen your focus for the day.",
				Action:       "Start Session",
				Module:       moduleMeditation,
				Route:        "/meditation/energizing",
				Confidence:   0.85,
				Reasons:      []string{"Morning energy boost", "Matches your practice goals"},
				TimeRelevant: true,
			})
		}
	}

	if hourIn(now, 9, 17) && c.Preferences.IsWorkDay(now.Weekday()) {
		stress := defaultStressScore
		if latest, ok := c.LatestBiometric(); ok && latest.StressScore != nil {
			stress = *latest.StressScore
		}
		if stress > workStressThreshold {
			recs = append(recs, wellness.Recommendation{
				ID:               "work-stress-relief",
				Type:             wellness.TypeBreathing,
				Priority:         wellness.PriorityUrgent,
				Title:            "Quick Stress Relief",
				Description:      "Take two minutes for a calming breathing exercise.",
				Action:           "Breathe Now",
				Module:           moduleBreathing,
				Route:            "/breathing/stress-relief",
				Confidence:       0.95,
				Reasons:          []string{"Elevated stress detected during work hours", "Breathing lowers stress quickly"},
				BiometricTrigger: "elevated stress",
			})
		}
	}

	if hourIn(now, 19, 22) {
		recs = append(recs, wellness.Recommendation{
			ID:           "evening-wind-down",
			Type:         wellness.TypeMeditation,
			Priority:     wellness.PriorityMedium,
			Title:        "Evening Wind-Down",
			Description:  "Release the day and prepare your body for restful sleep.",
			Action:       "Wind Down",
			Module:       moduleMeditation,
			Route:        "/meditation/wind-down",
			Confidence:   0.8,
			Reasons:      []string{"Evening is a good time to unwind", "Supports better sleep quality"},
			TimeRelevant: true,
		})
	}

	return recs
}

func ritualCompletedToday(c *wellness.AnalysisContext) bool {
	for _, s := range c.SessionHistory {
		if s.SessionType == wellness.SessionMorningRitual && wellness.SameDate(s.CompletedAt, c.CurrentTime) {
			return true
		}
	}
	return false
}

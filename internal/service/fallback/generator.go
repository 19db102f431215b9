// Package fallback produces session recommendations from self-reported
// context alone, for use when AI personalization is unavailable or there is
// no history to analyze yet.
package fallback

import (
	"time"

	"go.uber.org/zap"

	"wellness-backend/internal/domain/wellness"
)

// MaxResults caps the generator output.
const MaxResults = 5

const (
	highStressAbove = 6.0
	lowMoodBelow    = 5.0
	lowEnergyBelow  = 4.0
)

// Generator is a fixed rule table over a PersonalizationContext.
type Generator struct {
	now    func() time.Time
	logger *zap.Logger
}

// NewGenerator creates a generator. A nil clock uses time.Now, a nil logger is a no-op.
func NewGenerator(now func() time.Time, logger *zap.Logger) *Generator {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{now: now, logger: logger}
}

// Generate applies every rule to pc. When no rule fires a single balanced
// mindfulness session is returned, so the result is never empty.
func (g *Generator) Generate(pc wellness.PersonalizationContext) []wellness.SessionRecommendation {
	rc := pc.Resolved(g.now())
	available := rc.AvailableTime

	var recs []wellness.SessionRecommendation

	if rc.Stress > highStressAbove {
		recs = append(recs, wellness.SessionRecommendation{
			ID:          "fallback-stress-relief",
			Title:       "Stress Relief Breathing",
			Description: "Slow, guided breathing to bring your stress level down.",
			SessionType: wellness.SessionBreathing,
			Duration:    min(10, available),
			Difficulty:  "beginner",
			Confidence:  0.85,
			Reasoning:   []string{"Your stress level is elevated", "Breathing exercises calm the nervous system quickly"},
			ExpectedBenefits: wellness.ExpectedBenefits{
				MoodImprovement:  6,
				StressReduction:  8,
				FocusImprovement: 5,
			},
		})
	}

	if rc.Mood < lowMoodBelow {
		recs = append(recs, wellness.SessionRecommendation{
			ID:          "fallback-mood-boost",
			Title:       "Mood Boost Meditation",
			Description: "A gentle loving-kindness practice to lift your mood.",
			SessionType: wellness.SessionMeditation,
			Duration:    min(15, available),
			Difficulty:  "beginner",
			Confidence:  0.80,
			Reasoning:   []string{"Your mood could use a lift", "Loving-kindness practice improves emotional state"},
			ExpectedBenefits: wellness.ExpectedBenefits{
				MoodImprovement:  8,
				StressReduction:  6,
				FocusImprovement: 4,
			},
		})
	}

	if rc.TimeOfDay == wellness.Morning {
		recs = append(recs, wellness.SessionRecommendation{
			ID:          "fallback-morning-energizer",
			Title:       "Energizing Morning Breath",
			Description: "A short energizing breath sequence to start the day alert.",
			SessionType: wellness.SessionBreathing,
			Duration:    5,
			Difficulty:  "beginner",
			Confidence:  0.90,
			Reasoning:   []string{"Morning is ideal for energizing practices", "Short sessions are easy to fit in before the day starts"},
			ExpectedBenefits: wellness.ExpectedBenefits{
				MoodImprovement:  6,
				StressReduction:  4,
				FocusImprovement: 7,
			},
		})
	}

	if rc.TimeOfDay == wellness.Evening || rc.TimeOfDay == wellness.Night {
		recs = append(recs, wellness.SessionRecommendation{
			ID:          "fallback-sleep-prep",
			Title:       "Sleep Preparation",
			Description: "A body scan to release tension and prepare for restful sleep.",
			SessionType: wellness.SessionSleep,
			Duration:    min(20, available),
			Difficulty:  "beginner",
			Confidence:  0.88,
			Reasoning:   []string{"Evening practice supports better sleep", "Body scans release physical tension"},
			ExpectedBenefits: wellness.ExpectedBenefits{
				MoodImprovement:  5,
				StressReduction:  7,
				FocusImprovement: 3,
			},
		})
	}

	if rc.Energy < lowEnergyBelow {
		recs = append(recs, wellness.SessionRecommendation{
			ID:          "fallback-gentle-restore",
			Title:       "Gentle Restorative Meditation",
			Description: "A low-effort guided rest for when your energy is low.",
			SessionType: wellness.SessionMindfulness,
			Duration:    min(10, available),
			Difficulty:  "beginner",
			Confidence:  0.82,
			Reasoning:   []string{"Your energy is low", "Restorative practice needs little effort"},
			ExpectedBenefits: wellness.ExpectedBenefits{
				MoodImprovement:  5,
				StressReduction:  6,
				FocusImprovement: 4,
			},
		})
	}

	if len(recs) == 0 {
		recs = append(recs, wellness.SessionRecommendation{
			ID:          "fallback-balanced-mindfulness",
			Title:       "Balanced Mindfulness",
			Description: "A well-rounded mindfulness session for any moment of the day.",
			SessionType: wellness.SessionMindfulness,
			Duration:    min(15, available),
			Difficulty:  "intermediate",
			Confidence:  0.75,
			Reasoning:   []string{"A balanced practice suits your current state"},
			ExpectedBenefits: wellness.ExpectedBenefits{
				MoodImprovement:  6,
				StressReduction:  6,
				FocusImprovement: 6,
			},
		})
	}

	if len(recs) > MaxResults {
		recs = recs[:MaxResults]
	}
	for i := range recs {
		recs[i] = recs[i].Normalized()
	}

	g.logger.Debug("fallback recommendations generated",
		zap.String("time_of_day", string(rc.TimeOfDay)),
		zap.Int("count", len(recs)),
	)
	return recs
}

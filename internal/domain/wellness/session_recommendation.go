package wellness

import "time"

// TimeOfDay is a coarse bucket of the local clock.
type TimeOfDay string

const (
	Morning   TimeOfDay = "morning"
	Afternoon TimeOfDay = "afternoon"
	Evening   TimeOfDay = "evening"
	Night     TimeOfDay = "night"
)

// TimeOfDayAt buckets t: morning 6-11, afternoon 12-17, evening 18-21,
// night otherwise.
func TimeOfDayAt(t time.Time) TimeOfDay {
	switch h := t.Hour(); {
	case h >= 6 && h <= 11:
		return Morning
	case h >= 12 && h <= 17:
		return Afternoon
	case h >= 18 && h <= 21:
		return Evening
	default:
		return Night
	}
}

// Neutral defaults used when a personalization field is absent.
const (
	DefaultMood          = 5.0
	DefaultStress        = 5.0
	DefaultEnergy        = 5.0
	DefaultAvailableTime = 15
)

// PersonalizationContext is the partial, self-reported context used by the
// AI personalization path and its fallback. Every field is optional.
type PersonalizationContext struct {
	TimeOfDay     TimeOfDay `json:"timeOfDay,omitempty" yaml:"time_of_day,omitempty" validate:"omitempty,oneof=morning afternoon evening night"`
	CurrentMood   *float64  `json:"currentMood,omitempty" yaml:"current_mood,omitempty" validate:"omitempty,min=0,max=10"`
	CurrentStress *float64  `json:"currentStress,omitempty" yaml:"current_stress,omitempty" validate:"omitempty,min=0,max=10"`
	EnergyLevel   *float64  `json:"energyLevel,omitempty" yaml:"energy_level,omitempty" validate:"omitempty,min=0,max=10"`
	AvailableTime *int      `json:"availableTime,omitempty" yaml:"available_time,omitempty"`
	Timezone      string    `json:"timezone,omitempty" yaml:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Resolved fills absent fields with defaults, deriving the time of day from
// now in the context's timezone.
func (pc PersonalizationContext) Resolved(now time.Time) ResolvedContext {
	rc := ResolvedContext{
		TimeOfDay:     pc.TimeOfDay,
		Mood:          DefaultMood,
		Stress:        DefaultStress,
		Energy:        DefaultEnergy,
		AvailableTime: DefaultAvailableTime,
	}
	if rc.TimeOfDay == "" {
		rc.TimeOfDay = TimeOfDayAt(InLocation(now, LoadLocation(pc.Timezone)))
	}
	if pc.CurrentMood != nil {
		rc.Mood = *pc.CurrentMood
	}
	if pc.CurrentStress != nil {
		rc.Stress = *pc.CurrentStress
	}
	if pc.EnergyLevel != nil {
		rc.Energy = *pc.EnergyLevel
	}
	if pc.AvailableTime != nil {
		rc.AvailableTime = *pc.AvailableTime
	}
	return rc
}

// ResolvedContext is a PersonalizationContext with every default applied.
type ResolvedContext struct {
	TimeOfDay     TimeOfDay
	Mood          float64
	Stress        float64
	Energy        float64
	AvailableTime int
}

// ExpectedBenefits estimates the effect of a session on a 0-10 scale.
type ExpectedBenefits struct {
	MoodImprovement  float64 `json:"moodImprovement"`
	StressReduction  float64 `json:"stressReduction"`
	FocusImprovement float64 `json:"focusImprovement"`
}

// SessionRecommendation is the session-shaped suggestion produced by the AI
// personalization path and the fallback generator.
type SessionRecommendation struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	SessionType      string           `json:"sessionType"`
	Duration         int              `json:"duration"`
	Difficulty       string           `json:"difficulty"`
	Confidence       float64          `json:"confidence"`
	Reasoning        []string         `json:"reasoning"`
	ExpectedBenefits ExpectedBenefits `json:"expectedBenefits"`
}

// MinSessionMinutes is the shortest duration ever handed to the UI.
const MinSessionMinutes = 1

// Normalized returns a copy with confidence clamped into [0,1] and duration
// raised to at least MinSessionMinutes.
func (s SessionRecommendation) Normalized() SessionRecommendation {
	s.Confidence = ClampUnit(s.Confidence)
	if s.Duration < MinSessionMinutes {
		s.Duration = MinSessionMinutes
	}
	if s.Reasoning == nil {
		s.Reasoning = []string{}
	}
	return s
}

package handlers

import (
	"time"

	"wellness-backend/internal/domain/wellness"
)

// PreferencesDTO is the wire shape of wellness.Preferences.
type PreferencesDTO struct {
	MeditationGoals      []string `json:"meditationGoals" validate:"max=20,dive,required,max=64"`
	MeditationExperience string   `json:"meditationExperience" validate:"omitempty,oneof=beginner intermediate advanced"`
	WorkDays             []string `json:"workDays" validate:"max=7,dive,weekday"`
	Timezone             string   `json:"timezone" validate:"omitempty,timezone"`
}

// BiometricDTO is one wearable reading.
type BiometricDTO struct {
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	HeartRate   *float64  `json:"heartRate" validate:"omitempty,gt=0,lt=300"`
	HRV         *float64  `json:"hrv" validate:"omitempty,gte=0,lt=500"`
	StressScore *float64  `json:"stressScore" validate:"omitempty,gte=0,lte=100"`
	Source      string    `json:"source" validate:"max=64"`
}

// SessionDTO is one completed session.
type SessionDTO struct {
	ID              string    `json:"id" validate:"required,max=128"`
	SessionType     string    `json:"sessionType" validate:"required,max=64"`
	CompletedAt     time.Time `json:"completedAt" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"gte=0,lte=1440"`
	FocusScore      *float64  `json:"focusScore" validate:"omitempty,gte=0,lte=100"`
	MoodBefore      *float64  `json:"moodBefore" validate:"omitempty,gte=0,lte=10"`
	MoodAfter       *float64  `json:"moodAfter" validate:"omitempty,gte=0,lte=10"`
}

// UpdateContextRequest is the body of PUT /context. Omitted lists clear the
// corresponding signal.
type UpdateContextRequest struct {
	Preferences        *PreferencesDTO `json:"preferences"`
	Biometrics         []BiometricDTO  `json:"biometrics" validate:"max=1000,dive"`
	Sessions           []SessionDTO    `json:"sessions" validate:"max=1000,dive"`
	LastSocialActivity *time.Time      `json:"lastSocialActivity"`
}

// ToSignals converts the request into domain signals.
func (r *UpdateContextRequest) ToSignals() *wellness.Signals {
	signals := &wellness.Signals{
		Biometrics:         make([]wellness.BiometricReading, len(r.Biometrics)),
		Sessions:           toSessions(r.Sessions),
		LastSocialActivity: r.LastSocialActivity,
	}
	if r.Preferences != nil {
		signals.Preferences = &wellness.Preferences{
			MeditationGoals:      r.Preferences.MeditationGoals,
			MeditationExperience: r.Preferences.MeditationExperience,
			WorkDays:             r.Preferences.WorkDays,
			Timezone:             r.Preferences.Timezone,
		}
	}
	for i, b := range r.Biometrics {
		signals.Biometrics[i] = wellness.BiometricReading{
			Timestamp:   b.Timestamp,
			HeartRate:   b.HeartRate,
			HRV:         b.HRV,
			StressScore: b.StressScore,
			Source:      b.Source,
		}
	}
	return signals
}

func toSessions(in []SessionDTO) []wellness.SessionRecord {
	out := make([]wellness.SessionRecord, len(in))
	for i, s := range in {
		out[i] = wellness.SessionRecord{
			ID:              s.ID,
			SessionType:     s.SessionType,
			CompletedAt:     s.CompletedAt,
			DurationMinutes: s.DurationMinutes,
			FocusScore:      s.FocusScore,
			MoodBefore:      s.MoodBefore,
			MoodAfter:       s.MoodAfter,
		}
	}
	return out
}

// PersonalizedRequest is the body of POST /recommendations/personalized.
type PersonalizedRequest struct {
	Context        wellness.PersonalizationContext `json:"context"`
	RecentSessions []SessionDTO                    `json:"recentSessions" validate:"max=50,dive"`
}

// SessionRecommendationsResponse wraps session-shaped suggestions.
type SessionRecommendationsResponse struct {
	Recommendations []wellness.SessionRecommendation `json:"recommendations"`
	Source          string                           `json:"source"`
	Cause           string                           `json:"cause,omitempty"`
	Cached          bool                             `json:"cached"`
}

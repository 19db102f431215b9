package wellness

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAnalysisContext_Windows(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)

	readings := make([]BiometricReading, 25)
	for i := range readings {
		readings[i] = BiometricReading{Timestamp: now.Add(time.Duration(i) * time.Minute), HeartRate: Float(float64(60 + i))}
	}
	sessions := make([]SessionRecord, 33)
	for i := range sessions {
		sessions[i] = SessionRecord{ID: fmt.Sprintf("s-%d", i), SessionType: SessionMeditation}
	}

	ctx := NewAnalysisContext(nil, readings, sessions, now)

	require.Len(t, ctx.RecentBiometrics, BiometricWindow)
	require.Len(t, ctx.SessionHistory, SessionWindow)
	assert.Equal(t, 84.0, *ctx.RecentBiometrics[BiometricWindow-1].HeartRate)
	assert.Equal(t, 75.0, *ctx.RecentBiometrics[0].HeartRate)
	assert.Equal(t, "s-13", ctx.SessionHistory[0].ID)
	assert.Equal(t, "s-32", ctx.SessionHistory[SessionWindow-1].ID)
	assert.Equal(t, now, ctx.CurrentTime)
}

func TestNewAnalysisContext_ShortInputsKeptWhole(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	ctx := NewAnalysisContext(nil, []BiometricReading{{Timestamp: now}}, nil, now)

	assert.Len(t, ctx.RecentBiometrics, 1)
	assert.Empty(t, ctx.SessionHistory)
	assert.Nil(t, ctx.Preferences)
	assert.Nil(t, ctx.LastSocialActivity)
}

func TestNewAnalysisContext_CopiesInputs(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	prefs := &Preferences{MeditationGoals: []string{"focus"}, WorkDays: []string{"Monday"}}
	sessions := []SessionRecord{{ID: "a"}}

	ctx := NewAnalysisContext(prefs, nil, sessions, now)
	sessions[0].ID = "mutated"
	prefs.MeditationGoals[0] = "sleep"

	assert.Equal(t, "a", ctx.SessionHistory[0].ID)
	assert.True(t, ctx.Preferences.HasGoal("focus"))
}

func TestWithLastSocialActivity(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	last := now.AddDate(0, 0, -3)

	ctx := NewAnalysisContext(nil, nil, nil, now, WithLastSocialActivity(last))

	require.NotNil(t, ctx.LastSocialActivity)
	assert.Equal(t, last, *ctx.LastSocialActivity)
}

func TestPreferences_IsWorkDay(t *testing.T) {
	var absent *Preferences
	assert.True(t, absent.IsWorkDay(time.Sunday))

	prefs := &Preferences{WorkDays: []string{"monday", " Tuesday "}}
	assert.True(t, prefs.IsWorkDay(time.Monday))
	assert.True(t, prefs.IsWorkDay(time.Tuesday))
	assert.False(t, prefs.IsWorkDay(time.Saturday))
}

func TestPriorityWeightAndScore(t *testing.T) {
	assert.Equal(t, 4.0, PriorityWeight(PriorityUrgent))
	assert.Equal(t, 3.0, PriorityWeight(PriorityHigh))
	assert.Equal(t, 2.0, PriorityWeight(PriorityMedium))
	assert.Equal(t, 1.0, PriorityWeight(PriorityLow))
	assert.Equal(t, 0.0, PriorityWeight("bogus"))

	r := Recommendation{Priority: PriorityHigh, Confidence: 0.9}
	assert.InDelta(t, 2.7, r.Score(), 1e-9)
}

func TestClampUnit(t *testing.T) {
	assert.Equal(t, 0.0, ClampUnit(-0.5))
	assert.Equal(t, 1.0, ClampUnit(1.7))
	assert.Equal(t, 0.4, ClampUnit(0.4))
	assert.Equal(t, 0.0, ClampUnit(math.NaN()))
}

func TestTimeOfDayAt(t *testing.T) {
	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{5, Night}, {6, Morning}, {11, Morning}, {12, Afternoon}, {17, Afternoon},
		{18, Evening}, {21, Evening}, {22, Night}, {0, Night},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%02d", tt.hour), func(t *testing.T) {
			at := time.Date(2024, 3, 4, tt.hour, 30, 0, 0, time.UTC)
			assert.Equal(t, tt.want, TimeOfDayAt(at))
		})
	}
}

func TestPersonalizationContext_Resolved(t *testing.T) {
	now := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)

	rc := PersonalizationContext{}.Resolved(now)
	assert.Equal(t, Evening, rc.TimeOfDay)
	assert.Equal(t, DefaultMood, rc.Mood)
	assert.Equal(t, DefaultStress, rc.Stress)
	assert.Equal(t, DefaultEnergy, rc.Energy)
	assert.Equal(t, DefaultAvailableTime, rc.AvailableTime)

	minutes := 7
	rc = PersonalizationContext{TimeOfDay: Morning, CurrentMood: Float(2), AvailableTime: &minutes}.Resolved(now)
	assert.Equal(t, Morning, rc.TimeOfDay)
	assert.Equal(t, 2.0, rc.Mood)
	assert.Equal(t, 7, rc.AvailableTime)
}

func TestSessionRecommendation_Normalized(t *testing.T) {
	s := SessionRecommendation{Duration: -4, Confidence: 1.3}.Normalized()
	assert.Equal(t, MinSessionMinutes, s.Duration)
	assert.Equal(t, 1.0, s.Confidence)
	assert.NotNil(t, s.Reasoning)
}

package recommendation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wellness-backend/internal/domain/wellness"
	"wellness-backend/internal/service/recommendation"
)

// Wednesday, 12 March 2025.
func at(hour int) time.Time {
	return time.Date(2025, time.March, 12, hour, 0, 0, 0, time.UTC)
}

func ids(recs []wellness.Recommendation) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func find(recs []wellness.Recommendation, id string) (wellness.Recommendation, bool) {
	for _, r := range recs {
		if r.ID == id {
			return r, true
		}
	}
	return wellness.Recommendation{}, false
}

func stress(v float64, ts time.Time) wellness.BiometricReading {
	return wellness.BiometricReading{Timestamp: ts, StressScore: wellness.Float(v)}
}

func session(sessionType string, completedAt time.Time) wellness.SessionRecord {
	return wellness.SessionRecord{
		ID:              sessionType + "-" + completedAt.Format(time.RFC3339),
		SessionType:     sessionType,
		CompletedAt:     completedAt,
		DurationMinutes: 10,
	}
}

func TestTimeAnalyzer(t *testing.T) {
	analyzer := recommendation.TimeAnalyzer{}

	t.Run("Should suggest morning ritual when none completed today", func(t *testing.T) {
		c := wellness.NewAnalysisContext(nil, nil, nil, at(7))

		recs := analyzer.Analyze(c)

		require.Equal(t, []string{"morning-ritual"}, ids(recs))
		assert.Equal(t, wellness.PriorityHigh, recs[0].Priority)
		assert.Equal(t, wellness.TypeRitual, recs[0].Type)
		assert.True(t, recs[0].TimeRelevant)
	})

	t.Run("Should skip morning ritual when already completed today", func(t *testing.T) {
		sessions := []wellness.SessionRecord{session(wellness.SessionMorningRitual, at(6).Add(30*time.Minute))}
		c := wellness.NewAnalysisContext(nil, nil, sessions, at(7))

		_, ok := find(analyzer.Analyze(c), "morning-ritual")
		assert.False(t, ok)
	})

	t.Run("Should still suggest morning ritual when last one was yesterday", func(t *testing.T) {
		sessions := []wellness.SessionRecord{session(wellness.SessionMorningRitual, at(7).Add(-24*time.Hour))}
		c := wellness.NewAnalysisContext(nil, nil, sessions, at(7))

		_, ok := find(analyzer.Analyze(c), "morning-ritual")
		assert.True(t, ok)
	})

	t.Run("Energizing meditation depends on preferences", func(t *testing.T) {
		tests := []struct {
			name  string
			prefs *wellness.Preferences
			want  bool
		}{
			{"no preferences", nil, false},
			{"beginner without focus goal", &wellness.Preferences{MeditationExperience: "beginner", MeditationGoals: []string{"sleep"}}, false},
			{"beginner with focus goal", &wellness.Preferences{MeditationExperience: "beginner", MeditationGoals: []string{"focus"}}, true},
			{"experienced", &wellness.Preferences{MeditationExperience: "advanced"}, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := wellness.NewAnalysisContext(tt.prefs, nil, nil, at(8))

				rec, ok := find(analyzer.Analyze(c), "morning-energizing-meditation")
				assert.Equal(t, tt.want, ok)
				if ok {
					assert.Equal(t, wellness.PriorityMedium, rec.Priority)
					assert.InDelta(t, 0.85, rec.Confidence, 1e-9)
				}
			})
		}
	})

	t.Run("Should flag work stress above threshold", func(t *testing.T) {
		readings := []wellness.BiometricReading{stress(75, at(13))}
		c := wellness.NewAnalysisContext(nil, readings, nil, at(14))

		rec, ok := find(analyzer.Analyze(c), "work-stress-relief")
		require.True(t, ok)
		assert.Equal(t, wellness.PriorityUrgent, rec.Priority)
		assert.Equal(t, "elevated stress", rec.BiometricTrigger)
	})

	t.Run("Work stress rule boundaries", func(t *testing.T) {
		weekdays := &wellness.Preferences{WorkDays: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}}
		saturday := time.Date(2025, time.March, 15, 14, 0, 0, 0, time.UTC)

		tests := []struct {
			name     string
			prefs    *wellness.Preferences
			readings []wellness.BiometricReading
			now      time.Time
			want     bool
		}{
			{"stress exactly 60", nil, []wellness.BiometricReading{stress(60, at(13))}, at(14), false},
			{"no readings uses default", nil, nil, at(14), false},
			{"reading without stress score", nil, []wellness.BiometricReading{{Timestamp: at(13), HRV: wellness.Float(50)}}, at(14), false},
			{"weekend is not a work day", weekdays, []wellness.BiometricReading{stress(80, saturday)}, saturday, false},
			{"weekday listed", weekdays, []wellness.BiometricReading{stress(80, at(13))}, at(14), true},
			{"before work hours", nil, []wellness.BiometricReading{stress(80, at(8))}, at(8), false},
			{"last work hour", nil, []wellness.BiometricReading{stress(80, at(17))}, at(17), true},
			{"after work hours", nil, []wellness.BiometricReading{stress(80, at(18))}, at(18), false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := wellness.NewAnalysisContext(tt.prefs, tt.readings, nil, tt.now)

				_, ok := find(analyzer.Analyze(c), "work-stress-relief")
				assert.Equal(t, tt.want, ok)
			})
		}
	})

	t.Run("Evening wind-down window", func(t *testing.T) {
		for hour, want := range map[int]bool{18: false, 19: true, 22: true, 23: false} {
			c := wellness.NewAnalysisContext(nil, nil, nil, at(hour))

			_, ok := find(analyzer.Analyze(c), "evening-wind-down")
			assert.Equal(t, want, ok, "hour %d", hour)
		}
	})

	t.Run("Morning window", func(t *testing.T) {
		for hour, want := range map[int]bool{5: false, 6: true, 10: true, 11: false} {
			c := wellness.NewAnalysisContext(nil, nil, nil, at(hour))

			_, ok := find(analyzer.Analyze(c), "morning-ritual")
			assert.Equal(t, want, ok, "hour %d", hour)
		}
	})
}

func TestBiometricAnalyzer(t *testing.T) {
	analyzer := recommendation.BiometricAnalyzer{}

	t.Run("Should return nothing without readings", func(t *testing.T) {
		assert.Empty(t, analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, nil, at(22))))
	})

	t.Run("Should suggest HRV training for low HRV", func(t *testing.T) {
		readings := []wellness.BiometricReading{{Timestamp: at(11), HRV: wellness.Float(25)}}
		c := wellness.NewAnalysisContext(nil, readings, nil, at(12))

		recs := analyzer.Analyze(c)

		require.Equal(t, []string{"low-hrv-intervention"}, ids(recs))
		assert.InDelta(t, 0.9, recs[0].Confidence, 1e-9)
		assert.Equal(t, wellness.PriorityHigh, recs[0].Priority)
		assert.Equal(t, "low HRV", recs[0].BiometricTrigger)
	})

	t.Run("Should not fire at the HRV threshold", func(t *testing.T) {
		readings := []wellness.BiometricReading{{Timestamp: at(11), HRV: wellness.Float(30)}}
		assert.Empty(t, analyzer.Analyze(wellness.NewAnalysisContext(nil, readings, nil, at(12))))
	})

	t.Run("Should only consider the latest reading", func(t *testing.T) {
		readings := []wellness.BiometricReading{
			{Timestamp: at(10), HRV: wellness.Float(20)},
			{Timestamp: at(11), HRV: wellness.Float(55)},
		}
		assert.Empty(t, analyzer.Analyze(wellness.NewAnalysisContext(nil, readings, nil, at(12))))
	})

	t.Run("Elevated heart rate only outside active hours", func(t *testing.T) {
		tests := []struct {
			name string
			hr   float64
			hour int
			want bool
		}{
			{"late evening", 95, 22, true},
			{"early morning", 95, 7, true},
			{"midday", 95, 12, false},
			{"start of active day", 95, 8, false},
			{"end of active day", 95, 18, false},
			{"at threshold", 90, 22, false},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				readings := []wellness.BiometricReading{{Timestamp: at(tt.hour), HeartRate: wellness.Float(tt.hr)}}
				c := wellness.NewAnalysisContext(nil, readings, nil, at(tt.hour))

				rec, ok := find(analyzer.Analyze(c), "elevated-heart-rate-calming")
				assert.Equal(t, tt.want, ok)
				if ok {
					assert.Equal(t, "elevated heart rate", rec.BiometricTrigger)
				}
			})
		}
	})
}

func TestPatternAnalyzer(t *testing.T) {
	analyzer := recommendation.PatternAnalyzer{}
	now := at(12)

	t.Run("Should suggest rebuilding the streak with no history", func(t *testing.T) {
		recs := analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, nil, now))

		require.Equal(t, []string{"rebuild-streak"}, ids(recs))
		assert.InDelta(t, 0.7, recs[0].Confidence, 1e-9)
	})

	t.Run("Streak counts distinct active days", func(t *testing.T) {
		tests := []struct {
			name     string
			sessions []wellness.SessionRecord
			want     bool
		}{
			{
				name: "three distinct days",
				sessions: []wellness.SessionRecord{
					session("meditation", now.Add(-50*time.Hour)),
					session("mindfulness", now.Add(-26*time.Hour)),
					session("breathing", now.Add(-2*time.Hour)),
				},
				want: false,
			},
			{
				name: "three sessions on one day",
				sessions: []wellness.SessionRecord{
					session("meditation", now.Add(-3*time.Hour)),
					session("meditation", now.Add(-2*time.Hour)),
					session("meditation", now.Add(-1*time.Hour)),
				},
				want: true,
			},
			{
				name: "old sessions outside the window",
				sessions: []wellness.SessionRecord{
					session("meditation", now.Add(-9*24*time.Hour)),
					session("meditation", now.Add(-8*24*time.Hour)),
					session("meditation", now.Add(-2*time.Hour)),
				},
				want: true,
			},
			{
				name: "focus sessions are not meditation-like",
				sessions: []wellness.SessionRecord{
					session("focus", now.Add(-50*time.Hour)),
					session("focus", now.Add(-26*time.Hour)),
					session("focus", now.Add(-2*time.Hour)),
				},
				want: true,
			},
			{
				name: "custom meditation types count",
				sessions: []wellness.SessionRecord{
					session("walking_meditation", now.Add(-50*time.Hour)),
					session("body_scan", now.Add(-26*time.Hour)),
					session("sleep", now.Add(-2*time.Hour)),
				},
				want: false,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, ok := find(analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, tt.sessions, now)), "rebuild-streak")
				assert.Equal(t, tt.want, ok)
			})
		}
	})

	t.Run("Focus training uses the last five focus sessions", func(t *testing.T) {
		focus := func(score *float64, ago time.Duration) wellness.SessionRecord {
			s := session("focus", now.Add(-ago))
			s.FocusScore = score
			return s
		}

		tests := []struct {
			name     string
			sessions []wellness.SessionRecord
			want     bool
		}{
			{"no focus sessions", []wellness.SessionRecord{session("meditation", now.Add(-time.Hour))}, false},
			{"low scores", []wellness.SessionRecord{focus(wellness.Float(50), 3*time.Hour), focus(wellness.Float(40), 2*time.Hour)}, true},
			{"high scores", []wellness.SessionRecord{focus(wellness.Float(80), 3*time.Hour), focus(wellness.Float(90), 2*time.Hour)}, false},
			{"missing scores default to 70", []wellness.SessionRecord{focus(nil, 3*time.Hour), focus(nil, 2*time.Hour)}, false},
			{"exactly 60 does not fire", []wellness.SessionRecord{focus(wellness.Float(60), 2*time.Hour)}, false},
			{
				name: "older low scores are ignored",
				sessions: []wellness.SessionRecord{
					focus(wellness.Float(10), 10*time.Hour),
					focus(wellness.Float(10), 9*time.Hour),
					focus(wellness.Float(90), 5*time.Hour),
					focus(wellness.Float(90), 4*time.Hour),
					focus(wellness.Float(90), 3*time.Hour),
					focus(wellness.Float(90), 2*time.Hour),
					focus(wellness.Float(90), 1*time.Hour),
				},
				want: false,
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, ok := find(analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, tt.sessions, now)), "focus-training")
				assert.Equal(t, tt.want, ok)
			})
		}
	})

	t.Run("Should suggest continuing the dominant practice", func(t *testing.T) {
		var sessions []wellness.SessionRecord
		for i := 6; i >= 1; i-- {
			sessions = append(sessions, session("breathing", now.Add(-time.Duration(i)*20*time.Hour)))
		}

		rec, ok := find(analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, sessions, now)), "continue-practice")

		require.True(t, ok)
		assert.Equal(t, wellness.TypeBreathing, rec.Type)
		assert.Equal(t, wellness.PriorityLow, rec.Priority)
		assert.Contains(t, rec.Title, "Breathing")
		assert.Contains(t, rec.Reasons[0], "6 breathing sessions")
	})

	t.Run("Should not suggest continuing with fewer than six sessions", func(t *testing.T) {
		var sessions []wellness.SessionRecord
		for i := 5; i >= 1; i-- {
			sessions = append(sessions, session("breathing", now.Add(-time.Duration(i)*time.Hour)))
		}

		_, ok := find(analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, sessions, now)), "continue-practice")
		assert.False(t, ok)
	})

	t.Run("Dominant type ties go to the type seen first", func(t *testing.T) {
		var sessions []wellness.SessionRecord
		for i := 12; i >= 1; i-- {
			kind := "body_scan"
			if i%2 == 0 {
				kind = "morning_ritual"
			}
			sessions = append(sessions, session(kind, now.Add(-time.Duration(i)*time.Hour)))
		}

		rec, ok := find(analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, sessions, now)), "continue-practice")

		require.True(t, ok)
		assert.Equal(t, wellness.TypeRitual, rec.Type)
		assert.Contains(t, rec.Title, "Morning Ritual")
	})
}

func TestSocialAnalyzer(t *testing.T) {
	analyzer := recommendation.SocialAnalyzer{}
	now := at(12)

	tests := []struct {
		name string
		last *time.Time
		want bool
	}{
		{"unknown activity stays silent", nil, false},
		{"active three days ago", ptr(now.Add(-3 * 24 * time.Hour)), false},
		{"exactly seven days", ptr(now.Add(-7 * 24 * time.Hour)), false},
		{"eight days of silence", ptr(now.Add(-8 * 24 * time.Hour)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []wellness.ContextOption
			if tt.last != nil {
				opts = append(opts, wellness.WithLastSocialActivity(*tt.last))
			}
			recs := analyzer.Analyze(wellness.NewAnalysisContext(nil, nil, nil, now, opts...))

			rec, ok := find(recs, "social-reconnect")
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, wellness.TypeSocial, rec.Type)
				assert.Contains(t, rec.Reasons[0], "8 days")
			}
		})
	}
}

func ptr[T any](v T) *T {
	return &v
}

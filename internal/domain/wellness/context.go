package wellness

import (
	"strings"
	"time"
)

const (
	// BiometricWindow is the number of most recent readings kept in a context.
	BiometricWindow = 10
	// SessionWindow is the number of most recent sessions kept in a context.
	SessionWindow = 20
)

// Well-known session types written by the application's session log.
const (
	SessionMorningRitual = "morning_ritual"
	SessionMeditation    = "meditation"
	SessionMindfulness   = "mindfulness"
	SessionBodyScan      = "body_scan"
	SessionBreathing     = "breathing"
	SessionSleep         = "sleep"
	SessionFocus         = "focus"
)

// Preferences is a read-only snapshot of the user's goals and schedule.
type Preferences struct {
	MeditationGoals      []string `json:"meditation_goals" yaml:"meditation_goals"`
	MeditationExperience string   `json:"meditation_experience" yaml:"meditation_experience"`
	WorkDays             []string `json:"work_days" yaml:"work_days"`
	Timezone             string   `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// Location resolves the user's IANA timezone. It returns nil when the zone is
// absent or unknown, in which case callers keep the clock's own location.
func (p *Preferences) Location() *time.Location {
	if p == nil {
		return nil
	}
	return LoadLocation(p.Timezone)
}

// LoadLocation is time.LoadLocation that treats an empty or unknown name as nil.
func LoadLocation(name string) *time.Location {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil
	}
	return loc
}

// InLocation converts t to loc, leaving t untouched for a nil loc.
func InLocation(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		return t
	}
	return t.In(loc)
}

// HasGoal reports whether goal is one of the user's meditation goals.
func (p *Preferences) HasGoal(goal string) bool {
	if p == nil {
		return false
	}
	for _, g := range p.MeditationGoals {
		if strings.EqualFold(strings.TrimSpace(g), goal) {
			return true
		}
	}
	return false
}

// IsWorkDay reports whether day is a work day. Absent preferences treat every
// day as a work day.
func (p *Preferences) IsWorkDay(day time.Weekday) bool {
	if p == nil {
		return true
	}
	for _, d := range p.WorkDays {
		if strings.EqualFold(strings.TrimSpace(d), day.String()) {
			return true
		}
	}
	return false
}

// BiometricReading is one sample from a wearable. Absent measurements are nil.
type BiometricReading struct {
	Timestamp   time.Time `json:"timestamp" yaml:"timestamp"`
	HeartRate   *float64  `json:"heart_rate,omitempty" yaml:"heart_rate,omitempty"`
	HRV         *float64  `json:"hrv,omitempty" yaml:"hrv,omitempty"`
	StressScore *float64  `json:"stress_score,omitempty" yaml:"stress_score,omitempty"`
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
}

// SessionRecord is one completed practice session.
type SessionRecord struct {
	ID              string    `json:"id" yaml:"id"`
	SessionType     string    `json:"session_type" yaml:"session_type"`
	CompletedAt     time.Time `json:"completed_at" yaml:"completed_at"`
	DurationMinutes int       `json:"duration_minutes" yaml:"duration_minutes"`
	FocusScore      *float64  `json:"focus_score,omitempty" yaml:"focus_score,omitempty"`
	MoodBefore      *float64  `json:"mood_before,omitempty" yaml:"mood_before,omitempty"`
	MoodAfter       *float64  `json:"mood_after,omitempty" yaml:"mood_after,omitempty"`
}

// AnalysisContext is the immutable snapshot every analyzer reads. It is
// rebuilt wholesale on each update and never mutated afterwards.
// CurrentTime is in the user's timezone when their preferences name one.
type AnalysisContext struct {
	Preferences        *Preferences
	RecentBiometrics   []BiometricReading
	SessionHistory     []SessionRecord
	CurrentTime        time.Time
	LastSocialActivity *time.Time
}

// ContextOption supplies optional signals to NewAnalysisContext.
type ContextOption func(*AnalysisContext)

// WithLastSocialActivity records when the user last engaged socially.
func WithLastSocialActivity(at time.Time) ContextOption {
	return func(c *AnalysisContext) {
		t := at
		c.LastSocialActivity = &t
	}
}

// NewAnalysisContext builds a snapshot from arbitrary-length inputs, keeping
// only the most recent BiometricWindow readings and SessionWindow sessions.
// Inputs are copied so later caller mutation does not leak into the snapshot.
func NewAnalysisContext(
	prefs *Preferences,
	biometrics []BiometricReading,
	sessions []SessionRecord,
	now time.Time,
	opts ...ContextOption,
) *AnalysisContext {
	var prefsCopy *Preferences
	if prefs != nil {
		p := *prefs
		p.MeditationGoals = append([]string(nil), prefs.MeditationGoals...)
		p.WorkDays = append([]string(nil), prefs.WorkDays...)
		prefsCopy = &p
	}

	ctx := &AnalysisContext{
		Preferences:      prefsCopy,
		RecentBiometrics: tail(biometrics, BiometricWindow),
		SessionHistory:   tail(sessions, SessionWindow),
		CurrentTime:      InLocation(now, prefsCopy.Location()),
	}
	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// At returns a copy of c evaluated at now, kept in the snapshot's timezone.
// The windows are shared, which is safe because snapshots are never mutated.
func (c *AnalysisContext) At(now time.Time) *AnalysisContext {
	if c == nil {
		return nil
	}
	out := *c
	out.CurrentTime = now.In(c.CurrentTime.Location())
	return &out
}

// LatestBiometric returns the most recent reading, if any.
func (c *AnalysisContext) LatestBiometric() (BiometricReading, bool) {
	if c == nil || len(c.RecentBiometrics) == 0 {
		return BiometricReading{}, false
	}
	return c.RecentBiometrics[len(c.RecentBiometrics)-1], true
}

func tail[T any](in []T, n int) []T {
	if len(in) > n {
		in = in[len(in)-n:]
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// SameDate reports whether a and b fall on the same calendar date in b's location.
func SameDate(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Float returns a pointer to v; handy for optional measurements.
func Float(v float64) *float64 {
	return &v
}

// Package recommendation provides the contextual recommendation engine: a
// fixed set of rule-based analyzers over an immutable context snapshot, and an
// orchestrator that ranks and caps their combined output.
package recommendation

import (
	"strings"
	"time"

	"wellness-backend/internal/domain/wellness"
)

// Analyzer turns a context snapshot into zero or more candidate
// recommendations. Implementations are stateless.
type Analyzer interface {
	Name() string
	Analyze(c *wellness.AnalysisContext) []wellness.Recommendation
}

// DefaultAnalyzers returns the analyzers in the order their output is
// concatenated before ranking.
func DefaultAnalyzers() []Analyzer {
	return []Analyzer{
		TimeAnalyzer{},
		BiometricAnalyzer{},
		PatternAnalyzer{},
		SocialAnalyzer{},
	}
}

// Navigation targets understood by the client application.
const (
	moduleMeditation = "meditation"
	moduleBreathing  = "breathing"
	moduleFocus      = "focus"
	moduleRitual     = "rituals"
	moduleSocial     = "community"
)

const day = 24 * time.Hour

func hourIn(t time.Time, from, to int) bool {
	h := t.Hour()
	return h >= from && h <= to
}

var meditationLike = map[string]bool{
	wellness.SessionMeditation:    true,
	wellness.SessionMindfulness:   true,
	wellness.SessionBodyScan:      true,
	wellness.SessionBreathing:     true,
	wellness.SessionMorningRitual: true,
	wellness.SessionSleep:         true,
	"loving_kindness":             true,
}

// isMeditationLike reports whether a session counts towards the practice streak.
func isMeditationLike(sessionType string) bool {
	t := strings.ToLower(sessionType)
	return meditationLike[t] || strings.Contains(t, "meditation")
}

func isFocusSession(sessionType string) bool {
	return strings.EqualFold(sessionType, wellness.SessionFocus)
}

// within reports whether at lies in the window (now-span, now].
func within(at, now time.Time, span time.Duration) bool {
	return at.After(now.Add(-span)) && !at.After(now)
}

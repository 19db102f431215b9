package recommendation

import (
	"fmt"
	"strings"

	"wellness-backend/internal/domain/wellness"
)

const (
	patternWindow           = 7 * day
	minActiveDays           = 3
	focusSampleSize         = 5
	defaultFocusScore       = 70.0
	focusScoreFloor         = 0.6
	dominantTypeMinSessions = 6
)

// PatternAnalyzer looks for behavioral trends in the session history.
type PatternAnalyzer struct{}

func (PatternAnalyzer) Name() string { return "pattern" }

func (PatternAnalyzer) Analyze(c *wellness.AnalysisContext) []wellness.Recommendation {
	if c == nil {
		return nil
	}

	var recs []wellness.Recommendation

	if active := activeDays(c); active < minActiveDays {
		recs = append(recs, wellness.Recommendation{
			ID:          "rebuild-streak",
			Type:        wellness.TypeMeditation,
			Priority:    wellness.PriorityMedium,
			Title:       "Rebuild Your Streak",
			Description: "A short daily session is the easiest way back into a steady practice.",
			Action:      "Start Short Session",
			Module:      moduleMeditation,
			Route:       "/meditation/quick",
			Confidence:  0.7,
			Reasons: []string{
				fmt.Sprintf("You practiced on %d of the last 7 days", active),
				"Consistency builds lasting benefits",
			},
		})
	}

	if avg, ok := recentFocusAverage(c); ok && avg < focusScoreFloor {
		recs = append(recs, wellness.Recommendation{
			ID:          "focus-training",
			Type:        wellness.TypeFocus,
			Priority:    wellness.PriorityMedium,
			Title:       "Focus Training",
			Description: "Targeted attention exercises to strengthen your concentration.",
			Action:      "Train Focus",
			Module:      moduleFocus,
			Route:       "/focus/training",
			Confidence:  0.75,
			Reasons: []string{
				fmt.Sprintf("Recent focus scores average %.0f%%", avg*100),
				"Focus training improves concentration",
			},
		})
	}

	if sessionType, count := dominantSessionType(c); count >= dominantTypeMinSessions {
		label := strings.ReplaceAll(sessionType, "_", " ")
		recs = append(recs, wellness.Recommendation{
			ID:          "continue-practice",
			Type:        recommendationTypeFor(sessionType),
			Priority:    wellness.PriorityLow,
			Title:       fmt.Sprintf("Continue Your %s Practice", titleCase(label)),
			Description: fmt.Sprintf("You've been consistent with %s this week. Keep the momentum going.", label),
			Action:      "Continue",
			Module:      moduleFor(sessionType),
			Route:       "/" + moduleFor(sessionType),
			Confidence:  0.75,
			Reasons: []string{
				fmt.Sprintf("%d %s sessions in the last 7 days", count, label),
				"Building on what works for you",
			},
		})
	}

	return recs
}

// activeDays counts distinct calendar dates in the last 7 days with a
// meditation-like session.
func activeDays(c *wellness.AnalysisContext) int {
	now := c.CurrentTime
	dates := make(map[string]struct{})
	for _, s := range c.SessionHistory {
		if !isMeditationLike(s.SessionType) || !within(s.CompletedAt, now, patternWindow) {
			continue
		}
		dates[s.CompletedAt.In(now.Location()).Format("2006-01-02")] = struct{}{}
	}
	return len(dates)
}

// recentFocusAverage averages the focus score of the most recent focus
// sessions, normalized to [0,1]. ok is false when there are none.
func recentFocusAverage(c *wellness.AnalysisContext) (float64, bool) {
	var scores []float64
	for i := len(c.SessionHistory) - 1; i >= 0 && len(scores) < focusSampleSize; i-- {
		s := c.SessionHistory[i]
		if !isFocusSession(s.SessionType) {
			continue
		}
		score := defaultFocusScore
		if s.FocusScore != nil {
			score = *s.FocusScore
		}
		scores = append(scores, score)
	}
	if len(scores) == 0 {
		return 0, false
	}

	var sum float64
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)) / 100, true
}

// dominantSessionType returns the most frequent session type of the last 7
// days and its count. Ties go to the type seen first.
func dominantSessionType(c *wellness.AnalysisContext) (string, int) {
	counts := make(map[string]int)
	var order []string
	for _, s := range c.SessionHistory {
		if s.SessionType == "" || !within(s.CompletedAt, c.CurrentTime, patternWindow) {
			continue
		}
		if _, seen := counts[s.SessionType]; !seen {
			order = append(order, s.SessionType)
		}
		counts[s.SessionType]++
	}

	var best string
	var bestCount int
	for _, t := range order {
		if counts[t] > bestCount {
			best, bestCount = t, counts[t]
		}
	}
	return best, bestCount
}

func recommendationTypeFor(sessionType string) wellness.RecommendationType {
	switch strings.ToLower(sessionType) {
	case wellness.SessionBreathing:
		return wellness.TypeBreathing
	case wellness.SessionFocus:
		return wellness.TypeFocus
	case wellness.SessionMorningRitual:
		return wellness.TypeRitual
	default:
		return wellness.TypeMeditation
	}
}

func moduleFor(sessionType string) string {
	switch recommendationTypeFor(sessionType) {
	case wellness.TypeBreathing:
		return moduleBreathing
	case wellness.TypeFocus:
		return moduleFocus
	case wellness.TypeRitual:
		return moduleRitual
	default:
		return moduleMeditation
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

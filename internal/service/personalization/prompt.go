package personalization

import (
	"encoding/json"
	"fmt"
	"strings"

	"wellness-backend/internal/domain/wellness"
)

const recentSessionsInPrompt = 5

func buildPrompt(rc wellness.ResolvedContext, sessions []wellness.SessionRecord, limit int) string {
	var history []string
	start := max(0, len(sessions)-recentSessionsInPrompt)
	for _, s := range sessions[start:] {
		history = append(history, fmt.Sprintf("- %s, %d min, %s", s.SessionType, s.DurationMinutes, s.CompletedAt.Format("2006-01-02")))
	}
	if len(history) == 0 {
		history = append(history, "- none yet")
	}

	return fmt.Sprintf(`You are a meditation and breathwork coach. Recommend up to %d sessions for the user right now.

Current state:
Time of day: %s
Mood (0-10): %.1f
Stress (0-10): %.1f
Energy (0-10): %.1f
Available minutes: %d

Recent sessions:
%s

Return a JSON object with this structure:
{"recommendations": [
  {"id": "kebab-case-id", "title": "Title", "description": "One sentence", "sessionType": "meditation|breathing|mindfulness|body_scan|sleep|focus",
   "duration": 10, "difficulty": "beginner|intermediate|advanced", "confidence": 0.8, "reasoning": ["why"],
   "expectedBenefits": {"moodImprovement": 6, "stressReduction": 7, "focusImprovement": 5}}
]}

Rules:
1. Durations must not exceed the available minutes
2. Confidence should be 0.0-1.0
3. Keep reasoning short and specific to the current state
`, limit, rc.TimeOfDay, rc.Mood, rc.Stress, rc.Energy, rc.AvailableTime, strings.Join(history, "\n"))
}

// parseRecommendations accepts either {"recommendations": [...]} or a bare
// array, optionally wrapped in a markdown code fence.
func parseRecommendations(response string) ([]wellness.SessionRecommendation, error) {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```json")
		response = strings.TrimPrefix(response, "```")
		response = strings.TrimSuffix(response, "```")
		response = strings.TrimSpace(response)
	}

	var recs []wellness.SessionRecommendation
	if strings.HasPrefix(response, "[") {
		if err := json.Unmarshal([]byte(response), &recs); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
	} else {
		var wrapped struct {
			Recommendations []wellness.SessionRecommendation `json:"recommendations"`
		}
		if err := json.Unmarshal([]byte(response), &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse JSON response: %w", err)
		}
		recs = wrapped.Recommendations
	}

	valid := recs[:0]
	for _, r := range recs {
		if r.ID != "" && r.Title != "" {
			valid = append(valid, r)
		}
	}
	return valid, nil
}

package recommendation

import (
	"fmt"

	"wellness-backend/internal/domain/wellness"
)

const socialInactivityDays = 7

// SocialAnalyzer nudges users back to the community after a quiet stretch.
// It stays silent when the last social activity is unknown.
type SocialAnalyzer struct{}

func (SocialAnalyzer) Name() string { return "social" }

func (SocialAnalyzer) Analyze(c *wellness.AnalysisContext) []wellness.Recommendation {
	if c == nil || c.LastSocialActivity == nil {
		return nil
	}

	days := int(c.CurrentTime.Sub(*c.LastSocialActivity) / day)
	if days <= socialInactivityDays {
		return nil
	}

	return []wellness.Recommendation{{
		ID:          "social-reconnect",
		Type:        wellness.TypeSocial,
		Priority:    wellness.PriorityLow,
		Title:       "Connect With Your Community",
		Description: "Share your progress or join a group session.",
		Action:      "Visit Community",
		Module:      moduleSocial,
		Route:       "/community",
		Confidence:  0.6,
		Reasons: []string{
			fmt.Sprintf("No community activity for %d days", days),
			"Shared practice improves consistency",
		},
	}}
}

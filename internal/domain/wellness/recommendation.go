// Package wellness holds the domain types shared by the recommendation engine,
// the fallback generator and the cache.
package wellness

import "math"

// RecommendationType determines the visual treatment of a recommendation.
type RecommendationType string

const (
	TypeMeditation RecommendationType = "meditation"
	TypeBreathing  RecommendationType = "breathing"
	TypeFocus      RecommendationType = "focus"
	TypeRitual     RecommendationType = "ritual"
	TypeSocial     RecommendationType = "social"
)

// Priority is an ordinal used only for ranking.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// PriorityWeight maps a priority onto its ranking multiplier. Unknown
// priorities weigh zero and sink to the bottom of any ranking.
func PriorityWeight(p Priority) float64 {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Recommendation is a single "next best action" suggestion.
type Recommendation struct {
	ID               string             `json:"id"`
	Type             RecommendationType `json:"type"`
	Priority         Priority           `json:"priority"`
	Title            string             `json:"title"`
	Description      string             `json:"description"`
	Action           string             `json:"action"`
	Module           string             `json:"module"`
	Route            string             `json:"route"`
	Confidence       float64            `json:"confidence"`
	Reasons          []string           `json:"reasons"`
	BiometricTrigger string             `json:"biometricTrigger,omitempty"`
	TimeRelevant     bool               `json:"timeRelevant,omitempty"`
}

// Score is the ranking key: priority weight times confidence.
func (r Recommendation) Score() float64 {
	return PriorityWeight(r.Priority) * r.Confidence
}

// Normalized returns a copy with confidence clamped into [0,1].
func (r Recommendation) Normalized() Recommendation {
	r.Confidence = ClampUnit(r.Confidence)
	if r.Reasons == nil {
		r.Reasons = []string{}
	}
	return r
}

// ClampUnit clamps v into [0,1]. NaN becomes 0.
func ClampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

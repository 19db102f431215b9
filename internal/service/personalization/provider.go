// Package personalization asks an upstream AI service for session
// recommendations and falls back to the local rule table whenever that
// call cannot produce a usable answer.
package personalization

import (
	"context"
	"errors"
)

// Provider defines the upstream completion service.
type Provider interface {
	Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error)
	IsAvailable() bool
}

// CompletionOptions configures completion requests
type CompletionOptions struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Format      string  `json:"format"` // "json" or "text"
}

// ErrQuotaExceeded is returned by providers when the account has no
// remaining upstream quota.
var ErrQuotaExceeded = errors.New("personalization quota exceeded")

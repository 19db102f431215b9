package personalization

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "wellness-backend/pkg/errors"
)

const maxResponseBytes = 64 * 1024

// HTTPProvider calls a JSON completion endpoint, typically the backend's
// ai-personalization edge function.
type HTTPProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

type completionRequest struct {
	Prompt string `json:"prompt"`
	CompletionOptions
}

type completionResponse struct {
	Completion string `json:"completion"`
	Error      string `json:"error,omitempty"`
}

// NewHTTPProvider creates a provider. The endpoint is required.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.Endpoint == "" {
		return nil, apperrors.NewValidation("personalization endpoint is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPProvider{
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// IsAvailable reports whether the provider is configured.
func (p *HTTPProvider) IsAvailable() bool {
	return p != nil && p.endpoint != ""
}

// Complete sends a single request. There are no retries.
func (p *HTTPProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt, CompletionOptions: options})
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("completion request timed out: %w", context.DeadlineExceeded)
		}
		return "", apperrors.NewUnavailable("completion request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", apperrors.NewUnavailable("read completion response", err)
	}

	if err := statusError(resp.StatusCode, raw); err != nil {
		return "", err
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil || parsed.Completion == "" {
		// Some deployments return the model output as the body itself.
		return string(raw), nil
	}
	return parsed.Completion, nil
}

func statusError(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return apperrors.NewRateLimit("personalization rate limit reached")
	case status == http.StatusPaymentRequired,
		status == http.StatusForbidden && bytes.Contains(bytes.ToLower(body), []byte("quota")):
		return ErrQuotaExceeded
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperrors.NewUnauthorized(fmt.Sprintf("personalization upstream rejected credentials (HTTP %d)", status))
	default:
		return apperrors.NewUnavailable(fmt.Sprintf("personalization upstream returned HTTP %d", status), nil)
	}
}

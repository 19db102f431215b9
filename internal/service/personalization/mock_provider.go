package personalization

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"wellness-backend/internal/domain/wellness"
)

// MockProvider is an in-process provider for development and tests. By
// default it answers with a session matched to the time of day named in the
// prompt.
type MockProvider struct {
	mu        sync.Mutex
	available bool
	response  string
	err       error
	calls     int
}

// NewMockProvider creates an available mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{available: true}
}

// SetAvailable toggles availability.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	m.available = available
	m.mu.Unlock()
}

// SetResponse fixes the raw completion returned by Complete.
func (m *MockProvider) SetResponse(response string) {
	m.mu.Lock()
	m.response = response
	m.mu.Unlock()
}

// SetError makes Complete fail with err.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Calls returns how many completions were requested.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// Complete returns the configured response or error.
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	m.mu.Lock()
	m.calls++
	available, response, err := m.available, m.response, m.err
	m.mu.Unlock()

	if !available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if err != nil {
		return "", err
	}
	if response != "" {
		return response, nil
	}
	return m.mockRecommendation(prompt)
}

func (m *MockProvider) mockRecommendation(prompt string) (string, error) {
	rec := wellness.SessionRecommendation{
		ID:          "ai-focused-calm",
		Title:       "Focused Calm",
		Description: "A guided session balancing relaxation with gentle focus.",
		SessionType: wellness.SessionMeditation,
		Duration:    10,
		Difficulty:  "beginner",
		Confidence:  0.8,
		Reasoning:   []string{"Matched to your current state"},
		ExpectedBenefits: wellness.ExpectedBenefits{
			MoodImprovement:  6,
			StressReduction:  7,
			FocusImprovement: 6,
		},
	}
	if strings.Contains(prompt, "Time of day: evening") || strings.Contains(prompt, "Time of day: night") {
		rec.ID = "ai-evening-unwind"
		rec.Title = "Evening Unwind"
		rec.SessionType = wellness.SessionSleep
	}

	data, err := json.Marshal(map[string]any{"recommendations": []wellness.SessionRecommendation{rec}})
	if err != nil {
		return "", err
	}
	return "```json\n" + string(data) + "\n```", nil
}

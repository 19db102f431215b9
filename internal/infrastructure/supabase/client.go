// Package supabase reads user signals from the hosted backend and verifies
// its access tokens.
package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// Config holds the backend connection settings.
type Config struct {
	URL            string
	ServiceRoleKey string
	Schema         string
}

// NewClient creates a service-role client.
func NewClient(cfg Config) (*supabase.Client, error) {
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceRoleKey, &supabase.ClientOptions{Schema: cfg.Schema})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize supabase client: %w", err)
	}
	return client, nil
}

// Package config loads the service configuration from defaults, optional
// YAML or JSON files, and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Environment is the deployment stage.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// ParseEnvironment maps a free-form name onto a known stage, defaulting to development.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prod", "production":
		return Production
	case "stage", "staging":
		return Staging
	default:
		return Development
	}
}

// Config is the complete service configuration.
type Config struct {
	Environment     Environment     `yaml:"environment" json:"environment"`
	Server          Server          `yaml:"server" json:"server"`
	Supabase        Supabase        `yaml:"supabase" json:"supabase"`
	Recommendation  Recommendation  `yaml:"recommendation" json:"recommendation"`
	Cache           Cache           `yaml:"cache" json:"cache"`
	Personalization Personalization `yaml:"personalization" json:"personalization"`
	Metrics         Metrics         `yaml:"metrics" json:"metrics"`
	Tracing         Tracing         `yaml:"tracing" json:"tracing"`
	Logging         Logging         `yaml:"logging" json:"logging"`

	// LoadedFrom lists the sources applied, lowest priority first.
	LoadedFrom []string `yaml:"-" json:"-"`
}

// Server configures the HTTP listener.
type Server struct {
	Port            int           `yaml:"port" json:"port"`
	Host            string        `yaml:"host" json:"host"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

// Address returns host:port for the listener.
func (s Server) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Supabase holds the backend connection used for signal reads and token checks.
type Supabase struct {
	URL            string `yaml:"url" json:"url"`
	ServiceRoleKey string `yaml:"service_role_key" json:"-"`
	Schema         string `yaml:"schema" json:"schema"`
}

// Recommendation tunes the per-user engines. An engine idle for IdleTimeout
// is dropped, and at most MaxUsers engines are kept; zero disables either bound.
type Recommendation struct {
	RefreshInterval time.Duration `yaml:"refresh_interval" json:"refresh_interval"`
	EnableRefresher bool          `yaml:"enable_refresher" json:"enable_refresher"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	MaxUsers        int           `yaml:"max_users" json:"max_users"`
}

// Cache configures the recommendation cache.
type Cache struct {
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
	MaxItems        int           `yaml:"max_items" json:"max_items"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`
}

// Personalization configures the AI path and its circuit breaker.
type Personalization struct {
	Enabled          bool          `yaml:"enabled" json:"enabled"`
	Endpoint         string        `yaml:"endpoint" json:"endpoint"`
	APIKey           string        `yaml:"api_key" json:"-"`
	Timeout          time.Duration `yaml:"timeout" json:"timeout"`
	BreakerTimeout   time.Duration `yaml:"breaker_timeout" json:"breaker_timeout"`
	FailureThreshold float64       `yaml:"failure_threshold" json:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests" json:"min_requests"`
}

// Metrics configures the Prometheus collector.
type Metrics struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Path      string `yaml:"path" json:"path"`
}

// Tracing configures the OTLP exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	ServiceName string  `yaml:"service_name" json:"service_name"`
	Endpoint    string  `yaml:"endpoint" json:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate" json:"sample_rate"`
}

// Logging configures zap.
type Logging struct {
	Level string `yaml:"level" json:"level"`
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server.request_timeout must be positive"))
	}

	if c.Supabase.URL != "" {
		if u, err := url.Parse(c.Supabase.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("supabase.url is not a valid URL: %q", c.Supabase.URL))
		}
	}
	if c.Environment == Production {
		if c.Supabase.URL == "" {
			errs = append(errs, errors.New("SUPABASE_URL is required in production"))
		}
		if c.Supabase.ServiceRoleKey == "" {
			errs = append(errs, errors.New("SUPABASE_SERVICE_ROLE_KEY is required in production"))
		}
	}

	if c.Recommendation.RefreshInterval <= 0 {
		errs = append(errs, errors.New("recommendation.refresh_interval must be positive"))
	}
	if c.Recommendation.IdleTimeout < 0 {
		errs = append(errs, errors.New("recommendation.idle_timeout must not be negative"))
	}
	if c.Recommendation.MaxUsers < 0 {
		errs = append(errs, errors.New("recommendation.max_users must not be negative"))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache.ttl must be positive"))
	}
	if c.Cache.MaxItems <= 0 {
		errs = append(errs, errors.New("cache.max_items must be positive"))
	}

	if c.Personalization.Enabled && c.Personalization.Endpoint == "" {
		errs = append(errs, errors.New("AI_ENDPOINT is required when personalization is enabled"))
	}
	if c.Personalization.Timeout <= 0 {
		errs = append(errs, errors.New("personalization.timeout must be positive"))
	}
	if t := c.Personalization.FailureThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("personalization.failure_threshold must be in (0,1], got %v", t))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_rate must be in [0,1], got %v", c.Tracing.SampleRate))
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs in development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// HasBackend reports whether signal reads and token checks can reach Supabase.
func (c *Config) HasBackend() bool {
	return c.Supabase.URL != "" && c.Supabase.ServiceRoleKey != ""
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader builds a Config from several sources. Priority, lowest first:
//  1. defaults
//  2. base.{yaml,json}
//  3. {environment}.{yaml,json}
//  4. environment variables
type Loader struct {
	basePath    string
	environment Environment
	lookupEnv   func(string) (string, bool)
	fileLoaders []FileLoader
	sources     []string
}

// FileLoader decodes one configuration file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader reading files from basePath.
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "config"
	}
	return &Loader{
		basePath:    basePath,
		environment: env,
		lookupEnv:   os.LookupEnv,
		fileLoaders: []FileLoader{&YAMLLoader{}, &JSONLoader{}},
	}
}

// WithLookup replaces the environment variable source.
func (l *Loader) WithLookup(lookup func(string) (string, bool)) *Loader {
	l.lookupEnv = lookup
	return l
}

// Load applies every source and validates the result.
func (l *Loader) Load() (*Config, error) {
	l.sources = l.sources[:0]

	cfg := Defaults(l.environment)
	l.sources = append(l.sources, "defaults")

	if err := l.loadFile("base", cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")

	// A file cannot move the service into another stage.
	cfg.Environment = l.environment
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) loadFile(name string, cfg *Config) error {
	for _, loader := range l.fileLoaders {
		path := filepath.Join(l.basePath, name+"."+loader.Extension())

		file, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return err
		}

		err = loader.Load(file, cfg)
		file.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		l.sources = append(l.sources, path)
		return nil
	}
	return os.ErrNotExist
}

// loadEnvironmentVariables overlays the supported variables. Malformed
// values are errors rather than silently ignored.
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := l.lookupEnv(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	integer("SERVER_PORT", &cfg.Server.Port)
	str("SUPABASE_URL", &cfg.Supabase.URL)
	str("SUPABASE_SERVICE_ROLE_KEY", &cfg.Supabase.ServiceRoleKey)
	str("AI_ENDPOINT", &cfg.Personalization.Endpoint)
	str("AI_API_KEY", &cfg.Personalization.APIKey)
	duration("AI_TIMEOUT", &cfg.Personalization.Timeout)
	boolean("ENABLE_AI", &cfg.Personalization.Enabled)
	duration("CACHE_TTL", &cfg.Cache.TTL)
	duration("REFRESH_INTERVAL", &cfg.Recommendation.RefreshInterval)
	duration("ENGINE_IDLE_TIMEOUT", &cfg.Recommendation.IdleTimeout)
	integer("MAX_ACTIVE_USERS", &cfg.Recommendation.MaxUsers)
	str("LOG_LEVEL", &cfg.Logging.Level)
	boolean("ENABLE_METRICS", &cfg.Metrics.Enabled)
	boolean("ENABLE_TRACING", &cfg.Tracing.Enabled)
	str("OTLP_ENDPOINT", &cfg.Tracing.Endpoint)

	return errors.Join(errs...)
}

// Sources lists where the last Load read from.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

// Defaults returns a configuration that runs locally without any files.
func Defaults(env Environment) *Config {
	cfg := &Config{
		Environment: env,
		Server: Server{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RequestTimeout:  20 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Supabase: Supabase{
			Schema: "public",
		},
		Recommendation: Recommendation{
			RefreshInterval: 2 * time.Minute,
			EnableRefresher: true,
			IdleTimeout:     30 * time.Minute,
			MaxUsers:        50000,
		},
		Cache: Cache{
			TTL:             15 * time.Minute,
			MaxItems:        10000,
			CleanupInterval: time.Minute,
		},
		Personalization: Personalization{
			Timeout:          8 * time.Second,
			BreakerTimeout:   30 * time.Second,
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "wellness",
			Path:      "/metrics",
		},
		Tracing: Tracing{
			ServiceName: "wellness-backend",
			Endpoint:    "localhost:4317",
			SampleRate:  1.0,
		},
		Logging: Logging{
			Level: "info",
		},
	}
	if env == Production {
		cfg.Tracing.SampleRate = 0.1
	}
	if env == Development {
		cfg.Logging.Level = "debug"
	}
	return cfg
}

// YAMLLoader decodes YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string { return "yaml" }

// JSONLoader decodes JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string { return "json" }

// Load reads the configuration for the ENVIRONMENT variable from CONFIG_DIR.
func Load() (*Config, error) {
	return NewLoader(os.Getenv("CONFIG_DIR"), ParseEnvironment(os.Getenv("ENVIRONMENT"))).Load()
}

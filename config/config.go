// Package config loads the service configuration from YAML and applies the
// presets of the production and development variants.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	qhttp "powercast/http"
	"powercast/monitoring"
)

const (
	// VariantProduction serves /api/predict on 0.0.0.0:$PORT without CORS.
	VariantProduction = "production"

	// VariantDevelopment serves /predict on 127.0.0.1:5000 with CORS.
	VariantDevelopment = "development"

	// DefaultPath may be absent; the variant presets then apply alone.
	DefaultPath = "config.yaml"
)

// Config is the service configuration as read from YAML.
type Config struct {
	Server  ServerConfig         `yaml:"server"`
	Metrics MetricsConfig        `yaml:"metrics"`
	Model   ModelConfig          `yaml:"model"`
	Log     monitoring.LogConfig `yaml:"log"`

	// dir is the directory of the loaded file; relative paths resolve from it.
	dir string
}

// ServerConfig holds the listener, route and error mode settings.
type ServerConfig struct {
	Variant      string        `yaml:"variant"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Route        string        `yaml:"route"`
	HealthRoute  *string       `yaml:"health_route"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxBodyBytes int64         `yaml:"max_body_bytes"`
	ErrorMode    string        `yaml:"error_mode"`
	CORS         CORSConfig    `yaml:"cors"`
}

// CORSConfig controls cross-origin access. Enabled is nil until a preset decides it.
type CORSConfig struct {
	Enabled        *bool    `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	AllowedMethods []string `yaml:"allowed_methods"`
	MaxAge         int      `yaml:"max_age"`
}

// MetricsConfig exposes Prometheus metrics when enabled.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Route   string `yaml:"route"`
}

// ModelConfig locates the model artifact and tunes the prediction cache.
type ModelConfig struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	CacheSize int    `yaml:"cache_size"`
	Watch     bool   `yaml:"watch"`
}

// Load reads path. A missing file at the default path is not an error; the
// variant presets apply instead. Call Finalize before use.
func Load(path string) (*Config, error) {
	var config Config
	file, err := os.Open(path)
	switch {
	case err == nil:
		defer file.Close()
		if err := yaml.NewDecoder(file).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		config.dir = filepath.Dir(path)
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("open config: %w", err)
	}
	return &config, nil
}

// Finalize applies variant presets, the PORT override and validation.
func (c *Config) Finalize(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	if c.Server.Variant == "" {
		c.Server.Variant = VariantProduction
	}

	switch c.Server.Variant {
	case VariantProduction:
		c.applyProductionDefaults()
		if port := strings.TrimSpace(getenv("PORT")); port != "" {
			p, err := strconv.Atoi(port)
			if err != nil {
				return fmt.Errorf("invalid PORT %q: %w", port, err)
			}
			c.Server.Port = p
		}
	case VariantDevelopment:
		c.applyDevelopmentDefaults()
	default:
		return fmt.Errorf("unknown server variant %q", c.Server.Variant)
	}
	c.applyCommonDefaults()

	return c.validate()
}

func (c *Config) applyProductionDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Route == "" {
		c.Server.Route = "/api/predict"
	}
	if c.Server.CORS.Enabled == nil {
		c.Server.CORS.Enabled = boolPtr(false)
	}
}

func (c *Config) applyDevelopmentDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	if c.Server.Route == "" {
		c.Server.Route = "/predict"
	}
	if c.Server.CORS.Enabled == nil {
		c.Server.CORS.Enabled = boolPtr(true)
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if c.Log.Level == "" {
		c.Log.Level = "debug"
	}
}

func (c *Config) applyCommonDefaults() {
	if c.Server.HealthRoute == nil {
		route := "/healthz"
		c.Server.HealthRoute = &route
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.MaxBodyBytes == 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}
	if c.Server.ErrorMode == "" {
		c.Server.ErrorMode = qhttp.ErrorModeStructured
	}
	if len(c.Server.CORS.AllowedOrigins) == 0 {
		c.Server.CORS.AllowedOrigins = []string{"*"}
	}
	if len(c.Server.CORS.AllowedHeaders) == 0 {
		c.Server.CORS.AllowedHeaders = []string{"Content-Type"}
	}
	if len(c.Server.CORS.AllowedMethods) == 0 {
		c.Server.CORS.AllowedMethods = []string{"POST", "OPTIONS"}
	}
	if c.Metrics.Route == "" {
		c.Metrics.Route = "/metrics"
	}
	if c.Model.Path == "" {
		c.Model.Path = "model.json"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
	}
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.Route, "/") {
		return fmt.Errorf("route %q must start with /", c.Server.Route)
	}
	if h := *c.Server.HealthRoute; h != "" && !strings.HasPrefix(h, "/") {
		return fmt.Errorf("health route %q must start with /", h)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Route, "/") {
		return fmt.Errorf("metrics route %q must start with /", c.Metrics.Route)
	}
	if c.Metrics.Enabled && c.Metrics.Route == *c.Server.HealthRoute {
		return fmt.Errorf("metrics route %q is already the health route", c.Metrics.Route)
	}
	if c.Server.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.Server.MaxBodyBytes < 0 {
		return errors.New("max_body_bytes must not be negative")
	}
	switch c.Server.ErrorMode {
	case qhttp.ErrorModeStructured, qhttp.ErrorModeOpaque:
	default:
		return fmt.Errorf("unknown error mode %q", c.Server.ErrorMode)
	}
	if c.Model.CacheSize < 0 {
		return errors.New("cache_size must not be negative")
	}
	return nil
}

// Addr returns host:port for the listener.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// CORSEnabled reports whether cross-origin requests are answered.
func (c *Config) CORSEnabled() bool {
	return c.Server.CORS.Enabled != nil && *c.Server.CORS.Enabled
}

// ModelPath resolves the artifact path against the config file directory.
func (c *Config) ModelPath() string {
	if filepath.IsAbs(c.Model.Path) || c.dir == "" {
		return c.Model.Path
	}
	return filepath.Join(c.dir, c.Model.Path)
}

func boolPtr(b bool) *bool {
	return &b
}

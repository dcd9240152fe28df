package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qhttp "powercast/http"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestProductionDefaults(t *testing.T) {
	config := &Config{}
	require.NoError(t, config.Finalize(env(nil)))

	assert.Equal(t, VariantProduction, config.Server.Variant)
	assert.Equal(t, "0.0.0.0:8080", config.Addr())
	assert.Equal(t, "/api/predict", config.Server.Route)
	assert.False(t, config.CORSEnabled())
	assert.Equal(t, "/healthz", *config.Server.HealthRoute)
	assert.Equal(t, 30*time.Second, config.Server.Timeout)
	assert.Equal(t, int64(1<<20), config.Server.MaxBodyBytes)
	assert.Equal(t, qhttp.ErrorModeStructured, config.Server.ErrorMode)
	assert.Equal(t, "model.json", config.ModelPath())
	assert.Equal(t, "json", config.Log.Format)
	assert.False(t, config.Metrics.Enabled)
}

func TestProductionPortFromEnvironment(t *testing.T) {
	config := &Config{Server: ServerConfig{Port: 9000}}
	require.NoError(t, config.Finalize(env(map[string]string{"PORT": "3000"})))
	assert.Equal(t, "0.0.0.0:3000", config.Addr())

	config = &Config{}
	assert.Error(t, config.Finalize(env(map[string]string{"PORT": "http"})))

	config = &Config{}
	assert.Error(t, config.Finalize(env(map[string]string{"PORT": "70000"})))
}

func TestDevelopmentDefaults(t *testing.T) {
	config := &Config{Server: ServerConfig{Variant: VariantDevelopment}}
	require.NoError(t, config.Finalize(env(map[string]string{"PORT": "3000"})))

	// PORT only applies to the production variant.
	assert.Equal(t, "127.0.0.1:5000", config.Addr())
	assert.Equal(t, "/predict", config.Server.Route)
	assert.True(t, config.CORSEnabled())
	assert.Equal(t, []string{"*"}, config.Server.CORS.AllowedOrigins)
	assert.Equal(t, []string{"Content-Type"}, config.Server.CORS.AllowedHeaders)
	assert.Equal(t, "console", config.Log.Format)
	assert.Equal(t, "debug", config.Log.Level)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  variant: production
  route: /v1/predict
  timeout: 5s
  error_mode: opaque
  health_route: ""
  cors:
    enabled: true
    allowed_origins: ["https://example.com"]
metrics:
  enabled: true
model:
  path: artifacts/model.json
  cache_size: 128
  watch: true
log:
  level: warn
`)
	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, config.Finalize(env(nil)))

	assert.Equal(t, "/v1/predict", config.Server.Route)
	assert.Equal(t, 5*time.Second, config.Server.Timeout)
	assert.Equal(t, qhttp.ErrorModeOpaque, config.Server.ErrorMode)
	assert.Equal(t, "", *config.Server.HealthRoute)
	assert.True(t, config.CORSEnabled())
	assert.Equal(t, []string{"https://example.com"}, config.Server.CORS.AllowedOrigins)
	assert.True(t, config.Metrics.Enabled)
	assert.Equal(t, "/metrics", config.Metrics.Route)
	assert.Equal(t, 128, config.Model.CacheSize)
	assert.True(t, config.Model.Watch)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "artifacts", "model.json"), config.ModelPath())
	assert.Equal(t, "warn", config.Log.Level)
}

func TestLoadEmptyFile(t *testing.T) {
	config, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	require.NoError(t, config.Finalize(env(nil)))
	assert.Equal(t, "/api/predict", config.Server.Route)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	assert.Error(t, err)
}

func TestFinalizeRejectsInvalidValues(t *testing.T) {
	cases := map[string]Config{
		"variant":                 {Server: ServerConfig{Variant: "staging"}},
		"route":                   {Server: ServerConfig{Route: "predict"}},
		"error mode":              {Server: ServerConfig{ErrorMode: "verbose"}},
		"timeout":                 {Server: ServerConfig{Timeout: -time.Second}},
		"body":                    {Server: ServerConfig{MaxBodyBytes: -1}},
		"cache":                   {Model: ModelConfig{CacheSize: -1}},
		"metrics":                 {Metrics: MetricsConfig{Enabled: true, Route: "metrics"}},
		"metrics on health route": {Metrics: MetricsConfig{Enabled: true, Route: "/healthz"}},
	}
	for name, config := range cases {
		config := config
		assert.Error(t, config.Finalize(env(nil)), name)
	}
}

func TestMetricsRouteCollision(t *testing.T) {
	path := writeConfig(t, "server:\n  health_route: /status\nmetrics:\n  enabled: true\n  route: /status\n")
	config, err := Load(path)
	require.NoError(t, err)
	assert.ErrorContains(t, config.Finalize(env(nil)), "health route")

	// A disabled metrics route registers nothing, so it cannot collide.
	path = writeConfig(t, "server:\n  health_route: /status\nmetrics:\n  route: /status\n")
	config, err = Load(path)
	require.NoError(t, err)
	assert.NoError(t, config.Finalize(env(nil)))
}

func TestAbsoluteModelPathIsKept(t *testing.T) {
	abs := filepath.Join(t.TempDir(), "model.json")
	path := writeConfig(t, "model:\n  path: "+abs+"\n")
	config, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, config.Finalize(env(nil)))
	assert.Equal(t, abs, config.ModelPath())
}

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const artifact = `{
  "type": "linear",
  "intercept": 0.2,
  "coefficients": [1, 2, 0.001, 0.1, 0, 0.5, -0.5]
}`

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(artifact), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newPredictCmd(&out)
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.Execute()
	return out.String(), err
}

func TestPredictCommand(t *testing.T) {
	model := writeArtifact(t)

	out, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "--model", model,
		"0.5", "0.1", "240", "3", "0", "1", "2")
	// An explicit config path that does not exist is an error.
	require.Error(t, err)
	assert.Empty(t, out)

	cfg := filepath.Join(filepath.Dir(model), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("model:\n  path: model.json\n"), 0o644))

	out, err = execute(t, "--config", cfg, "0.5", "0.1", "240", "3", "0", "1", "2")
	require.NoError(t, err)

	var result map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, 0.94, result["prediction"], 1e-9)
}

func TestPredictCommandNegativeValues(t *testing.T) {
	model := writeArtifact(t)
	cfg := filepath.Join(filepath.Dir(model), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("model:\n  path: model.json\n"), 0o644))

	out, err := execute(t, "--config", cfg, "--", "-0.5", "0.1", "240", "3", "0", "1", "2")
	require.NoError(t, err)

	var result map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.InDelta(t, -0.06, result["prediction"], 1e-9)
}

func TestPredictCommandRejectsBadInput(t *testing.T) {
	model := writeArtifact(t)
	cfg := filepath.Join(filepath.Dir(model), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("model:\n  path: model.json\n"), 0o644))

	_, err := execute(t, "--config", cfg, "1", "2", "3")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfg, "a", "2", "3", "4", "5", "6", "7")
	assert.Error(t, err)

	_, err = execute(t, "--config", cfg, "--type", "regression_tree", "1", "2", "3", "4", "5", "6", "7")
	assert.Error(t, err)
}

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

type idOnly struct {
	ID string `json:"id"`
}

func run(t *testing.T, args ...string) ([]idOnly, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	var recs []idOnly
	require.NoError(t, json.Unmarshal(out.Bytes(), &recs))
	return recs, nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestGenerateCommand(t *testing.T) {
	t.Run("Should rank recommendations from a signals file", func(t *testing.T) {
		path := writeFile(t, "signals.yaml", `
biometrics:
  - timestamp: 2025-03-12T12:00:00Z
    hrv: 25
sessions: []
`)

		recs, err := run(t, "generate", path, "--at", "2025-03-12T12:00:00Z")

		require.NoError(t, err)
		require.NotEmpty(t, recs)
		assert.Equal(t, "low-hrv-intervention", recs[0].ID)
	})

	t.Run("Should reject a malformed clock", func(t *testing.T) {
		path := writeFile(t, "signals.yaml", "biometrics: []\n")

		_, err := run(t, "generate", path, "--at", "noon")

		assert.ErrorContains(t, err, "invalid --at value")
	})

	t.Run("Should report a missing file", func(t *testing.T) {
		_, err := run(t, "generate", filepath.Join(t.TempDir(), "missing.yaml"))

		assert.ErrorContains(t, err, "failed to read")
	})
}

func TestFallbackCommand(t *testing.T) {
	t.Run("Should suggest stress relief for a stressed context", func(t *testing.T) {
		path := writeFile(t, "context.yaml", "current_stress: 8\n")

		recs, err := run(t, "fallback", path, "--at", "2025-03-12T14:00:00Z")

		require.NoError(t, err)
		require.NotEmpty(t, recs)
		assert.Equal(t, "fallback-stress-relief", recs[0].ID)
		assert.LessOrEqual(t, len(recs), 5)
	})

	t.Run("Should fall back to balanced mindfulness without a context", func(t *testing.T) {
		recs, err := run(t, "fallback", "--at", "2025-03-12T14:00:00Z")

		require.NoError(t, err)
		assert.Equal(t, []idOnly{{ID: "fallback-balanced-mindfulness"}}, recs)
	})

	t.Run("Should reject invalid YAML", func(t *testing.T) {
		path := writeFile(t, "context.yaml", "current_stress: [\n")

		_, err := run(t, "fallback", path)

		assert.ErrorContains(t, err, "failed to parse")
	})
}

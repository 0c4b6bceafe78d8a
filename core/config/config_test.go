package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "deepwiki.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, EngineTranscriber, cfg.Engine)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 200.0, cfg.Diagram.EdgeProximity)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
engine: generic
output_dir: out
fetch:
  timeout: 5s
diagram:
  edge_proximity: 120
`)
	t.Setenv("DEEPWIKI_OUTPUT_DIR", "env-out")
	t.Setenv("DEEPWIKI_DEBUG", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EngineGeneric, cfg.Engine)
	assert.Equal(t, "env-out", cfg.OutputDir)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.Fetch.Timeout)
	assert.Equal(t, 120.0, cfg.Diagram.EdgeProximity)
	assert.Equal(t, 150.0, cfg.Diagram.EdgeLabelProximity, "unset keys keep defaults")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := writeConfig(t, `
engine: pandoc
diagram:
  edge_proximity: -1
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Config.Engine must be one of: transcriber generic")
	assert.Contains(t, err.Error(), "Config.Diagram.EdgeProximity must be greater than 0")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestDiagramConfig(t *testing.T) {
	cfg := Default()
	cfg.Debug = true
	cfg.Diagram.EndStateRadius = 9

	logger := zap.NewNop()
	d := cfg.DiagramConfig(logger)
	assert.True(t, d.Debug)
	assert.Same(t, logger, d.Logger)
	assert.Equal(t, 9.0, d.EndStateRadius)
	assert.Equal(t, cfg.Diagram.ParticipantLineGap, d.ParticipantLineGap)
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Log.Path)
	assert.False(t, cfg.Decode.CaptureRaw)
	assert.Equal(t, 1<<22, cfg.Decode.MaxGridPoints)
	assert.Equal(t, 10*time.Minute, cfg.Archive.Timeout)
	assert.Len(t, cfg.Archive.FileTypes, 6)
	assert.Equal(t, 4, cfg.Batch.Workers)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "msm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log:
  level: debug
  path: /tmp/msm.log
decode:
  capture_raw: true
archive:
  timeout: 30s
  file_types: [Lsurf_FH00-15]
batch:
  workers: 8
metrics:
  textfile: /tmp/msm.prom
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/tmp/msm.log", cfg.Log.Path)
	assert.True(t, cfg.Decode.CaptureRaw)
	assert.Equal(t, 30*time.Second, cfg.Archive.Timeout)
	assert.Equal(t, []string{"Lsurf_FH00-15"}, cfg.Archive.FileTypes)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, "/tmp/msm.prom", cfg.Metrics.Textfile)
	assert.Equal(t, 1<<22, cfg.Decode.MaxGridPoints, "unset keys keep defaults")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("MSM_BATCH_WORKERS", "2")
	t.Setenv("MSM_LOG_LEVEL", "warn")
	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Batch.Workers)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestMissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	v := New()
	v.Set("batch.workers", 0)
	_, err := Load(v, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch.workers")
}

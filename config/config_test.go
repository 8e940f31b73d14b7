package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Empty(t, cfg.Source())
	assert.Equal(t, 20*time.Millisecond, cfg.ActuationInterval())
	assert.Zero(t, cfg.AcquireTimeout())
}

func TestLoad_FileEnvAndFlagPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pixel-rcs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"actuation_dy: 2\nactuation_interval_ms: 15\nfps_history: 8\ntoggle_key: L\n"), 0o644))
	t.Setenv("PIXELRCS_FPS_HISTORY", "3")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{"--actuation-dy=4"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source())
	assert.Equal(t, 4, cfg.ActuationDY, "flag beats file")
	assert.Equal(t, 3, cfg.FPSHistory, "env beats file")
	assert.Equal(t, 15, cfg.ActuationIntervalMs)
	assert.Equal(t, "L", cfg.ToggleKey)
	// unset flags keep the file/default values
	assert.Equal(t, "LBUTTON", cfg.TriggerKey)
}

func TestValidate_Clamps(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "LOUD"
	cfg.LogFormat = "xml"
	cfg.AcquireTimeoutMs = -5
	cfg.ActuationIntervalMs = 0
	cfg.FPSHistory = 0
	cfg.FPSReportIntervalMs = -1
	cfg.IdleSleepMs = -1
	cfg.MaxRebuilds = -2
	cfg.RebuildResetFrames = -1
	cfg.CaptureWidth = 640
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Zero(t, cfg.AcquireTimeoutMs)
	assert.Equal(t, 20, cfg.ActuationIntervalMs)
	assert.Equal(t, 5, cfg.FPSHistory)
	assert.Equal(t, 1000, cfg.FPSReportIntervalMs)
	assert.Equal(t, 16, cfg.IdleSleepMs)
	assert.Zero(t, cfg.MaxRebuilds)
	assert.Zero(t, cfg.RebuildResetFrames)
	assert.Zero(t, cfg.CaptureWidth, "half-specified region falls back to full output")
}

func TestValidate_RejectsUnknownKey(t *testing.T) {
	cfg := Default()
	cfg.TriggerKey = "MOUSE9"
	assert.Error(t, cfg.Validate())
}

func TestSave_YAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()
	cfg.ActuationDX = -1
	cfg.Window = true

	for _, name := range []string{"out.yaml", "out.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, cfg.Save(path))
		got, err := Load(path, nil)
		require.NoError(t, err, name)
		assert.Equal(t, -1, got.ActuationDX, name)
		assert.True(t, got.Window, name)
	}
}

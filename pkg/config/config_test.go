package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stefanpenner/daybook/pkg/progress"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "daybook.log"), cfg.Log.File)
	assert.Equal(t, 800*time.Millisecond, cfg.Runner.LinkPacing)
	assert.Equal(t, 500*time.Millisecond, cfg.Runner.KeysPacing)
	assert.Equal(t, time.Second, cfg.Runner.DelayFallback)
	assert.True(t, cfg.Runner.OpenLinks)
	assert.True(t, cfg.Watcher.Enabled)
	assert.Equal(t, 15*time.Second, cfg.Watcher.Interval)
	assert.InDelta(t, 0.3, cfg.Watcher.Probability, 1e-9)
	assert.Equal(t, 4*time.Second, cfg.Notify.TTL)
	assert.Equal(t, progress.SchemeTaskID, cfg.Scheme())

	assert.Equal(t, cfg, Default(dir))
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `
runner:
  link_pacing: 1.5s
  open_links: false
watcher:
  probability: 1
progress:
  key_scheme: position
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(yaml), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 1500*time.Millisecond, cfg.Runner.LinkPacing)
	assert.False(t, cfg.Runner.OpenLinks)
	assert.InDelta(t, 1.0, cfg.Watcher.Probability, 1e-9)
	assert.Equal(t, progress.SchemePosition, cfg.Scheme())
	// Untouched keys keep their defaults.
	assert.Equal(t, 500*time.Millisecond, cfg.Runner.KeysPacing)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("notify:\n  ttl: 2s\n"), 0644))
	t.Setenv("DAYBOOK_NOTIFY_TTL", "10s")
	t.Setenv("DAYBOOK_LOG_LEVEL", "debug")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Notify.TTL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"negative pacing": "runner:\n  keys_pacing: -1s\n",
		"probability":     "watcher:\n  probability: 1.5\n",
		"unknown scheme":  "progress:\n  key_scheme: by-name\n",
		"unknown level":   "log:\n  level: chatty\n",
		"malformed yaml":  "runner: [\n",
		"bad duration":    "notify:\n  ttl: soon\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0644))
			_, err := Load(dir)
			assert.Error(t, err)
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	t.Setenv(EnvDataDir, "/from/env")
	assert.Equal(t, "/from/flag", ResolveDataDir("/from/flag"))
	assert.Equal(t, "/from/env", ResolveDataDir(""))

	t.Setenv(EnvDataDir, "")
	assert.NotEmpty(t, ResolveDataDir(""))
}

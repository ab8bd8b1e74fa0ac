package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err, "missing config file should fall back to defaults")
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zbd.yaml")
	content := `
log:
  level: debug
report:
  chunk_zones: 128
transfer:
  buffer_size: 65536
  direct: false
dump:
  dir: /var/tmp
  prefix: sda
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint32(128), cfg.Report.ChunkZones)
	assert.Equal(t, 65536, cfg.Transfer.BufferSize)
	assert.False(t, cfg.Transfer.Direct)
	assert.Equal(t, "/var/tmp", cfg.Dump.Dir)
	assert.Equal(t, "sda", cfg.Dump.Prefix)
}

func TestLoadEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ZBD_LOG_LEVEL", "warn")
	t.Setenv("ZBD_REPORT_CHUNK_ZONES", "16")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, uint32(16), cfg.Report.ChunkZones)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"zero chunk", func(c *Config) { c.Report.ChunkZones = 0 }, true},
		{"chunk above kernel limit", func(c *Config) { c.Report.ChunkZones = 8193 }, true},
		{"unaligned buffer", func(c *Config) { c.Transfer.BufferSize = 1000 }, true},
		{"small aligned buffer", func(c *Config) { c.Transfer.BufferSize = 4096 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

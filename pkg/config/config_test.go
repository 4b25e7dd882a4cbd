package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/editor"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/spawn"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "codex", cfg.Cmd.Name())
	assert.Equal(t, editor.PlacementFloat, cfg.Placement)
	assert.Equal(t, spawn.CaptureTerminal, cfg.Capture)
	assert.True(t, cfg.Autoinstall)
	assert.InDelta(t, 0.8, cfg.Width, 0.001)
}

func TestCommandUnmarshal(t *testing.T) {
	t.Run("YAMLScalar", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cmd: mycodex\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"mycodex"}, cfg.Cmd.Argv())
	})

	t.Run("YAMLList", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("cmd: [codex, --full-auto]\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"codex", "--full-auto"}, cfg.Cmd.Argv())
	})

	t.Run("JSONString", func(t *testing.T) {
		var c Command
		require.NoError(t, json.Unmarshal([]byte(`"codex"`), &c))
		assert.Equal(t, []string{"codex"}, c.Argv())
	})

	t.Run("JSONList", func(t *testing.T) {
		var c Command
		require.NoError(t, json.Unmarshal([]byte(`["codex","-m","x"]`), &c))
		assert.Equal(t, []string{"codex", "-m", "x"}, c.Argv())
	})

	t.Run("JSONInvalid", func(t *testing.T) {
		var c Command
		assert.Error(t, json.Unmarshal([]byte(`42`), &c))
	})
}

func TestApply(t *testing.T) {
	cfg := Default()
	data := json.RawMessage(`{"cmd":["codex","--full-auto"],"model":"o3-mini","placement":"panel","use_buffer_dir":true}`)
	require.NoError(t, cfg.Apply(data))

	assert.Equal(t, []string{"codex", "--full-auto"}, cfg.Cmd.Argv())
	assert.Equal(t, "o3-mini", cfg.Model)
	assert.Equal(t, editor.PlacementPanel, cfg.Placement)
	assert.True(t, cfg.UseBufferDir)
	// Untouched fields keep their defaults.
	assert.Equal(t, spawn.CaptureTerminal, cfg.Capture)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"EmptyCommand", func(c *Config) { c.Cmd = Command{} }},
		{"BadPlacement", func(c *Config) { c.Placement = "sideways" }},
		{"BadCapture", func(c *Config) { c.Capture = "tee" }},
		{"ZeroWidth", func(c *Config) { c.Width = 0 }},
		{"OversizedHeight", func(c *Config) { c.Height = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := Default()
	cfg.Cmd = NewCommand("codex", "--full-auto")
	cfg.Model = "o3"
	cfg.Placement = editor.PlacementPanel
	cfg.Keymaps = map[string]string{"toggle": "<leader>cc"}

	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Cmd.Argv(), loaded.Cmd.Argv())
	assert.Equal(t, cfg.Model, loaded.Model)
	assert.Equal(t, cfg.Placement, loaded.Placement)
	assert.Equal(t, cfg.Keymaps, loaded.Keymaps)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "codex", cfg.Cmd.Name())
}

func TestClone(t *testing.T) {
	cfg := Default()
	cfg.Keymaps = map[string]string{"toggle": "<leader>cc"}

	clone := cfg.Clone()
	clone.Keymaps["toggle"] = "<leader>xx"
	clone.Model = "other"

	assert.Equal(t, "<leader>cc", cfg.Keymaps["toggle"])
	assert.NotEqual(t, cfg.Model, clone.Model)
}

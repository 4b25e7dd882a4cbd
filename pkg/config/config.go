// Package config holds the sidecar configuration. It is applied once at
// setup, from an optional YAML file and then a configure RPC from the editor
// shim, and is read-only afterwards.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ZiYang-oyxy/codex.nvim/pkg/editor"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/logger"
	"github.com/ZiYang-oyxy/codex.nvim/pkg/spawn"
)

// Config represents the sidecar configuration.
type Config struct {
	// Cmd is the assistant command, a bare name or a full argument list.
	Cmd Command `json:"cmd" yaml:"cmd"`

	// Model overrides the assistant model via "-m" unless Cmd already
	// carries a model flag.
	Model string `json:"model,omitempty" yaml:"model,omitempty"`

	// UseBufferDir starts the process in the active buffer's directory
	// instead of the sidecar's working directory.
	UseBufferDir bool `json:"use_buffer_dir" yaml:"use_buffer_dir"`

	// Placement and fractional sizing of the display surface.
	Placement editor.Placement `json:"placement" yaml:"placement"`
	Width     float64          `json:"width" yaml:"width"`
	Height    float64          `json:"height" yaml:"height"`

	// Capture selects terminal or buffered output capture.
	Capture spawn.CaptureMode `json:"capture" yaml:"capture"`

	// Autoinstall prompts to install the assistant CLI when it is missing.
	Autoinstall bool `json:"autoinstall" yaml:"autoinstall"`

	// Keymaps are forwarded to the editor shim verbatim; the sidecar does
	// not interpret them.
	Keymaps map[string]string `json:"keymaps,omitempty" yaml:"keymaps,omitempty"`

	// Log configures the sidecar log file.
	Log logger.Config `json:"log" yaml:"log"`
}

// Command is a command name or a full argument list. It unmarshals from
// either a scalar string or a sequence, in both YAML and JSON.
type Command struct {
	args []string
}

// NewCommand builds a Command from an argument list.
func NewCommand(args ...string) Command {
	return Command{args: args}
}

// Argv returns a copy of the argument vector.
func (c Command) Argv() []string {
	out := make([]string, len(c.args))
	copy(out, c.args)
	return out
}

// Name returns the primary command token, or "".
func (c Command) Name() string {
	if len(c.args) == 0 {
		return ""
	}
	return c.args[0]
}

func (c *Command) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		c.args = []string{s}
		return nil
	case yaml.SequenceNode:
		return value.Decode(&c.args)
	default:
		return fmt.Errorf("cmd must be a string or a list of strings")
	}
}

func (c Command) MarshalYAML() (any, error) {
	if len(c.args) == 1 {
		return c.args[0], nil
	}
	return c.args, nil
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.args = []string{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("cmd must be a string or a list of strings")
	}
	c.args = list
	return nil
}

func (c Command) MarshalJSON() ([]byte, error) {
	if len(c.args) == 1 {
		return json.Marshal(c.args[0])
	}
	return json.Marshal(c.args)
}

// Default returns the documented defaults.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Cmd:          NewCommand(getEnv("CODEX_CMD", "codex")),
		Model:        os.Getenv("CODEX_MODEL"),
		UseBufferDir: false,
		Placement:    editor.PlacementFloat,
		Width:        0.8,
		Height:       0.8,
		Capture:      spawn.CaptureTerminal,
		Autoinstall:  true,
		Log: logger.Config{
			Level: "info",
			File:  filepath.Join(homeDir, ".local", "state", "codex-nvim", "sidecar.log"),
		},
	}
}

// Load reads configuration from a YAML file, merged over the defaults.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Cmd = NewCommand(c.Cmd.Argv()...)
	if c.Keymaps != nil {
		out.Keymaps = make(map[string]string, len(c.Keymaps))
		for k, v := range c.Keymaps {
			out.Keymaps[k] = v
		}
	}
	return &out
}

// Apply overlays a partial JSON configuration (the configure RPC payload)
// onto the receiver and validates the result.
func (c *Config) Apply(data json.RawMessage) error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, c); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
	}
	return c.Validate()
}

// Validate checks the configuration for values the sidecar cannot honor.
func (c *Config) Validate() error {
	if c.Cmd.Name() == "" {
		return fmt.Errorf("cmd must not be empty")
	}
	switch c.Placement {
	case editor.PlacementFloat, editor.PlacementPanel:
	default:
		return fmt.Errorf("placement must be %q or %q, got %q",
			editor.PlacementFloat, editor.PlacementPanel, c.Placement)
	}
	if c.Width <= 0 || c.Width > 1 {
		return fmt.Errorf("width must be in (0, 1], got %v", c.Width)
	}
	if c.Height <= 0 || c.Height > 1 {
		return fmt.Errorf("height must be in (0, 1], got %v", c.Height)
	}
	switch c.Capture {
	case spawn.CaptureTerminal, spawn.CaptureBuffered:
	default:
		return fmt.Errorf("capture must be %q or %q, got %q",
			spawn.CaptureTerminal, spawn.CaptureBuffered, c.Capture)
	}
	return nil
}

// DefaultPath returns the on-disk config location under the user config dir.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "codex-nvim", "config.yaml"), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

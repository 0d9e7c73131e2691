// Package config loads the demo and session settings from TOML or YAML files.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/tickterm/engine"
	"github.com/lixenwraith/tickterm/input"
	"github.com/lixenwraith/tickterm/terminal"
)

// EnvBackend overrides Config.Backend when set
const EnvBackend = "TICKTERM_BACKEND"

// Backend names
const (
	BackendANSI  = "ansi"
	BackendTcell = "tcell"
)

// Config is the full file configuration
type Config struct {
	Terminal terminal.ModeConfig `toml:"terminal" yaml:"terminal"`
	Backend  string              `toml:"backend" yaml:"backend"`
	Frame    Frame               `toml:"frame" yaml:"frame"`
	Keyboard Keyboard            `toml:"keyboard" yaml:"keyboard"`
}

// Frame controls the tick loop
type Frame struct {
	// Rate is ticks per second
	Rate int `toml:"rate" yaml:"rate"`
}

// Keyboard controls release emulation and exit keys
type Keyboard struct {
	Release       string   `toml:"release" yaml:"release"`
	ReleaseFrames int      `toml:"release_frames" yaml:"release_frames"`
	ReleaseAfter  Duration `toml:"release_after" yaml:"release_after"`
	Emulation     string   `toml:"emulation" yaml:"emulation"`
	Emulate       []string `toml:"emulate" yaml:"emulate"`
	ExitOnCtrlC   bool     `toml:"exit_on_ctrl_c" yaml:"exit_on_ctrl_c"`
	// QuitKey names an additional key that requests exit, e.g. "escape" or "f10"
	QuitKey string `toml:"quit_key" yaml:"quit_key"`
}

// Duration decodes "250ms" style strings from either format
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration used when no file is present
func Default() Config {
	return Config{
		Terminal: terminal.DefaultModeConfig(),
		Backend:  BackendANSI,
		Frame:    Frame{Rate: engine.DefaultRate},
		Keyboard: Keyboard{
			Release:      "duration",
			ReleaseAfter: Duration{input.DefaultReleaseAfter},
			Emulation:    "auto",
			ExitOnCtrlC:  true,
		},
	}
}

// Load reads path over the defaults, applies environment overrides and validates
// An empty path or a missing file yields the defaults
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, errors.Wrapf(err, "read config %s", path)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse config %s", path)
			}
		}
	}

	if b := os.Getenv(EnvBackend); b != "" {
		cfg.Backend = b
	}

	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	}
	return errors.Errorf("unsupported config extension %q", filepath.Ext(path))
}

// Validate checks field values and normalizes names
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case "":
		c.Backend = BackendANSI
	case BackendANSI, BackendTcell:
	default:
		return errors.Errorf("unknown backend %q", c.Backend)
	}
	if c.Backend == BackendTcell && !(c.Terminal.RawMode && c.Terminal.AlternateScreen) {
		return errors.New("tcell backend requires raw_mode and alternate_screen")
	}

	if c.Frame.Rate < 0 || c.Frame.Rate > 1000 {
		return errors.Errorf("frame rate %d out of range 0..1000", c.Frame.Rate)
	}
	if c.Frame.Rate == 0 {
		c.Frame.Rate = engine.DefaultRate
	}

	if _, err := c.ReleasePolicy(); err != nil {
		return err
	}
	if _, err := c.EmulationPolicy(); err != nil {
		return err
	}
	if _, _, err := c.QuitKey(); err != nil {
		return err
	}
	return nil
}

// ReleasePolicy builds the key release policy from the keyboard section
func (c Config) ReleasePolicy() (input.ReleasePolicy, error) {
	return input.ParseReleasePolicy(c.Keyboard.Release, c.Keyboard.ReleaseFrames, c.Keyboard.ReleaseAfter.Duration)
}

// EmulationPolicy builds the capability emulation policy from the keyboard section
func (c Config) EmulationPolicy() (input.EmulationPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Keyboard.Emulation)) {
	case "", "auto", "automatic":
		return input.Automatic(), nil
	case "manual":
		caps, err := input.ParseCapabilities(c.Keyboard.Emulate)
		if err != nil {
			return input.EmulationPolicy{}, err
		}
		return input.Manual(caps), nil
	}
	return input.EmulationPolicy{}, errors.Errorf("unknown emulation policy %q", c.Keyboard.Emulation)
}

// QuitKey resolves the configured quit key; ok is false when none is set
func (c Config) QuitKey() (key terminal.Key, ok bool, err error) {
	name := strings.ToLower(strings.TrimSpace(c.Keyboard.QuitKey))
	if name == "" {
		return terminal.KeyNone, false, nil
	}
	k, found := terminal.KeyByName(name)
	if !found {
		return terminal.KeyNone, false, errors.Errorf("unknown quit key %q", name)
	}
	return k, true, nil
}

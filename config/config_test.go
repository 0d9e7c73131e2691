package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/tickterm/input"
	"github.com/lixenwraith/tickterm/terminal"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvBackend, "")

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.toml")} {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	}

	cfg := Default()
	rp, err := cfg.ReleasePolicy()
	require.NoError(t, err)
	assert.Equal(t, input.DefaultReleasePolicy(), rp)
	_, ok, err := cfg.QuitKey()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadTOML(t *testing.T) {
	t.Setenv(EnvBackend, "")
	path := writeConfig(t, "tickterm.toml", `
backend = "TCELL"

[terminal]
mouse_capture = true
keyboard_enhancement = false

[frame]
rate = 30

[keyboard]
release = "frames"
release_frames = 4
emulation = "manual"
emulate = ["modifier"]
quit_key = "Escape"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendTcell, cfg.Backend)
	assert.True(t, cfg.Terminal.MouseCapture)
	assert.False(t, cfg.Terminal.KeyboardEnhancement)
	assert.True(t, cfg.Terminal.RawMode, "unset keys keep their defaults")
	assert.True(t, cfg.Terminal.AlternateScreen)
	assert.Equal(t, 30, cfg.Frame.Rate)
	assert.True(t, cfg.Keyboard.ExitOnCtrlC)

	rp, err := cfg.ReleasePolicy()
	require.NoError(t, err)
	assert.Equal(t, "frames(4)", rp.String())

	ep, err := cfg.EmulationPolicy()
	require.NoError(t, err)
	assert.Equal(t, "manual(modifier)", ep.String())

	k, ok, err := cfg.QuitKey()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, terminal.KeyEscape, k)
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(EnvBackend, "")
	path := writeConfig(t, "tickterm.yaml", `
terminal:
  focus_reporting: true
  bracketed_paste: false
frame:
  rate: 0
keyboard:
  release: duration
  release_after: 250ms
  exit_on_ctrl_c: false
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Terminal.FocusReporting)
	assert.False(t, cfg.Terminal.BracketedPaste)
	assert.Equal(t, 60, cfg.Frame.Rate, "zero rate falls back to the default")
	assert.Equal(t, 250*time.Millisecond, cfg.Keyboard.ReleaseAfter.Duration)
	assert.False(t, cfg.Keyboard.ExitOnCtrlC)

	rp, err := cfg.ReleasePolicy()
	require.NoError(t, err)
	assert.Equal(t, input.ReleaseAfter(250*time.Millisecond), rp)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv(EnvBackend, "tcell")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendTcell, cfg.Backend)

	t.Setenv(EnvBackend, "curses")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoadErrors(t *testing.T) {
	t.Setenv(EnvBackend, "")

	cases := []struct {
		name string
		file string
		body string
		want string
	}{
		{"bad extension", "tickterm.ini", "rate=1", "unsupported config extension"},
		{"bad toml", "bad.toml", "backend = ", "parse config"},
		{"bad yaml", "bad.yaml", "frame: [1, 2", "parse config"},
		{"rate range", "rate.toml", "[frame]\nrate = 5000", "out of range"},
		{"negative rate", "neg.toml", "[frame]\nrate = -1", "out of range"},
		{"tcell without alt", "alt.toml", "backend = \"tcell\"\n[terminal]\nalternate_screen = false", "requires raw_mode"},
		{"release policy", "rel.toml", "[keyboard]\nrelease = \"eventually\"", "unknown release policy"},
		{"frames without count", "fr.toml", "[keyboard]\nrelease = \"frames\"", "positive frame count"},
		{"emulation", "emu.toml", "[keyboard]\nemulation = \"magic\"", "unknown emulation policy"},
		{"capability", "cap.toml", "[keyboard]\nemulation = \"manual\"\nemulate = [\"x\"]", "unknown keyboard capability"},
		{"quit key", "quit.toml", "[keyboard]\nquit_key = \"hyper\"", "unknown quit key"},
		{"duration", "dur.yaml", "keyboard:\n  release_after: soon", "parse config"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, c.file, c.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.want)
		})
	}
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1.5s ")))
	assert.Equal(t, 1500*time.Millisecond, d.Duration)

	out, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1.5s", string(out))

	assert.Error(t, d.UnmarshalText([]byte("later")))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fitts-go/internal/study"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, root, body string) {
	t.Helper()
	dir := filepath.Join(root, "config")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	root := t.TempDir()

	_, conf, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "5050", conf.Server.Port)
	assert.Equal(t, "sqlite", conf.Database.Driver)
	assert.Equal(t, filepath.Join(root, "data", "fitts.db"), conf.Database.Path)
	assert.Equal(t, filepath.Join(root, "config", "study.yaml"), conf.Study.DesignFile)
	assert.Equal(t, "client", conf.Study.Clock)
	assert.Equal(t, 30*time.Minute, conf.Study.IdleTimeout)
	assert.Same(t, conf, Current())
}

func TestLoad_FileAndEnv(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `
server:
  port: "6060"
study:
  clock: server
  idle_timeout: 5m
`)
	t.Setenv("FITTS_DATABASE_DRIVER", "postgres")

	_, conf, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, "6060", conf.Server.Port)
	assert.Equal(t, "server", conf.Study.Clock)
	assert.Equal(t, 5*time.Minute, conf.Study.IdleTimeout)
	assert.Equal(t, "postgres", conf.Database.Driver)
}

func TestLoad_RejectsUnknownClock(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "study:\n  clock: sundial\n")

	_, _, err := Load(root)
	assert.Error(t, err)
}

const sampleDesign = `
name: pilot
cursor_type: bubble
target_sizes: [50, 100]
target_amplitudes: [200, 400]
ew_to_w_ratios: [1, 1.5]
repetitions: 2
placement:
  distractors: 6
  min_separation: 20
`

func TestParseDesign(t *testing.T) {
	d, err := ParseDesign([]byte(sampleDesign))
	require.NoError(t, err)

	assert.Equal(t, "bubble", d.CursorType)
	assert.Equal(t, 16, d.TrialCount())
	assert.Equal(t, study.ScreenBounds(1920, 1080), d.Bounds())

	pc := d.PlannerConfig()
	assert.Equal(t, 6, pc.Distractors)
	assert.Equal(t, 20.0, pc.MinSeparation)
}

func TestParseDesign_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown cursor": "cursor_type: laser\ntarget_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\n",
		"missing sizes":  "target_amplitudes: [1]\new_to_w_ratios: [1]\n",
		"no repetitions": "repetitions: 0\ntarget_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\n",
		"empty screen":   "screen: {width: 0, height: 10}\ntarget_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\n",
		"negative size":  "target_sizes: [-1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\n",
		"nan amplitude":  "target_sizes: [1]\ntarget_amplitudes: [.nan]\new_to_w_ratios: [1]\n",
		"zero ratio":     "target_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [0]\n",
		"goal mode":      "target_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\nplacement: {goal_mode: diagonal}\n",
		"separation":     "target_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\nplacement: {min_separation: -5}\n",
		"jitter":         "target_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\nplacement: {offset_jitter: -0.1}\n",
		"distractors":    "target_sizes: [1]\ntarget_amplitudes: [1]\new_to_w_ratios: [1]\nplacement: {distractors: -2}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDesign([]byte(body))
			assert.ErrorIs(t, err, study.ErrInvalidConfiguration)
		})
	}

	_, err := ParseDesign([]byte("target_sizes: [oops"))
	assert.Error(t, err)
}

func TestLoadDesign_ShippedFile(t *testing.T) {
	d, err := LoadDesign(filepath.Join("..", "..", "config", "study.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 36, d.TrialCount())
}

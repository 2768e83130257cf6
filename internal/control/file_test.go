package control

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/sparkfield/internal/engine"
)

func writeControls(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestFileSurfaceAppliesPresentKeysOnBind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.toml")
	writeControls(t, path, "amplitude = 5.0\ncolor_mode = \"mood\"\nbeat_threshold = 0.45\n")

	cfg := engine.DefaultConfig()
	s := NewFileSurface(path)
	require.NoError(t, s.Bind(cfg))
	defer s.Close()

	assert.Equal(t, 5.0, cfg.Amplitude.Load())
	assert.Equal(t, 0.45, cfg.BeatThreshold.Load())
	assert.Equal(t, engine.ModeMood, cfg.ColorMode())
	assert.Equal(t, 0.01, cfg.Frequency.Load(), "absent keys keep their value")
}

func TestFileSurfaceReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.toml")
	writeControls(t, path, "color_speed = 1.0\n")

	cfg := engine.DefaultConfig()
	s := NewFileSurface(path)
	require.NoError(t, s.Bind(cfg))
	defer s.Close()

	writeControls(t, path, "color_speed = 2.5\n")
	require.Eventually(t, func() bool {
		return cfg.ColorSpeed.Load() == 2.5
	}, 2*time.Second, 10*time.Millisecond)
}

func TestFileSurfaceKeepsValuesOnBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.toml")
	writeControls(t, path, "amplitude = [oops\n")

	cfg := engine.DefaultConfig()
	s := NewFileSurface(path)
	require.NoError(t, s.Bind(cfg))
	defer s.Close()

	assert.Equal(t, 3.0, cfg.Amplitude.Load())
}

func TestFileSurfaceIgnoresUnknownColorMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.toml")
	writeControls(t, path, "color_mode = \"disco\"\nfreq1 = 80.0\n")

	cfg := engine.DefaultConfig()
	s := NewFileSurface(path)
	require.NoError(t, s.Bind(cfg))
	defer s.Close()

	assert.Equal(t, engine.ModeFrequency, cfg.ColorMode())
	assert.Equal(t, 80.0, cfg.Freq1.Load())
}

func TestFileSurfaceMissingFile(t *testing.T) {
	s := NewFileSurface(filepath.Join(t.TempDir(), "missing.toml"))
	err := s.Bind(engine.DefaultConfig())
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NoError(t, s.Close())
}

func TestFileSurfaceCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "controls.toml")
	writeControls(t, path, "")

	s := NewFileSurface(path)
	require.NoError(t, s.Bind(engine.DefaultConfig()))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

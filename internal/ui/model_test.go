package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/sparkfield/internal/control"
	"github.com/olivier-w/sparkfield/internal/engine"
	"github.com/olivier-w/sparkfield/internal/particles"
)

type fakePlayback struct {
	paused     bool
	restarts   int
	restartErr error
	done       chan struct{}
}

func newFakePlayback() *fakePlayback {
	return &fakePlayback{done: make(chan struct{})}
}

func (f *fakePlayback) TogglePause()            { f.paused = !f.paused }
func (f *fakePlayback) Paused() bool            { return f.paused }
func (f *fakePlayback) Position() time.Duration { return 30 * time.Second }
func (f *fakePlayback) Duration() time.Duration { return 3 * time.Minute }
func (f *fakePlayback) Done() <-chan struct{}   { return f.done }
func (f *fakePlayback) Restart() error          { f.restarts++; return f.restartErr }

func newTestModel(t *testing.T, p Playback) (Model, *engine.Engine) {
	t.Helper()
	field := particles.New(3)
	e := engine.New(engine.DefaultConfig(), field)
	surface := control.NewKeySurface(control.DefaultKeyMap())
	require.NoError(t, surface.Bind(e.Config()))
	return New(e, field, surface, p, "Test Tune"), e
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func TestFrameTicksEngine(t *testing.T) {
	m, e := newTestModel(t, nil)

	now := time.Now()
	m, cmd := update(t, m, frameMsg(now))
	assert.NotNil(t, cmd)
	m, _ = update(t, m, frameMsg(now.Add(time.Second/FPS)))

	assert.Equal(t, uint64(2), e.Frames())
	assert.Equal(t, 3.0, e.Params().Amplitude)
}

func TestControlKeysReachSurface(t *testing.T) {
	m, e := newTestModel(t, nil)

	update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.Equal(t, engine.ModeBeat, e.Config().ColorMode())
}

func TestQuitClearsView(t *testing.T) {
	m, _ := newTestModel(t, nil)

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())
}

func TestSpaceTogglesPause(t *testing.T) {
	p := newFakePlayback()
	m, _ := newTestModel(t, p)

	update(t, m, tea.KeyMsg{Type: tea.KeySpace})
	assert.True(t, p.paused)
}

func TestPlaybackEndedRestartsWhenLooping(t *testing.T) {
	p := newFakePlayback()
	m, _ := newTestModel(t, p)

	m, cmd := update(t, m, playbackEndedMsg{})
	assert.Equal(t, 1, p.restarts)
	assert.NotNil(t, cmd)
	assert.False(t, m.ended)
}

func TestPlaybackEndedStopsWhenNotLooping(t *testing.T) {
	p := newFakePlayback()
	m, _ := newTestModel(t, p)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m, cmd := update(t, m, playbackEndedMsg{})
	assert.Zero(t, p.restarts)
	assert.Nil(t, cmd)
	assert.True(t, m.ended)
	assert.Contains(t, m.statusLine(), "ended")
}

func TestPlaybackEndedRestartFailure(t *testing.T) {
	p := newFakePlayback()
	p.restartErr = errors.New("seek failed")
	m, _ := newTestModel(t, p)

	m, _ = update(t, m, playbackEndedMsg{})
	assert.True(t, m.ended)
}

func TestViewFillsWindow(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 60, Height: 20})
	m, _ = update(t, m, frameMsg(time.Now()))

	view := m.View()
	assert.Len(t, strings.Split(view, "\n"), 20)
	assert.Contains(t, view, "sparkfield")
	assert.Contains(t, view, "Test Tune")
	assert.Contains(t, view, "no audio input")
	assert.Contains(t, view, "mode frequency")
}

func TestHelpToggle(t *testing.T) {
	m, _ := newTestModel(t, nil)
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	assert.True(t, m.help.ShowAll)
}

func TestRenderTrackBar(t *testing.T) {
	bar := renderTrackBar(30, 60, 10)
	assert.Equal(t, "━━━━━─────", bar)
	assert.Equal(t, strings.Repeat("─", 10), renderTrackBar(5, 0, 4))
}

func TestWindowTitle(t *testing.T) {
	assert.Equal(t, "sparkfield", windowTitle(""))
	assert.Equal(t, "Song · sparkfield", windowTitle("Song"))
}

func TestMeterSettlesOnTarget(t *testing.T) {
	mt := newMeter("#000000", "#FFFFFF")
	for range 5 * FPS {
		mt.step(0.75)
	}
	assert.InDelta(t, 0.75, mt.pos, 0.01)
}

// Package ui runs the terminal program: a frame loop that ticks the
// engine, advances the particle field and draws it with an overlay.
package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/sparkfield/internal/control"
	"github.com/olivier-w/sparkfield/internal/engine"
	"github.com/olivier-w/sparkfield/internal/particles"
	"github.com/olivier-w/sparkfield/internal/util"
)

// Playback is the part of the player the UI drives.
type Playback interface {
	TogglePause()
	Paused() bool
	Position() time.Duration
	Duration() time.Duration
	Done() <-chan struct{}
	Restart() error
}

// Model is the bubbletea model for sparkfield.
type Model struct {
	engine  *engine.Engine
	field   *particles.Field
	surface *control.KeySurface
	player  Playback
	title   string

	keys     playerKeys
	help     help.Model
	energy   meter
	mood     meter
	repeat   RepeatMode
	ended    bool
	elapsed  time.Duration
	last     time.Time
	width    int
	height   int
	quitting bool
}

// New creates a Model. player and surface may be nil.
func New(e *engine.Engine, field *particles.Field, surface *control.KeySurface, player Playback, title string) Model {
	return Model{
		engine:  e,
		field:   field,
		surface: surface,
		player:  player,
		title:   title,
		keys:    defaultPlayerKeys(),
		help:    help.New(),
		energy:  newMeter("#00FF88", "#FF0066"),
		mood:    newMeter("#4488FF", "#FFDD00"),
		width:   80,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{frameCmd(), tea.SetWindowTitle(windowTitle(m.title))}
	if m.player != nil {
		cmds = append(cmds, checkDone(m.player))
	}
	return tea.Batch(cmds...)
}

func checkDone(p Playback) tea.Cmd {
	done := p.Done()
	return func() tea.Msg {
		<-done
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case frameMsg:
		m.frame(time.Time(msg))
		return m, frameCmd()

	case playbackEndedMsg:
		if m.player == nil {
			return m, nil
		}
		if m.repeat == RepeatOne {
			if err := m.player.Restart(); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Update",
					"error":    err.Error(),
				}).Warn("Restart failed")
				m.ended = true
				return m, nil
			}
			return m, checkDone(m.player)
		}
		m.ended = true
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	case key.Matches(msg, m.keys.Pause):
		if m.player != nil && !m.ended {
			m.player.TogglePause()
		}
	case key.Matches(msg, m.keys.Repeat):
		m.repeat = m.repeat.Next()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	default:
		if m.surface != nil {
			m.surface.Handle(msg)
		}
	}
	return m, nil
}

// frame runs one engine tick and advances the field by the wall time
// since the previous frame.
func (m *Model) frame(now time.Time) {
	dt := 1.0 / FPS
	if !m.last.IsZero() {
		dt = min(now.Sub(m.last).Seconds(), 0.25)
	}
	m.last = now

	m.engine.Tick()
	m.field.Advance(dt)

	st := m.engine.State()
	m.energy.step(st.Energy)
	m.mood.step((st.Mood + 1) / 2)

	if m.player != nil {
		m.elapsed = m.player.Position()
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	overlay := m.overlay()
	fieldHeight := max(m.height-strings.Count(overlay, "\n")-1, 1)
	return m.field.View(m.width, fieldHeight) + "\n" + overlay
}

func (m Model) overlay() string {
	st := m.engine.State()
	cfg := m.engine.Config()

	var lines []string

	head := "  " + headerStyle.Render("sparkfield") + "  " + titleStyle.Render(m.title)
	if m.player != nil {
		head += "  " + timeStyle.Render(fmt.Sprintf("%s / %s",
			util.FormatDuration(m.elapsed), util.FormatDuration(m.player.Duration())))
	}
	lines = append(lines, head)

	status := "  " + swatch(st.Color) + " " + labelStyle.Render(fmt.Sprintf("mode %s  mood %s  threshold %.2f  speed %.1f  intensity %.1f",
		cfg.ColorMode(), engine.MoodFor(st.Mood), cfg.BeatThreshold.Load(), cfg.ColorSpeed.Load(), cfg.ColorIntensity.Load()))
	if st.Beat {
		status += "  " + beatStyle.Render("● beat")
	}
	lines = append(lines, status)

	lines = append(lines, "  "+labelStyle.Render("energy ")+m.energy.view()+"  "+labelStyle.Render("mood ")+m.mood.view())
	lines = append(lines, "  "+paramStyle.Render(renderParams(m.engine.Params())))
	lines = append(lines, "  "+m.statusLine())
	lines = append(lines, "  "+m.help.View(helpKeys{player: m.keys, surface: m.surface}))

	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	switch {
	case m.player == nil:
		if !m.engine.HasAudio() {
			return warnStyle.Render("no audio input")
		}
		return ""
	case m.ended:
		return timeStyle.Render("ended  " + m.repeat.String())
	case m.player.Paused():
		return timeStyle.Render("❚❚ paused  " + m.repeat.String())
	}
	bar := renderTrackBar(m.elapsed.Seconds(), m.player.Duration().Seconds(), max(m.width/3, 10))
	return timeStyle.Render("▶ " + bar + "  " + m.repeat.String())
}

func windowTitle(title string) string {
	if title == "" {
		return "sparkfield"
	}
	return title + " · sparkfield"
}

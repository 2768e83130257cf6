package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivier-w/sparkfield/internal/engine"
)

const meterWidth = 16

// meter is a progress bar whose fill follows its target through a
// critically damped spring.
type meter struct {
	bar    progress.Model
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newMeter(from, to string) meter {
	return meter{
		bar: progress.New(
			progress.WithGradient(from, to),
			progress.WithWidth(meterWidth),
			progress.WithoutPercentage(),
		),
		spring: harmonica.NewSpring(harmonica.FPS(FPS), 8, 1),
	}
}

func (m *meter) step(target float64) {
	m.pos, m.vel = m.spring.Update(m.pos, m.vel, clamp01(target))
}

func (m meter) view() string {
	return m.bar.ViewAs(clamp01(m.pos))
}

func clamp01(v float64) float64 {
	return max(0, min(v, 1))
}

// renderTrackBar draws the playback position as a thin line.
func renderTrackBar(elapsed, total float64, width int) string {
	width = max(width, 10)
	var ratio float64
	if total > 0 {
		ratio = clamp01(elapsed / total)
	}
	filled := int(ratio * float64(width))
	return strings.Repeat("━", filled) + strings.Repeat("─", width-filled)
}

// swatch renders the displayed color as a two-cell block.
func swatch(c engine.Color) string {
	return lipgloss.NewStyle().Background(lipgloss.Color(c.Clamped().Hex())).Render("  ")
}

func renderParams(p engine.Params) string {
	return fmt.Sprintf("amp %.2f  freq %.3f  dist %.2f  t %.2f/%.2f/%.2f  lerp %.2f",
		p.Amplitude, p.Frequency, p.MaxDistance, p.TimeX, p.TimeY, p.TimeZ, p.Interpolation)
}

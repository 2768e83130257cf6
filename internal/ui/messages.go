package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FPS is the frame rate of the engine and particle field.
const FPS = 30

type frameMsg time.Time
type playbackEndedMsg struct{}

func frameCmd() tea.Cmd {
	return tea.Tick(time.Second/FPS, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

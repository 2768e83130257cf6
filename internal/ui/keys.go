package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/olivier-w/sparkfield/internal/control"
)

type playerKeys struct {
	Quit   key.Binding
	Pause  key.Binding
	Repeat key.Binding
	Help   key.Binding
}

func defaultPlayerKeys() playerKeys {
	return playerKeys{
		Quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
		Pause:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
		Repeat: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
		Help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

// helpKeys merges the player keys with the control surface bindings for
// the help view.
type helpKeys struct {
	player  playerKeys
	surface *control.KeySurface
}

func (h helpKeys) ShortHelp() []key.Binding {
	keys := []key.Binding{h.player.Pause}
	if h.surface != nil {
		keys = append(keys, h.surface.ShortHelp()...)
	}
	return append(keys, h.player.Help, h.player.Quit)
}

func (h helpKeys) FullHelp() [][]key.Binding {
	groups := [][]key.Binding{{h.player.Pause, h.player.Repeat, h.player.Help, h.player.Quit}}
	if h.surface != nil {
		groups = append(groups, h.surface.FullHelp()...)
	}
	return groups
}

// Package control holds the ControlSurface implementations that write
// into the engine configuration: keyboard bindings and a watched TOML file.
package control

import (
	"errors"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/sparkfield/internal/engine"
)

// KeyMap lists the bindings that adjust the configuration.
type KeyMap struct {
	CycleMode     key.Binding
	SpeedDown     key.Binding
	SpeedUp       key.Binding
	IntensityDown key.Binding
	IntensityUp   key.Binding
	ThresholdDown key.Binding
	ThresholdUp   key.Binding
	AmplitudeDown key.Binding
	AmplitudeUp   key.Binding
	DistanceDown  key.Binding
	DistanceUp    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		CycleMode:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "color mode")),
		SpeedDown:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c/C", "color speed")),
		SpeedUp:       key.NewBinding(key.WithKeys("C")),
		IntensityDown: key.NewBinding(key.WithKeys("i"), key.WithHelp("i/I", "intensity")),
		IntensityUp:   key.NewBinding(key.WithKeys("I")),
		ThresholdDown: key.NewBinding(key.WithKeys("t"), key.WithHelp("t/T", "beat threshold")),
		ThresholdUp:   key.NewBinding(key.WithKeys("T")),
		AmplitudeDown: key.NewBinding(key.WithKeys("a"), key.WithHelp("a/A", "amplitude")),
		AmplitudeUp:   key.NewBinding(key.WithKeys("A")),
		DistanceDown:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d/D", "distance")),
		DistanceUp:    key.NewBinding(key.WithKeys("D")),
	}
}

type adjustment struct {
	binding *key.Binding
	field   func(*engine.Config) *engine.Value
	delta   float64
}

// KeySurface applies key presses routed from the UI to the bound config.
type KeySurface struct {
	keys KeyMap
	mu   sync.Mutex
	cfg  *engine.Config
}

func NewKeySurface(keys KeyMap) *KeySurface {
	return &KeySurface{keys: keys}
}

func (s *KeySurface) Bind(cfg *engine.Config) error {
	if cfg == nil {
		return errors.New("bind: nil config")
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

func (s *KeySurface) Close() error {
	s.mu.Lock()
	s.cfg = nil
	s.mu.Unlock()
	return nil
}

func (s *KeySurface) adjustments() []adjustment {
	k := &s.keys
	return []adjustment{
		{&k.SpeedDown, func(c *engine.Config) *engine.Value { return &c.ColorSpeed }, -0.1},
		{&k.SpeedUp, func(c *engine.Config) *engine.Value { return &c.ColorSpeed }, 0.1},
		{&k.IntensityDown, func(c *engine.Config) *engine.Value { return &c.ColorIntensity }, -0.1},
		{&k.IntensityUp, func(c *engine.Config) *engine.Value { return &c.ColorIntensity }, 0.1},
		{&k.ThresholdDown, func(c *engine.Config) *engine.Value { return &c.BeatThreshold }, -0.05},
		{&k.ThresholdUp, func(c *engine.Config) *engine.Value { return &c.BeatThreshold }, 0.05},
		{&k.AmplitudeDown, func(c *engine.Config) *engine.Value { return &c.Amplitude }, -0.5},
		{&k.AmplitudeUp, func(c *engine.Config) *engine.Value { return &c.Amplitude }, 0.5},
		{&k.DistanceDown, func(c *engine.Config) *engine.Value { return &c.MaxDistance }, -0.5},
		{&k.DistanceUp, func(c *engine.Config) *engine.Value { return &c.MaxDistance }, 0.5},
	}
}

// Handle applies msg if it matches a binding and reports whether it did.
func (s *KeySurface) Handle(msg tea.KeyMsg) bool {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	if cfg == nil {
		return false
	}

	if key.Matches(msg, s.keys.CycleMode) {
		mode := cfg.ColorMode().Next()
		cfg.SetColorMode(mode)
		logrus.WithFields(logrus.Fields{
			"function": "KeySurface.Handle",
			"mode":     mode.String(),
		}).Debug("Color mode changed")
		return true
	}

	for _, adj := range s.adjustments() {
		if !key.Matches(msg, *adj.binding) {
			continue
		}
		v := adj.field(cfg).Add(adj.delta)
		logrus.WithFields(logrus.Fields{
			"function": "KeySurface.Handle",
			"key":      msg.String(),
			"value":    v,
		}).Debug("Config adjusted")
		return true
	}
	return false
}

// ShortHelp and FullHelp satisfy help.KeyMap.
func (s *KeySurface) ShortHelp() []key.Binding {
	return []key.Binding{s.keys.CycleMode, s.keys.SpeedDown, s.keys.IntensityDown}
}

func (s *KeySurface) FullHelp() [][]key.Binding {
	k := s.keys
	return [][]key.Binding{
		{k.CycleMode, k.SpeedDown, k.IntensityDown},
		{k.ThresholdDown, k.AmplitudeDown, k.DistanceDown},
	}
}

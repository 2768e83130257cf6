package engine

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"
)

// ColorMode selects the strategy used to compute the target color.
type ColorMode int32

const (
	ModeFrequency ColorMode = iota
	ModeBeat
	ModeMood
	ModeCustom
)

var colorModeNames = [...]string{"frequency", "beat", "mood", "custom"}

func (m ColorMode) String() string {
	if m < 0 || int(m) >= len(colorModeNames) {
		return fmt.Sprintf("ColorMode(%d)", int32(m))
	}
	return colorModeNames[m]
}

// Next returns the mode after m, wrapping around.
func (m ColorMode) Next() ColorMode {
	return (m + 1) % ColorMode(len(colorModeNames))
}

// ParseColorMode maps a mode name to its ColorMode.
func ParseColorMode(s string) (ColorMode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range colorModeNames {
		if n == name {
			return ColorMode(i), nil
		}
	}
	return ModeFrequency, fmt.Errorf("unknown color mode %q", s)
}

// Value is a float64 that can be written from any goroutine. Each write
// records its own timestamp; writes to different Values are unrelated.
type Value struct {
	bits    atomic.Uint64
	written atomic.Int64
}

func (v *Value) Load() float64 {
	return math.Float64frombits(v.bits.Load())
}

func (v *Value) Store(f float64) {
	v.bits.Store(math.Float64bits(f))
	v.written.Store(time.Now().UnixNano())
}

// Add adjusts the value by delta. Concurrent Adds from different writers
// may drop one of them; last write wins.
func (v *Value) Add(delta float64) float64 {
	f := v.Load() + delta
	v.Store(f)
	return f
}

// WrittenAt reports when the value was last stored. Zero means never.
func (v *Value) WrittenAt() time.Time {
	ns := v.written.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Config holds the long-lived knobs read by the engine every frame.
// Control surfaces write individual fields at any time; the engine never
// validates them beyond clamps at the point of use.
type Config struct {
	Amplitude   Value
	Frequency   Value
	MaxDistance Value

	// Band-select frequencies in Hz: bass, mid and treble.
	Freq1 Value
	Freq2 Value
	Freq3 Value

	TimeX Value
	TimeY Value
	TimeZ Value

	Interpolation Value

	ColorIntensity Value
	ColorSpeed     Value
	BeatThreshold  Value

	// MoodSensitivity is carried for control surfaces but not applied by
	// the mood classifier.
	MoodSensitivity Value

	mode atomic.Int32
}

// DefaultConfig returns a Config populated with the stock values.
func DefaultConfig() *Config {
	c := &Config{}
	c.Amplitude.Store(3)
	c.Frequency.Store(0.01)
	c.MaxDistance.Store(3)
	c.Freq1.Store(60)
	c.Freq2.Store(500)
	c.Freq3.Store(6000)
	c.TimeX.Store(1.1)
	c.TimeY.Store(0.8)
	c.TimeZ.Store(0.8)
	c.Interpolation.Store(0.06)
	c.ColorIntensity.Store(1)
	c.ColorSpeed.Store(1)
	c.BeatThreshold.Store(0.3)
	c.MoodSensitivity.Store(0.5)
	c.SetColorMode(ModeFrequency)
	return c
}

func (c *Config) ColorMode() ColorMode {
	return ColorMode(c.mode.Load())
}

func (c *Config) SetColorMode(m ColorMode) {
	c.mode.Store(int32(m))
}

// Fields returns the numeric fields keyed by their control name.
func (c *Config) Fields() map[string]*Value {
	return map[string]*Value{
		"amplitude":        &c.Amplitude,
		"frequency":        &c.Frequency,
		"max_distance":     &c.MaxDistance,
		"freq1":            &c.Freq1,
		"freq2":            &c.Freq2,
		"freq3":            &c.Freq3,
		"time_x":           &c.TimeX,
		"time_y":           &c.TimeY,
		"time_z":           &c.TimeZ,
		"interpolation":    &c.Interpolation,
		"color_intensity":  &c.ColorIntensity,
		"color_speed":      &c.ColorSpeed,
		"beat_threshold":   &c.BeatThreshold,
		"mood_sensitivity": &c.MoodSensitivity,
	}
}

package engine

import (
	"math"
	"math/rand"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is a linear RGB triple, nominally in [0,1] per channel. Strategies
// may produce channels above 1; sinks clamp on output.
type Color = colorful.Color

// Band names of the frequency palette.
const (
	BandBass   = "bass"
	BandMid    = "mid"
	BandTreble = "treble"
	BandHigh   = "high"
)

var (
	White    = mustHex("#ffffff")
	DarkGray = mustHex("#333333")

	BandPalette = map[string]Color{
		BandBass:   mustHex("#ff0066"),
		BandMid:    mustHex("#00ff88"),
		BandTreble: mustHex("#0088ff"),
		BandHigh:   mustHex("#ffff00"),
	}

	MoodPalette = map[Mood]Color{
		MoodCalm:       mustHex("#4488ff"),
		MoodEnergetic:  mustHex("#ff4400"),
		MoodHappy:      mustHex("#ffdd00"),
		MoodMysterious: mustHex("#8800ff"),
	}

	// BeatColors are the flash colors picked on a beat.
	BeatColors = []Color{
		mustHex("#ff0000"),
		mustHex("#00ff00"),
		mustHex("#0000ff"),
		mustHex("#ffff00"),
		mustHex("#ff00ff"),
		mustHex("#00ffff"),
	}
)

func mustHex(s string) Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// FrequencyBlend mixes the band palette by band magnitude. With no signal
// at all it returns prev unchanged.
func FrequencyBlend(bass, mid, treble float64, prev Color) Color {
	weights := [...]struct {
		band string
		w    float64
	}{
		{BandBass, bass},
		{BandMid, mid},
		{BandTreble, treble},
		{BandHigh, math.Max(0, treble-0.5)},
	}

	total := 0.0
	for _, w := range weights {
		total += w.w
	}
	if total == 0 {
		return prev
	}

	var out Color
	for _, w := range weights {
		base := BandPalette[w.band]
		k := w.w / total
		out.R += base.R * k
		out.G += base.G * k
		out.B += base.B * k
	}
	return out
}

// BeatFlash returns a random saturated color on a beat and dark gray
// otherwise.
func BeatFlash(beat bool, rng *rand.Rand) Color {
	if !beat {
		return DarkGray
	}
	return BeatColors[rng.Intn(len(BeatColors))]
}

// MoodColor picks the palette color for the mood score and scales it by
// energy and intensity, never below 0.3.
func MoodColor(mood, energy, intensity float64) Color {
	base := MoodPalette[MoodFor(mood)]
	k := math.Max(0.3, energy*intensity)
	return Color{R: base.R * k, G: base.G * k, B: base.B * k}
}

// CustomColor is the placeholder strategy for user-defined coloring.
func CustomColor() Color {
	return White
}

// Smooth moves displayed toward target by factor speed*0.1, per channel.
// The step is per call, not per unit of time.
func Smooth(displayed, target Color, speed float64) Color {
	return displayed.BlendRgb(target, clamp(speed*0.1, 0, 1))
}

func targetColor(mode ColorMode, s FrameSample, st State, cfg *Config, rng *rand.Rand) Color {
	switch mode {
	case ModeFrequency:
		return FrequencyBlend(s.Bass, s.Mid, s.Treble, st.Target)
	case ModeBeat:
		return BeatFlash(st.Beat, rng)
	case ModeMood:
		return MoodColor(st.Mood, st.Energy, cfg.ColorIntensity.Load())
	default:
		return CustomColor()
	}
}

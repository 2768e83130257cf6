package particles

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivier-w/sparkfield/internal/engine"
)

func newTestField(side int) *Field {
	f := New(side)
	f.profile = termenv.Ascii
	return f
}

func TestNewBuildsCube(t *testing.T) {
	f := newTestField(3)
	assert.Equal(t, 27, f.Len())
	assert.Equal(t, vec3{-10, -10, -10}, f.base[0])
	assert.Equal(t, vec3{10, 10, 10}, f.base[26])
	assert.Equal(t, engine.White, f.Color())
}

func TestFieldImplementsSink(t *testing.T) {
	var sink engine.ParticleSink = newTestField(2)
	e := engine.New(engine.DefaultConfig(), sink)
	e.Tick()

	f := sink.(*Field)
	assert.Equal(t, 3.0, f.Params().Amplitude)
	assert.Equal(t, 0.06, f.Params().Interpolation)
}

func TestDisplacementClampedToMaxDistance(t *testing.T) {
	f := newTestField(2)
	f.SetAmplitude(10)
	f.SetFrequency(1)
	f.SetMaxDistance(2)
	f.phaseX, f.phaseY, f.phaseZ = 1, 1, 1

	for _, b := range f.base {
		assert.LessOrEqual(t, f.displacement(b).length(), 2+1e-9)
	}
}

func TestNegativeMaxDistancePinsParticles(t *testing.T) {
	f := newTestField(2)
	f.SetAmplitude(5)
	f.SetFrequency(1)
	f.SetMaxDistance(-1)
	f.phaseX = 1

	assert.Equal(t, vec3{}, f.displacement(f.base[0]))
}

func TestAdvanceInterpolatesTowardTarget(t *testing.T) {
	f := newTestField(2)
	f.SetAmplitude(1)
	f.SetFrequency(0)
	f.SetMaxDistance(10)
	f.SetTimeX(1)
	f.SetInterpolation(1)

	f.Advance(0.5)
	want := f.base[0].add(f.displacement(f.base[0]))
	assert.InDelta(t, want.X, f.pos[0].X, 1e-9)
	assert.InDelta(t, 0.5, f.phaseX, 1e-9)
}

func TestAdvanceZeroInterpolationHoldsPosition(t *testing.T) {
	f := newTestField(2)
	f.SetAmplitude(3)
	f.SetFrequency(0.1)
	f.SetMaxDistance(3)
	f.SetTimeX(1)

	f.Advance(1)
	assert.Equal(t, f.base, f.pos)
}

func TestAdvanceIgnoresNonPositiveDt(t *testing.T) {
	f := newTestField(2)
	f.SetTimeX(1)
	f.Advance(0)
	f.Advance(-1)
	assert.Zero(t, f.phaseX)
	assert.Zero(t, f.angle)
}

func TestViewDimensions(t *testing.T) {
	f := newTestField(4)
	out := f.View(20, 6)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	for _, l := range lines {
		assert.Equal(t, 20, utf8.RuneCountInString(l))
	}
	assert.NotEqual(t, strings.Repeat(" ", 20), lines[3], "centre row shows particles")
}

func TestViewEmptySize(t *testing.T) {
	assert.Empty(t, newTestField(2).View(0, 5))
}

func TestViewEmitsColorWhenEnabled(t *testing.T) {
	f := New(3)
	f.profile = termenv.TrueColor
	f.SetColor(colorful.Color{R: 1, G: 0, B: 0})

	out := f.View(10, 4)
	assert.Contains(t, out, "\x1b[38;2;")
	assert.True(t, strings.HasSuffix(out, "\x1b[0m"))
}

func TestShadeDarkensWithDepth(t *testing.T) {
	c := colorful.Color{R: 1, G: 0.5, B: 0}
	_, _, front := shade(c, 0).Hsl()
	_, _, back := shade(c, 1).Hsl()
	assert.Greater(t, front, back)
}

func TestColorSequence(t *testing.T) {
	assert.Equal(t, "\x1b[38;2;255;0;0m", colorSequence(termenv.TrueColor, 255, 0, 0))
	assert.Equal(t, "\x1b[38;5;196m", colorSequence(termenv.ANSI256, 255, 0, 0))
	assert.Empty(t, colorSequence(termenv.Ascii, 1, 2, 3))

	basic := colorSequence(termenv.ANSI, 255, 0, 0)
	assert.True(t, strings.HasPrefix(basic, "\x1b["))
	assert.True(t, strings.HasSuffix(basic, "m"))
	assert.NotContains(t, basic, ";")
}

func TestViewPlainWithoutColor(t *testing.T) {
	f := newTestField(3)
	f.SetColor(colorful.Color{R: 1, G: 0, B: 0})
	assert.NotContains(t, f.View(10, 4), "\x1b[")
}

// Package particles renders a cube of particles in the terminal. It
// implements the engine's ParticleSink: the engine sets the wave
// parameters and color each frame, Advance moves the particles and View
// draws them as braille dots.
package particles

import (
	"math"
	"strings"

	"github.com/muesli/termenv"

	"github.com/olivier-w/sparkfield/internal/engine"
)

const (
	// DefaultSide is the number of particles along each edge of the cube.
	DefaultSide = 14
	spacing     = 10.0
	cameraDist  = 3.2 // in units of the field radius
	spinRate    = 0.25
)

type vec3 struct{ X, Y, Z float64 }

func (v vec3) add(o vec3) vec3      { return vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v vec3) sub(o vec3) vec3      { return vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v vec3) scale(f float64) vec3 { return vec3{v.X * f, v.Y * f, v.Z * f} }
func (v vec3) length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Field holds particle positions and the last parameters pushed by the
// engine. It is not safe for concurrent use.
type Field struct {
	params engine.Params
	color  engine.Color

	base []vec3
	pos  []vec3

	// Phases accumulate so a change of time multiplier never jumps.
	phaseX, phaseY, phaseZ float64
	angle                  float64
	radius                 float64

	profile termenv.Profile
}

// New builds a side×side×side cube centred on the origin.
func New(side int) *Field {
	if side < 1 {
		side = 1
	}
	half := float64(side-1) / 2
	f := &Field{
		color:   engine.White,
		radius:  math.Max(half*spacing*math.Sqrt(3), spacing),
		profile: detectColorProfile(),
	}
	for i := range side {
		for j := range side {
			for k := range side {
				p := vec3{
					X: (float64(i) - half) * spacing,
					Y: (float64(j) - half) * spacing,
					Z: (float64(k) - half) * spacing,
				}
				f.base = append(f.base, p)
			}
		}
	}
	f.pos = append([]vec3(nil), f.base...)
	return f
}

func (f *Field) SetAmplitude(v float64)     { f.params.Amplitude = v }
func (f *Field) SetFrequency(v float64)     { f.params.Frequency = v }
func (f *Field) SetMaxDistance(v float64)   { f.params.MaxDistance = v }
func (f *Field) SetTimeX(v float64)         { f.params.TimeX = v }
func (f *Field) SetTimeY(v float64)         { f.params.TimeY = v }
func (f *Field) SetTimeZ(v float64)         { f.params.TimeZ = v }
func (f *Field) SetInterpolation(v float64) { f.params.Interpolation = v }
func (f *Field) SetColor(c engine.Color)    { f.color = c }

// Params returns the parameters last pushed to the field.
func (f *Field) Params() engine.Params { return f.params }
func (f *Field) Color() engine.Color   { return f.color }
func (f *Field) Len() int              { return len(f.pos) }

// displacement is the wave offset of a particle resting at b. Its length
// never exceeds MaxDistance; a negative MaxDistance pins the particle.
func (f *Field) displacement(b vec3) vec3 {
	p := f.params
	d := vec3{
		X: p.Amplitude * math.Sin(p.Frequency*b.Y+f.phaseX),
		Y: p.Amplitude * math.Sin(p.Frequency*b.Z+f.phaseY),
		Z: p.Amplitude * math.Sin(p.Frequency*b.X+f.phaseZ),
	}
	limit := math.Max(0, p.MaxDistance)
	if l := d.length(); l > limit {
		if l == 0 || limit == 0 {
			return vec3{}
		}
		d = d.scale(limit / l)
	}
	return d
}

// Advance moves the simulation forward by dt seconds. Each particle eases
// toward its displaced position by the interpolation factor.
func (f *Field) Advance(dt float64) {
	if dt <= 0 {
		return
	}
	f.phaseX += dt * f.params.TimeX
	f.phaseY += dt * f.params.TimeY
	f.phaseZ += dt * f.params.TimeZ
	f.angle = math.Mod(f.angle+dt*spinRate, 2*math.Pi)

	k := math.Max(0, math.Min(f.params.Interpolation, 1))
	for i, b := range f.base {
		target := b.add(f.displacement(b))
		f.pos[i] = f.pos[i].add(target.sub(f.pos[i]).scale(k))
	}
}

// View draws the field into a width×height block of braille cells.
func (f *Field) View(width, height int) string {
	if width < 1 || height < 1 {
		return ""
	}
	c := newCanvas(width, height)

	sin, cos := math.Sincos(f.angle)
	cam := cameraDist * f.radius
	// Terminal cells are about twice as tall as wide; dots are 2×4 per cell.
	scale := math.Min(float64(c.dotW), float64(c.dotH)) / 2 * (cam - f.radius) / f.radius * 0.9

	for _, p := range f.pos {
		x := p.X*cos - p.Z*sin
		z := p.X*sin + p.Z*cos
		depth := z + cam
		if depth <= 0 {
			continue
		}
		sx := float64(c.dotW)/2 + x/depth*scale
		sy := float64(c.dotH)/2 - p.Y/depth*scale
		c.plot(int(sx), int(sy), (z+f.radius)/(2*f.radius))
	}

	return c.render(f.color, f.profile)
}

// canvas is a braille dot grid that remembers the nearest depth per cell.
type canvas struct {
	w, h       int
	dotW, dotH int
	bits       []uint8
	depth      []float64
}

// Braille dot positions (col, row) → bit offset:
//
//	(0,0)=0  (1,0)=3
//	(0,1)=1  (1,1)=4
//	(0,2)=2  (1,2)=5
//	(0,3)=6  (1,3)=7
var brailleBits = [2][4]uint{
	{0, 1, 2, 6},
	{3, 4, 5, 7},
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h, dotW: w * 2, dotH: h * 4}
	c.bits = make([]uint8, w*h)
	c.depth = make([]float64, w*h)
	for i := range c.depth {
		c.depth[i] = math.Inf(1)
	}
	return c
}

func (c *canvas) plot(dx, dy int, depth float64) {
	if dx < 0 || dy < 0 || dx >= c.dotW || dy >= c.dotH {
		return
	}
	cell := (dy/4)*c.w + dx/2
	c.bits[cell] |= 1 << brailleBits[dx%2][dy%4]
	c.depth[cell] = math.Min(c.depth[cell], depth)
}

func (c *canvas) render(col engine.Color, p termenv.Profile) string {
	var sb strings.Builder
	ansi := newANSIState(p)
	for row := range c.h {
		if row > 0 {
			ansi.reset(&sb)
			sb.WriteByte('\n')
		}
		for x := range c.w {
			cell := row*c.w + x
			if c.bits[cell] == 0 {
				sb.WriteByte(' ')
				continue
			}
			ansi.set(&sb, shade(col, c.depth[cell]))
			sb.WriteRune(rune(0x2800 + int(c.bits[cell])))
		}
	}
	ansi.reset(&sb)
	return sb.String()
}

package particles

import (
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"
)

var (
	profileOnce sync.Once
	profile     termenv.Profile
	seqCache    sync.Map
)

// detectColorProfile asks termenv once per process. NO_COLOR and
// CLICOLOR_FORCE are honored.
func detectColorProfile() termenv.Profile {
	profileOnce.Do(func() {
		profile = termenv.EnvColorProfile()
	})
	return profile
}

// shade darkens c toward the back of the field. depth is 0 at the front
// and 1 at the back.
func shade(c colorful.Color, depth float64) colorful.Color {
	h, s, l := c.Hsl()
	l *= 1 - 0.65*max(0, min(depth, 1))
	return colorful.Hsl(h, s, l).Clamped()
}

// ansiState emits a color sequence only when the color changes.
type ansiState struct {
	profile termenv.Profile
	current uint32
}

func newANSIState(p termenv.Profile) ansiState {
	return ansiState{profile: p, current: ^uint32(0)}
}

func (s *ansiState) set(sb *strings.Builder, c colorful.Color) {
	if s.profile == termenv.Ascii {
		return
	}
	r, g, b := c.Clamped().RGB255()
	key := uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if key == s.current {
		return
	}
	sb.WriteString(colorSequence(s.profile, r, g, b))
	s.current = key
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.profile == termenv.Ascii || s.current == ^uint32(0) {
		return
	}
	sb.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	s.current = ^uint32(0)
}

// colorSequence returns the SGR foreground sequence for r, g, b degraded
// to what p can show. Ascii yields an empty string.
func colorSequence(p termenv.Profile, r, g, b uint8) string {
	key := uint32(p)<<24 | uint32(r)<<16 | uint32(g)<<8 | uint32(b)
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	var seq string
	hex := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}.Hex()
	if c := p.Color(hex); c != nil {
		if code := c.Sequence(false); code != "" {
			seq = termenv.CSI + code + "m"
		}
	}

	seqCache.Store(key, seq)
	return seq
}

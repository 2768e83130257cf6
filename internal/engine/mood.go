package engine

// Mood is the palette label chosen from a mood score.
type Mood uint8

const (
	MoodCalm Mood = iota
	MoodMysterious
	MoodEnergetic
	MoodHappy
)

func (m Mood) String() string {
	switch m {
	case MoodCalm:
		return "calm"
	case MoodMysterious:
		return "mysterious"
	case MoodEnergetic:
		return "energetic"
	case MoodHappy:
		return "happy"
	}
	return "unknown"
}

// MoodScore scores a frame on [-1,1] from its band magnitudes and energy.
// Loud bands push the score up, a quiet frame pulls it down.
func MoodScore(bass, mid, treble, energy float64) float64 {
	score := 0.0
	if bass > 0.7 {
		score += 0.3
	}
	if mid > 0.7 {
		score += 0.4
	}
	if treble > 0.7 {
		score += 0.3
	}
	if energy < 0.3 {
		score -= 0.5
	}
	return clamp(score, -1, 1)
}

// MoodFor maps a score to its palette label.
func MoodFor(score float64) Mood {
	switch {
	case score > 0.5:
		return MoodHappy
	case score > 0:
		return MoodEnergetic
	case score > -0.5:
		return MoodMysterious
	default:
		return MoodCalm
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

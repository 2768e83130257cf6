package engine

const (
	beatTransientMin = 0.2
	beatRefractory   = 0.3 // seconds
)

// BeatDetector flags a beat when bass and transient both clear their
// thresholds and the refractory period since the last beat has passed.
type BeatDetector struct {
	lastBeat float64
	detected bool
}

// Detect evaluates the frame at elapsed time t (seconds since the engine's
// clock origin). The result replaces the previous frame's flag.
func (d *BeatDetector) Detect(t, bass, transient, threshold float64) bool {
	d.detected = bass > threshold &&
		transient > beatTransientMin &&
		t-d.lastBeat > beatRefractory
	if d.detected {
		d.lastBeat = t
	}
	return d.detected
}

func (d *BeatDetector) Detected() bool   { return d.detected }
func (d *BeatDetector) LastBeat() float64 { return d.lastBeat }

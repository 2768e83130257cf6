package engine

// Params is the parameter vector pushed to the particle sink every frame.
type Params struct {
	Amplitude     float64
	Frequency     float64
	MaxDistance   float64
	TimeX         float64
	TimeY         float64
	TimeZ         float64
	Interpolation float64
}

// MapParams derives the sink parameters from the configuration and a frame
// sample. Values are not clamped; a loud transient can make MaxDistance
// negative.
func MapParams(cfg *Config, s FrameSample) Params {
	return Params{
		Amplitude:     cfg.Amplitude.Load(),
		Frequency:     cfg.Frequency.Load(),
		MaxDistance:   cfg.MaxDistance.Load() - s.Transient,
		TimeX:         cfg.TimeX.Load() * s.Bass,
		TimeY:         cfg.TimeY.Load() * s.Mid,
		TimeZ:         cfg.TimeZ.Load() * s.Treble,
		Interpolation: cfg.Interpolation.Load(),
	}
}

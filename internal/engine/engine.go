// Package engine turns analysed audio into particle parameters and a
// smoothly changing color, one frame at a time.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrNoAudio is returned by an AudioOpener when no input is configured.
var ErrNoAudio = errors.New("no audio source")

// ControlSurface writes into a shared Config from outside the engine.
type ControlSurface interface {
	Bind(cfg *Config) error
	Close() error
}

// ParticleSink consumes the per-frame parameters and display color.
type ParticleSink interface {
	SetAmplitude(v float64)
	SetFrequency(v float64)
	SetMaxDistance(v float64)
	SetTimeX(v float64)
	SetTimeY(v float64)
	SetTimeZ(v float64)
	SetInterpolation(v float64)
	SetColor(c Color)
}

type (
	AudioOpener   func(ctx context.Context) (AudioSource, error)
	SurfaceOpener func(ctx context.Context) (ControlSurface, error)
)

// State is the analysis state carried from frame to frame.
type State struct {
	Color    Color // displayed
	Target   Color
	Beat     bool
	LastBeat float64 // seconds since the clock origin
	Energy   float64
	Mood     float64
}

// Engine runs the per-frame pipeline. Tick and the accessors must be
// called from one goroutine; Config may be written from anywhere.
type Engine struct {
	cfg      *Config
	sink     ParticleSink
	sampler  Sampler
	beat     BeatDetector
	rng      *rand.Rand
	elapsed  func() time.Duration
	sample   FrameSample
	params   Params
	state    State
	surfaces []ControlSurface
	frames   uint64
}

type Option func(*Engine)

// WithClock replaces the monotonic clock. fn returns time since the
// engine's origin.
func WithClock(fn func() time.Duration) Option {
	return func(e *Engine) { e.elapsed = fn }
}

func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithSource attaches an audio source at construction.
func WithSource(src AudioSource) Option {
	return func(e *Engine) { e.sampler = NewSampler(src) }
}

// New creates an engine reading cfg and pushing to sink. The clock origin
// is the moment New is called.
func New(cfg *Config, sink ParticleSink, opts ...Option) *Engine {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	start := time.Now()
	e := &Engine{
		cfg:     cfg,
		sink:    sink,
		rng:     rand.New(rand.NewSource(start.UnixNano())),
		elapsed: func() time.Duration { return time.Since(start) },
		state:   State{Color: White, Target: White},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Config() *Config { return e.cfg }

// State returns a copy of the current analysis state.
func (e *Engine) State() State { return e.state }

// Params returns the parameters pushed on the last Tick.
func (e *Engine) Params() Params { return e.params }

// Sample returns the most recent frame sample.
func (e *Engine) Sample() FrameSample { return e.sample }

func (e *Engine) HasAudio() bool { return e.sampler.Available() }

func (e *Engine) Frames() uint64 { return e.frames }

// Attach opens the audio source and control surfaces one after another.
// A failure in one is logged and does not stop the others; the engine
// keeps working with whatever was acquired.
func (e *Engine) Attach(ctx context.Context, audio AudioOpener, surfaces ...SurfaceOpener) {
	if audio != nil {
		var src AudioSource
		err := guard("audio", func() error {
			var err error
			src, err = audio(ctx)
			return err
		})
		switch {
		case err != nil:
			logrus.WithFields(logrus.Fields{
				"function": "Attach",
				"error":    err.Error(),
			}).Warn("Audio source unavailable, running without audio")
		case src == nil:
			logrus.WithField("function", "Attach").Warn("Audio opener returned no source")
		default:
			e.sampler = NewSampler(src)
			logrus.WithFields(logrus.Fields{
				"function":    "Attach",
				"bin_count":   src.BinCount(),
				"fft_size":    src.FFTSize(),
				"sample_rate": src.SampleRate(),
			}).Info("Audio source attached")
		}
	}

	for i, open := range surfaces {
		if open == nil {
			continue
		}
		var surface ControlSurface
		err := guard("control surface", func() error {
			var err error
			surface, err = open(ctx)
			if err != nil {
				return err
			}
			if surface == nil {
				return errors.New("opener returned no surface")
			}
			return surface.Bind(e.cfg)
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Attach",
				"surface":  i,
				"error":    err.Error(),
			}).Warn("Control surface unavailable")
			if surface != nil {
				_ = surface.Close()
			}
			continue
		}
		e.surfaces = append(e.surfaces, surface)
		logrus.WithFields(logrus.Fields{
			"function": "Attach",
			"surface":  fmt.Sprintf("%T", surface),
		}).Info("Control surface bound")
	}
}

// guard runs fn and turns a panic into an error.
func guard(what string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s setup panicked: %v", what, r)
		}
	}()
	if err := fn(); err != nil {
		return fmt.Errorf("%s setup: %w", what, err)
	}
	return nil
}

// Close releases the audio source and every bound control surface.
func (e *Engine) Close() error {
	var errs []error
	if e.sampler.src != nil {
		if err := e.sampler.src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing audio source: %w", err))
		}
		e.sampler = Sampler{}
	}
	for _, s := range e.surfaces {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing control surface: %w", err))
		}
	}
	e.surfaces = nil
	return errors.Join(errs...)
}

// Tick runs one frame. Parameters are mapped from the previous frame's
// sample before the audio is read again.
func (e *Engine) Tick() {
	t := e.elapsed().Seconds()

	e.params = MapParams(e.cfg, e.sample)

	if e.sampler.Available() {
		e.sampler.Refresh()
		e.sample = e.sampler.Sample(e.cfg)
	}

	s := e.sample
	e.state.Beat = e.beat.Detect(t, s.Bass, s.Transient, e.cfg.BeatThreshold.Load())
	e.state.LastBeat = e.beat.LastBeat()
	e.state.Energy = s.Energy()
	e.state.Mood = MoodScore(s.Bass, s.Mid, s.Treble, e.state.Energy)
	e.state.Target = targetColor(e.cfg.ColorMode(), s, e.state, e.cfg, e.rng)
	e.state.Color = Smooth(e.state.Color, e.state.Target, e.cfg.ColorSpeed.Load())

	e.push()
	e.frames++
}

func (e *Engine) push() {
	if e.sink == nil {
		return
	}
	p := e.params
	e.sink.SetAmplitude(p.Amplitude)
	e.sink.SetFrequency(p.Frequency)
	e.sink.SetMaxDistance(p.MaxDistance)
	e.sink.SetTimeX(p.TimeX)
	e.sink.SetTimeY(p.TimeY)
	e.sink.SetTimeZ(p.TimeZ)
	e.sink.SetInterpolation(p.Interpolation)
	e.sink.SetColor(e.state.Color)
}

// Package analyser turns the PCM stream tapped from the player into the
// byte spectrum and byte waveform the engine samples each frame.
package analyser

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

const (
	DefaultFFTSize     = 2048
	DefaultSmoothing   = 0.8
	DefaultMinDecibels = -100.0
	DefaultMaxDecibels = -30.0

	// DefaultStaleAfter is how long the ring may go without writes before
	// the analyser treats the input as silent.
	DefaultStaleAfter = 250 * time.Millisecond
)

// Analyser reads the most recent fftSize frames from a RingBuffer of
// interleaved signed 16-bit PCM and exposes them as bytes:
// FrequencyData maps smoothed magnitudes from [minDB, maxDB] onto 0..255,
// TimeDomainData maps samples in [-1, 1] onto 0..255 with 128 as silence.
// Once nothing has been written for the stale interval, as when playback
// is paused or over, the input reads as silence.
type Analyser struct {
	ring       *RingBuffer
	sampleRate float64
	channels   int
	fftSize    int
	smoothing  float64
	minDB      float64
	maxDB      float64
	release    io.Closer
	staleAfter time.Duration
	now        func() time.Time

	fft      *fourier.FFT
	raw      []byte
	mono     []float64
	window   []float64
	windowed []float64
	coeffs   []complex128
	smoothed []float64
	freq     []byte
	wave     []byte
	stale    bool
	closed   bool
}

type Option func(*Analyser)

// WithFFTSize sets the transform size. It must be a power of two.
func WithFFTSize(n int) Option {
	return func(a *Analyser) { a.fftSize = n }
}

// WithSmoothing sets the time constant blending each spectrum with the
// previous one, in [0,1).
func WithSmoothing(tau float64) Option {
	return func(a *Analyser) { a.smoothing = tau }
}

func WithDecibelRange(minDB, maxDB float64) Option {
	return func(a *Analyser) {
		a.minDB = minDB
		a.maxDB = maxDB
	}
}

// WithStaleAfter sets how long the ring may go without writes before the
// input reads as silence. Zero or less disables the check.
func WithStaleAfter(d time.Duration) Option {
	return func(a *Analyser) { a.staleAfter = d }
}

func withNow(fn func() time.Time) Option {
	return func(a *Analyser) { a.now = fn }
}

// WithRelease registers c to be closed with the analyser, typically the
// player feeding the ring buffer.
func WithRelease(c io.Closer) Option {
	return func(a *Analyser) { a.release = c }
}

// New creates an analyser reading ring at the given stream format.
func New(ring *RingBuffer, sampleRate float64, channels int, opts ...Option) (*Analyser, error) {
	a := &Analyser{
		ring:       ring,
		sampleRate: sampleRate,
		channels:   channels,
		fftSize:    DefaultFFTSize,
		smoothing:  DefaultSmoothing,
		minDB:      DefaultMinDecibels,
		maxDB:      DefaultMaxDecibels,
		staleAfter: DefaultStaleAfter,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	switch {
	case ring == nil:
		return nil, fmt.Errorf("analyser: nil ring buffer")
	case sampleRate <= 0:
		return nil, fmt.Errorf("analyser: invalid sample rate %v", sampleRate)
	case channels <= 0:
		return nil, fmt.Errorf("analyser: invalid channel count %d", channels)
	case !isPowerOfTwo(a.fftSize) || a.fftSize < 32:
		return nil, fmt.Errorf("analyser: fft size %d is not a power of two >= 32", a.fftSize)
	case a.smoothing < 0 || a.smoothing >= 1:
		return nil, fmt.Errorf("analyser: smoothing %v outside [0,1)", a.smoothing)
	case a.minDB >= a.maxDB:
		return nil, fmt.Errorf("analyser: decibel range [%v, %v] is empty", a.minDB, a.maxDB)
	}

	n := a.fftSize
	a.raw = make([]byte, n*channels*2)
	a.mono = make([]float64, n)
	a.window = blackman(n)
	a.windowed = make([]float64, n)
	a.fft = fourier.NewFFT(n)
	a.coeffs = make([]complex128, n/2+1)
	a.smoothed = make([]float64, n/2)
	a.freq = make([]byte, n/2)
	a.wave = make([]byte, n)
	for i := range a.wave {
		a.wave[i] = 128
	}

	logrus.WithFields(logrus.Fields{
		"function":    "analyser.New",
		"fft_size":    n,
		"sample_rate": sampleRate,
		"channels":    channels,
		"smoothing":   a.smoothing,
	}).Debug("Analyser created")

	return a, nil
}

// RingSize returns a ring buffer capacity holding two analysis windows.
func RingSize(fftSize, channels int) int {
	return fftSize * channels * 2 * 2
}

func (a *Analyser) BinCount() int          { return a.fftSize / 2 }
func (a *Analyser) FFTSize() int           { return a.fftSize }
func (a *Analyser) SampleRate() float64    { return a.sampleRate }
func (a *Analyser) FrequencyData() []byte  { return a.freq }
func (a *Analyser) TimeDomainData() []byte { return a.wave }

// Refresh recomputes both byte buffers from the newest PCM. When fewer
// than fftSize frames are buffered the window is zero-padded at the front.
func (a *Analyser) Refresh() {
	if a.closed {
		return
	}

	clear(a.raw)
	if a.live() {
		a.ring.Latest(a.raw)
	}

	frameBytes := a.channels * 2
	for i := range a.fftSize {
		off := i * frameBytes
		sum := 0.0
		for ch := range a.channels {
			s := int16(binary.LittleEndian.Uint16(a.raw[off+ch*2:]))
			sum += float64(s) / 32768.0
		}
		a.mono[i] = sum / float64(a.channels)
	}

	for i, v := range a.mono {
		a.wave[i] = toByte(128 * (1 + v))
		a.windowed[i] = v * a.window[i]
	}

	a.coeffs = a.fft.Coefficients(a.coeffs, a.windowed)

	scale := 1 / float64(a.fftSize)
	span := a.maxDB - a.minDB
	for k := range a.smoothed {
		mag := cmplx.Abs(a.coeffs[k]) * scale
		a.smoothed[k] = a.smoothing*a.smoothed[k] + (1-a.smoothing)*mag
		if a.smoothed[k] <= 0 {
			a.freq[k] = 0
			continue
		}
		db := 20 * math.Log10(a.smoothed[k])
		a.freq[k] = toByte(255 * (db - a.minDB) / span)
	}
}

// live reports whether the ring has been written recently enough to be
// analysed.
func (a *Analyser) live() bool {
	if a.staleAfter <= 0 {
		return true
	}
	last := a.ring.LastWrite()
	stale := last.IsZero() || a.now().Sub(last) > a.staleAfter
	if stale != a.stale {
		a.stale = stale
		logrus.WithFields(logrus.Fields{
			"function": "Analyser.Refresh",
			"stale":    stale,
		}).Debug("Input activity changed")
	}
	return !stale
}

// Close stops analysing and closes the registered release target.
func (a *Analyser) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true
	a.ring.Clear()
	if a.release != nil {
		return a.release.Close()
	}
	return nil
}

func toByte(v float64) byte {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= 255:
		return 255
	}
	return byte(v)
}

// blackman returns the Blackman window weights for n samples.
func blackman(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1
	}
	return window.Blackman(w)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

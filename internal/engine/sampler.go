package engine

import "math"

// AudioSource exposes analysed audio as byte buffers. FrequencyData has
// BinCount entries (0-255 magnitudes) and TimeDomainData has FFTSize
// entries (0-255 waveform, 128 is silence). Refresh recomputes both.
type AudioSource interface {
	BinCount() int
	FFTSize() int
	SampleRate() float64
	Refresh()
	FrequencyData() []byte
	TimeDomainData() []byte
	Close() error
}

// FrameSample is the per-frame reading taken from the audio source.
type FrameSample struct {
	Bass      float64
	Mid       float64
	Treble    float64
	Transient float64
}

// Energy is the mean of the three band magnitudes.
func (s FrameSample) Energy() float64 {
	return (s.Bass + s.Mid + s.Treble) / 3
}

// BinIndex converts a frequency in Hz to an index into a buffer of
// binCount bins spanning 0..sampleRate/2.
func BinIndex(hz float64, binCount int, sampleRate float64) int {
	nyquist := sampleRate / 2
	if nyquist <= 0 {
		return 0
	}
	return int(math.Floor(hz * float64(binCount) / nyquist))
}

// Sampler reads band magnitudes and the transient from an AudioSource.
// A nil source yields zero for every reading.
type Sampler struct {
	src AudioSource
}

func NewSampler(src AudioSource) Sampler {
	return Sampler{src: src}
}

func (s Sampler) Available() bool {
	return s.src != nil
}

// Refresh pulls fresh buffers from the source. Call it once per frame so
// all readings in a frame come from the same buffers.
func (s Sampler) Refresh() {
	if s.src == nil {
		return
	}
	s.src.Refresh()
}

// BandMagnitude returns the normalized magnitude in [0,1] at hz. Indices
// outside the buffer read as 0.
func (s Sampler) BandMagnitude(hz float64) float64 {
	if s.src == nil {
		return 0
	}
	data := s.src.FrequencyData()
	i := BinIndex(hz, s.src.BinCount(), s.src.SampleRate())
	if i < 0 || i >= len(data) {
		return 0
	}
	return float64(data[i]) / 255
}

// Transient is the deviation of the midpoint waveform sample from silence.
func (s Sampler) Transient() float64 {
	if s.src == nil {
		return 0
	}
	data := s.src.TimeDomainData()
	mid := s.src.FFTSize() / 2
	if mid < 0 || mid >= len(data) {
		return 0
	}
	return (128 - float64(data[mid])) / 127
}

// Sample reads the three configured bands and the transient.
func (s Sampler) Sample(cfg *Config) FrameSample {
	return FrameSample{
		Bass:      s.BandMagnitude(cfg.Freq1.Load()),
		Mid:       s.BandMagnitude(cfg.Freq2.Load()),
		Treble:    s.BandMagnitude(cfg.Freq3.Load()),
		Transient: s.Transient(),
	}
}

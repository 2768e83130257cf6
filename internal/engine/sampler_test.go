package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBinIndex(t *testing.T) {
	tests := []struct {
		hz   float64
		want int
	}{
		{0, 0},
		{60, 2},
		{500, 23},
		{6000, 278},
		{22050, 1024},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BinIndex(tt.hz, 1024, 44100), "hz=%v", tt.hz)
	}
	assert.Equal(t, 0, BinIndex(1000, 1024, 0))
}

func TestBandMagnitudeStaysInUnitRange(t *testing.T) {
	src := newFakeSource()
	s := NewSampler(src)
	for b := range 256 {
		src.setHz(1000, byte(b))
		got := s.BandMagnitude(1000)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
	src.setHz(1000, 255)
	assert.Equal(t, 1.0, s.BandMagnitude(1000))
}

func TestBandMagnitudeOutOfRangeReadsZero(t *testing.T) {
	src := newFakeSource()
	for i := range src.freq {
		src.freq[i] = 200
	}
	s := NewSampler(src)
	assert.Equal(t, 0.0, s.BandMagnitude(22050))
	assert.Equal(t, 0.0, s.BandMagnitude(-100))
}

func TestTransient(t *testing.T) {
	src := newFakeSource()
	s := NewSampler(src)
	assert.Equal(t, 0.0, s.Transient())

	src.setTransient(1)
	assert.Equal(t, 1.0, s.Transient())

	src.setTransient(255)
	assert.Equal(t, -1.0, s.Transient())
}

func TestSamplerWithoutSource(t *testing.T) {
	var s Sampler
	assert.False(t, s.Available())
	assert.NotPanics(t, s.Refresh)
	assert.Equal(t, 0.0, s.BandMagnitude(60))
	assert.Equal(t, 0.0, s.Transient())
	assert.Equal(t, FrameSample{}, s.Sample(DefaultConfig()))
}

func TestSampleReadsConfiguredBands(t *testing.T) {
	src := newFakeSource()
	src.setHz(60, 255)
	src.setHz(500, 51)
	src.setHz(6000, 102)
	cfg := DefaultConfig()

	got := NewSampler(src).Sample(cfg)
	assert.Equal(t, 1.0, got.Bass)
	assert.InDelta(t, 0.2, got.Mid, 1e-9)
	assert.InDelta(t, 0.4, got.Treble, 1e-9)
	assert.InDelta(t, 1.6/3, got.Energy(), 1e-9)

	cfg.Freq1.Store(500)
	assert.InDelta(t, 0.2, NewSampler(src).Sample(cfg).Bass, 1e-9)
}

package player

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// audioDecoder yields interleaved signed 16-bit little-endian PCM at the
// source's own sample rate and channel count.
type audioDecoder interface {
	io.ReadSeeker
	Length() int64
	SampleRate() int
	ChannelCount() int
}

// newDecoder picks a decoder by file extension.
func newDecoder(f *os.File) (audioDecoder, error) {
	ext := strings.ToLower(filepath.Ext(f.Name()))
	switch ext {
	case ".mp3":
		return newMP3Decoder(f)
	case ".wav":
		return newWAVDecoder(f)
	case ".flac":
		return newFLACDecoder(f)
	case ".ogg":
		return newOGGDecoder(f)
	default:
		return nil, fmt.Errorf("unsupported format: %s", ext)
	}
}

// pcmQueue holds converted PCM that did not fit in the caller's buffer
// and tracks the output byte position.
type pcmQueue struct {
	pending []byte
	pos     int64
}

// drain copies queued bytes into p. ok is false when nothing was queued.
func (q *pcmQueue) drain(p []byte) (n int, ok bool) {
	if len(q.pending) == 0 {
		return 0, false
	}
	n = copy(p, q.pending)
	q.pending = q.pending[n:]
	q.pos += int64(n)
	return n, true
}

// emit copies raw into p and queues the remainder.
func (q *pcmQueue) emit(p, raw []byte) int {
	n := copy(p, raw)
	if n < len(raw) {
		q.pending = raw[n:]
	}
	q.pos += int64(n)
	return n
}

func (q *pcmQueue) reset(pos int64) {
	q.pending = nil
	q.pos = pos
}

// seekTarget resolves a Seek call against the current position and total
// length, clamped to [0, total].
func seekTarget(offset int64, whence int, pos, total int64) int64 {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = pos + offset
	case io.SeekEnd:
		target = total + offset
	}
	return max(0, min(target, total))
}

func putSample16(dst []byte, sample int) {
	sample = max(-32768, min(sample, 32767))
	binary.LittleEndian.PutUint16(dst, uint16(int16(sample)))
}

type mp3Decoder struct {
	*mp3.Decoder
}

func newMP3Decoder(f *os.File) (*mp3Decoder, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return &mp3Decoder{Decoder: dec}, nil
}

// go-mp3 always produces stereo.
func (d *mp3Decoder) ChannelCount() int { return 2 }

type wavDecoder struct {
	pcmQueue
	file       *os.File
	pcmStart   int64
	total      int64
	sampleRate int
	channels   int
	srcDepth   int // bits
	srcFrame   int64
}

func newWAVDecoder(f *os.File) (*wavDecoder, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	channels := int(dec.NumChans)
	depth := int(dec.BitDepth)
	switch depth {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth %d", depth)
	}
	srcFrame := int64(channels) * int64(depth) / 8

	pcmStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("getting PCM start position: %w", err)
	}

	return &wavDecoder{
		file:       f,
		pcmStart:   pcmStart,
		total:      dec.PCMLen() / srcFrame * int64(channels) * 2,
		sampleRate: int(dec.SampleRate),
		channels:   channels,
		srcDepth:   depth,
		srcFrame:   srcFrame,
	}, nil
}

func (d *wavDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	srcWidth := d.srcDepth / 8
	want := max(1, len(p)/2)
	src := make([]byte, want*srcWidth)
	n, err := io.ReadFull(d.file, src)
	samples := n / srcWidth
	if samples == 0 {
		if err == nil || err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, samples*2)
	for i := range samples {
		putSample16(raw[i*2:], wavSample(src[i*srcWidth:], d.srcDepth))
	}

	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return d.emit(p, raw), err
}

// wavSample converts one little-endian source sample to the 16-bit range.
func wavSample(b []byte, depth int) int {
	switch depth {
	case 8:
		return (int(b[0]) - 128) << 8
	case 16:
		return int(int16(binary.LittleEndian.Uint16(b)))
	case 24:
		s := int32(b[0]) | int32(b[1])<<8 | int32(b[2])<<16
		if s&0x800000 != 0 {
			s |= ^0xFFFFFF
		}
		return int(s >> 8)
	default:
		return int(int32(binary.LittleEndian.Uint32(b)) >> 16)
	}
}

func (d *wavDecoder) Seek(offset int64, whence int) (int64, error) {
	target := seekTarget(offset, whence, d.pos, d.total)
	frame := target / (int64(d.channels) * 2)
	if _, err := d.file.Seek(d.pcmStart+frame*d.srcFrame, io.SeekStart); err != nil {
		return d.pos, err
	}
	d.reset(target)
	return target, nil
}

func (d *wavDecoder) Length() int64     { return d.total }
func (d *wavDecoder) SampleRate() int   { return d.sampleRate }
func (d *wavDecoder) ChannelCount() int { return d.channels }

type flacDecoder struct {
	pcmQueue
	stream     *flac.Stream
	total      int64
	sampleRate int
	channels   int
	bps        int
}

func newFLACDecoder(f *os.File) (*flacDecoder, error) {
	stream, err := flac.NewSeek(f)
	if err != nil {
		return nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	info := stream.Info
	channels := int(info.NChannels)
	return &flacDecoder{
		stream:     stream,
		total:      int64(info.NSamples) * int64(channels) * 2,
		sampleRate: int(info.SampleRate),
		channels:   channels,
		bps:        int(info.BitsPerSample),
	}, nil
}

func (d *flacDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	frame, err := d.stream.ParseNext()
	if err != nil {
		return 0, err
	}

	samples := int(frame.Subframes[0].NSamples)
	raw := make([]byte, samples*d.channels*2)
	for i := range samples {
		for ch := range d.channels {
			s := int(frame.Subframes[ch].Samples[i])
			if d.bps > 16 {
				s >>= d.bps - 16
			} else if d.bps < 16 {
				s <<= 16 - d.bps
			}
			putSample16(raw[(i*d.channels+ch)*2:], s)
		}
	}
	return d.emit(p, raw), nil
}

func (d *flacDecoder) Seek(offset int64, whence int) (int64, error) {
	target := seekTarget(offset, whence, d.pos, d.total)
	sample := uint64(target / (int64(d.channels) * 2))
	if _, err := d.stream.Seek(sample); err != nil {
		return d.pos, err
	}
	d.reset(target)
	return target, nil
}

func (d *flacDecoder) Length() int64     { return d.total }
func (d *flacDecoder) SampleRate() int   { return d.sampleRate }
func (d *flacDecoder) ChannelCount() int { return d.channels }

type oggDecoder struct {
	pcmQueue
	reader     *oggvorbis.Reader
	total      int64
	sampleRate int
	channels   int
}

func newOGGDecoder(f *os.File) (*oggDecoder, error) {
	reader, err := oggvorbis.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("decoding OGG: %w", err)
	}
	channels := reader.Channels()
	return &oggDecoder{
		reader:     reader,
		total:      reader.Length() * int64(channels) * 2,
		sampleRate: reader.SampleRate(),
		channels:   channels,
	}, nil
}

func (d *oggDecoder) Read(p []byte) (int, error) {
	if n, ok := d.drain(p); ok {
		return n, nil
	}

	samples := make([]float32, max(1, len(p)/2))
	n, err := d.reader.Read(samples)
	if n == 0 {
		if err == nil {
			err = io.EOF
		}
		return 0, err
	}

	raw := make([]byte, n*2)
	for i, s := range samples[:n] {
		putSample16(raw[i*2:], int(max(-1, min(s, 1))*32767))
	}
	return d.emit(p, raw), err
}

func (d *oggDecoder) Seek(offset int64, whence int) (int64, error) {
	target := seekTarget(offset, whence, d.pos, d.total)
	if err := d.reader.SetPosition(target / (int64(d.channels) * 2)); err != nil {
		return d.pos, err
	}
	d.reset(target)
	return target, nil
}

func (d *oggDecoder) Length() int64     { return d.total }
func (d *oggDecoder) SampleRate() int   { return d.sampleRate }
func (d *oggDecoder) ChannelCount() int { return d.channels }

// Package player decodes an audio file, plays it and copies every decoded
// byte into a tap so it can be analysed alongside playback.
package player

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/sirupsen/logrus"
)

const bytesPerSample = 2 // 16-bit

// tapReader counts bytes pulled by the output device and copies them into
// the tap as they pass.
type tapReader struct {
	reader io.Reader
	tap    io.Writer
	pos    int64
	mu     sync.Mutex
}

func (tr *tapReader) Read(p []byte) (int, error) {
	n, err := tr.reader.Read(p)
	if n > 0 {
		if tr.tap != nil {
			_, _ = tr.tap.Write(p[:n])
		}
		tr.mu.Lock()
		tr.pos += int64(n)
		tr.mu.Unlock()
	}
	return n, err
}

func (tr *tapReader) Pos() int64 {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.pos
}

func (tr *tapReader) SetPos(pos int64) {
	tr.mu.Lock()
	tr.pos = pos
	tr.mu.Unlock()
}

// output is the device-side player pulling PCM from the tap reader.
type output interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Player plays one audio file.
type Player struct {
	file        *os.File
	decoder     audioDecoder
	reader      *tapReader
	newOutput   func(io.Reader) output
	out         output
	sampleRate  int
	channels    int
	bytesPerSec int64
	duration    time.Duration
	paused      bool
	done        chan struct{}
	stopMon     chan struct{}
	cleanup     func()
	closeOnce   sync.Once
	mu          sync.Mutex
}

var (
	otoCtx     *oto.Context
	otoRate    int
	otoChans   int
	otoOnce    sync.Once
	otoInitErr error
)

// initOto creates the process-wide output context. oto allows one context
// per process, so later players must share its format.
func initOto(sampleRate, channels int) (*oto.Context, error) {
	otoOnce.Do(func() {
		var ready chan struct{}
		otoCtx, ready, otoInitErr = oto.NewContext(&oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if otoInitErr == nil {
			<-ready
			otoRate, otoChans = sampleRate, channels
		}
	})
	if otoInitErr != nil {
		return nil, fmt.Errorf("opening audio output: %w", otoInitErr)
	}
	if otoRate != sampleRate || otoChans != channels {
		return nil, fmt.Errorf("audio output is %d Hz/%dch, file is %d Hz/%dch", otoRate, otoChans, sampleRate, channels)
	}
	return otoCtx, nil
}

// Open starts playing path. Decoded PCM is copied into tap as the output
// device consumes it; tap may be nil.
func Open(path string, tap io.Writer) (*Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	ctx, err := initOto(dec.SampleRate(), dec.ChannelCount())
	if err != nil {
		f.Close()
		return nil, err
	}

	bytesPerSec := int64(dec.SampleRate()) * int64(dec.ChannelCount()) * bytesPerSample
	p := &Player{
		file:        f,
		decoder:     dec,
		reader:      &tapReader{reader: dec, tap: tap},
		newOutput:   func(r io.Reader) output { return ctx.NewPlayer(r) },
		sampleRate:  dec.SampleRate(),
		channels:    dec.ChannelCount(),
		bytesPerSec: bytesPerSec,
		duration:    time.Duration(float64(dec.Length()) / float64(bytesPerSec) * float64(time.Second)),
		done:        make(chan struct{}),
		stopMon:     make(chan struct{}),
	}
	p.cleanup = func() { f.Close() }

	p.out = p.newOutput(p.reader)
	p.out.Play()
	go p.monitor(p.done)

	logrus.WithFields(logrus.Fields{
		"function":    "Open",
		"path":        path,
		"sample_rate": p.sampleRate,
		"channels":    p.channels,
		"duration":    p.duration.String(),
	}).Info("Playback started")

	return p, nil
}

func (p *Player) monitor(done chan struct{}) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopMon:
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		finished := !p.paused && p.out != nil && p.reader.Pos() >= p.decoder.Length() && !p.out.IsPlaying()
		current := p.done == done
		p.mu.Unlock()

		if !current {
			return
		}
		if finished {
			close(done)
			return
		}
	}
}

// Done returns a channel that closes when playback reaches the end.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Restart plays the file again from the start. The current output is
// closed before the decoder is rewound so nothing reads during the seek.
func (p *Player) Restart() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out != nil {
		if err := p.out.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Restart",
				"error":    err.Error(),
			}).Warn("Failed to close previous output")
		}
		p.out = nil
	}

	if _, err := p.decoder.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding: %w", err)
	}
	p.reader.SetPos(0)

	p.out = p.newOutput(p.reader)
	p.done = make(chan struct{})
	p.paused = false
	p.out.Play()

	go p.monitor(p.done)
	return nil
}

// Pause pauses playback without toggling.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Pause()
	}
	p.paused = true
}

// TogglePause toggles between play and pause.
func (p *Player) TogglePause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.out == nil {
		return
	}
	if p.paused {
		p.out.Play()
	} else {
		p.out.Pause()
	}
	p.paused = !p.paused
}

func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns how much audio has been handed to the output device.
func (p *Player) Position() time.Duration {
	if p.bytesPerSec == 0 {
		return 0
	}
	secs := float64(p.reader.Pos()) / float64(p.bytesPerSec)
	return time.Duration(secs * float64(time.Second))
}

func (p *Player) Duration() time.Duration { return p.duration }
func (p *Player) SampleRate() int         { return p.sampleRate }
func (p *Player) ChannelCount() int       { return p.channels }

// Close stops playback and releases the file. It is safe to call more
// than once.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.stopMon != nil {
			close(p.stopMon)
		}
		if p.out != nil {
			p.out.Pause()
			if err := p.out.Close(); err != nil {
				logrus.WithFields(logrus.Fields{
					"function": "Close",
					"error":    err.Error(),
				}).Warn("Failed to close output")
			}
			p.out = nil
		}
		if p.cleanup != nil {
			p.cleanup()
		}
		logrus.WithField("function", "Close").Debug("Player closed")
	})
	return nil
}

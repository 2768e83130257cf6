package control

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"github.com/olivier-w/sparkfield/internal/engine"
)

// CCBinding maps one MIDI controller onto a config field, scaling the
// controller's 0..127 linearly onto [Min, Max].
type CCBinding struct {
	Field    string
	Min, Max float64
}

func (b CCBinding) scale(v uint8) float64 {
	return b.Min + (b.Max-b.Min)*float64(v)/127
}

// ModeCC selects the color mode: the controller range is split into one
// slice per mode.
const ModeCC = 34

// DefaultCCBindings puts the numeric fields on controllers 20 through 33,
// a range the MIDI spec leaves undefined.
func DefaultCCBindings() map[uint8]CCBinding {
	return map[uint8]CCBinding{
		20: {"amplitude", 0, 10},
		21: {"frequency", 0, 0.1},
		22: {"max_distance", 0, 10},
		23: {"freq1", 20, 250},
		24: {"freq2", 250, 4000},
		25: {"freq3", 2000, 16000},
		26: {"time_x", 0, 5},
		27: {"time_y", 0, 5},
		28: {"time_z", 0, 5},
		29: {"interpolation", 0, 1},
		30: {"color_intensity", 0, 2},
		31: {"color_speed", 0, 5},
		32: {"beat_threshold", 0, 1},
		33: {"mood_sensitivity", 0, 1},
	}
}

type connectFunc func(port string, recv func(midi.Message, int32)) (stop func(), err error)

// MIDISurface writes control-change messages from a MIDI input into the
// config. Messages on any channel are accepted.
type MIDISurface struct {
	port     string
	bindings map[uint8]CCBinding
	connect  connectFunc

	mu     sync.Mutex
	cfg    *engine.Config
	fields map[string]*engine.Value
	stop   func()
	once   sync.Once
}

// NewMIDISurface listens on the input port whose name contains port, or
// on the first input when port is empty. A nil bindings map uses
// DefaultCCBindings.
func NewMIDISurface(port string, bindings map[uint8]CCBinding) *MIDISurface {
	if bindings == nil {
		bindings = DefaultCCBindings()
	}
	return &MIDISurface{port: port, bindings: bindings, connect: listenPort}
}

func (s *MIDISurface) Bind(cfg *engine.Config) error {
	if cfg == nil {
		return errors.New("bind: nil config")
	}
	fields := cfg.Fields()
	for cc, b := range s.bindings {
		if _, ok := fields[b.Field]; !ok {
			return fmt.Errorf("midi: controller %d bound to unknown field %q", cc, b.Field)
		}
	}

	s.mu.Lock()
	s.cfg = cfg
	s.fields = fields
	s.mu.Unlock()

	stop, err := s.connect(s.port, func(msg midi.Message, _ int32) { s.handle(msg) })
	if err != nil {
		return fmt.Errorf("midi: %w", err)
	}

	s.mu.Lock()
	s.stop = stop
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "MIDISurface.Bind",
		"port":     s.port,
		"bindings": len(s.bindings),
	}).Info("Listening for MIDI control changes")
	return nil
}

// handle applies one message. Anything other than a control change on a
// bound controller is ignored.
func (s *MIDISurface) handle(msg midi.Message) {
	var ch, cc, val uint8
	if !msg.GetControlChange(&ch, &cc, &val) {
		return
	}

	s.mu.Lock()
	cfg, fields := s.cfg, s.fields
	s.mu.Unlock()
	if cfg == nil {
		return
	}

	if cc == ModeCC {
		cfg.SetColorMode(modeFromCC(val))
		return
	}
	b, ok := s.bindings[cc]
	if !ok {
		return
	}
	fields[b.Field].Store(b.scale(val))

	logrus.WithFields(logrus.Fields{
		"function": "MIDISurface.handle",
		"channel":  ch,
		"cc":       cc,
		"field":    b.Field,
	}).Trace("Control change applied")
}

func modeFromCC(v uint8) engine.ColorMode {
	return engine.ColorMode(int(v) / 32)
}

func (s *MIDISurface) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		stop := s.stop
		s.stop = nil
		s.mu.Unlock()
		if stop != nil {
			stop()
		}
	})
	return nil
}

// listenPort opens the named input through whichever driver the binary
// registered and starts delivering its messages to recv.
func listenPort(port string, recv func(midi.Message, int32)) (func(), error) {
	in, err := findInPort(port)
	if err != nil {
		return nil, err
	}
	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("opening %s: %w", in, err)
	}

	name := in.String()
	stop, err := midi.ListenTo(in, recv, midi.HandleError(func(err error) {
		logrus.WithFields(logrus.Fields{
			"function": "MIDISurface",
			"port":     name,
			"error":    err.Error(),
		}).Warn("MIDI listener error")
	}))
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("listening on %s: %w", name, err)
	}
	return func() {
		stop()
		in.Close()
	}, nil
}

func findInPort(port string) (drivers.In, error) {
	if port != "" {
		return midi.FindInPort(port)
	}
	ins := midi.GetInPorts()
	if len(ins) == 0 {
		return nil, errors.New("no MIDI input ports")
	}
	return ins[0], nil
}

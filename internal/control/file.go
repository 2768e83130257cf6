package control

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/sparkfield/internal/engine"
)

// fileControls mirrors the control file. Absent keys stay nil and are not
// written.
type fileControls struct {
	Amplitude       *float64 `toml:"amplitude"`
	Frequency       *float64 `toml:"frequency"`
	MaxDistance     *float64 `toml:"max_distance"`
	Freq1           *float64 `toml:"freq1"`
	Freq2           *float64 `toml:"freq2"`
	Freq3           *float64 `toml:"freq3"`
	TimeX           *float64 `toml:"time_x"`
	TimeY           *float64 `toml:"time_y"`
	TimeZ           *float64 `toml:"time_z"`
	Interpolation   *float64 `toml:"interpolation"`
	ColorMode       *string  `toml:"color_mode"`
	ColorIntensity  *float64 `toml:"color_intensity"`
	ColorSpeed      *float64 `toml:"color_speed"`
	BeatThreshold   *float64 `toml:"beat_threshold"`
	MoodSensitivity *float64 `toml:"mood_sensitivity"`
}

func (fc *fileControls) values() map[string]*float64 {
	return map[string]*float64{
		"amplitude":        fc.Amplitude,
		"frequency":        fc.Frequency,
		"max_distance":     fc.MaxDistance,
		"freq1":            fc.Freq1,
		"freq2":            fc.Freq2,
		"freq3":            fc.Freq3,
		"time_x":           fc.TimeX,
		"time_y":           fc.TimeY,
		"time_z":           fc.TimeZ,
		"interpolation":    fc.Interpolation,
		"color_intensity":  fc.ColorIntensity,
		"color_speed":      fc.ColorSpeed,
		"beat_threshold":   fc.BeatThreshold,
		"mood_sensitivity": fc.MoodSensitivity,
	}
}

// FileSurface reads a TOML control file on Bind and again whenever the
// file is written or recreated.
type FileSurface struct {
	path    string
	cfg     *engine.Config
	watcher *fsnotify.Watcher
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewFileSurface(path string) *FileSurface {
	return &FileSurface{path: filepath.Clean(path)}
}

func (s *FileSurface) Path() string { return s.path }

// Bind applies the file once and starts watching it. A file that cannot
// be found is an error; a file that fails to decode is logged and watched.
func (s *FileSurface) Bind(cfg *engine.Config) error {
	if cfg == nil {
		return errors.New("bind: nil config")
	}
	s.cfg = cfg

	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("control file: %w", err)
	}
	if err := s.apply(); err != nil {
		s.logParseError(err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	// Editors replace files on save, so watch the directory.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", filepath.Dir(s.path), err)
	}
	s.watcher = watcher
	s.stop = make(chan struct{})

	s.wg.Add(1)
	go s.watch()

	logrus.WithFields(logrus.Fields{
		"function": "FileSurface.Bind",
		"path":     s.path,
	}).Info("Watching control file")
	return nil
}

func (s *FileSurface) watch() {
	defer s.wg.Done()
	for {
		select {
		case <-s.stop:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := s.apply(); err != nil {
				s.logParseError(err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logrus.WithFields(logrus.Fields{
				"function": "FileSurface.watch",
				"error":    err.Error(),
			}).Warn("Watcher error")
		}
	}
}

// apply decodes the file and stores every key present in it.
func (s *FileSurface) apply() error {
	var fc fileControls
	if _, err := toml.DecodeFile(s.path, &fc); err != nil {
		return fmt.Errorf("reading control file: %w", err)
	}

	fields := s.cfg.Fields()
	written := 0
	for name, v := range fc.values() {
		if v == nil {
			continue
		}
		fields[name].Store(*v)
		written++
	}

	if fc.ColorMode != nil {
		mode, err := engine.ParseColorMode(*fc.ColorMode)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "FileSurface.apply",
				"error":    err.Error(),
			}).Warn("Ignoring color_mode")
		} else {
			s.cfg.SetColorMode(mode)
			written++
		}
	}

	logrus.WithFields(logrus.Fields{
		"function": "FileSurface.apply",
		"path":     s.path,
		"keys":     written,
	}).Debug("Control file applied")
	return nil
}

func (s *FileSurface) logParseError(err error) {
	logrus.WithFields(logrus.Fields{
		"function": "FileSurface",
		"path":     s.path,
		"error":    err.Error(),
	}).Warn("Control file not applied, keeping previous values")
}

// Close stops the watcher and waits for it to exit.
func (s *FileSurface) Close() error {
	var err error
	s.once.Do(func() {
		if s.watcher == nil {
			return
		}
		close(s.stop)
		err = s.watcher.Close()
		s.wg.Wait()
	})
	return err
}

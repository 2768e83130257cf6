package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/olivier-w/sparkfield/internal/analyser"
	"github.com/olivier-w/sparkfield/internal/control"
	"github.com/olivier-w/sparkfield/internal/engine"
	"github.com/olivier-w/sparkfield/internal/particles"
	"github.com/olivier-w/sparkfield/internal/player"
	"github.com/olivier-w/sparkfield/internal/ui"
)

// maxChannels sizes the PCM ring for any layout the decoders produce.
const maxChannels = 8

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	audioPath, controlsPath, err := parseArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "usage: sparkfield [audio-file] [controls.toml]")
		return 2
	}

	logFile, err := setupLogging()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer logFile.Close()

	if audioPath != "" {
		if err := checkAudioFile(audioPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	field := particles.New(particles.DefaultSide)
	eng := engine.New(engine.DefaultConfig(), field)
	keys := control.NewKeySurface(control.DefaultKeyMap())

	var p *player.Player
	openAudio := func(ctx context.Context) (engine.AudioSource, error) {
		if audioPath == "" {
			return nil, engine.ErrNoAudio
		}
		ring := analyser.NewRingBuffer(analyser.RingSize(analyser.DefaultFFTSize, maxChannels))
		pl, err := player.Open(audioPath, ring)
		if err != nil {
			return nil, err
		}
		a, err := analyser.New(ring, float64(pl.SampleRate()), pl.ChannelCount(), analyser.WithRelease(pl))
		if err != nil {
			pl.Close()
			return nil, err
		}
		p = pl
		return a, nil
	}

	surfaces := []engine.SurfaceOpener{
		func(context.Context) (engine.ControlSurface, error) { return keys, nil },
	}
	if controlsPath != "" {
		surfaces = append(surfaces, func(context.Context) (engine.ControlSurface, error) {
			return control.NewFileSurface(controlsPath), nil
		})
	}
	if port, ok := os.LookupEnv("SPARKFIELD_MIDI"); ok {
		surfaces = append(surfaces, func(context.Context) (engine.ControlSurface, error) {
			return control.NewMIDISurface(port, nil), nil
		})
	}

	eng.Attach(context.Background(), openAudio, surfaces...)
	defer func() {
		if err := eng.Close(); err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "main",
				"error":    err.Error(),
			}).Warn("Shutdown incomplete")
		}
	}()

	title := ""
	var playback ui.Playback
	if p != nil {
		title = player.ReadMetadata(audioPath).Label()
		playback = p
	}

	model := ui.New(eng, field, keys, playback, title)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

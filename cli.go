package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/olivier-w/sparkfield/internal/media"
)

// parseArgs accepts an optional audio file and an optional TOML control
// file, in that order. A lone .toml argument is taken as the control file.
func parseArgs(args []string) (audioPath, controlsPath string, err error) {
	switch len(args) {
	case 0:
		return "", "", nil
	case 1:
		if strings.EqualFold(filepath.Ext(args[0]), ".toml") {
			return "", args[0], nil
		}
		return args[0], "", nil
	case 2:
		return args[0], args[1], nil
	default:
		return "", "", fmt.Errorf("too many arguments")
	}
}

// checkAudioFile rejects paths that are missing, directories, or in a
// format the player cannot decode.
func checkAudioFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if !media.IsSupported(path) {
		return fmt.Errorf("unsupported format %s (supported: %s)", filepath.Ext(path), media.SupportedExtsList())
	}
	return nil
}

// setupLogging sends logrus output to SPARKFIELD_LOG, or a file in the
// temp dir, since the terminal belongs to the UI.
func setupLogging() (*os.File, error) {
	path := os.Getenv("SPARKFIELD_LOG")
	if path == "" {
		path = filepath.Join(os.TempDir(), "sparkfield.log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	level := logrus.InfoLevel
	if s := os.Getenv("SPARKFIELD_LOG_LEVEL"); s != "" {
		if level, err = logrus.ParseLevel(s); err != nil {
			f.Close()
			return nil, fmt.Errorf("SPARKFIELD_LOG_LEVEL: %w", err)
		}
	}

	logrus.SetOutput(f)
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	return f, nil
}

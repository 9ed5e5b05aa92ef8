// Package logger builds the zerolog loggers used across the application.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const permission = 0o664

// Build collects logger options before Make constructs the logger.
type Build struct {
	writer  io.Writer
	path    string
	level   string
	console bool
}

// Log owns a constructed logger and the file backing it, if any.
type Log struct {
	writer  io.Writer
	LogFile *os.File
	Logger  zerolog.Logger
}

func New() *Build {
	return &Build{}
}

// FromPath appends log output to the file at path.
func (build *Build) FromPath(path string) *Build {
	build.path = path
	return build
}

// FromBuffer directs log output at an arbitrary writer.
func (build *Build) FromBuffer(w io.Writer) *Build {
	build.writer = w
	return build
}

// WithLevel sets the minimum level by name; unknown names mean info.
func (build *Build) WithLevel(level string) *Build {
	build.level = level
	return build
}

// Console switches to the human readable console writer.
func (build *Build) Console() *Build {
	build.console = true
	return build
}

func (build *Build) Make() (*Log, error) {
	log := new(Log)
	log.writer = build.writer
	if log.writer == nil {
		log.writer = os.Stderr
	}
	if build.path != "" {
		f, err := os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return nil, err
		}
		log.LogFile = f
		log.writer = zerolog.SyncWriter(f)
	}
	if build.console {
		log.writer = zerolog.ConsoleWriter{Out: log.writer}
	}
	level, err := zerolog.ParseLevel(build.level)
	if err != nil || build.level == "" {
		level = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(log.writer).Level(level).With().Timestamp().Logger()
	return log, nil
}

// Close releases the log file when one is open.
func (log *Log) Close() error {
	if log.LogFile == nil {
		return nil
	}
	return log.LogFile.Close()
}

// Package logging provides the shared log file and per-component loggers.
//
// All components log through a single rotating file so a user can inspect
// one place after a failed sync. Each component gets its own "[prefix] "
// logger over the shared writer.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Sink owns the shared log destination.
type Sink struct {
	w       io.Writer
	rotator *lumberjack.Logger
}

// NewSink opens a rotating log file at path. With verbose set, log lines
// are additionally mirrored to stderr.
func NewSink(path string, verbose bool) *Sink {
	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	var w io.Writer = rotator
	if verbose {
		w = io.MultiWriter(rotator, os.Stderr)
	}
	return &Sink{w: w, rotator: rotator}
}

// Discard returns a sink that drops everything, for tests.
func Discard() *Sink {
	return &Sink{w: io.Discard}
}

// Logger returns a component logger writing to the shared sink.
func (s *Sink) Logger(prefix string) *log.Logger {
	return log.New(s.w, "["+prefix+"] ", log.LstdFlags)
}

// Close flushes and closes the underlying file.
func (s *Sink) Close() error {
	if s.rotator == nil {
		return nil
	}
	return s.rotator.Close()
}

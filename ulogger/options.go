package ulogger

import (
	"io"
	"os"
)

type Options struct {
	logLevel string
	writer   io.Writer
}

type Option func(*Options)

func DefaultOptions() *Options {
	return &Options{
		logLevel: "INFO",
		writer:   os.Stdout,
	}
}

// WithLevel sets the initial log level (DEBUG, INFO, WARN, ERROR, FATAL).
func WithLevel(level string) Option {
	return func(o *Options) {
		o.logLevel = level
	}
}

func WithWriter(w io.Writer) Option {
	return func(o *Options) {
		o.writer = w
	}
}

package logger

import (
	"io"
)

// Option configures a Logger created with New.
type Option func(*config)

type config struct {
	debug     bool
	json      bool
	writers   []io.Writer
	file      string
	maxSizeMB int
}

// WithDebug sets the log level to Debug when true, Info otherwise.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// WithJSON switches the console encoder to JSON for structured service logs.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriters sets the console output writers. Defaults to os.Stdout.
func WithWriters(w ...io.Writer) Option {
	return func(c *config) {
		c.writers = w
	}
}

// WithFile additionally writes JSON logs to a size rotated file. An empty
// path disables the file sink.
func WithFile(path string, maxSizeMB int) Option {
	return func(c *config) {
		c.file = path
		c.maxSizeMB = maxSizeMB
	}
}

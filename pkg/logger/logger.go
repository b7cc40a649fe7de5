// Package logger provides opinionated logging capabilities for the ragline system
package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultMaxSizeMB = 50

func NewLogger(debug bool) *zap.Logger {
	return New(WithDebug(debug))
}

func NewLoggerWithWriters(debug bool, writers ...io.Writer) *zap.Logger {
	return New(WithDebug(debug), WithWriters(writers...))
}

// New builds a logger writing console output to the configured writers and,
// when a file is configured, JSON lines to a rotating log file.
func New(opts ...Option) *zap.Logger {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}

	// Set log level
	level := zap.InfoLevel
	if c.debug {
		level = zap.DebugLevel
	}

	writers := c.writers
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleEncoder := zapcore.NewJSONEncoder(encoderConfig)
	if !c.json {
		colored := encoderConfig
		colored.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder = zapcore.NewConsoleEncoder(colored)
	}

	core := zapcore.NewCore(consoleEncoder, zapcore.NewMultiWriteSyncer(syncers...), level)

	if c.file != "" {
		core = zapcore.NewTee(core, fileCore(c.file, c.maxSizeMB, encoderConfig, level))
	}

	return zap.New(core, zap.AddCaller())
}

func fileCore(path string, maxSizeMB int, encoderConfig zapcore.EncoderConfig, level zapcore.Level) zapcore.Core {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		Compress:   true,
	}

	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(rotator), level)
}

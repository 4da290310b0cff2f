package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	timeLayout        = "2006-01-02 15:04:05,000"
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
)

// Options selects the sinks of a logger. File and Console may both be set;
// with neither the logger discards everything.
type Options struct {
	File          string
	Console       bool
	ConsoleWriter io.Writer // defaults to os.Stdout
	MaxSizeMB     int
	MaxBackups    int
}

// New builds a logger writing "<timestamp> - <LEVEL> - <message>" lines to a
// size-rotated file and, optionally, to the console. The returned func flushes
// and closes the file.
func New(opts Options) (*zap.Logger, func(), error) {
	enc := zapcore.NewConsoleEncoder(EncoderConfig())
	var cores []zapcore.Core
	var rotator *lumberjack.Logger

	if opts.File != "" {
		// Open eagerly so a bad path fails here rather than on the first write.
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		_ = f.Close()

		rotator = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, defaultMaxBackups),
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.AddSync(rotator), zapcore.InfoLevel))
	}
	if opts.Console {
		w := opts.ConsoleWriter
		if w == nil {
			w = os.Stdout
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zapcore.InfoLevel))
	}

	logger := zap.New(zapcore.NewTee(cores...))
	cleanup := func() {
		_ = logger.Sync()
		if rotator != nil {
			_ = rotator.Close()
		}
	}
	return logger, cleanup, nil
}

// EncoderConfig is the console layout shared by the file and console sinks.
func EncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "timestamp",
		LevelKey:         "level",
		MessageKey:       "message",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " - ",
	}
}

// encodeLevel writes capital level names, spelling warn out as WARNING.
func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if l == zapcore.WarnLevel {
		enc.AppendString("WARNING")
		return
	}
	zapcore.CapitalLevelEncoder(l, enc)
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file written inside Options.Dir.
const FileName = "visualcheck.log"

// Options configures NewLogger.
type Options struct {
	Dir     string    // log directory; empty disables the file log
	Level   string    // minimum file level: debug, info, warn, error
	Console io.Writer // receives warnings and errors in console format; nil disables
}

// NewLogger builds a logger writing JSON lines to a rotated file and
// warnings or worse to the console. The console never shows entries below
// the configured level. The returned close function flushes the logger and
// closes the log file.
func NewLogger(opts Options) (*zap.Logger, func() error, error) {
	level := zap.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
	}

	var (
		cores []zapcore.Core
		file  *lumberjack.Logger
	)
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return nil, nil, err
		}
		file = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, FileName),
			MaxSize:    10, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "ts"
		cfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(file), level))
	}
	if opts.Console != nil {
		consoleLevel := zap.WarnLevel
		if level > consoleLevel {
			consoleLevel = level
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.TimeKey = ""
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(opts.Console), consoleLevel))
	}

	if len(cores) == 0 {
		return zap.NewNop(), func() error { return nil }, nil
	}
	log := zap.New(zapcore.NewTee(cores...))
	closeFn := func() error {
		// Sync fails on unsyncable console writers such as a terminal; only the file matters.
		_ = log.Sync()
		if file == nil {
			return nil
		}
		return file.Close()
	}
	return log, closeFn, nil
}

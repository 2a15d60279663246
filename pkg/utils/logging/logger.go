package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultDir is where log files are written when Options.Dir is empty
const DefaultDir = "logs"

// Options controls where the logger writes
type Options struct {
	// Env prefixes the log file name
	Env string
	// Dir holds the log files. Defaults to DefaultDir.
	Dir string
	// Verbose lowers the console level from Info to Debug
	Verbose bool
	// Console receives the human-readable output. Defaults to stdout.
	Console io.Writer
}

// New builds a logger that tees a colored console core with a JSON file core.
// The file always records Debug. The returned path names the log file.
func New(opts Options) (*zap.Logger, string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = DefaultDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", opts.Env, timestamp))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}

	var console io.Writer = os.Stdout
	if opts.Console != nil {
		console = opts.Console
	}

	consoleLevel := zapcore.InfoLevel
	if opts.Verbose {
		consoleLevel = zapcore.DebugLevel
	}

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEncoder(), zapcore.AddSync(console), consoleLevel),
		zapcore.NewCore(fileEncoder(), zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("env", opts.Env))

	return logger, logPath, nil
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func fileEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// Package logger builds the zap logger used across the front desk client.
// Command output owns stdout, so logs default to stderr or a file.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config holds logger configuration
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console, json
	Output string // stderr, stdout, or file path
}

// Name is the logger name every entry carries
const Name = "frontdesk"

// New builds the client logger. Console output is coloured only when it goes
// to a terminal. Callers are recorded at debug level, where a support
// engineer is reading the log rather than the person at the desk.
func New(cfg *Config) (*zap.Logger, error) {
	level := parseLevel(cfg.Level)
	out, tty, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	json := strings.EqualFold(cfg.Format, "json")
	core := zapcore.NewCore(newEncoder(json, tty), out, level)

	opts := []zap.Option{zap.ErrorOutput(zapcore.Lock(os.Stderr))}
	if level == zapcore.DebugLevel {
		opts = append(opts, zap.AddCaller())
	}
	if json {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}
	return zap.New(core, opts...).Named(Name), nil
}

// parseLevel accepts zap's level names plus "warning"; anything else is info
func parseLevel(s string) zapcore.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	l, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func newEncoder(json, color bool) zapcore.Encoder {
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	if json {
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		return zapcore.NewJSONEncoder(ec)
	}

	ec.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	ec.ConsoleSeparator = "  "
	return zapcore.NewConsoleEncoder(ec)
}

// openOutput resolves the log destination and reports whether it is a terminal
func openOutput(output string) (zapcore.WriteSyncer, bool, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), term.IsTerminal(int(os.Stderr.Fd())), nil
	case "stdout":
		return zapcore.Lock(os.Stdout), term.IsTerminal(int(os.Stdout.Fd())), nil
	}

	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, fmt.Errorf("creating log directory: %w", err)
		}
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, false, fmt.Errorf("opening log file: %w", err)
	}
	return zapcore.AddSync(f), false, nil
}

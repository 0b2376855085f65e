package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap logger. Printf satisfies the small Logger interfaces
// the server and journal accept; structured callers use Zap().
type Logger struct {
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// New builds a production JSON logger at the given level writing to stderr
// and, when file is non-empty, appending to that file as well.
func New(level, file string) (*Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return nil, fmt.Errorf("logging: parse level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if file = strings.TrimSpace(file); file != "" {
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return nil, fmt.Errorf("logging: ensure log dir: %w", err)
		}
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return Wrap(base), nil
}

// Wrap adapts an existing zap logger.
func Wrap(base *zap.Logger) *Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &Logger{base: base, sugar: base.Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return Wrap(zap.NewNop())
}

// Zap exposes the structured logger.
func (l *Logger) Zap() *zap.Logger {
	if l == nil || l.base == nil {
		return zap.NewNop()
	}
	return l.base
}

// Named returns a child logger tagged with name.
func (l *Logger) Named(name string) *Logger {
	return Wrap(l.Zap().Named(name))
}

// Printf writes a single info line.
func (l *Logger) Printf(format string, args ...any) {
	if l == nil || l.sugar == nil {
		return
	}
	l.sugar.Infof(strings.TrimRight(format, "\n"), args...)
}

// Close flushes buffered entries.
func (l *Logger) Close() error {
	if l == nil || l.base == nil {
		return nil
	}
	// Sync on stderr reports EINVAL/ENOTTY on most terminals.
	_ = l.base.Sync()
	return nil
}

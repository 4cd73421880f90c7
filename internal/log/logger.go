// Package log provides structured event logging for the landfall pipeline.
//
// Every significant pipeline step emits exactly one JSON event to stderr
// with an `event` name plus contextual fields (stage, attempt, model,
// outcome). Downstream automation and the failure reporter consume these
// events for diagnostics, so names stay stable snake_case identifiers.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger emits structured pipeline events. The zero value is not usable;
// construct with New, NewStderr, or Nop.
type Logger struct {
	zap *zap.Logger
}

// Field is re-exported so callers do not import zap directly.
type Field = zap.Field

// Common field constructors for pipeline events.
var (
	String   = zap.String
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Duration = zap.Duration
	Err      = zap.NamedError
	Strings  = zap.Strings
)

// New creates a logger writing JSON events to w at the given level.
func New(w io.Writer, level zapcore.Level) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "event",
		EncodeTime:  zapcore.RFC3339TimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
	return &Logger{zap: zap.New(core)}
}

// NewStderr creates a logger writing to os.Stderr at the named level.
// Unknown level names fall back to info.
func NewStderr(levelName string) *Logger {
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		level = zapcore.InfoLevel
	}
	return New(os.Stderr, level)
}

// Nop returns a logger that discards all events. Used in tests.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// With returns a logger that attaches the given fields to every event.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// Event emits an informational event.
func (l *Logger) Event(event string, fields ...Field) {
	l.zap.Info(event, fields...)
}

// Warn emits a warning event.
func (l *Logger) Warn(event string, fields ...Field) {
	l.zap.Warn(event, fields...)
}

// Error emits an error event.
func (l *Logger) Error(event string, fields ...Field) {
	l.zap.Error(event, fields...)
}

// Debug emits a debug event.
func (l *Logger) Debug(event string, fields ...Field) {
	l.zap.Debug(event, fields...)
}

// Sync flushes buffered events. Safe to call on exit.
func (l *Logger) Sync() {
	_ = l.zap.Sync()
}

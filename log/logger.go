// Package log provides structured logging with client session context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for the send path (structured fields)
//   - SugaredLogger: Printf-style logging for CLI/debug surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed. A nil *Logger
// is valid and discards everything, so library code never has to check.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Session identifies one client session in every log entry.
type Session struct {
	// ID is a unique session identifier.
	ID string
	// Address is the viewer address the session talks to.
	Address string
	// Client names the embedding application. Optional.
	Client string
}

// Logger provides structured logging with session context.
type Logger struct {
	zap *zap.Logger
}

// SugaredLogger provides printf-style logging for CLI and debug surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// NewLogger creates a logger with session context writing JSON to os.Stderr.
func NewLogger(session Session) *Logger {
	return NewLoggerTo(session, os.Stderr, zapcore.DebugLevel)
}

// NewLoggerTo creates a logger writing JSON entries at or above level to w.
func NewLoggerTo(session Session, w io.Writer, level zapcore.Level) *Logger {
	contextFields := []zap.Field{
		zap.String("session_id", session.ID),
	}
	if session.Address != "" {
		contextFields = append(contextFields, zap.String("address", session.Address))
	}
	if session.Client != "" {
		contextFields = append(contextFields, zap.String("client", session.Client))
	}
	return &Logger{zap: zap.New(newCore(w, level)).With(contextFields...)}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

func newCore(w io.Writer, level zapcore.Level) zapcore.Core {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	return zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		level,
	)
}

// WithOutput returns a new logger with a different output writer.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	if l == nil {
		return nil
	}
	core := newCore(w, zapcore.DebugLevel)
	return &Logger{zap: l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core }))}
}

// With returns a logger carrying additional context fields.
func (l *Logger) With(key string, value any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zap: l.zap.With(zap.Any(key, value))}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	if l == nil {
		return
	}
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	if l == nil {
		return &SugaredLogger{sugar: zap.NewNop().Sugar()}
	}
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}

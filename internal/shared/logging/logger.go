package logging

import (
	"reflect"
	"strings"
)

// Logger defines a minimal, printf-style logging contract.
//
// Components accept this interface so tests can pass a recorder and callers can
// pass nil when they do not care about diagnostics. *utils.Logger satisfies it.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

type scopedLogger struct {
	base   Logger
	prefix string
}

// WithScope tags every line written through logger with "[scope] ". Scopes
// nest, so a panel's sequencer logs as "[panel-1] [sequencer] ...".
func WithScope(logger Logger, scope string) Logger {
	if IsNil(logger) {
		return Nop()
	}
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return logger
	}
	if _, ok := logger.(nopLogger); ok {
		return logger
	}
	prefix := "[" + strings.ReplaceAll(scope, "%", "%%") + "] "
	if scoped, ok := logger.(*scopedLogger); ok {
		return &scopedLogger{base: scoped.base, prefix: scoped.prefix + prefix}
	}
	return &scopedLogger{base: logger, prefix: prefix}
}

func (l *scopedLogger) Debug(format string, args ...any) { l.base.Debug(l.prefix+format, args...) }
func (l *scopedLogger) Info(format string, args ...any)  { l.base.Info(l.prefix+format, args...) }
func (l *scopedLogger) Warn(format string, args ...any)  { l.base.Warn(l.prefix+format, args...) }
func (l *scopedLogger) Error(format string, args ...any) { l.base.Error(l.prefix+format, args...) }

// Package logger provides the process-wide structured logger.
//
// Call sites pass alternating key/value pairs, matching the rest of the
// codebase:
//
//	logger.Info("snapshot built", "clients", 42, "run_id", id)
//
// Output is JSON on stderr. Email addresses in string and error values are
// masked before they are written.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level represents the severity of a log entry.
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger wraps a zap logger with optional PII redaction.
type Logger struct {
	zl        *zap.Logger
	level     zap.AtomicLevel
	mu        sync.RWMutex
	redactPII bool
}

// New builds a Logger writing JSON to the given syncer.
func New(ws zapcore.WriteSyncer, level Level) *Logger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "msg"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, atom)
	return &Logger{zl: zap.New(core), level: atom, redactPII: true}
}

var defaultLogger = New(zapcore.Lock(os.Stderr), INFO)

// Default returns the process-wide logger.
func Default() *Logger { return defaultLogger }

// SetDefault replaces the process-wide logger. Tests use it to capture output.
func SetDefault(l *Logger) { defaultLogger = l }

// SetLevel sets the minimum log level for the default logger.
func SetLevel(l Level) { defaultLogger.level.SetLevel(l.zapLevel()) }

// SetRedactPII enables or disables PII redaction for the default logger.
func SetRedactPII(r bool) {
	defaultLogger.mu.Lock()
	defaultLogger.redactPII = r
	defaultLogger.mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() error { return defaultLogger.zl.Sync() }

// Debug emits a DEBUG-level structured log entry.
func Debug(msg string, fields ...interface{}) { defaultLogger.Log(DEBUG, msg, fields...) }

// Info emits an INFO-level structured log entry.
func Info(msg string, fields ...interface{}) { defaultLogger.Log(INFO, msg, fields...) }

// Warn emits a WARN-level structured log entry.
func Warn(msg string, fields ...interface{}) { defaultLogger.Log(WARN, msg, fields...) }

// Error emits an ERROR-level structured log entry.
func Error(msg string, fields ...interface{}) { defaultLogger.Log(ERROR, msg, fields...) }

// Log writes one entry at the given level.
func (l *Logger) Log(level Level, msg string, fields ...interface{}) {
	ce := l.zl.Check(level.zapLevel(), msg)
	if ce == nil {
		return
	}

	l.mu.RLock()
	redact := l.redactPII
	l.mu.RUnlock()

	zf := make([]zap.Field, 0, len(fields)/2)
	for i := 0; i < len(fields)-1; i += 2 {
		key := fmt.Sprintf("%v", fields[i])
		switch v := fields[i+1].(type) {
		case error:
			val := v.Error()
			if redact {
				val = redactAddresses(val)
			}
			zf = append(zf, zap.String(key, val))
		case string:
			if redact {
				v = redactAddresses(v)
			}
			zf = append(zf, zap.String(key, v))
		case int:
			zf = append(zf, zap.Int(key, v))
		case int64:
			zf = append(zf, zap.Int64(key, v))
		case float64:
			zf = append(zf, zap.Float64(key, v))
		case bool:
			zf = append(zf, zap.Bool(key, v))
		default:
			val := fmt.Sprintf("%v", v)
			if redact {
				val = redactAddresses(val)
			}
			zf = append(zf, zap.String(key, val))
		}
	}
	ce.Write(zf...)
}

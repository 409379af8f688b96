package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a unified logging interface for the assistant.
// It writes through zap once Init has been called and falls back to
// plain stdout lines otherwise (unit tests, early startup).

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	// CurrentLevel is the current logging level (default: Info)
	CurrentLevel = LevelInfo

	mu    sync.RWMutex
	sugar *zap.SugaredLogger
)

// Init builds the zap backend. json selects the production encoder,
// otherwise a console encoder is used.
func Init(level string, json bool) error {
	lvl := ParseLevel(level)
	var cfg zap.Config
	if json {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(toZapLevel(lvl))
	cfg.DisableStacktrace = true

	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		return fmt.Errorf("build zap logger failed, err: %w", err)
	}
	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
	SetLevel(lvl)
	return nil
}

// Sync flushes buffered entries of the zap backend.
func Sync() {
	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s != nil {
		_ = s.Sync()
	}
}

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	if CurrentLevel > LevelDebug {
		return
	}
	logf(LevelDebug, format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	if CurrentLevel > LevelInfo {
		return
	}
	logf(LevelInfo, format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	if CurrentLevel > LevelWarn {
		return
	}
	logf(LevelWarn, format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	logf(LevelError, format, args...)
}

func logf(level LogLevel, format string, args ...interface{}) {
	defer func() {
		if r := recover(); r != nil {
			fallbackLog(level, format, args...)
		}
	}()

	mu.RLock()
	s := sugar
	mu.RUnlock()
	if s == nil {
		fallbackLog(level, format, args...)
		return
	}
	switch level {
	case LevelDebug:
		s.Debugf(format, args...)
	case LevelInfo:
		s.Infof(format, args...)
	case LevelWarn:
		s.Warnf(format, args...)
	default:
		s.Errorf(format, args...)
	}
}

// fallbackLog uses fmt.Printf when zap has not been initialised
func fallbackLog(level LogLevel, format string, args ...interface{}) {
	fmt.Printf(levelPrefix(level)+format+"\n", args...)
}

func levelPrefix(level LogLevel) string {
	switch level {
	case LevelDebug:
		return "[DEBUG] "
	case LevelInfo:
		return "[INFO] "
	case LevelWarn:
		return "[WARN] "
	case LevelError:
		return "[ERROR] "
	default:
		return "[LOG] "
	}
}

// SetLevel sets the minimum log level
func SetLevel(level LogLevel) {
	CurrentLevel = level
}

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func toZapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ContextLogger prefixes every line with fixed key=value pairs.
type ContextLogger struct {
	prefix string
}

// WithContext creates a new logger with context
func WithContext(fields map[string]interface{}) *ContextLogger {
	if len(fields) == 0 {
		return &ContextLogger{}
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s=%v ", k, fields[k])
	}
	return &ContextLogger{prefix: b.String()}
}

// Infof logs with context
func (c *ContextLogger) Infof(format string, args ...interface{}) {
	Infof(c.prefix+format, args...)
}

// Warnf logs with context
func (c *ContextLogger) Warnf(format string, args ...interface{}) {
	Warnf(c.prefix+format, args...)
}

// Errorf logs with context
func (c *ContextLogger) Errorf(format string, args ...interface{}) {
	Errorf(c.prefix+format, args...)
}

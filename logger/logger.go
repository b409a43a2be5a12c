// Package logger is the structured logger used throughout the engine.
// It keeps the fluent ILogger/LoggerEntry shape but is backed by
// zerolog (SPEC_FULL.md §10.2): console output is styled with lipgloss
// when attached to a TTY (detected via go-isatty), plain otherwise, and
// optionally mirrored to a lumberjack-rotated file.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ ILogger = (*Logger)(nil)
var _ LoggerEntry = (*entry)(nil)

// ----------------------------------------------------
// Interfaces
// ----------------------------------------------------

type ILogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	WithContext(contextID string) ILogger
	With(key string, value any) LoggerEntry
	SetLevel(level string)
	Clone() ILogger
}

type LoggerEntry interface {
	With(key string, value any) LoggerEntry
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Clone() LoggerEntry
}

// ----------------------------------------------------
// Levels
// ----------------------------------------------------

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func normalizeLevel(level string) string {
	switch strings.ToLower(level) {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
		return strings.ToLower(level)
	default:
		return LevelInfo
	}
}

// ----------------------------------------------------
// Process-wide output configuration
// ----------------------------------------------------

var (
	configMu   sync.Mutex
	baseWriter io.Writer = defaultConsole()
)

func defaultConsole() io.Writer {
	return consoleWriter(os.Stderr)
}

func consoleWriter(out *os.File) io.Writer {
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	if isatty.IsTerminal(out.Fd()) || isatty.IsCygwinTerminal(out.Fd()) {
		s := defaultStyles()
		w.FormatLevel = s.formatLevel
		w.FormatFieldName = s.formatFieldName
		w.FormatMessage = s.formatMessage
	} else {
		w.NoColor = true
	}
	return w
}

// Configure installs the process-wide writer chain. format selects
// "console" (lipgloss-styled, TTY-aware) or "json" (raw zerolog JSON
// lines); logFile, when non-empty, mirrors output to a lumberjack-
// rotated file regardless of format. Call once during bootstrap.
func Configure(format, logFile string) {
	configMu.Lock()
	defer configMu.Unlock()

	var out io.Writer
	if strings.EqualFold(format, "json") {
		out = os.Stderr
	} else {
		out = defaultConsole()
	}

	if logFile == "" {
		baseWriter = out
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	baseWriter = zerolog.MultiLevelWriter(out, rotator)
}

func currentWriter() io.Writer {
	configMu.Lock()
	defer configMu.Unlock()
	return baseWriter
}

// ----------------------------------------------------
// Logger implementation
// ----------------------------------------------------

type Logger struct {
	zl        zerolog.Logger
	service   string
	contextID string
	level     string
}

func NewLogger(serviceName, level string) ILogger {
	lvl := normalizeLevel(level)
	zl := zerolog.New(currentWriter()).With().Timestamp().Str("service", serviceName).Logger()
	zl = zl.Level(zerologLevel(lvl))
	return &Logger{zl: zl, service: serviceName, level: lvl}
}

func (l *Logger) SetLevel(level string) {
	l.level = normalizeLevel(level)
	l.zl = l.zl.Level(zerologLevel(l.level))
}

func (l *Logger) Level() string {
	return l.level
}

func (l *Logger) WithContext(contextID string) ILogger {
	return &Logger{
		zl:        l.zl.With().Str("cid", contextID).Logger(),
		service:   l.service,
		contextID: contextID,
		level:     l.level,
	}
}

func (l *Logger) Clone() ILogger {
	cp := *l
	return &cp
}

func (l *Logger) With(key string, value any) LoggerEntry {
	return &entry{parent: l, fields: map[string]any{key: value}}
}

func (l *Logger) Debug(msg string, args ...any) { l.event(zerolog.DebugLevel, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.event(zerolog.InfoLevel, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.event(zerolog.WarnLevel, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.event(zerolog.ErrorLevel, msg, args...) }

func (l *Logger) event(level zerolog.Level, msg string, args ...any) {
	l.zl.WithLevel(level).Msgf(msg, args...)
}

// ----------------------------------------------------
// Entry (structured log builder)
// ----------------------------------------------------

type entry struct {
	parent *Logger
	fields map[string]any
}

func (e *entry) With(key string, value any) LoggerEntry {
	fields := make(map[string]any, len(e.fields)+1)
	for k, v := range e.fields {
		fields[k] = v
	}
	fields[key] = value
	return &entry{parent: e.parent, fields: fields}
}

func (e *entry) Clone() LoggerEntry {
	fields := make(map[string]any, len(e.fields))
	for k, v := range e.fields {
		fields[k] = v
	}
	return &entry{parent: e.parent, fields: fields}
}

func (e *entry) Debug(msg string, args ...any) { e.event(zerolog.DebugLevel, msg, args...) }
func (e *entry) Info(msg string, args ...any)  { e.event(zerolog.InfoLevel, msg, args...) }
func (e *entry) Warn(msg string, args ...any)  { e.event(zerolog.WarnLevel, msg, args...) }
func (e *entry) Error(msg string, args ...any) { e.event(zerolog.ErrorLevel, msg, args...) }

func (e *entry) event(level zerolog.Level, msg string, args ...any) {
	ev := e.parent.zl.WithLevel(level)
	if len(e.fields) > 0 {
		ev = ev.Fields(e.fields)
	}
	ev.Msgf(msg, args...)
}

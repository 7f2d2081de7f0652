package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logMu    sync.RWMutex
	logLevel = LogLevelInfo
	logger   = newLogger(os.Stderr, nil).Level(zerolog.InfoLevel)
)

func newLogger(console io.Writer, file io.Writer) zerolog.Logger {
	var w io.Writer = zerolog.ConsoleWriter{Out: console, TimeFormat: time.TimeOnly}
	if file != nil {
		w = zerolog.MultiLevelWriter(w, file)
	}
	return zerolog.New(w).With().Timestamp().Logger()
}

// String returns the level name as used in config files and slash commands.
func (l LogLevel) String() string {
	switch l {
	case LogLevelError:
		return "ERROR"
	case LogLevelWarn:
		return "WARN"
	case LogLevelInfo:
		return "INFO"
	case LogLevelDebug:
		return "DEBUG"
	default:
		return fmt.Sprintf("LogLevel(%d)", int(l))
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLogLevel parses a level name case-insensitively.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LogLevelError, nil
	case "WARN", "WARNING":
		return LogLevelWarn, nil
	case "INFO", "":
		return LogLevelInfo, nil
	case "DEBUG":
		return LogLevelDebug, nil
	default:
		return LogLevelInfo, fmt.Errorf("unknown log level %q (supported: DEBUG, INFO, WARN, ERROR)", s)
	}
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel = level
	logger = logger.Level(level.zerolog())
}

// GetLogLevel returns the current global log level
func GetLogLevel() LogLevel {
	logMu.RLock()
	defer logMu.RUnlock()
	return logLevel
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects console logging to w and, when file is non-nil,
// mirrors every record to file as JSON lines.
func SetLogOutput(w io.Writer, file io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	logger = newLogger(w, file).Level(logLevel.zerolog())
}

// OpenLogFile opens path for appending and mirrors log records into it.
// The returned closer must be called on shutdown.
func OpenLogFile(path string) (io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	SetLogOutput(os.Stderr, f)
	return f, nil
}

// Logger returns the structured logger for call sites that attach fields.
func Logger() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := logger
	return &l
}

func logAt(level LogLevel, format string, args ...interface{}) {
	logMu.RLock()
	l, current := logger, logLevel
	logMu.RUnlock()
	if current < level {
		return
	}
	l.WithLevel(level.zerolog()).Msgf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logAt(LogLevelError, format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logAt(LogLevelWarn, format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logAt(LogLevelInfo, format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logAt(LogLevelDebug, format, args...)
}

// Package logger provides leveled logging with debug, info, warn and error
// levels on top of the standard log package. Until Init is called nothing
// is written.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level represents a logging level
type Level int

const (
	// DebugLevel logs are voluminous and usually disabled.
	DebugLevel Level = iota
	// InfoLevel is the default logging priority.
	InfoLevel
	// WarnLevel logs are more important than Info but need no action.
	WarnLevel
	// ErrorLevel logs point at something broken, such as a malformed dataset.
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	default:
		return "ERROR"
	}
}

// ParseLevel maps a level name to a Level. Unknown names map to InfoLevel.
func ParseLevel(level string) Level {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Logger provides leveled logging
type Logger struct {
	level  Level
	logger *log.Logger
}

var defaultLogger atomic.Pointer[Logger]

// Init initializes the default logger writing to stderr.
func Init(level string, format string) {
	InitWithWriter(level, format, os.Stderr)
}

// InitWithWriter initializes the default logger writing to w. The "text"
// format adds the calling file and line to every entry.
func InitWithWriter(level string, format string, w io.Writer) {
	flags := log.LstdFlags | log.Lmicroseconds
	if strings.ToLower(format) == "text" {
		flags |= log.Lshortfile
	}

	defaultLogger.Store(&Logger{
		level:  ParseLevel(level),
		logger: log.New(w, "", flags),
	})
}

// Enabled reports whether messages at l would be written.
func Enabled(l Level) bool {
	lg := defaultLogger.Load()
	return lg != nil && lg.level <= l
}

func output(l Level, format string, args ...interface{}) {
	lg := defaultLogger.Load()
	if lg == nil || lg.level > l {
		return
	}
	msg := fmt.Sprintf("["+l.String()+"] "+format, args...)
	_ = lg.logger.Output(3, msg)
}

// Debug logs a message at DebugLevel
func Debug(format string, args ...interface{}) {
	output(DebugLevel, format, args...)
}

// Info logs a message at InfoLevel
func Info(format string, args ...interface{}) {
	output(InfoLevel, format, args...)
}

// Warn logs a message at WarnLevel
func Warn(format string, args ...interface{}) {
	output(WarnLevel, format, args...)
}

// Error logs a message at ErrorLevel
func Error(format string, args ...interface{}) {
	output(ErrorLevel, format, args...)
}

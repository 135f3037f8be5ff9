// Package textlog is the ambient logger shared across the pipeline. It
// mirrors the teacher's io.Writer-based logging: no structured logging
// library appears anywhere in the retrieval pack, so this stays a thin
// wrapper around fmt/io rather than reaching for one that was never
// grounded.
package textlog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log severities from most to least verbose.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// Logger writes leveled, timestamped lines to an underlying io.Writer and
// tracks whether any warning or error has been emitted, so callers can
// decide at the end of a run whether to report "completed with warnings".
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	min      Level
	warned   bool
	errored  bool
	pageTag  string
}

// New returns a Logger writing to w at minimum severity min.
func New(w io.Writer, min Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w, min: min}
}

// WithPage returns a child logger that prefixes every line with a page tag,
// matching the teacher's per-page log-context convention.
func (l *Logger) WithPage(pageIndex int) *Logger {
	return &Logger{out: l.out, min: l.min, pageTag: fmt.Sprintf("page %d: ", pageIndex+1)}
}

func (l *Logger) log(level Level, format string, args ...interface{}) {
	if level < l.min {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if level == LevelWarn {
		l.warned = true
	}
	if level == LevelError {
		l.errored = true
	}
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintf(l.out, "%s %-5s %s%s\n", time.Now().UTC().Format("2006-01-02T15:04:05Z"), level, l.pageTag, msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }

// HasWarnings reports whether any warning (or worse) has been logged.
func (l *Logger) HasWarnings() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.warned || l.errored
}

// HasErrors reports whether any error has been logged.
func (l *Logger) HasErrors() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.errored
}

// Package logging is a level filter over the standard *log.Logger used by the
// long-running server components.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "info":
		return LevelInfo
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

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

// Logger writes "<RFC3339> <LEVEL> <component>: <msg>" lines. Loggers derived
// with With share the output and the level.
type Logger struct {
	out       *log.Logger
	level     *atomic.Int32
	component string
	now       func() time.Time
}

func New(w io.Writer, level Level, component string) *Logger {
	if w == nil {
		w = os.Stderr
	}
	lv := &atomic.Int32{}
	lv.Store(int32(level))
	return &Logger{out: log.New(w, "", 0), level: lv, component: component, now: time.Now}
}

// Discard drops everything; for tests and optional loggers.
func Discard() *Logger {
	return New(io.Discard, LevelError+1, "")
}

func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	cp := *l
	cp.component = component
	return &cp
}

func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.level.Store(int32(level))
	}
}

func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= Level(l.level.Load())
}

func (l *Logger) log(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	comp := l.component
	if comp == "" {
		comp = "planline"
	}
	l.out.Printf("%s %s %s: %s", l.now().Format(time.RFC3339), level, comp, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log(LevelError, format, args...) }

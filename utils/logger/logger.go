package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var levelColors = map[Level]string{
	LevelDebug: "\033[36m",
	LevelInfo:  "\033[32m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
}

const colorReset = "\033[0m"

// ParseLevel maps a config level name to a Level, falling back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	name  string
	level atomic.Int32
	color bool
	mu    sync.Mutex
	out   io.Writer
}

// NewLogger creates a named logger. A nil writer logs to stdout.
func NewLogger(name string, level string, w io.Writer) *Logger {
	l := &Logger{name: name}
	l.level.Store(int32(ParseLevel(level)))
	if w == nil {
		l.out = colorable.NewColorableStdout()
		l.color = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	} else {
		l.out = w
		if f, ok := w.(*os.File); ok {
			l.color = isatty.IsTerminal(f.Fd())
			if l.color {
				l.out = colorable.NewColorable(f)
			}
		}
	}
	return l
}

func (l *Logger) SetLevel(level string) {
	l.level.Store(int32(ParseLevel(level)))
}

func (l *Logger) Enabled(level Level) bool {
	return int32(level) >= l.level.Load()
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format("2006-01-02 15:04:05.000")
	tag := levelNames[level]
	if l.color {
		tag = levelColors[level] + tag + colorReset
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintf(l.out, "[%s][%s][%s] %s\n", ts, tag, l.name, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

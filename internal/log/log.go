// Package log is the process-wide log sink. Every line is prefixed with the
// local wall-clock time and written under the sink's own mutex, so any
// goroutine may log without further coordination.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

// ParseLevel maps a config string onto a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// ErrClosed is returned when writing to a sink that is not open.
var ErrClosed = errors.New("log sink is not open")

const timeLayout = "15:04:05"

// Logger is a timestamped, leveled line writer.
type Logger struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	w        io.Writer
	minLevel Level
	now      func() time.Time
}

// New returns a file sink for path. Nothing is written until Open succeeds.
func New(path string) *Logger {
	return &Logger{path: path, minLevel: LevelInfo, now: time.Now}
}

// NewWriter returns a sink that is already open on w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{w: w, minLevel: LevelInfo, now: time.Now}
}

// Discard returns a sink that drops everything.
func Discard() *Logger {
	return NewWriter(io.Discard)
}

// Open creates or truncates the sink's file.
func (l *Logger) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", l.path, err)
	}
	l.file = f
	l.w = f
	return nil
}

// Close closes the underlying file, if any. Later writes return ErrClosed.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.w = nil
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Path returns the file path the sink was created for.
func (l *Logger) Path() string {
	return l.path
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// Append writes text verbatim after the timestamp prefix.
func (l *Logger) Append(text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return l.write(text)
}

func (l *Logger) Debug(msg string, kv ...any) {
	l.logWithLevel(LevelDebug, msg, kv...)
}

func (l *Logger) Info(msg string, kv ...any) {
	l.logWithLevel(LevelInfo, msg, kv...)
}

func (l *Logger) Error(msg string, err error, kv ...any) {
	extended := append([]any{"err", err}, kv...)
	l.logWithLevel(LevelError, msg, extended...)
}

func (l *Logger) logWithLevel(level Level, msg string, kv ...any) {
	if !l.enabled(level) {
		return
	}
	// Line format: HH:MM:SS \t[LEVEL] msg key=value ...
	_ = l.write("[" + string(level) + "] " + msg + formatKVs(kv...) + "\n")
}

func (l *Logger) enabled(level Level) bool {
	l.mu.Lock()
	threshold := l.minLevel
	l.mu.Unlock()

	switch threshold {
	case LevelDebug:
		return true
	case LevelInfo:
		return level != LevelDebug
	case LevelError:
		return level == LevelError
	default:
		return true
	}
}

func (l *Logger) write(text string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.w == nil {
		return ErrClosed
	}
	line := l.now().Format(timeLayout) + " \t" + text
	if _, err := io.WriteString(l.w, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func formatKVs(kv ...any) string {
	var b strings.Builder
	// Expect kv as pairs; a trailing odd value is ignored.
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b.WriteString(" " + key + "=" + fmt.Sprint(kv[i+1]))
	}
	return b.String()
}

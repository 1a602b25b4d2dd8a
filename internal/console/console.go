// Package console watches the operator's terminal for the shutdown command.
package console

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
)

// DefaultExitCommand is matched case-insensitively.
const DefaultExitCommand = "EXIT"

// Buffer sizes for the line scanner. A line longer than MaxLineSize ends
// the input with bufio.ErrTooLong.
const (
	initialBufferSize = 64 * 1024
	MaxLineSize       = 1024 * 1024
)

// Reader yields trimmed operator lines and remembers why input ended.
type Reader struct {
	sc *bufio.Scanner
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialBufferSize), MaxLineSize)
	return &Reader{sc: sc}
}

// Lines yields the trimmed lines until EOF or a read error. Check Err once
// the loop ends.
func (r *Reader) Lines() iter.Seq[string] {
	return func(yield func(string) bool) {
		for r.sc.Scan() {
			if !yield(strings.TrimSpace(r.sc.Text())) {
				return
			}
		}
	}
}

// Err returns the error that ended Lines, or nil at a clean EOF.
func (r *Reader) Err() error {
	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("read console: %w", err)
	}
	return nil
}

// Watch reads r in its own goroutine and closes the returned channel the
// first time a line equals command. If r ends first the channel never
// closes, leaving shutdown to signals. The goroutine blocks on r and is not
// cancellable.
func Watch(r io.Reader, command string, log *appLog.Logger) <-chan struct{} {
	if command == "" {
		command = DefaultExitCommand
	}
	if log == nil {
		log = appLog.Discard()
	}

	triggered := make(chan struct{})
	go func() {
		in := NewReader(r)
		for line := range in.Lines() {
			if strings.EqualFold(line, command) {
				close(triggered)
				return
			}
			if line != "" {
				log.Debug("ignoring console input", "line", line)
			}
		}
		if err := in.Err(); err != nil {
			log.Error("console input failed; waiting for a signal to shut down", err)
			return
		}
		log.Info("console input closed; waiting for a signal to shut down")
	}()
	return triggered
}

package console

import (
	"bufio"
	"bytes"
	"io"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
)

func TestLinesTrims(t *testing.T) {
	got := slices.Collect(NewReader(strings.NewReader("  hello \n\nexit\r\n last")).Lines())
	assert.Equal(t, []string{"hello", "", "exit", "last"}, got)
}

func TestLinesStopsEarly(t *testing.T) {
	var got []string
	for line := range NewReader(strings.NewReader("a\nb\nc\n")).Lines() {
		got = append(got, line)
		if line == "b" {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestWatchTriggersCaseInsensitively(t *testing.T) {
	for _, input := range []string{"EXIT\n", "exit\n", "status\n  Exit  \n"} {
		ch := Watch(strings.NewReader(input), "", nil)
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("no trigger for %q", input)
		}
	}
}

func TestWatchIgnoresOtherLines(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	ch := Watch(r, "quit", nil)

	_, err := io.WriteString(w, "exit\nexiting\n")
	assert.NoError(t, err)
	select {
	case <-ch:
		t.Fatal("triggered on a non-matching line")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = io.WriteString(w, "QUIT\n")
	assert.NoError(t, err)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("custom command did not trigger")
	}
}

func TestWatchEOFNeverTriggers(t *testing.T) {
	ch := Watch(strings.NewReader("hello\n"), "", nil)
	select {
	case <-ch:
		t.Fatal("EOF must not trigger shutdown")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLinesAcceptsLongLines(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	in := NewReader(strings.NewReader(long + "\nEXIT\n"))
	got := slices.Collect(in.Lines())
	require.NoError(t, in.Err())
	assert.Equal(t, []string{long, "EXIT"}, got)
}

func TestLinesReportsOversizeLine(t *testing.T) {
	in := NewReader(strings.NewReader("first\n" + strings.Repeat("x", MaxLineSize+1) + "\nEXIT\n"))
	got := slices.Collect(in.Lines())
	assert.Equal(t, []string{"first"}, got)
	assert.ErrorIs(t, in.Err(), bufio.ErrTooLong)
}

func TestWatchTriggersAfterLongLine(t *testing.T) {
	ch := Watch(strings.NewReader(strings.Repeat("x", 70*1024)+"\nEXIT\n"), "", nil)
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("exit command after a 70KiB line did not trigger")
	}
}

// lockedBuffer lets the test read what the watcher goroutine logs.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchLogsReadFailure(t *testing.T) {
	var out lockedBuffer
	r, w := io.Pipe()
	ch := Watch(r, "", appLog.NewWriter(&out))
	require.NoError(t, w.CloseWithError(io.ErrClosedPipe))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "console input failed")
	}, time.Second, 5*time.Millisecond)
	select {
	case <-ch:
		t.Fatal("a read failure must not trigger shutdown")
	default:
	}
}

package supervise

import (
	"bytes"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var portRe = regexp.MustCompile(`Listening on port (\d+) for telnet connections`)

func TestWaitForMatched(t *testing.T) {
	pr, pw := io.Pipe()
	var sink bytes.Buffer
	w := NewLineWatcher(pr, &sink)

	go func() {
		io.WriteString(pw, "Open On-Chip Debugger\n")
		io.WriteString(pw, "Listening on port 4444 for telnet connections\n")
	}()

	res := w.WaitFor(portRe, 5*time.Second)
	assert.Equal(t, Matched, res.Outcome)
	require.Len(t, res.Captures, 2)
	assert.Equal(t, "4444", res.Captures[1])
	assert.Equal(t, "Listening on port 4444 for telnet connections", res.Line)

	pw.Close()
	assert.Contains(t, sink.String(), "Open On-Chip Debugger")
}

func TestWaitForTimedOut(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	w := NewLineWatcher(pr, io.Discard)

	start := time.Now()
	res := w.WaitFor(portRe, 50*time.Millisecond)
	assert.Equal(t, TimedOut, res.Outcome)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWaitForEndOfStream(t *testing.T) {
	pr, pw := io.Pipe()
	w := NewLineWatcher(pr, io.Discard)

	go func() {
		io.WriteString(pw, "no markers here\n")
		pw.Close()
	}()

	res := w.WaitFor(portRe, 5*time.Second)
	assert.Equal(t, EndOfStream, res.Outcome)

	select {
	case <-w.EOF():
	case <-time.After(time.Second):
		t.Fatal("EOF channel not closed")
	}
}

func TestWaitForSeesLinesQueuedBeforeWait(t *testing.T) {
	pr, pw := io.Pipe()
	w := NewLineWatcher(pr, io.Discard)

	io.WriteString(pw, "Listening on port 12345 for telnet connections\n")
	time.Sleep(20 * time.Millisecond)

	res := w.WaitFor(portRe, time.Second)
	assert.Equal(t, Matched, res.Outcome)
	assert.Equal(t, "12345", res.Captures[1])
	pw.Close()
}

func TestWaitForUnbounded(t *testing.T) {
	pr, pw := io.Pipe()
	w := NewLineWatcher(pr, io.Discard)

	go func() {
		time.Sleep(100 * time.Millisecond)
		io.WriteString(pw, "Listening on port 7 for telnet connections\n")
	}()

	// timeout <= 0 means no deadline
	res := w.WaitFor(portRe, 0)
	assert.Equal(t, Matched, res.Outcome)
	pw.Close()
}

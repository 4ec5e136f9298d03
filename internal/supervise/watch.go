package supervise

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"time"
)

// WaitOutcome tags the result of a pattern-or-timeout wait.
type WaitOutcome int

const (
	// Matched means a line matching the pattern arrived in time.
	Matched WaitOutcome = iota
	// TimedOut means the deadline passed with no matching line.
	TimedOut
	// EndOfStream means the stream closed before a matching line arrived.
	EndOfStream
)

// WaitResult is the outcome of one wait, with the regexp captures of the
// matching line when Outcome is Matched.
type WaitResult struct {
	Outcome  WaitOutcome
	Line     string
	Captures []string
}

// LineWatcher scans a subprocess output stream line by line in the
// background. Each line is mirrored to the sink and queued for WaitFor. At
// most one WaitFor is outstanding at a time; lines read while no wait is
// pending accumulate in the channel and are examined by the next wait.
type LineWatcher struct {
	lines chan string
	eof   chan struct{}
}

// NewLineWatcher starts scanning r, mirroring every line to sink (pass
// io.Discard to suppress output).
func NewLineWatcher(r io.Reader, sink io.Writer) *LineWatcher {
	w := &LineWatcher{
		lines: make(chan string, 256),
		eof:   make(chan struct{}),
	}
	go w.scan(r, sink)
	return w
}

func (w *LineWatcher) scan(r io.Reader, sink io.Writer) {
	defer close(w.eof)
	defer close(w.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if sink != nil {
			fmt.Fprintln(sink, line)
		}
		w.lines <- line
	}
}

// WaitFor blocks until a line matching re arrives, the timeout elapses, or
// the stream ends, whichever is first. A timeout of zero or less waits
// without a deadline.
func (w *LineWatcher) WaitFor(re *regexp.Regexp, timeout time.Duration) WaitResult {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case line, ok := <-w.lines:
			if !ok {
				return WaitResult{Outcome: EndOfStream}
			}
			if m := re.FindStringSubmatch(line); m != nil {
				return WaitResult{Outcome: Matched, Line: line, Captures: m}
			}
		case <-deadline:
			return WaitResult{Outcome: TimedOut}
		}
	}
}

// Drain consumes remaining lines in the background so the subprocess never
// blocks on a full pipe once no more waits are coming.
func (w *LineWatcher) Drain() {
	go func() {
		for range w.lines {
		}
	}()
}

// EOF returns a channel closed when the underlying stream has ended.
func (w *LineWatcher) EOF() <-chan struct{} {
	return w.eof
}

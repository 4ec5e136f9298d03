package supervise

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// Child is one supervised subprocess with its stdout and stderr merged into
// a single watched line stream.
type Child struct {
	cmd     *exec.Cmd
	Watch   *LineWatcher
	done    chan struct{}
	waitErr error
}

// StartChild spawns name with args, merging its stdout and stderr into a
// LineWatcher that mirrors to sink.
func StartChild(sink io.Writer, name string, args ...string) (*Child, error) {
	cmd := exec.Command(name, args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%s not found", name)
		}
		return nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	c := &Child{
		cmd:   cmd,
		Watch: NewLineWatcher(pr, sink),
		done:  make(chan struct{}),
	}
	go func() {
		c.waitErr = cmd.Wait()
		pw.Close()
		close(c.done)
	}()
	return c, nil
}

// Exited reports whether the process has already terminated.
func (c *Child) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits and returns its wait error.
func (c *Child) Wait() error {
	<-c.done
	return c.waitErr
}

// WaitTimeout waits up to d for the process to exit.
func (c *Child) WaitTimeout(d time.Duration) bool {
	select {
	case <-c.done:
		return true
	case <-time.After(d):
		return false
	}
}

// Interrupt delivers SIGINT, asking the process to shut down in an orderly
// fashion.
func (c *Child) Interrupt() {
	_ = c.cmd.Process.Signal(os.Interrupt)
}

// Kill force-terminates the process. Used when a bounded wait expires: a
// subprocess that missed its deadline must not be left running. Remaining
// output is drained so the exit can be reaped even on a full pipe.
func (c *Child) Kill() {
	_ = c.cmd.Process.Kill()
	if c.Watch != nil {
		c.Watch.Drain()
	}
	<-c.done
}

// Outcome inspects the process's termination. A signal death and a non-zero
// exit code are both errors; a clean zero exit returns nil.
func (c *Child) Outcome(name string) error {
	err := c.Wait()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return fmt.Errorf("%s killed by signal %s", name, ws.Signal())
		}
		return fmt.Errorf("%s exited with code %d", name, exitErr.ExitCode())
	}
	return fmt.Errorf("%s: %w", name, err)
}

// StartTerminalChild spawns name with args for byte-level interaction: its
// merged output is returned as a raw stream instead of a line watcher, and
// its stdin is exposed for the relay. Used for the telnet client, whose
// output carries prompts and control sequences that must not be re-framed
// into lines.
func StartTerminalChild(name string, args ...string) (*Child, io.WriteCloser, io.ReadCloser, error) {
	cmd := exec.Command(name, args...)
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	stdin, err := cmd.StdinPipe()
	if err != nil {
		pw.Close()
		return nil, nil, nil, fmt.Errorf("failed to open stdin of %s: %w", name, err)
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil, nil, fmt.Errorf("%s not found", name)
		}
		return nil, nil, nil, fmt.Errorf("failed to start %s: %w", name, err)
	}

	c := &Child{
		cmd:  cmd,
		done: make(chan struct{}),
	}
	go func() {
		c.waitErr = cmd.Wait()
		pw.Close()
		close(c.done)
	}()
	return c, stdin, pr, nil
}

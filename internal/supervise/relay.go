package supervise

import (
	"io"
	"os"

	"golang.org/x/term"
)

// relayOutcome records which stream ended the interactive session.
type relayOutcome int

const (
	serverClosed relayOutcome = iota
	telnetClosed
)

// relay runs the three-way interactive session: terminal input goes to the
// telnet client, telnet output goes back to the terminal, and the debug
// server's own output keeps draining to the log sink so it cannot corrupt
// the session. The relay ends as soon as either the server stream or the
// telnet stream reaches end-of-stream.
func relay(server *Child, telnetIn io.WriteCloser, telnetOut io.ReadCloser) relayOutcome {
	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		if oldState, err := term.MakeRaw(stdinFd); err == nil {
			defer term.Restore(stdinFd, oldState)
		}
	}

	// user -> telnet; the goroutine unblocks when the process exits
	go func() {
		_, _ = io.Copy(telnetIn, os.Stdin)
		telnetIn.Close()
	}()

	telnetDone := make(chan struct{})
	go func() {
		_, _ = io.Copy(os.Stdout, telnetOut)
		close(telnetDone)
	}()

	select {
	case <-server.Watch.EOF():
		return serverClosed
	case <-telnetDone:
		return telnetClosed
	}
}

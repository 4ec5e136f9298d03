package supervise

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChildOutcomeSuccess(t *testing.T) {
	child, err := StartChild(io.Discard, stub(t, "exit 0"))
	require.NoError(t, err)
	require.NoError(t, child.Outcome("stub"))
	assert.True(t, child.Exited())
}

func TestChildOutcomeExitCode(t *testing.T) {
	child, err := StartChild(io.Discard, stub(t, "exit 2"))
	require.NoError(t, err)

	err = child.Outcome("stub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stub exited with code 2")
}

func TestChildOutcomeSignal(t *testing.T) {
	child, err := StartChild(io.Discard, stub(t, "exec sleep 60"))
	require.NoError(t, err)

	child.Kill()
	err = child.Outcome("stub")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "killed by signal")
}

func TestChildWaitTimeout(t *testing.T) {
	child, err := StartChild(io.Discard, stub(t, "exec sleep 60"))
	require.NoError(t, err)

	assert.False(t, child.Exited())
	assert.False(t, child.WaitTimeout(50*time.Millisecond))

	child.Kill()
	assert.True(t, child.WaitTimeout(5*time.Second))
	assert.True(t, child.Exited())
}

func TestChildInterrupt(t *testing.T) {
	// sh forwards nothing, so run sleep directly to receive the signal
	child, err := StartChild(io.Discard, "sleep", "60")
	require.NoError(t, err)

	child.Interrupt()
	assert.True(t, child.WaitTimeout(5*time.Second))
}

func TestChildMissingBinary(t *testing.T) {
	_, err := StartChild(io.Discard, "definitely-not-a-binary-anywhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRelayServerEOFWins(t *testing.T) {
	server, err := StartChild(io.Discard, stub(t, "exit 0"))
	require.NoError(t, err)

	telnet, telnetIn, telnetOut, err := StartTerminalChild(stub(t, "exec sleep 60"))
	require.NoError(t, err)

	outcome := relay(server, telnetIn, telnetOut)
	assert.Equal(t, serverClosed, outcome)

	telnet.Kill()
}

func TestRelayTelnetEOFWins(t *testing.T) {
	server, err := StartChild(io.Discard, stub(t, "exec sleep 60"))
	require.NoError(t, err)

	telnet, telnetIn, telnetOut, err := StartTerminalChild(stub(t, "exit 0"))
	require.NoError(t, err)

	outcome := relay(server, telnetIn, telnetOut)
	assert.Equal(t, telnetClosed, outcome)

	telnet.Wait()
	server.Kill()
}

// Package supervise spawns the debug server (and, in simulator mode, its
// companion simulator), watches their output for the progress markers that
// gate each stage, and optionally relays an interactive telnet session. A
// single control flow drives everything: at most one pattern-or-timeout wait
// is outstanding at a time.
package supervise

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/zon07/ocdrun/internal/config"
)

var (
	examinedRe    = regexp.MustCompile(`Target successfully examined\.`)
	telnetPortRe  = regexp.MustCompile(`Listening on port (\d+) for telnet connections`)
	bitbangPortRe = regexp.MustCompile(`Listening for remote bitbang connection on port (\d+)`)
)

// Supervisor drives one debug session from spawn to exit-status inspection.
type Supervisor struct {
	Cfg      *config.Config
	Settings config.Settings
	Out      io.Writer
}

// Result carries the ports negotiated during the session, for reporting and
// the session record.
type Result struct {
	RendezvousPort int
	TelnetPort     int
}

// New creates a Supervisor reporting progress to stdout.
func New(cfg *config.Config, settings config.Settings) *Supervisor {
	return &Supervisor{Cfg: cfg, Settings: settings, Out: os.Stdout}
}

// Run executes the session. In simulator mode the simulator is started first
// and must report its rendezvous port before the server's argument list can
// be built, so the assembled argv is produced by the build callback once the
// port is known.
func (s *Supervisor) Run(build func(rendezvousPort int) ([]string, error)) (*Result, error) {
	res := &Result{}
	timeout := time.Duration(s.Cfg.WaitTimeout) * time.Second

	sink, closeSink, err := s.serverSink()
	if err != nil {
		return nil, err
	}
	defer closeSink()

	// The relay loop owns the terminal for its whole duration, so in
	// interactive runs the simulator's chatter joins the server's in the
	// log sink instead of the terminal
	simSink := io.Writer(s.Out)
	if s.Settings.Interactive {
		simSink = sink
	}
	sim, port, err := s.startSimulator(simSink)
	if err != nil {
		return nil, err
	}
	if sim != nil {
		defer func() {
			if !sim.Exited() {
				sim.Kill()
			}
		}()
	}
	res.RendezvousPort = port

	argv, err := build(port)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(s.Out, "Starting debug server: %s\n", s.Cfg.OpenOCD)
	server, err := StartChild(sink, s.Cfg.OpenOCD, argv...)
	if err != nil {
		return nil, err
	}

	// TargetsExamined: skipped entirely when no targets are created
	if !s.Settings.NoTargets {
		switch r := server.Watch.WaitFor(examinedRe, timeout); r.Outcome {
		case TimedOut:
			server.Kill()
			return nil, fmt.Errorf("target examination did not complete within %s", timeout)
		case EndOfStream:
			server.Kill()
			return nil, fmt.Errorf("debug server exited before examining targets")
		}
		fmt.Fprintln(s.Out, "Targets examined")
	}

	if !s.Settings.Interactive {
		server.Watch.Drain()
		return res, server.Outcome("debug server")
	}

	// TelnetNegotiating
	var telnetPort int
	switch r := server.Watch.WaitFor(telnetPortRe, timeout); r.Outcome {
	case TimedOut:
		server.Kill()
		return nil, fmt.Errorf("debug server reported no telnet port within %s", timeout)
	case EndOfStream:
		server.Kill()
		return nil, fmt.Errorf("debug server exited before reporting a telnet port")
	default:
		telnetPort, _ = strconv.Atoi(r.Captures[1])
	}
	res.TelnetPort = telnetPort
	server.Watch.Drain()

	fmt.Fprintf(s.Out, "Connecting to telnet on port %d\n", telnetPort)
	telnet, telnetIn, telnetOut, err := StartTerminalChild(s.Cfg.Telnet, "localhost", strconv.Itoa(telnetPort))
	if err != nil {
		server.Kill()
		return nil, err
	}

	if relay(server, telnetIn, telnetOut) == serverClosed {
		// Server stream ended first, tear the client down first
		if !telnet.Exited() {
			telnet.Kill()
		}
	}
	// The telnet client's own exit status carries no information
	telnet.Wait()

	// Terminating: give the server a grace period, then ask politely and
	// wait it out
	if !server.Exited() {
		grace := time.Duration(s.Cfg.GracePeriod) * time.Second
		if !server.WaitTimeout(grace) {
			server.Interrupt()
			server.Wait()
		}
	}

	return res, server.Outcome("debug server")
}

// startSimulator runs the SimulatorStarting state, mirroring the
// simulator's output to sink. It returns a nil Child when no simulator
// binary is configured; the returned port is the negotiated rendezvous port
// (the pinned one when no simulator is spawned).
func (s *Supervisor) startSimulator(sink io.Writer) (*Child, int, error) {
	if !s.Settings.Sim || s.Settings.SimBin == "" {
		return nil, s.Settings.SimPort, nil
	}

	args := []string{
		"--rbb-port", strconv.Itoa(s.Settings.SimPort),
		"--harts", strconv.Itoa(s.Settings.SimHarts),
	}
	extra := s.Settings.SimArgs
	if len(extra) == 0 {
		extra = s.Cfg.SimArgs
	}
	args = append(args, extra...)
	if s.Settings.SimImage != "" {
		args = append(args, s.Settings.SimImage)
	}

	fmt.Fprintf(s.Out, "Starting simulator: %s\n", s.Settings.SimBin)
	sim, err := StartChild(sink, s.Settings.SimBin, args...)
	if err != nil {
		return nil, 0, err
	}

	// The simulator takes as long as it takes to come up, so this wait has
	// no deadline
	r := sim.Watch.WaitFor(bitbangPortRe, 0)
	if r.Outcome == EndOfStream {
		sim.Kill()
		return nil, 0, fmt.Errorf("simulator exited before reporting its listening port")
	}
	port, _ := strconv.Atoi(r.Captures[1])
	if s.Settings.SimPort > 0 && port != s.Settings.SimPort {
		sim.Kill()
		return nil, 0, fmt.Errorf("simulator bound port %d, expected pinned port %d", port, s.Settings.SimPort)
	}
	sim.Watch.Drain()

	fmt.Fprintf(s.Out, "Simulator listening on port %d\n", port)
	return sim, port, nil
}

// serverSink decides where the debug server's output goes. Interactive runs
// divert it to the session log (or discard it) so the telnet session owns
// the terminal; non-interactive runs print it, mirrored to the log when one
// was requested.
func (s *Supervisor) serverSink() (io.Writer, func(), error) {
	noop := func() {}
	if s.Settings.LogPath == "" {
		if s.Settings.Interactive {
			return io.Discard, noop, nil
		}
		return os.Stdout, noop, nil
	}

	f, err := os.Create(s.Settings.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create session log %s: %w", s.Settings.LogPath, err)
	}
	closeFn := func() { f.Close() }
	if s.Settings.Interactive {
		return f, closeFn, nil
	}
	return io.MultiWriter(os.Stdout, f), closeFn, nil
}

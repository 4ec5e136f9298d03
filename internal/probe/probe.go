// Package probe counts the hardware-debug TAPs on the scan chain by running
// the debug driver once with a minimal, side-effect-free script.
package probe

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/zon07/ocdrun/internal/adapter"
	"github.com/zon07/ocdrun/internal/config"
	"github.com/zon07/ocdrun/internal/supervise"
)

var tapCountRe = regexp.MustCompile(`detected number of taps: (\d+)`)

// Prober runs the scan pass.
type Prober struct {
	Cfg *config.Config
	Out io.Writer
}

// New creates a Prober reporting progress to stdout.
func New(cfg *config.Config) *Prober {
	return &Prober{Cfg: cfg, Out: os.Stdout}
}

// TapCount returns the number of TAPs visible behind the resolved adapter.
// In simulator mode the count is fixed at 1 and nothing is spawned. The scan
// runs at the default safe speed, or the operator-requested speed when that
// is lower, and is bound to the adapter's serial so a multi-adapter host
// scans the right chain.
func (p *Prober) TapCount(configPath string, rec adapter.Record, settings config.Settings) (int, error) {
	if settings.Sim {
		return 1, nil
	}

	speed := p.Cfg.DefaultSpeed
	if settings.Speed > 0 && settings.Speed < speed {
		speed = settings.Speed
	}

	args := []string{
		"-f", configPath,
		"-c", "transport select jtag",
		"-c", fmt.Sprintf("adapter speed %d", speed),
	}
	if rec.HasSerial() {
		args = append(args, "-c", "adapter serial "+rec.Serial)
	}
	args = append(args,
		"-c", "init",
		"-c", `echo "detected number of taps: [llength [jtag names]]"`,
		"-c", "shutdown",
	)

	child, err := supervise.StartChild(io.Discard, p.Cfg.OpenOCD, args...)
	if err != nil {
		return 0, err
	}

	timeout := time.Duration(p.Cfg.WaitTimeout) * time.Second
	res := child.Watch.WaitFor(tapCountRe, timeout)
	child.Watch.Drain()
	switch res.Outcome {
	case supervise.TimedOut:
		child.Kill()
		return 0, fmt.Errorf("tap scan produced no count within %s", timeout)
	case supervise.EndOfStream:
		child.Kill()
		return 0, fmt.Errorf("debug driver exited before reporting a tap count")
	}

	count, err := strconv.Atoi(res.Captures[1])
	if err != nil {
		child.Kill()
		return 0, fmt.Errorf("malformed tap count %q", res.Captures[1])
	}

	// The scan script shuts the driver down on its own
	child.Wait()

	if count == 0 {
		return 0, fmt.Errorf("no taps detected - check the adapter selection and power-cycle the board")
	}
	fmt.Fprintf(p.Out, "Detected %d tap(s) on the scan chain\n", count)
	return count, nil
}

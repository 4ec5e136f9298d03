package config

import (
	"errors"
	"fmt"
)

// Settings holds the parsed options of a single run. It is populated from
// command-line flags, validated once, and never mutated afterwards; every
// pipeline stage receives it by value.
type Settings struct {
	Interactive bool // relay a telnet session after the server is up
	AutoConfig  bool // narrow candidates to the known-supported allow-list

	Serial       string // select the adapter with this exact serial
	AdapterIndex int    // select the adapter at this enumeration index, -1 when unset

	ConfigOverride string // explicit interface config; "-" prompts for a path
	StandDB        string // stand database path; os.DevNull disables it

	Sim      bool     // drive a simulator instead of hardware
	SimBin   string   // simulator binary; empty means an external one is already running
	SimImage string   // target image handed to the simulator
	SimHarts int      // hart count in simulator mode
	SimPort  int      // pinned rendezvous port, 0 lets the simulator choose
	SimArgs  []string // extra simulator arguments, replacing the configured defaults

	Speed      int    // adapter speed override in kHz, 0 keeps the default
	SMP        bool   // emit the SMP-combination directive
	SingleCore bool   // clamp the hart count to 1
	BindAddr   string // network bind address for the server's listeners
	NoTargets  bool   // skip creating debugger targets
	Verbosity  int    // repeat count of -v: 0 default, 1 elevated, >=2 maximal
	LogPath    string // mirror server output to this file during the relay

	HookScript string   // operator configuration hook, sourced late
	Cloak      bool     // load the register-visibility cloak script
	Helpers    bool     // load the auxiliary helper-library scripts
	Commands   []string // extra run commands or script files, kept in order
}

// Validate checks cross-field invariants. Mutually dependent options are
// rejected here, before any subprocess is spawned.
func (s *Settings) Validate() error {
	if s.Serial != "" && s.AdapterIndex >= 0 {
		return errors.New("--serial and --adapter are mutually exclusive")
	}
	if !s.Sim {
		switch {
		case s.SimBin != "":
			return fmt.Errorf("--sim-bin requires --sim")
		case s.SimImage != "":
			return fmt.Errorf("--sim-image requires --sim")
		case s.SimHarts != 0:
			return fmt.Errorf("--sim-harts requires --sim")
		case s.SimPort != 0:
			return fmt.Errorf("--sim-port requires --sim")
		case len(s.SimArgs) > 0:
			return fmt.Errorf("--sim-arg requires --sim")
		}
	}
	if s.Sim && s.SimHarts <= 0 {
		return errors.New("simulator mode requires a positive --sim-harts")
	}
	if s.Sim && s.SimPort < 0 {
		return errors.New("--sim-port must not be negative")
	}
	if s.Speed < 0 {
		return errors.New("--speed must not be negative")
	}
	if s.Verbosity < 0 || s.Verbosity > 2 {
		return errors.New("at most two -v flags are supported")
	}
	return nil
}

// Package assemble builds the full debug-server argument list. Build is a
// pure function of its inputs: given the same settings it produces the same
// argv, byte for byte. Flag groups are order-significant because later
// directives override earlier server-side state.
package assemble

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zon07/ocdrun/internal/adapter"
	"github.com/zon07/ocdrun/internal/config"
)

// Build assembles the argv (after the binary name) for the full debug-server
// invocation. rendezvousPort is only meaningful in simulator mode, where it
// must already be negotiated with the simulator.
func Build(configPath string, rec adapter.Record, tapCount, rendezvousPort int, settings config.Settings, cfg *config.Config) ([]string, error) {
	var args []string

	targetScript, err := locateScript(cfg, cfg.TargetConfig)
	if err != nil {
		return nil, err
	}

	if settings.Sim {
		if rendezvousPort <= 0 {
			return nil, fmt.Errorf("simulator mode requires a positive rendezvous port")
		}
		if settings.SimHarts <= 0 {
			return nil, fmt.Errorf("simulator mode requires a positive hart count")
		}
		args = append(args,
			"-c", "adapter driver remote_bitbang",
			"-c", "remote_bitbang host localhost",
			"-c", fmt.Sprintf("remote_bitbang port %d", rendezvousPort),
			"-f", targetScript,
			// 0 lets the server auto-assign, keeping parallel sessions
			// off each other's default ports
			"-c", "gdb_port 0",
			"-c", "telnet_port 0",
			"-c", "tcl_port 0",
			"-c", "set one_tap_per_target 1",
			"-c", fmt.Sprintf("set harts_num %d", clampHarts(settings.SimHarts, settings)),
		)
	} else {
		if err := requireFile(configPath, "interface config"); err != nil {
			return nil, err
		}
		args = append(args,
			"-f", configPath,
			"-c", "transport select jtag",
			"-c", fmt.Sprintf("adapter speed %d", cfg.DefaultSpeed),
		)
		if rec.HasSerial() {
			args = append(args, "-c", "adapter serial "+rec.Serial)
		}
		args = append(args,
			"-f", targetScript,
			"-c", fmt.Sprintf("set harts_num %d", clampHarts(tapCount, settings)),
		)
	}

	if settings.Helpers {
		for _, helper := range cfg.Helpers {
			path, err := locateScript(cfg, helper)
			if err != nil {
				return nil, err
			}
			args = append(args, "-f", path)
		}
	}

	if settings.Cloak {
		path, err := locateScript(cfg, cfg.CloakConfig)
		if err != nil {
			return nil, err
		}
		args = append(args, "-f", path)
	}

	if settings.Speed > 0 {
		args = append(args, "-c", fmt.Sprintf("adapter speed %d", settings.Speed))
	}

	if settings.SMP {
		args = append(args, "-c", "smp_configuration")
	}

	if settings.BindAddr != "" {
		args = append(args, "-c", "bindto "+settings.BindAddr)
	}

	if settings.HookScript != "" {
		if err := requireFile(settings.HookScript, "hook script"); err != nil {
			return nil, err
		}
		args = append(args, "-f", settings.HookScript)
	}

	if settings.NoTargets {
		args = append(args, "-c", "set skip_targets_create 1")
	}

	switch settings.Verbosity {
	case 1:
		args = append(args, "-d2")
	case 2:
		args = append(args, "-d3")
	}

	args = append(args, "-c", "init")

	// Operator-supplied extras run last, in the order given: a file is
	// sourced, anything else is passed through as a command
	for _, extra := range settings.Commands {
		if path, err := locateScript(cfg, extra); err == nil {
			args = append(args, "-f", path)
		} else {
			args = append(args, "-c", extra)
		}
	}

	return args, nil
}

func clampHarts(n int, settings config.Settings) int {
	if settings.SingleCore {
		return 1
	}
	return n
}

// locateScript resolves a script path the way the server itself would:
// absolute paths are taken as-is, relative ones are looked up under the
// scripts directory. The file must exist.
func locateScript(cfg *config.Config, path string) (string, error) {
	if filepath.IsAbs(path) {
		if err := requireFile(path, "script"); err != nil {
			return "", err
		}
		return path, nil
	}
	full := filepath.Join(cfg.ScriptsDir, path)
	if err := requireFile(full, "script"); err != nil {
		return "", err
	}
	return full, nil
}

func requireFile(path, what string) error {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%s %s does not exist", what, path)
	}
	return nil
}

package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/zon07/ocdrun/internal/adapter"
	"github.com/zon07/ocdrun/internal/assemble"
	"github.com/zon07/ocdrun/internal/config"
	"github.com/zon07/ocdrun/internal/probe"
	"github.com/zon07/ocdrun/internal/resolver"
	"github.com/zon07/ocdrun/internal/session"
	"github.com/zon07/ocdrun/internal/standdb"
	"github.com/zon07/ocdrun/internal/supervise"
)

var runSettings config.Settings

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a supervised debug session",
	Long: `Start a debug session against the attached target.

The command enumerates attached debug adapters, picks one, resolves its
interface configuration (stand database, built-in patterns or an explicit
override), probes the scan chain for the number of TAPs, assembles the
debug-server command line and supervises the resulting process. With
--interactive a telnet session is relayed to the terminal once the server
is up.

Examples:
  ocdrun run
  ocdrun run --serial FT6RXCJA --interactive
  ocdrun run --auto-config --smp
  ocdrun run --sim --sim-bin riscv-sim --sim-harts 4 --sim-image app.elf`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.BoolVarP(&runSettings.Interactive, "interactive", "i", false, "relay an interactive telnet session")
	f.BoolVar(&runSettings.AutoConfig, "auto-config", false, "only consider known-supported adapters")
	f.StringVar(&runSettings.Serial, "serial", "", "select the adapter with this serial")
	f.IntVar(&runSettings.AdapterIndex, "adapter", -1, "select the adapter at this index")
	f.StringVar(&runSettings.ConfigOverride, "interface-config", "", "interface config path ('-' to prompt)")
	f.StringVar(&runSettings.StandDB, "stand-db", "", "stand database path (/dev/null disables)")
	f.BoolVar(&runSettings.Sim, "sim", false, "drive a simulator instead of hardware")
	f.StringVar(&runSettings.SimBin, "sim-bin", "", "simulator binary to spawn")
	f.StringVar(&runSettings.SimImage, "sim-image", "", "target image for the simulator")
	f.IntVar(&runSettings.SimHarts, "sim-harts", 0, "hart count in simulator mode")
	f.IntVar(&runSettings.SimPort, "sim-port", 0, "pin the rendezvous port (0 = simulator chooses)")
	f.StringArrayVar(&runSettings.SimArgs, "sim-arg", nil, "extra simulator argument (repeatable)")
	f.IntVar(&runSettings.Speed, "speed", 0, "adapter speed override in kHz")
	f.BoolVar(&runSettings.SMP, "smp", false, "combine harts into one SMP group")
	f.BoolVar(&runSettings.SingleCore, "single-core", false, "expose a single hart regardless of topology")
	f.StringVar(&runSettings.BindAddr, "bind", "", "bind address for the server's listeners")
	f.BoolVar(&runSettings.NoTargets, "no-targets", false, "skip creating debugger targets")
	f.CountVarP(&runSettings.Verbosity, "verbose", "v", "raise server verbosity (repeatable)")
	f.StringVar(&runSettings.LogPath, "log", "", "mirror server output to this file")
	f.StringVar(&runSettings.HookScript, "hook", "", "configuration hook script, sourced late")
	f.BoolVar(&runSettings.Cloak, "cloak", false, "load the register-visibility cloak script")
	f.BoolVar(&runSettings.Helpers, "helpers", false, "load the auxiliary helper scripts")
	f.StringArrayVar(&runSettings.Commands, "cmd", nil, "extra run command or script (repeatable, kept in order)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	settings := runSettings
	if err := settings.Validate(); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	Debug("Config loaded, scripts dir %s", cfg.ScriptsDir)

	dbPath := settings.StandDB
	if dbPath == "" {
		dbPath = cfg.StandDB
	}
	db, err := standdb.Load(dbPath)
	if err != nil {
		return err
	}
	Debug("Stand database: %d entry(ies) from %s", db.Len(), dbPath)

	var (
		rec        adapter.Record
		configPath string
	)
	if !settings.Sim {
		records, err := adapter.NewInventory().Enumerate()
		if err != nil {
			return err
		}
		Debug("Enumerated %d adapter(s)", len(records))

		res := resolver.New(cfg, db)
		candidates := res.Narrow(records, settings)
		idx, err := res.SelectAdapter(candidates, settings)
		if err != nil {
			return err
		}
		rec = candidates[idx]
		fmt.Printf("Using adapter %s (serial %s)\n", rec.Description, rec.Serial)

		configPath, err = res.ResolveConfig(rec, settings)
		if err != nil {
			return err
		}
		fmt.Printf("Interface config: %s\n", configPath)
	}

	tapCount, err := probe.New(cfg).TapCount(configPath, rec, settings)
	if err != nil {
		return err
	}

	sessionRec := &session.Record{
		ID:            uuid.NewString(),
		AdapterSerial: rec.Serial,
		AdapterDesc:   rec.Description,
		ConfigPath:    configPath,
		TapCount:      tapCount,
		Simulator:     settings.Sim,
		StartedAt:     time.Now(),
	}

	sup := supervise.New(cfg, settings)
	result, runErr := sup.Run(func(rendezvousPort int) ([]string, error) {
		argv, err := assemble.Build(configPath, rec, tapCount, rendezvousPort, settings, cfg)
		if err == nil {
			sessionRec.Args = argv
			Debug("Assembled argv: %v", argv)
		}
		return argv, err
	})

	now := time.Now()
	sessionRec.StoppedAt = &now
	sessionRec.ExitReason = "ok"
	if runErr != nil {
		sessionRec.ExitReason = "failed"
	}
	if result != nil {
		sessionRec.RendezvousPort = result.RendezvousPort
		sessionRec.TelnetPort = result.TelnetPort
	}
	if store, storeErr := session.NewStore(); storeErr == nil {
		if saveErr := store.Save(sessionRec); saveErr != nil {
			Debug("Failed to save session: %v", saveErr)
		}
	}

	if runErr != nil {
		return runErr
	}
	fmt.Println("Debug session finished")
	return nil
}

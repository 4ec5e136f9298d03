package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zon07/ocdrun/internal/config"
)

var (
	cfgFile string
	debug   bool
)

// Debug prints a message if debug mode is enabled
func Debug(format string, args ...interface{}) {
	if debug {
		fmt.Printf("[DEBUG] "+format+"\n", args...)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ocdrun",
	Short: "ocdrun - debug-server launcher for RISC-V targets",
	Long: `ocdrun discovers attached debug adapters, resolves each to its
interface configuration, probes the scan chain and launches a supervised
OpenOCD session against the target (or a simulator).

Start a debug session:
  ocdrun run
  ocdrun run --interactive
  ocdrun run --sim --sim-bin riscv-sim --sim-harts 2 --sim-image fw.elf

Inspect the bench:
  ocdrun adapters
  ocdrun sessions`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.ocdrun/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	// Config is loaded on-demand in subcommands; only the explicit file
	// override needs registering up front
	config.SetFile(cfgFile)
}

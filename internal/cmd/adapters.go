package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zon07/ocdrun/internal/adapter"
	"github.com/zon07/ocdrun/internal/config"
	"github.com/zon07/ocdrun/internal/standdb"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List attached debug adapters",
	Long: `List attached debug adapters with their serials and, when a stand
database is configured, the interface config each serial maps to. Useful
when preparing a stand database for a new bench.`,
	RunE: runAdapters,
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}

func runAdapters(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := standdb.Load(cfg.StandDB)
	if err != nil {
		return err
	}

	records, err := adapter.NewInventory().Enumerate()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No debug adapters found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tSERIAL\tBUS:DEV\tDESCRIPTION\tSTAND CONFIG")
	for i, rec := range records {
		standCfg := "-"
		if rec.HasSerial() {
			if mapped, ok := db.Lookup(rec.Serial); ok {
				standCfg = mapped
			}
		}
		fmt.Fprintf(w, "%d\t%s\t%s:%s\t%s\t%s\n",
			i, rec.Serial, rec.BusID, rec.DeviceID, rec.Description, standCfg)
	}
	return w.Flush()
}

package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zon07/ocdrun/internal/session"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List recorded debug sessions",
	RunE:  runSessions,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}

	records, err := store.List()
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("No recorded sessions.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tADAPTER\tCONFIG\tTAPS\tRESULT")
	for _, rec := range records {
		target := rec.AdapterDesc
		if rec.Simulator {
			target = "simulator"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			rec.StartedAt.Format("2006-01-02 15:04:05"),
			target, rec.ConfigPath, rec.TapCount, rec.ExitReason)
	}
	return w.Flush()
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zon07/ocdrun/internal/session"
)

var pruneAll bool

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove recorded debug sessions",
	Long: `Remove session records from the store.

By default only sessions that ended in failure are removed; pass --all to
clear every record.`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().BoolVarP(&pruneAll, "all", "a", false, "remove all session records, not just failed ones")
}

func runPrune(cmd *cobra.Command, args []string) error {
	store, err := session.NewStore()
	if err != nil {
		return fmt.Errorf("failed to access session store: %w", err)
	}
	Debug("Pruning session store at %s", store.Dir())

	removed, err := store.Prune(pruneAll)
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}
	if removed == 0 {
		fmt.Println("No sessions to remove.")
		return nil
	}
	fmt.Printf("Removed %d session(s).\n", removed)
	return nil
}

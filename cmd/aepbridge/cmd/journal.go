package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and prune the call journal",
}

var journalLimit int

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the most recent calls as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if journalLimit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}
		database, queries, _, err := openStore()
		if err != nil {
			return err
		}
		defer database.Close()

		calls, err := queries.RecentCalls(cmd.Context(), journalLimit)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, c := range calls {
			if err := enc.Encode(c); err != nil {
				return err
			}
		}
		return nil
	},
}

var journalOlderThan time.Duration

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete journaled calls older than --older-than",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if journalOlderThan <= 0 {
			return fmt.Errorf("--older-than must be positive")
		}
		database, queries, _, err := openStore()
		if err != nil {
			return err
		}
		defer database.Close()

		n, err := queries.PruneCalls(cmd.Context(), time.Now().Add(-journalOlderThan))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pruned %d calls\n", n)
		return nil
	},
}

func init() {
	journalListCmd.Flags().IntVar(&journalLimit, "limit", 50, "number of calls to print")
	journalPruneCmd.Flags().DurationVar(&journalOlderThan, "older-than", 30*24*time.Hour, "retention window")
	journalCmd.AddCommand(journalListCmd, journalPruneCmd)
	rootCmd.AddCommand(journalCmd)
}

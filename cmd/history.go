package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ashfaaq98/threat-aggregator/internal/store"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived pipeline runs",
	Long: `List pipeline runs recorded in the SQLite archive, most recent first.

Example:
  threat-aggregator history --limit 10`,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := GetConfig()

	st, err := store.NewStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	runs, err := st.ListRuns(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs")
		return nil
	}

	fmt.Printf("%-36s  %-10s  %-9s  %-9s  %-19s  %s\n", "RUN", "STATUS", "STRATEGY", "PERIOD", "STARTED", "ORGS")
	for _, run := range runs {
		fmt.Printf("%-36s  %-10s  %-9s  %-9s  %-19s  %s\n",
			run.ID, run.Status, run.Strategy, run.Period,
			run.StartedAt.Format("2006-01-02 15:04:05"),
			strings.Join(run.Orgs, ","))
	}
	return nil
}

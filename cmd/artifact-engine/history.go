// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent pipeline runs",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	runs, err := db.Runs(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tDURATION\tGENERATED\tMERGED\tFAILED\tSKIPPED")
	for _, r := range runs {
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		if r.NoChanges {
			fmt.Fprintf(tw, "%s\t%s\t%s\tno changes\t\t\t\n", id, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n", id, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond), r.Generated, r.Merged, r.Failed, r.Skipped)
	}
	return tw.Flush()
}

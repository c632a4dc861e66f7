package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Render the walk's timeline, totals, and remaining open issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := st.Snapshot(time.Now())
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, report.RenderSummary(snapshot, snapshot.Walk.Status, snapshot.Walk.FinishReason))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

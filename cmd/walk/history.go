package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/report"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List closed issues newest-first",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := st.Snapshot(time.Now())
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, report.RenderHistory(snapshot, historyLimit))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max entries to show (0 for unlimited)")
	rootCmd.AddCommand(historyCmd)
}

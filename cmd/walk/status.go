package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/report"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the walk's current open/closed/ready/blocked counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := st.Snapshot(time.Now())
		if err != nil {
			return err
		}
		fmt.Fprint(os.Stdout, report.RenderStatus(snapshot))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

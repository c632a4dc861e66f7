package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <slug>",
	Short: "Show one issue's full record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		issue, err := st.Show(args[0])
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Fprintf(os.Stdout, "%s\n", cyan(issue.Slug))
		fmt.Fprintf(os.Stdout, "title:    %s\n", issue.Title)
		fmt.Fprintf(os.Stdout, "status:   %s\n", issue.Status)
		fmt.Fprintf(os.Stdout, "type:     %s\n", issue.Type)
		fmt.Fprintf(os.Stdout, "priority: %d\n", issue.Priority)
		if len(issue.BlockedBy) > 0 {
			fmt.Fprintf(os.Stdout, "blocked_by: %v\n", issue.BlockedBy)
		}
		if len(issue.DerivedFrom) > 0 {
			fmt.Fprintf(os.Stdout, "derived_from: %v\n", issue.DerivedFrom)
		}
		if issue.BlockedByDriver {
			fmt.Fprintln(os.Stdout, "blocked_by_driver: true")
		}
		if issue.ClosedAt != nil {
			fmt.Fprintf(os.Stdout, "closed_at: %s\n", issue.ClosedAt.Format("2006-01-02 15:04:05"))
			fmt.Fprintf(os.Stdout, "signal:    %s\n", issue.Signal)
			fmt.Fprintf(os.Stdout, "reason:    %s\n", issue.CloseReason)
		}
		fmt.Fprintf(os.Stdout, "runs:     %d\n", len(issue.Runs))
		fmt.Fprintln(os.Stdout)
		fmt.Fprintln(os.Stdout, issue.Body)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
}

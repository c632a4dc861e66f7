package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/types"
)

var listStatus string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List issues, optionally filtered by status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var status types.Status
		switch listStatus {
		case "", "all":
			status = ""
		case "open":
			status = types.StatusOpen
		case "closed":
			status = types.StatusClosed
		default:
			return fmt.Errorf("unknown status %q (want open, closed, or all)", listStatus)
		}

		issues, err := st.List(status)
		if err != nil {
			return err
		}

		yellow := color.New(color.FgYellow).SprintFunc()
		for _, issue := range issues {
			marker := " "
			if issue.BlockedByDriver {
				marker = yellow("!")
			}
			fmt.Fprintf(os.Stdout, "%s %-24s [%-6s] p%-2d %s\n", marker, issue.Slug, issue.Status, issue.Priority, issue.Title)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "all", "open, closed, or all")
	rootCmd.AddCommand(listCmd)
}

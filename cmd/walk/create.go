package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/types"
)

var (
	createType       string
	createPriority   int
	createBlockedBy  []string
	createDerivedFrom []string
)

var createCmd = &cobra.Command{
	Use:   "create <slug> <title> [body...]",
	Short: "Create a new open issue",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slug, title := args[0], args[1]
		body := strings.Join(args[2:], " ")

		issue := types.Issue{
			Slug:        slug,
			Title:       title,
			Body:        body,
			Type:        createType,
			Priority:    createPriority,
			BlockedBy:   createBlockedBy,
			DerivedFrom: createDerivedFrom,
		}
		created, err := st.Create(issue)
		if err != nil {
			return err
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(os.Stdout, "%s created %s\n", green("✓"), created.Slug)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createType, "type", "task", "issue type (\"epic\" is a reserved container type)")
	createCmd.Flags().IntVar(&createPriority, "priority", 0, "priority (lower sorts first)")
	createCmd.Flags().StringSliceVar(&createBlockedBy, "blocked-by", nil, "slugs this issue is blocked on")
	createCmd.Flags().StringSliceVar(&createDerivedFrom, "derived-from", nil, "parent slugs this issue was derived from")
	rootCmd.AddCommand(createCmd)
}

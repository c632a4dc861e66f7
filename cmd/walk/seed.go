package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/types"
)

// seedCmd runs an interactive session for hand-authoring the issues a
// walk starts with, before any planner has run.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Interactively author seed issues before the first planning round",
	RunE: func(cmd *cobra.Command, args []string) error {
		rl, err := readline.NewEx(&readline.Config{
			Prompt:      "walk seed> ",
			HistoryFile: "",
		})
		if err != nil {
			return fmt.Errorf("starting readline: %w", err)
		}
		defer rl.Close()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		fmt.Fprintln(os.Stdout, faint("one issue at a time: slug, title, type, priority, body (blank line ends body). type 'done' at the slug prompt to finish."))

		for {
			rl.SetPrompt("slug (or 'done')> ")
			slug, err := rl.Readline()
			if err != nil {
				return nil
			}
			slug = strings.TrimSpace(slug)
			if slug == "" {
				continue
			}
			if slug == "done" {
				return nil
			}

			rl.SetPrompt("title> ")
			title, err := rl.Readline()
			if err != nil {
				return nil
			}

			rl.SetPrompt("type [task]> ")
			issueType, err := rl.Readline()
			if err != nil {
				return nil
			}
			issueType = strings.TrimSpace(issueType)
			if issueType == "" {
				issueType = "task"
			}

			rl.SetPrompt("priority [0]> ")
			priorityStr, err := rl.Readline()
			if err != nil {
				return nil
			}
			priority := 0
			if strings.TrimSpace(priorityStr) != "" {
				p, convErr := strconv.Atoi(strings.TrimSpace(priorityStr))
				if convErr != nil {
					fmt.Fprintln(os.Stdout, red("not a number, using priority 0"))
				} else {
					priority = p
				}
			}

			var bodyLines []string
			rl.SetPrompt("body (blank line ends)> ")
			for {
				line, err := rl.Readline()
				if err != nil || strings.TrimSpace(line) == "" {
					break
				}
				bodyLines = append(bodyLines, line)
			}

			issue := types.Issue{
				Slug:     slug,
				Title:    title,
				Body:     strings.Join(bodyLines, "\n"),
				Type:     issueType,
				Priority: priority,
			}
			created, err := st.Create(issue)
			if err != nil {
				fmt.Fprintln(os.Stdout, red("failed: "+err.Error()))
				continue
			}
			fmt.Fprintf(os.Stdout, "%s seeded %s\n", green("✓"), created.Slug)
		}
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

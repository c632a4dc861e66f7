// Command walk is the CLI and driver entry point for the investigation
// driver: walk drive runs the main loop; the remaining subcommands are
// thin shells over internal/store.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/store"
)

var (
	walkDir string
	st      *store.Store
)

var rootCmd = &cobra.Command{
	Use:   "walk",
	Short: "Drive an autonomous investigation over a filesystem-backed issue store",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if walkDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			walkDir = wd
		}
		s, err := store.New(walkDir)
		if err != nil {
			return fmt.Errorf("opening walk at %s: %w", walkDir, err)
		}
		st = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&walkDir, "dir", "", "walk directory (defaults to the current directory)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

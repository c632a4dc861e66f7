package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/basketlab/walkdrv/internal/driver"
)

var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Run the driver loop against this walk until it stalls, completes, stops, or a restart is requested",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		d, err := driver.New(walkDir)
		if err != nil {
			return fmt.Errorf("starting driver: %w", err)
		}
		code := d.Run(ctx)
		if code == driver.RestartExitCode {
			fmt.Fprintln(os.Stderr, "restart requested")
		}
		os.Exit(code)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(driveCmd)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"jobtrack-backend/internal/app"
	"jobtrack-backend/pkg/config"

	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	tracker    *app.App
	stop       context.CancelFunc
)

var rootCmd = &cobra.Command{
	Use:           "jobtrackctl",
	Short:         "jobtrackctl - operate the job application tracker",
	Long:          "Operator commands for Gmail watches, mailbox setup and history replay.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		stop = cancel
		cmd.SetContext(ctx)

		var err error
		tracker, err = app.New(ctx, config.Load())
		if err != nil {
			return fmt.Errorf("init: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if tracker != nil {
			tracker.Close()
		}
		if stop != nil {
			stop()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	rootCmd.AddCommand(refreshWatchesCmd)
	rootCmd.AddCommand(setupLabelCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "jobtrackctl: %v\n", err)
		os.Exit(1)
	}
}

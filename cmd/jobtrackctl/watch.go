package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const defaultFilterQuery = `subject:(application OR applied OR interview OR offer OR "thank you for applying")`

var refreshWatchesCmd = &cobra.Command{
	Use:   "refresh-watches",
	Short: "Renew Gmail watches that are missing or about to expire",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := tracker.Watch.RefreshAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("refresh watches: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		fmt.Printf("checked:        %d\n", stats.Checked)
		fmt.Printf("candidates:     %d\n", stats.Candidates)
		fmt.Printf("refreshed:      %d\n", stats.Refreshed)
		fmt.Printf("invalid tokens: %d\n", stats.InvalidTokens)
		fmt.Printf("errors:         %d\n", stats.Errors)
		fmt.Printf("duration:       %dms\n", stats.DurationMS)
		return nil
	},
}

var (
	setupUserID string
	setupLabel  string
	setupQuery  string
)

var setupLabelCmd = &cobra.Command{
	Use:   "setup-label",
	Short: "Create the tracking label and filter, then start the watch for one account",
	RunE: func(cmd *cobra.Command, args []string) error {
		label := setupLabel
		if label == "" {
			label = tracker.Config.JobLabelName
		}

		labelID, err := tracker.Watch.SetupMailbox(cmd.Context(), setupUserID, label, setupQuery)
		if err != nil {
			return fmt.Errorf("setup mailbox: %w", err)
		}

		if jsonOutput {
			return json.NewEncoder(os.Stdout).Encode(map[string]string{
				"user_id":  setupUserID,
				"label":    label,
				"label_id": labelID,
			})
		}
		fmt.Printf("Label %q (%s) ready for user %s\n", label, labelID, setupUserID)
		return nil
	},
}

func init() {
	setupLabelCmd.Flags().StringVar(&setupUserID, "user", "", "User id of the linked Gmail account")
	setupLabelCmd.Flags().StringVar(&setupLabel, "label", "", "Label name (default: JOB_LABEL_NAME)")
	setupLabelCmd.Flags().StringVar(&setupQuery, "query", defaultFilterQuery, "Gmail search query for the filter")
	_ = setupLabelCmd.MarkFlagRequired("user")
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

type replayOutput struct {
	UserID    string         `json:"user_id"`
	Refs      int            `json:"refs"`
	Outcomes  map[string]int `json:"outcomes"`
	Failed    []replayFail   `json:"failed,omitempty"`
	NewCursor string         `json:"new_cursor"`
}

type replayFail struct {
	MessageID string `json:"message_id"`
	Error     string `json:"error"`
}

var (
	replayEmail string
	replaySince string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Reprocess a mailbox's history from a given history id",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := strconv.ParseUint(replaySince, 10, 64); err != nil {
			return fmt.Errorf("--since must be a numeric history id: %q", replaySince)
		}

		res, err := tracker.Dispatcher.Replay(cmd.Context(), replayEmail, replaySince)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		if res == nil {
			return fmt.Errorf("no usable Gmail account for %s", replayEmail)
		}

		out := replayOutput{
			UserID:    res.UserID,
			Refs:      res.Refs,
			Outcomes:  make(map[string]int),
			NewCursor: res.NewCursor,
		}
		for _, o := range res.Outcomes {
			out.Outcomes[string(o.Status)]++
		}
		for _, f := range res.Failed {
			out.Failed = append(out.Failed, replayFail{MessageID: f.MessageID, Error: f.Err.Error()})
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		}

		fmt.Printf("user %s: %d refs, cursor now %s\n", out.UserID, out.Refs, out.NewCursor)
		for status, n := range out.Outcomes {
			fmt.Printf("  %-10s %d\n", status, n)
		}
		for _, f := range out.Failed {
			fmt.Printf("  failed %s: %s\n", f.MessageID, f.Error)
		}
		if len(out.Failed) > 0 {
			return fmt.Errorf("%d messages failed", len(out.Failed))
		}
		return nil
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayEmail, "email", "", "Gmail address of the account")
	replayCmd.Flags().StringVar(&replaySince, "since", "", "History id to replay from")
	_ = replayCmd.MarkFlagRequired("email")
	_ = replayCmd.MarkFlagRequired("since")
}
